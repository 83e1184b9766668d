// Package prober implements the measuring side of the probe exchange: it
// multicasts sequenced requests on a fixed interval, waits a bounded time for
// the matching acknowledgment, and accumulates delivery statistics.
package prober

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"mcping/internal/group"
	"mcping/internal/metrics"
	"mcping/internal/model"
	"mcping/internal/wire"
)

// reportInterval paces the running-stats log line.
const reportInterval = 5 * time.Second

// Config carries the tunable parameters of one prober run.
type Config struct {
	// Interval between request emissions.
	Interval time.Duration
	// Timeout is the per-request wait bound for the acknowledgment.
	Timeout time.Duration
	// Count limits the number of iterations; 0 means run until canceled.
	Count int
	// MetricsPath, when set, receives one CSV record per iteration.
	MetricsPath string
}

// Prober drives the measurement loop and correlates acknowledgments to the
// single outstanding request.
type Prober struct {
	conn    group.Conn
	cfg     Config
	session *metrics.Session
	log     *logrus.Logger

	nextSeq    uint32
	lastReport time.Time
}

func New(conn group.Conn, cfg Config, session *metrics.Session, log *logrus.Logger) *Prober {
	return &Prober{conn: conn, cfg: cfg, session: session, log: log}
}

// Run probes until ctx is canceled or the socket fails terminally.
func (p *Prober) Run(ctx context.Context) error {
	p.lastReport = time.Now()
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		if err := p.probeOnce(ctx, start); err != nil {
			return err
		}
		if p.cfg.Count > 0 && n+1 >= p.cfg.Count {
			return nil
		}
		if time.Since(p.lastReport) >= reportInterval {
			p.Report()
			p.lastReport = time.Now()
		}
		if err := p.sleepRemainder(ctx, start); err != nil {
			return err
		}
	}
}

// probeOnce runs one Sent -> WaitingForAck -> {Acked|TimedOut} cycle. The
// sent counter advances exactly once per call no matter the outcome.
func (p *Prober) probeOnce(ctx context.Context, start time.Time) error {
	seq := p.nextSeq
	p.nextSeq++
	p.session.RecordSent()

	success := false
	var rtt time.Duration
	if err := p.conn.SendMulticast(wire.EncodeRequest(seq)); err != nil {
		// A failed send is a loss for this iteration, nothing more.
		p.log.WithError(err).WithField("seq", seq).Warn("request send failed")
	} else {
		var err error
		success, rtt, err = p.awaitAck(ctx, seq, start)
		if err != nil {
			return err
		}
	}

	if success {
		p.session.RecordReceived(rtt)
		p.log.WithFields(logrus.Fields{
			"seq": seq,
			"rtt": rtt,
		}).Debug("acknowledged")
	} else {
		p.log.WithField("seq", seq).Debug("lost")
	}

	p.appendSample(start, seq, success, rtt)
	return nil
}

// awaitAck waits up to the configured bound for the acknowledgment matching
// seq. Datagrams that fail to parse, or that echo a stale sequence, are
// discarded without extending the window.
func (p *Prober) awaitAck(ctx context.Context, seq uint32, start time.Time) (bool, time.Duration, error) {
	deadline := start.Add(p.cfg.Timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, 0, nil
		}

		payload, _, err := p.conn.Receive(remaining)
		if errors.Is(err, group.ErrTimeout) {
			return false, 0, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return false, 0, ctx.Err()
			}
			return false, 0, fmt.Errorf("receive: %w", err)
		}

		echoed, ok := wire.ParseAck(payload)
		if !ok {
			// The prober's own multicast request loops back here too;
			// anything that is not an acknowledgment is dropped.
			continue
		}
		if echoed != seq {
			p.log.WithFields(logrus.Fields{
				"seq":   seq,
				"stale": echoed,
			}).Debug("discarding stale acknowledgment")
			continue
		}
		return true, time.Since(start), nil
	}
}

// sleepRemainder waits out the rest of the interval not already consumed by
// sending and waiting. If the wait ran over, the next iteration starts
// immediately.
func (p *Prober) sleepRemainder(ctx context.Context, start time.Time) error {
	rest := p.cfg.Interval - time.Since(start)
	if rest <= 0 {
		return nil
	}
	timer := time.NewTimer(rest)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Prober) appendSample(start time.Time, seq uint32, success bool, rtt time.Duration) {
	if p.cfg.MetricsPath == "" {
		return
	}
	sample := model.Sample{
		Timestamp: start.UTC(),
		Seq:       seq,
		Success:   success,
		RTTMs:     float64(rtt.Microseconds()) / 1000.0,
	}
	if err := metrics.AppendCSV(p.cfg.MetricsPath, []model.Sample{sample}); err != nil {
		p.log.WithError(err).Warn("append metrics failed")
	}
}

// Report logs the running totals. The loop calls it every reportInterval;
// callers log it once more after shutdown for the final summary.
func (p *Prober) Report() {
	fields := logrus.Fields{
		"sent":     p.session.Sent(),
		"received": p.session.Received(),
	}
	if ratio, ok := p.session.DeliveryRatio(); ok {
		fields["delivery_pct"] = fmt.Sprintf("%.2f", ratio*100)
	}
	if last, ok := p.session.LastRTT(); ok {
		fields["last_rtt"] = last
	}
	if mean, ok := p.session.MeanRTT(); ok {
		fields["mean_rtt"] = mean
	}
	p.log.WithFields(fields).Info("session stats")
}
