// Package responder implements the answering side of the probe exchange: it
// listens on the multicast group and acknowledges every well-formed request
// with a unicast reply to the sender.
package responder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"mcping/internal/group"
	"mcping/internal/wire"
)

// pollTimeout bounds each blocking receive so cancellation is noticed
// promptly even when the group is quiet.
const pollTimeout = time.Second

// Responder answers requests until stopped.
type Responder struct {
	conn group.Conn
	log  *logrus.Logger
}

func New(conn group.Conn, log *logrus.Logger) *Responder {
	return &Responder{conn: conn, log: log}
}

// Run serves requests until ctx is canceled or the socket fails terminally.
// Malformed datagrams are discarded without a reply; a failed reply send is
// logged and the loop continues.
func (r *Responder) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, peer, err := r.conn.Receive(pollTimeout)
		if errors.Is(err, group.ErrTimeout) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("receive: %w", err)
		}

		seq, ok := wire.ParseRequest(payload)
		if !ok {
			r.log.WithField("peer", peer.String()).Debug("discarding unparseable datagram")
			continue
		}

		// The reply goes to the address the datagram actually came from,
		// never to anything named in the payload.
		if err := r.conn.SendUnicast(peer, wire.EncodeAck(seq)); err != nil {
			r.log.WithError(err).WithFields(logrus.Fields{
				"peer": peer.String(),
				"seq":  seq,
			}).Warn("reply send failed")
			continue
		}
		r.log.WithFields(logrus.Fields{
			"peer": peer.String(),
			"seq":  seq,
		}).Debug("acknowledged request")
	}
}
