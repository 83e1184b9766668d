package metrics

import "time"

// Session accumulates delivery counters and round-trip samples for one prober
// run. It is owned by a single prober loop, mutated only through RecordSent
// and RecordReceived, and is not safe for concurrent use.
type Session struct {
	sent     uint64
	received uint64
	samples  []time.Duration
}

func NewSession() *Session {
	return &Session{}
}

// RecordSent counts one emitted request.
func (s *Session) RecordSent() {
	s.sent++
}

// RecordReceived counts one matched acknowledgment and its round-trip time.
func (s *Session) RecordReceived(rtt time.Duration) {
	s.received++
	s.samples = append(s.samples, rtt)
}

func (s *Session) Sent() uint64 {
	return s.sent
}

func (s *Session) Received() uint64 {
	return s.received
}

// DeliveryRatio returns received/sent. ok is false before the first send.
func (s *Session) DeliveryRatio() (ratio float64, ok bool) {
	if s.sent == 0 {
		return 0, false
	}
	return float64(s.received) / float64(s.sent), true
}

// LastRTT returns the most recent round-trip sample. ok is false when no
// acknowledgment has been received yet.
func (s *Session) LastRTT() (time.Duration, bool) {
	if len(s.samples) == 0 {
		return 0, false
	}
	return s.samples[len(s.samples)-1], true
}

// MeanRTT returns the arithmetic mean over all round-trip samples.
func (s *Session) MeanRTT() (time.Duration, bool) {
	if len(s.samples) == 0 {
		return 0, false
	}
	var sum time.Duration
	for _, d := range s.samples {
		sum += d
	}
	return sum / time.Duration(len(s.samples)), true
}
