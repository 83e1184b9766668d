package metrics

import (
	"math"
	"sort"
	"time"

	"mcping/internal/model"
)

// Summary is a basic statistics snapshot over recorded samples.
type Summary struct {
	Count    int
	From     time.Time
	To       time.Time
	Received int
	LossPct  float64
	AvgRTTMs float64
	P95RTTMs float64
	MinRTTMs float64
	MaxRTTMs float64
}

// Summarize computes summary metrics for samples in a time window.
// RTT figures cover successful iterations only; losses contribute to LossPct.
func Summarize(items []model.Sample, since time.Time) Summary {
	filtered := make([]model.Sample, 0, len(items))
	for _, m := range items {
		if m.Timestamp.After(since) || m.Timestamp.Equal(since) {
			filtered = append(filtered, m)
		}
	}

	if len(filtered) == 0 {
		return Summary{Count: 0}
	}

	values := make([]float64, 0, len(filtered))
	var sumRTT float64
	received := 0
	minRTT := math.MaxFloat64
	maxRTT := 0.0
	from := filtered[0].Timestamp
	to := filtered[0].Timestamp

	for _, m := range filtered {
		if m.Timestamp.Before(from) {
			from = m.Timestamp
		}
		if m.Timestamp.After(to) {
			to = m.Timestamp
		}
		if !m.Success {
			continue
		}
		received++
		values = append(values, m.RTTMs)
		sumRTT += m.RTTMs
		if m.RTTMs < minRTT {
			minRTT = m.RTTMs
		}
		if m.RTTMs > maxRTT {
			maxRTT = m.RTTMs
		}
	}

	summary := Summary{
		Count:    len(filtered),
		From:     from,
		To:       to,
		Received: received,
		LossPct:  100.0 * float64(len(filtered)-received) / float64(len(filtered)),
	}
	if received == 0 {
		return summary
	}

	sort.Float64s(values)
	summary.AvgRTTMs = sumRTT / float64(received)
	summary.P95RTTMs = percentile(values, 0.95)
	summary.MinRTTMs = minRTT
	summary.MaxRTTMs = maxRTT
	return summary
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p <= 0 {
		return values[0]
	}
	if p >= 1 {
		return values[len(values)-1]
	}
	idx := int(math.Ceil(p*float64(len(values)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx]
}
