package model

import "time"

// Sample is the recorded outcome of a single probe iteration.
type Sample struct {
	Timestamp time.Time
	Seq       uint32
	Success   bool
	RTTMs     float64
}
