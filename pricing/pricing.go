// Package pricing implements the pure pricing resolution engine: rule
// matching, the modifier pipeline, offer stacking and pre-publication
// conflict detection. Everything here is stateless and free of I/O so
// callers may run it fully in parallel; persistence and locking live behind
// the repository layer.
package pricing

import (
	"errors"
	"time"
)

// Request carries the full pricing context for one quote.
type Request struct {
	ServiceID uint
	Duration  int
	GroupSize int
	Date      time.Time
	Channel   string
	Segment   string
}

// Engine error constants
var (
	ErrNoMatchingRule          = errors.New("no matching price rule")
	ErrUnsupportedDiscountType = errors.New("unsupported discount type")
)

func round2(v float64) float64 {
	if v < 0 {
		return -round2(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}
