package app

import (
	"math"
	"time"

	"github.com/ayusman/yubimoji/internal/feature"
)

// DefaultRequestsPerSecond is the classification rate used when none is configured.
const DefaultRequestsPerSecond = 2

// Ticket is a permission to classify one feature vector.
type Ticket struct {
	Seq      uint64
	Features feature.Vector
	IssuedAt time.Time
}

// Scheduler rate-limits classification requests. It is not safe for
// concurrent use; Session guards it with its own mutex.
type Scheduler struct {
	interval time.Duration
	last     time.Time
	seq      uint64
}

// NewScheduler creates a Scheduler allowing rps dispatches per second.
// Non-positive or non-finite rates fall back to DefaultRequestsPerSecond.
func NewScheduler(rps float64) *Scheduler {
	if !(rps > 0) || math.IsInf(rps, 0) {
		rps = DefaultRequestsPerSecond
	}
	return &Scheduler{interval: time.Duration(float64(time.Second) / rps)}
}

// Interval returns the minimum spacing between dispatches.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// MaybeDispatch issues a ticket when more than one interval has elapsed
// since the previous dispatch. The first call always dispatches.
func (s *Scheduler) MaybeDispatch(features feature.Vector, now time.Time) (Ticket, bool) {
	if s.seq > 0 && now.Sub(s.last) <= s.interval {
		return Ticket{}, false
	}
	s.last = now
	s.seq++
	return Ticket{Seq: s.seq, Features: features, IssuedAt: now}, true
}
