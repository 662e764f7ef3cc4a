package engine

import (
	"time"

	"github.com/ayusman/mudra/internal/clock"
)

// SilenceTimer is a single pending deferred trigger. It is not safe for
// concurrent use; the owner serializes Arm, Disarm and Fired under its own
// lock, and the fire callback must call Fired before acting.
type SilenceTimer struct {
	clock   clock.Clock
	pause   time.Duration
	fire    func(gen uint64)
	timer   clock.Timer
	gen     uint64
	pending bool
}

// NewSilenceTimer creates a timer that calls fire(gen) after pause.
func NewSilenceTimer(clk clock.Clock, pause time.Duration, fire func(gen uint64)) *SilenceTimer {
	return &SilenceTimer{clock: clk, pause: pause, fire: fire}
}

// Arm schedules the trigger unless one is already pending.
func (s *SilenceTimer) Arm() {
	if s.pending {
		return
	}
	s.gen++
	gen := s.gen
	s.pending = true
	s.timer = s.clock.AfterFunc(s.pause, func() { s.fire(gen) })
}

// Disarm cancels the pending trigger, if any.
func (s *SilenceTimer) Disarm() {
	if !s.pending {
		return
	}
	s.timer.Stop()
	s.timer = nil
	s.pending = false
	s.gen++
}

// Pending reports whether a trigger is scheduled.
func (s *SilenceTimer) Pending() bool { return s.pending }

// Fired consumes a fire for gen. It returns false when that timer was
// disarmed or superseded after its callback was already on its way.
func (s *SilenceTimer) Fired(gen uint64) bool {
	if !s.pending || gen != s.gen {
		return false
	}
	s.pending = false
	s.timer = nil
	return true
}
