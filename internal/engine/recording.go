package engine

import (
	"time"

	"github.com/ayusman/mudra/internal/frame"
)

// Recording is the frame buffer of the gesture being captured.
// While active it always holds at least the anchor frame.
type Recording struct {
	cap         int
	active      bool
	startedAt   time.Time
	lastCapture time.Time
	frames      []frame.Frame
}

// NewRecording creates an idle recording holding at most cap frames.
func NewRecording(cap int) Recording {
	return Recording{cap: cap}
}

// Start begins a session anchored on first.
func (r *Recording) Start(first frame.Frame, now time.Time) {
	r.active = true
	r.startedAt = now
	r.lastCapture = now
	r.frames = append(r.frames[:0], first)
}

// Append adds a frame. Past the cap the oldest frame after the anchor is
// dropped.
func (r *Recording) Append(f frame.Frame, now time.Time) {
	r.frames = append(r.frames, f)
	if len(r.frames) > r.cap {
		r.frames = append(r.frames[:1], r.frames[2:]...)
	}
	r.lastCapture = now
}

// CaptureDue reports whether more than interval passed since the last frame.
func (r *Recording) CaptureDue(now time.Time, interval time.Duration) bool {
	return now.Sub(r.lastCapture) > interval
}

func (r *Recording) Active() bool         { return r.active }
func (r *Recording) Len() int             { return len(r.frames) }
func (r *Recording) StartedAt() time.Time { return r.startedAt }

// Elapsed is the time since the session started.
func (r *Recording) Elapsed(now time.Time) time.Duration {
	if !r.active {
		return 0
	}
	return now.Sub(r.startedAt)
}

// Frames returns a copy of the buffer in capture order.
func (r *Recording) Frames() []frame.Frame {
	out := make([]frame.Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Reset discards the session.
func (r *Recording) Reset() {
	r.active = false
	r.startedAt = time.Time{}
	r.lastCapture = time.Time{}
	r.frames = nil
}
