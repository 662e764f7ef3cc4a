package engine

import "time"

// HandsLostFilter keeps reporting presence for a short window after the
// sensor loses the hands, so a single dropped detection does not end a
// gesture. Once the window elapses it reports absence until presence is
// seen again.
type HandsLostFilter struct {
	buffer time.Duration
	since  time.Time
	lost   bool
}

// NewHandsLostFilter creates a filter with the given window.
func NewHandsLostFilter(buffer time.Duration) HandsLostFilter {
	return HandsLostFilter{buffer: buffer}
}

// Update feeds one raw reading and returns the effective presence.
func (f *HandsLostFilter) Update(present bool, now time.Time) bool {
	if present {
		f.lost = false
		return true
	}
	if !f.lost {
		f.lost = true
		f.since = now
	}
	return now.Sub(f.since) < f.buffer
}

// Reset forgets any absence window in progress.
func (f *HandsLostFilter) Reset() {
	f.lost = false
	f.since = time.Time{}
}
