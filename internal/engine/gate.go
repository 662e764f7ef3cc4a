package engine

import "time"

// Gate admits at most one dispatch at a time and none during a rate-limit
// cooldown. Work offered while closed is dropped, never queued.
type Gate struct {
	inFlight bool
	until    time.Time
}

// Begin claims the slot. It fails while a dispatch is outstanding or the
// cooldown has not yet ended.
func (g *Gate) Begin(now time.Time) bool {
	if g.Blocked(now) {
		return false
	}
	g.inFlight = true
	return true
}

// Finish releases the slot.
func (g *Gate) Finish() { g.inFlight = false }

// Cooldown blocks new work until the given time.
func (g *Gate) Cooldown(until time.Time) { g.until = until }

func (g *Gate) InFlight() bool { return g.inFlight }

// RateLimited reports whether the cooldown is still running at now.
func (g *Gate) RateLimited(now time.Time) bool { return now.Before(g.until) }

// Blocked reports whether Begin would fail at now.
func (g *Gate) Blocked(now time.Time) bool { return g.inFlight || g.RateLimited(now) }

// Until returns the end of the last cooldown.
func (g *Gate) Until() time.Time { return g.until }
