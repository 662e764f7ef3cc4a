package app

import "time"

// runPipeline polls the tracker on every tick and feeds the engine. The
// engine owns all timing decisions; the tick only sets the sampling rate.
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.cfg.Pipeline.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.step()
		}
	}
}

// step runs one pipeline iteration. Camera reads are skipped while paused.
func (a *App) step() {
	if a.engine.Paused() {
		return
	}
	a.engine.Tick(a.tracker.Poll())
}
