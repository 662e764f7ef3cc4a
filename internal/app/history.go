package app

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/store"
)

// historyQueue bounds translations waiting to be written.
const historyQueue = 64

// History persists every surfaced translation and keeps the table at most
// max rows long. A max of zero keeps everything. Writes happen on a worker
// goroutine; Close flushes what is queued.
type History struct {
	repo *store.TranslationRepository
	max  int
	log  zerolog.Logger

	queue chan engine.Translation
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewHistory creates a History presenter backed by s and starts its writer.
func NewHistory(s *store.Store, max int, log zerolog.Logger) *History {
	h := &History{
		repo:  s.Translations(),
		max:   max,
		log:   log.With().Str("component", "history").Logger(),
		queue: make(chan engine.Translation, historyQueue),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *History) State(engine.State) {}

func (h *History) RateLimited(bool) {}

// Result implements engine.Presenter. It never waits on the database; when
// the queue is full the translation is not stored.
func (h *History) Result(t engine.Translation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	select {
	case h.queue <- t:
	default:
		h.log.Warn().Str("id", t.ID.String()).Msg("history queue full, dropping translation")
	}
}

func (h *History) run() {
	defer h.wg.Done()
	for t := range h.queue {
		h.save(t)
	}
}

func (h *History) save(t engine.Translation) {
	rec := &store.Translation{
		ID:         t.ID.String(),
		Text:       t.Text,
		Confidence: string(t.Confidence),
		Language:   t.Language,
		Reason:     string(t.Reason),
		Frames:     t.Frames,
		Context:    t.Context,
		LatencyMS:  t.Latency.Milliseconds(),
		CreatedAt:  t.At,
	}
	if err := h.repo.Create(rec); err != nil {
		h.log.Error().Err(err).Str("id", rec.ID).Msg("save translation")
		return
	}

	if h.max <= 0 {
		return
	}
	pruned, err := h.repo.Prune(h.max)
	if err != nil {
		h.log.Error().Err(err).Msg("prune history")
		return
	}
	if pruned > 0 {
		h.log.Debug().Int64("pruned", pruned).Msg("history pruned")
	}
}

// Close stops accepting translations and waits until the queued ones are
// written. It must run before the store is closed.
func (h *History) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.queue)
	h.mu.Unlock()

	h.wg.Wait()
}
