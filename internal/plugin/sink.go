package plugin

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/engine"
)

// sinkQueue bounds translations waiting for delivery.
const sinkQueue = 16

// Sink forwards surfaced translations to every subscribed plugin. It
// implements engine.Presenter; delivery happens on a worker goroutine so
// slow plugins never stall the engine.
type Sink struct {
	manager  *Manager
	executor *Executor
	log      zerolog.Logger

	queue  chan engine.Translation
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewSink starts a Sink delivering to the plugins known to manager.
func NewSink(manager *Manager, executor *Executor, log zerolog.Logger) *Sink {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sink{
		manager:  manager,
		executor: executor,
		log:      log.With().Str("component", "plugins").Logger(),
		queue:    make(chan engine.Translation, sinkQueue),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Sink) State(engine.State) {}

func (s *Sink) RateLimited(bool) {}

// Result queues t for delivery. When the queue is full the translation is
// dropped for plugins.
func (s *Sink) Result(t engine.Translation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- t:
	default:
		s.log.Warn().Str("id", t.ID.String()).Msg("plugin queue full, dropping translation")
	}
}

func (s *Sink) run() {
	defer s.wg.Done()
	for t := range s.queue {
		s.deliver(t)
	}
}

func (s *Sink) deliver(t engine.Translation) {
	payload := &Translation{
		ID:         t.ID.String(),
		Text:       t.Text,
		Confidence: string(t.Confidence),
		Language:   t.Language,
		Reason:     string(t.Reason),
		At:         t.At,
	}

	for _, p := range s.manager.Subscribed(EventTranslation) {
		if s.ctx.Err() != nil {
			return
		}
		req := &Request{Event: EventTranslation, Translation: payload}
		resp, err := s.executor.Execute(s.ctx, p, req)
		switch {
		case err != nil:
			s.log.Error().Err(err).Str("plugin", p.Manifest.Name).Msg("plugin failed")
		case !resp.Success:
			s.log.Warn().Str("plugin", p.Manifest.Name).Str("error", resp.Error).Msg("plugin rejected translation")
		default:
			s.log.Debug().Str("plugin", p.Manifest.Name).Msg("plugin delivered")
		}
	}
}

// Close stops accepting translations, cancels running plugins and waits
// for the worker to exit.
func (s *Sink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
