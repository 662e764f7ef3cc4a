// Package engine decides when a signed gesture starts and ends, samples the
// recorded frames, and dispatches them for interpretation one at a time.
//
// All state lives behind a single mutex. The scheduler drives Tick; the
// silence, settle and cooldown timers and the dispatch goroutine re-enter
// through methods that take the same lock and read state at that point.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/clock"
	"github.com/ayusman/mudra/internal/frame"
	"github.com/ayusman/mudra/internal/interpret"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/sensor"
)

// Deps are the collaborators of an Engine. Frames and Interpreter are
// required.
type Deps struct {
	Frames      FrameSource
	Interpreter interpret.Interpreter
	Presenter   Presenter
	Clock       clock.Clock
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// Status is a point-in-time snapshot of the engine.
type Status struct {
	State            State        `json:"state"`
	Paused           bool         `json:"paused"`
	Language         string       `json:"language"`
	HandPresent      bool         `json:"hand_present"`
	Velocity         float64      `json:"velocity"`
	Recording        bool         `json:"recording"`
	Frames           int          `json:"frames"`
	SilencePending   bool         `json:"silence_pending"`
	InFlight         bool         `json:"in_flight"`
	RateLimited      bool         `json:"rate_limited"`
	RateLimitedUntil *time.Time   `json:"rate_limited_until,omitempty"`
	Context          string       `json:"context"`
	Last             *Translation `json:"last,omitempty"`
}

// Engine is the capture state machine.
type Engine struct {
	cfg       Config
	frames    FrameSource
	interp    interpret.Interpreter
	presenter Presenter
	clock     clock.Clock
	log       zerolog.Logger
	metrics   *metrics.Metrics

	mu       sync.Mutex
	state    State
	paused   bool
	closed   bool
	language string
	sample   sensor.Sample
	filter   HandsLostFilter
	rec      Recording
	silence  *SilenceTimer
	context  Context
	gate     Gate
	epoch    uint64
	cancel   context.CancelFunc
	last     *Translation
	settle   clock.Timer
	cooldown clock.Timer
	outbox   []event

	// emitMu orders presenter delivery across goroutines.
	emitMu sync.Mutex
	wg     sync.WaitGroup
}

type eventKind int

const (
	eventState eventKind = iota
	eventResult
	eventRateLimited
)

type event struct {
	kind    eventKind
	state   State
	result  Translation
	limited bool
}

type job struct {
	epoch    uint64
	reason   Reason
	frames   []frame.Frame
	recorded int
	language string
	previous string
	at       time.Time
}

// New creates an Engine in the idle state.
func New(cfg Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Frames == nil {
		return nil, errors.New("engine: frame source is required")
	}
	if deps.Interpreter == nil {
		return nil, errors.New("engine: interpreter is required")
	}
	if deps.Presenter == nil {
		deps.Presenter = Presenters(nil)
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}

	e := &Engine{
		cfg:       cfg,
		frames:    deps.Frames,
		interp:    deps.Interpreter,
		presenter: deps.Presenter,
		clock:     deps.Clock,
		log:       deps.Logger.With().Str("component", "engine").Logger(),
		metrics:   deps.Metrics,
		state:     StateIdle,
		language:  cfg.Language,
		filter:    NewHandsLostFilter(cfg.HandsLostBuffer),
		rec:       NewRecording(cfg.FrameCap),
		context:   NewContext(cfg.ContextStaleAfter, cfg.ContextMaxWords),
	}
	e.silence = NewSilenceTimer(e.clock, cfg.SilencePause, e.onSilence)
	e.metrics.State(string(StateIdle), stateNames())
	return e, nil
}

// Tick advances the state machine with one sensor reading. It does nothing
// while paused, while a dispatch is outstanding, or during a rate-limit
// cooldown.
func (e *Engine) Tick(s sensor.Sample) {
	e.mu.Lock()
	defer e.unlock()

	e.sample = s
	now := e.clock.Now()
	if e.paused || e.closed || e.gate.Blocked(now) {
		return
	}

	present := e.filter.Update(s.HandPresent, now)

	if !present {
		if !e.rec.Active() {
			return
		}
		if e.rec.Len() >= e.cfg.MinExitFrames {
			e.triggerLocked(ReasonHandsExit)
			return
		}
		e.discardLocked("exit")
		return
	}

	if !e.rec.Active() {
		if s.Velocity <= e.cfg.StartThreshold {
			return
		}
		f := e.frames.CaptureFrame()
		if f == nil {
			e.log.Debug().Msg("no frame ready, recording not started")
			return
		}
		e.rec.Start(*f, now)
		e.log.Debug().Float64("velocity", s.Velocity).Msg("recording started")
		e.setStateLocked(StateCapturing)
		return
	}

	if e.rec.CaptureDue(now, e.cfg.CaptureInterval) {
		if f := e.frames.CaptureFrame(); f != nil {
			e.rec.Append(*f, now)
		}
	}

	if s.Velocity > e.cfg.SilenceThreshold {
		e.silence.Disarm()
	} else {
		e.silence.Arm()
	}

	if e.rec.Elapsed(now) > e.cfg.MaxDuration {
		e.triggerLocked(ReasonMaxDuration)
	}
}

func (e *Engine) onSilence(gen uint64) {
	e.mu.Lock()
	defer e.unlock()

	if !e.silence.Fired(gen) {
		return
	}
	if e.paused || e.closed || !e.rec.Active() {
		return
	}
	e.triggerLocked(ReasonSilence)
}

// triggerLocked finishes the current gesture.
func (e *Engine) triggerLocked(reason Reason) {
	e.silence.Disarm()
	e.filter.Reset()

	if e.gate.InFlight() {
		e.metrics.Dropped()
		e.log.Debug().Str("reason", string(reason)).Msg("dispatch in flight, trigger dropped")
		return
	}

	recorded := e.rec.Frames()
	e.resetSessionLocked()

	payload, ok := SampleFrames(recorded, e.cfg.MinFrames)
	if !ok {
		e.metrics.Noise("sampler")
		e.log.Debug().Str("reason", string(reason)).Int("frames", len(recorded)).Msg("too few frames, discarded as noise")
		e.setStateLocked(StateIdle)
		return
	}

	now := e.clock.Now()
	previous := e.context.Prepare(now)
	if !e.gate.Begin(now) {
		e.metrics.Dropped()
		e.log.Debug().Str("reason", string(reason)).Msg("cooling down, trigger dropped")
		e.setStateLocked(StateIdle)
		return
	}

	e.metrics.Trigger(string(reason))
	e.log.Info().
		Str("reason", string(reason)).
		Int("recorded", len(recorded)).
		Int("frames", len(payload)).
		Str("language", e.language).
		Msg("gesture complete, dispatching")
	e.setStateLocked(StateAnalyzing)

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.DispatchTimeout)
	e.cancel = cancel

	j := job{
		epoch:    e.epoch,
		reason:   reason,
		frames:   payload,
		recorded: len(recorded),
		language: e.language,
		previous: previous,
		at:       now,
	}

	e.wg.Add(1)
	go e.dispatch(ctx, cancel, j)
}

func (e *Engine) dispatch(ctx context.Context, cancel context.CancelFunc, j job) {
	defer e.wg.Done()
	defer cancel()

	res, err := e.interp.Translate(ctx, j.frames, j.language, j.previous)
	e.complete(j, res, err)
}

func (e *Engine) complete(j job, res interpret.Result, err error) {
	e.mu.Lock()
	defer e.unlock()

	e.gate.Finish()
	e.cancel = nil

	now := e.clock.Now()
	took := now.Sub(j.at)
	log := e.log.With().Str("reason", string(j.reason)).Dur("took", took).Logger()

	if e.closed {
		e.metrics.Dispatch(metrics.OutcomeStale, took, len(j.frames))
		return
	}

	if j.epoch != e.epoch {
		e.metrics.Dispatch(metrics.OutcomeStale, took, len(j.frames))
		log.Debug().Err(err).Msg("stale response discarded")
		// The quota is spent whatever language the reply was for.
		if err != nil && interpret.IsRateLimited(err) && !e.paused {
			log.Warn().Dur("cooldown", e.cfg.RateLimitCooldown).Msg("rate limited, cooling down")
			e.startCooldownLocked(now)
		}
		e.scheduleSettleLocked()
		return
	}

	switch {
	case err != nil && interpret.IsRateLimited(err):
		e.metrics.Dispatch(metrics.OutcomeRateLimited, took, len(j.frames))
		log.Warn().Err(err).Dur("cooldown", e.cfg.RateLimitCooldown).Msg("rate limited, cooling down")
		e.startCooldownLocked(now)
		e.setStateLocked(StateError)

	case err != nil:
		e.metrics.Dispatch(metrics.OutcomeError, took, len(j.frames))
		log.Error().Err(err).Msg("interpretation failed")
		e.setStateLocked(StateError)

	case !res.Meaningful():
		e.metrics.Dispatch(metrics.OutcomeEmpty, took, len(j.frames))
		log.Debug().Msg("no sign recognized")
		e.setStateLocked(StateIdle)

	default:
		e.metrics.Dispatch(metrics.OutcomeSuccess, took, len(j.frames))
		t := Translation{
			ID:         uuid.New(),
			Text:       res.Text,
			Confidence: res.Confidence,
			Language:   j.language,
			Reason:     j.reason,
			Frames:     len(j.frames),
			Context:    j.previous,
			Latency:    took,
			At:         now,
		}
		e.last = &t
		stored := e.context.Merge(res.Text, j.previous, now)
		log.Info().Str("text", res.Text).Str("confidence", string(res.Confidence)).Bool("context_updated", stored).Msg("translated")
		e.emitLocked(event{kind: eventResult, result: t})
		e.setStateLocked(StateSuccess)
	}

	e.scheduleSettleLocked()
}

// startCooldownLocked blocks dispatch for RateLimitCooldown from now.
func (e *Engine) startCooldownLocked(now time.Time) {
	e.gate.Cooldown(now.Add(e.cfg.RateLimitCooldown))
	e.emitLocked(event{kind: eventRateLimited, limited: true})
	if e.cooldown != nil {
		e.cooldown.Stop()
	}
	e.cooldown = e.clock.AfterFunc(e.cfg.RateLimitCooldown, e.endCooldown)
}

func (e *Engine) endCooldown() {
	e.mu.Lock()
	defer e.unlock()

	e.cooldown = nil
	if e.closed {
		return
	}
	e.log.Info().Msg("rate-limit cooldown over")
	e.emitLocked(event{kind: eventRateLimited, limited: false})
}

func (e *Engine) scheduleSettleLocked() {
	if e.settle != nil {
		e.settle.Stop()
	}
	e.settle = e.clock.AfterFunc(e.cfg.SettleDelay, e.onSettle)
}

func (e *Engine) onSettle() {
	e.mu.Lock()
	defer e.unlock()

	e.settle = nil
	if e.paused || e.closed || e.rec.Active() || e.gate.InFlight() {
		return
	}
	e.setStateLocked(StateIdle)
}

func (e *Engine) discardLocked(stage string) {
	e.metrics.Noise(stage)
	e.log.Debug().Int("frames", e.rec.Len()).Msg("gesture too short, discarded as noise")
	e.resetSessionLocked()
	e.setStateLocked(StateIdle)
}

func (e *Engine) resetSessionLocked() {
	e.rec.Reset()
	e.silence.Disarm()
	e.filter.Reset()
}

// abandonLocked drops the session and any outstanding dispatch result.
func (e *Engine) abandonLocked() {
	e.resetSessionLocked()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.epoch++
}

// Pause abandons the current gesture and discards any outstanding result.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.unlock()

	if e.paused {
		return
	}
	e.paused = true
	e.abandonLocked()
	e.log.Info().Msg("paused")
	e.setStateLocked(StateIdle)
}

// Resume lets ticks drive the state machine again.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.unlock()

	if !e.paused {
		return
	}
	e.paused = false
	e.log.Info().Msg("resumed")
	e.setStateLocked(StateIdle)
}

// Paused reports whether the engine is paused.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// SetLanguage switches the target language. The context and last result
// belong to the old language and are cleared; a result still in flight is
// discarded.
func (e *Engine) SetLanguage(language string) error {
	if language == "" {
		return fmt.Errorf("set language: empty name")
	}

	e.mu.Lock()
	defer e.unlock()

	if language == e.language {
		return nil
	}
	e.language = language
	e.context.Reset()
	e.last = nil
	if e.gate.InFlight() {
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
		e.epoch++
	}
	e.log.Info().Str("language", language).Msg("language changed")
	return nil
}

// Language returns the current target language.
func (e *Engine) Language() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.language
}

// Status returns a snapshot of the engine.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	st := Status{
		State:          e.state,
		Paused:         e.paused,
		Language:       e.language,
		HandPresent:    e.sample.HandPresent,
		Velocity:       e.sample.Velocity,
		Recording:      e.rec.Active(),
		Frames:         e.rec.Len(),
		SilencePending: e.silence.Pending(),
		InFlight:       e.gate.InFlight(),
		RateLimited:    e.gate.RateLimited(now),
		Context:        e.context.Text(),
	}
	if st.RateLimited {
		until := e.gate.Until()
		st.RateLimitedUntil = &until
	}
	if e.last != nil {
		last := *e.last
		st.Last = &last
	}
	return st
}

// Close stops all timers, cancels any outstanding dispatch and waits for it
// to return. Ticks after Close are ignored.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.abandonLocked()
	if e.settle != nil {
		e.settle.Stop()
		e.settle = nil
	}
	if e.cooldown != nil {
		e.cooldown.Stop()
		e.cooldown = nil
	}
	e.unlock()

	e.wg.Wait()
}

func (e *Engine) setStateLocked(s State) {
	if e.state == s {
		return
	}
	e.state = s
	e.metrics.State(string(s), stateNames())
	e.emitLocked(event{kind: eventState, state: s})
}

func (e *Engine) emitLocked(ev event) {
	e.outbox = append(e.outbox, ev)
}

// unlock releases e.mu and delivers queued presenter events in order.
func (e *Engine) unlock() {
	events := e.outbox
	e.outbox = nil
	if len(events) == 0 {
		e.mu.Unlock()
		return
	}

	e.emitMu.Lock()
	e.mu.Unlock()
	defer e.emitMu.Unlock()

	for _, ev := range events {
		switch ev.kind {
		case eventState:
			e.presenter.State(ev.state)
		case eventResult:
			e.presenter.Result(ev.result)
		case eventRateLimited:
			e.presenter.RateLimited(ev.limited)
		}
	}
}

func stateNames() []string {
	names := make([]string, len(States))
	for i, s := range States {
		names[i] = string(s)
	}
	return names
}
