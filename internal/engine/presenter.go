package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/frame"
	"github.com/ayusman/mudra/internal/interpret"
)

// State is the presentation state shown to the user.
type State string

const (
	StateIdle      State = "idle"
	StateCapturing State = "capturing"
	StateAnalyzing State = "analyzing"
	StateSuccess   State = "success"
	StateError     State = "error"
)

// States lists every presentation state.
var States = []State{StateIdle, StateCapturing, StateAnalyzing, StateSuccess, StateError}

// Reason tags why a gesture was considered finished.
type Reason string

const (
	ReasonHandsExit   Reason = "hands-exit"
	ReasonSilence     Reason = "silence-timeout"
	ReasonMaxDuration Reason = "max-duration"
)

// Translation is one surfaced interpretation.
type Translation struct {
	ID         uuid.UUID            `json:"id"`
	Text       string               `json:"text"`
	Confidence interpret.Confidence `json:"confidence"`
	Language   string               `json:"language"`
	Reason     Reason               `json:"reason"`
	Frames     int                  `json:"frames"`
	Context    string               `json:"context"`
	Latency    time.Duration        `json:"latency"`
	At         time.Time            `json:"at"`
}

// FrameSource provides JPEG stills of the current camera picture.
// CaptureFrame returns nil when no picture is ready.
type FrameSource interface {
	CaptureFrame() *frame.Frame
}

// Presenter receives state changes, results and cooldown notices. Calls are
// made in order, outside the engine lock, and must not block for long.
// A Presenter must not call Engine methods that change state.
type Presenter interface {
	State(s State)
	Result(t Translation)
	RateLimited(limited bool)
}

// Presenters fans out to every member.
type Presenters []Presenter

func (ps Presenters) State(s State) {
	for _, p := range ps {
		p.State(s)
	}
}

func (ps Presenters) Result(t Translation) {
	for _, p := range ps {
		p.Result(t)
	}
}

func (ps Presenters) RateLimited(limited bool) {
	for _, p := range ps {
		p.RateLimited(limited)
	}
}

// PresenterFuncs adapts optional callbacks to a Presenter.
type PresenterFuncs struct {
	OnState       func(State)
	OnResult      func(Translation)
	OnRateLimited func(bool)
}

func (f PresenterFuncs) State(s State) {
	if f.OnState != nil {
		f.OnState(s)
	}
}

func (f PresenterFuncs) Result(t Translation) {
	if f.OnResult != nil {
		f.OnResult(t)
	}
}

func (f PresenterFuncs) RateLimited(limited bool) {
	if f.OnRateLimited != nil {
		f.OnRateLimited(limited)
	}
}
