package interpret

import (
	"context"
	"sync"

	"github.com/ayusman/mudra/internal/frame"
)

// Call records one Translate invocation on a MockInterpreter.
type Call struct {
	Frames   []frame.Frame
	Language string
	Previous string
}

// Reply is a scripted answer.
type Reply struct {
	Result Result
	Err    error
}

// MockInterpreter replays queued replies and records every call. While held,
// calls block until Release or until their context ends.
type MockInterpreter struct {
	mu       sync.Mutex
	replies  []Reply
	fallback Reply
	calls    []Call
	hold     chan struct{}
	started  chan Call
}

// NewMockInterpreter creates a MockInterpreter that answers the placeholder
// once its queue is empty.
func NewMockInterpreter() *MockInterpreter {
	return &MockInterpreter{
		fallback: Reply{Result: Result{Text: Placeholder, Confidence: ConfidenceLow}},
		started:  make(chan Call, 64),
	}
}

// Queue appends replies consumed one per call.
func (m *MockInterpreter) Queue(replies ...Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

// SetDefault sets the reply used once the queue is empty.
func (m *MockInterpreter) SetDefault(r Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = r
}

// Hold makes subsequent calls block until Release.
func (m *MockInterpreter) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hold = make(chan struct{})
}

// Release unblocks held calls.
func (m *MockInterpreter) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hold != nil {
		close(m.hold)
		m.hold = nil
	}
}

// Started delivers each call as it begins.
func (m *MockInterpreter) Started() <-chan Call {
	return m.started
}

// Calls returns a copy of the recorded calls.
func (m *MockInterpreter) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockInterpreter) Translate(ctx context.Context, frames []frame.Frame, language, previous string) (Result, error) {
	call := Call{
		Frames:   append([]frame.Frame(nil), frames...),
		Language: language,
		Previous: previous,
	}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	hold := m.hold
	m.mu.Unlock()

	select {
	case m.started <- call:
	default:
	}

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	reply := m.fallback
	if len(m.replies) > 0 {
		reply = m.replies[0]
		m.replies = m.replies[1:]
	}
	return reply.Result, reply.Err
}
