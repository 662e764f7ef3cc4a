package interpret

import (
	"context"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/clock"
	"github.com/ayusman/mudra/internal/frame"
)

// DefaultDemoLatency simulates a network round trip.
const DefaultDemoLatency = 800 * time.Millisecond

type demoScript [4]string

var demoScripts = map[string]demoScript{
	"Spanish":    {"Hola", "Hola. ¿Cómo estás?", "Quiero café", "Te amo"},
	"English":    {"Hello", "Hello. How are you?", "I want coffee", "I love you"},
	"Portuguese": {"Olá", "Olá. Como vai?", "Quero café", "Eu te amo"},
}

// Demo answers from a fixed per-language script chosen by how long ago the
// first call happened. It needs no credentials and ignores the frames.
type Demo struct {
	clock   clock.Clock
	latency time.Duration

	mu      sync.Mutex
	started time.Time
}

// NewDemo creates a Demo interpreter.
func NewDemo(clk clock.Clock, latency time.Duration) *Demo {
	if clk == nil {
		clk = clock.Real()
	}
	return &Demo{clock: clk, latency: latency}
}

func (d *Demo) Translate(ctx context.Context, _ []frame.Frame, language, _ string) (Result, error) {
	text := d.next(language)

	if d.latency > 0 {
		timer := time.NewTimer(d.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	conf := ConfidenceHigh
	if text == Placeholder {
		conf = ConfidenceLow
	}
	return Result{Text: text, Confidence: conf, Language: language}, nil
}

func (d *Demo) next(language string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	if d.started.IsZero() {
		d.started = now
	}

	script, ok := demoScripts[language]
	if !ok {
		script = demoScripts["Spanish"]
	}

	elapsed := now.Sub(d.started)
	switch {
	case elapsed < 3*time.Second:
		return Placeholder
	case elapsed < 7*time.Second:
		return script[0]
	case elapsed < 14*time.Second:
		return script[1]
	case elapsed < 21*time.Second:
		return script[2]
	case elapsed < 28*time.Second:
		return script[3]
	default:
		d.started = now
		return Placeholder
	}
}
