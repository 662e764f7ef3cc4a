// Package console prints engine activity to a terminal.
package console

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/interpret"
)

// Console is an engine.Presenter that writes one styled line per event.
type Console struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time

	stamp     lipgloss.Style
	capturing lipgloss.Style
	analyzing lipgloss.Style
	failed    lipgloss.Style
	cooldown  lipgloss.Style
	muted     lipgloss.Style
	text      lipgloss.Style
	badges    map[interpret.Confidence]lipgloss.Style
}

// New creates a Console writing to w. Colors are dropped when w is not a
// terminal.
func New(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:         w,
		now:       time.Now,
		stamp:     r.NewStyle().Foreground(lipgloss.Color("241")),
		capturing: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		analyzing: r.NewStyle().Foreground(lipgloss.Color("33")),
		failed:    r.NewStyle().Foreground(lipgloss.Color("160")),
		cooldown:  r.NewStyle().Foreground(lipgloss.Color("208")),
		muted:     r.NewStyle().Foreground(lipgloss.Color("245")),
		text:      r.NewStyle().Bold(true),
		badges: map[interpret.Confidence]lipgloss.Style{
			interpret.ConfidenceHigh:   r.NewStyle().Foreground(lipgloss.Color("42")),
			interpret.ConfidenceMedium: r.NewStyle().Foreground(lipgloss.Color("214")),
			interpret.ConfidenceLow:    r.NewStyle().Foreground(lipgloss.Color("245")),
		},
	}
}

// State implements engine.Presenter. Idle and success are implied by the
// surrounding lines and are not printed.
func (c *Console) State(s engine.State) {
	switch s {
	case engine.StateCapturing:
		c.line(c.capturing.Render("● capturing"))
	case engine.StateAnalyzing:
		c.line(c.analyzing.Render("◌ analyzing"))
	case engine.StateError:
		c.line(c.failed.Render("✕ interpretation failed"))
	}
}

// Result implements engine.Presenter.
func (c *Console) Result(t engine.Translation) {
	badge, ok := c.badges[t.Confidence]
	if !ok {
		badge = c.muted
	}
	detail := fmt.Sprintf("(%s, %d frames, %s)", t.Reason, t.Frames, t.Latency.Round(time.Millisecond))
	c.line(fmt.Sprintf("%s %s %s",
		badge.Render("["+string(t.Confidence)+"]"),
		c.text.Render(t.Text),
		c.muted.Render(detail),
	))
}

// RateLimited implements engine.Presenter.
func (c *Console) RateLimited(limited bool) {
	if limited {
		c.line(c.cooldown.Render("⏳ rate limited, cooling down"))
		return
	}
	c.line(c.muted.Render("ready"))
}

func (c *Console) line(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s %s\n", c.stamp.Render(c.now().Format("15:04:05")), s)
}
