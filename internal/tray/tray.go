// Package tray provides the menu bar presence: capture state in the title,
// the last translation, pause and language controls.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/lang"
)

const appName = "Mudra"

// Tray is the system tray application. It implements engine.Presenter.
type Tray struct {
	onPause    func(paused bool)
	onLanguage func(l lang.Language)
	onOpen     func()
	onQuit     func()

	mu       sync.RWMutex
	state    engine.State
	limited  bool
	paused   bool
	language string
	last     string

	// Menu items stored for later updates
	menuPause     *systray.MenuItem
	menuLast      *systray.MenuItem
	menuLanguages map[string]*systray.MenuItem
}

// New creates a Tray showing language as the current target.
func New(language string) *Tray {
	return &Tray{
		state:    engine.StateIdle,
		language: language,
	}
}

// OnPause sets the callback invoked when capture is paused or resumed.
func (t *Tray) OnPause(fn func(paused bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPause = fn
}

// OnLanguage sets the callback invoked when a language is picked.
func (t *Tray) OnLanguage(fn func(l lang.Language)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onLanguage = fn
}

// OnOpen sets the callback for the "Open Viewer" item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops the tray loop started by Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTooltip("Mudra sign language interpreter")

	t.mu.Lock()
	t.menuPause = systray.AddMenuItem(pauseLabel(t.paused), "Pause or resume capture")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastLabel(t.last), "Last translation")
	t.menuLast.Disable()
	systray.AddSeparator()

	menuLanguage := systray.AddMenuItem("Language", "Target language")
	t.menuLanguages = make(map[string]*systray.MenuItem)
	languages := lang.Defaults()
	for _, l := range languages {
		item := menuLanguage.AddSubMenuItemCheckbox(l.Native(), l.Name, l.Name == t.language)
		t.menuLanguages[l.Name] = item
	}

	menuOpen := systray.AddMenuItem("Open Viewer...", "Open the viewer in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")
	t.refreshLocked()
	t.mu.Unlock()

	for _, l := range languages {
		go func(l lang.Language, item *systray.MenuItem) {
			for range item.ClickedCh {
				t.handleLanguage(l)
			}
		}(l, t.menuLanguages[l.Name])
	}

	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.handlePause()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handlePause() {
	t.mu.Lock()
	t.paused = !t.paused
	paused := t.paused
	t.refreshLocked()
	callback := t.onPause
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(paused)
	}
}

func (t *Tray) handleLanguage(l lang.Language) {
	t.mu.Lock()
	t.language = l.Name
	t.refreshLocked()
	callback := t.onLanguage
	t.mu.Unlock()

	if callback != nil {
		callback(l)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// State implements engine.Presenter.
func (t *Tray) State(s engine.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
	t.refreshLocked()
}

// Result implements engine.Presenter.
func (t *Tray) Result(tr engine.Translation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = tr.Text
	t.refreshLocked()
}

// RateLimited implements engine.Presenter.
func (t *Tray) RateLimited(limited bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.limited = limited
	t.refreshLocked()
}

// SetPaused syncs the pause item after a change made elsewhere.
func (t *Tray) SetPaused(paused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = paused
	t.refreshLocked()
}

// SetLanguage syncs the language checkmarks after a change made elsewhere.
func (t *Tray) SetLanguage(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.language = name
	t.refreshLocked()
}

// Title returns the text currently shown in the menu bar.
func (t *Tray) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return title(t.state, t.limited, t.paused)
}

// refreshLocked pushes the current fields to the menu. It is a no-op until
// the tray is running.
func (t *Tray) refreshLocked() {
	if t.menuPause == nil {
		return
	}
	systray.SetTitle(title(t.state, t.limited, t.paused))
	t.menuPause.SetTitle(pauseLabel(t.paused))
	t.menuLast.SetTitle(lastLabel(t.last))
	for name, item := range t.menuLanguages {
		if name == t.language {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

func title(s engine.State, limited, paused bool) string {
	switch {
	case paused:
		return appName + " ⏸"
	case limited:
		return appName + " ⏳"
	}
	switch s {
	case engine.StateCapturing:
		return appName + " ●"
	case engine.StateAnalyzing:
		return appName + " …"
	case engine.StateSuccess:
		return appName + " ✓"
	case engine.StateError:
		return appName + " ✕"
	default:
		return appName
	}
}

func pauseLabel(paused bool) string {
	if paused {
		return "○ Paused"
	}
	return "● Listening"
}

func lastLabel(text string) string {
	if text == "" {
		return "Last: none"
	}
	const max = 40
	r := []rune(text)
	if len(r) > max {
		return "Last: " + string(r[:max-1]) + "…"
	}
	return "Last: " + text
}
