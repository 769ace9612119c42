// Package tray shows recognition results in the system tray.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/yubimoji/internal/event"
)

// Tray is the system tray menu. It observes the local session and shows
// the latest sign and word.
type Tray struct {
	onToggle func(enabled bool)
	onReset  func()
	onOpen   func()
	onQuit   func()
	enabled  bool
	lastSign string
	lastWord string
	mu       sync.RWMutex

	menuToggle *systray.MenuItem
	menuSign   *systray.MenuItem
	menuWord   *systray.MenuItem
}

var _ event.Observer = (*Tray)(nil)

// New creates a Tray with recognition enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback for pausing and resuming recognition.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnReset sets the callback for clearing the pending sign.
func (t *Tray) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnOpen sets the callback for opening the web UI.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for the quit item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit is called and must run on
// the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("指")
	systray.SetTooltip("yubimoji finger-spelling recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleLabel(t.enabled), "Pause or resume recognition")
	systray.AddSeparator()
	t.menuSign = systray.AddMenuItem(signLabel(t.lastSign, 0), "Last recognized sign")
	t.menuSign.Disable()
	t.menuWord = systray.AddMenuItem(wordLabel(t.lastWord), "Last resolved word")
	t.menuWord.Disable()
	t.mu.Unlock()

	systray.AddSeparator()
	menuReset := systray.AddMenuItem("Reset", "Clear the pending sign")
	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the web UI")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit yubimoji")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuReset.ClickedCh:
				t.call(func() func() { return t.onReset })
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleLabel(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SignUpdated shows the latest accepted sign. Rejections leave it unchanged.
func (t *Tray) SignUpdated(u event.SignUpdate) {
	if !u.Accepted() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSign = u.Sign
	if t.menuSign != nil {
		t.menuSign.SetTitle(signLabel(u.Sign, u.Probability))
	}
}

// WordResolved shows the latest word.
func (t *Tray) WordResolved(w event.WordEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastWord = w.Word
	if t.menuWord != nil {
		t.menuWord.SetTitle(wordLabel(w.Word))
		systray.SetTooltip("yubimoji: " + w.Word)
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Last returns the latest sign and word shown.
func (t *Tray) Last() (sign, word string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastSign, t.lastWord
}

func toggleLabel(enabled bool) string {
	if enabled {
		return "● Recognizing"
	}
	return "○ Paused"
}

func signLabel(sign string, probability float64) string {
	if sign == "" {
		return "Sign: none"
	}
	if probability <= 0 {
		return "Sign: " + sign
	}
	return fmt.Sprintf("Sign: %s (%.0f%%)", sign, probability*100)
}

func wordLabel(word string) string {
	if word == "" {
		return "Word: none"
	}
	return "Word: " + word
}
