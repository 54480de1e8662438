package classifier

import (
	"sync"
	"time"
)

// ShortcutDetector infers platform paste shortcuts (Ctrl/Cmd+V) from
// keystroke timing. The host never reports modifier keys, so the only
// observable is the character `v` arriving as an inserted edit shortly
// after the previous keystroke. This is best-effort by nature: a fast
// plain `v` is indistinguishable from a real shortcut.
type ShortcutDetector struct {
	mu sync.Mutex

	window   time.Duration
	validity time.Duration
	clock    func() time.Time

	lastKeyAt   time.Time
	active      bool
	activatedAt time.Time
	timer       *time.Timer
}

// NewShortcutDetector creates a detector with the given timing windows
func NewShortcutDetector(window, validity time.Duration) *ShortcutDetector {
	return &ShortcutDetector{
		window:   window,
		validity: validity,
		clock:    time.Now,
	}
}

// ObserveInsert feeds one inserted edit into the detector. Every
// single-character insert counts as a keystroke; a `v` arriving within
// the window of the previous keystroke arms the shortcut flag.
func (d *ShortcutDetector) ObserveInsert(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock()

	if text == "v" && !d.lastKeyAt.IsZero() && now.Sub(d.lastKeyAt) < d.window {
		d.armLocked(now)
	}

	if len(text) == 1 {
		d.lastKeyAt = now
	}
}

// Active reports whether a shortcut was detected within the validity window
func (d *ShortcutDetector) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return false
	}
	// The timer clears the flag asynchronously; the clock check keeps
	// Active exact between timer fires.
	if d.clock().Sub(d.activatedAt) >= d.validity {
		d.clearLocked()
		return false
	}
	return true
}

// SinceLastKey returns the elapsed time since the previous keystroke,
// or a negative duration when no keystroke has been observed yet
func (d *ShortcutDetector) SinceLastKey() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastKeyAt.IsZero() {
		return -1
	}
	return d.clock().Sub(d.lastKeyAt)
}

func (d *ShortcutDetector) armLocked(now time.Time) {
	d.active = true
	d.activatedAt = now

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.validity, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.clearLocked()
	})
}

func (d *ShortcutDetector) clearLocked() {
	d.active = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop releases the pending expiry timer
func (d *ShortcutDetector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearLocked()
}
