// Package classifier decides whether a document change originated from a
// clipboard paste rather than direct typing. The host editor exposes no
// paste signal, so the decision is heuristic: clipboard matching first,
// then insertion bulk, then keystroke-timing corroboration.
package classifier

import (
	"log/slog"
	"strings"
	"time"
)

// Classifier owns the rolling clocks and shortcut state shared across
// classifications. Classify itself is pure given its inputs; Process is
// the stateful entry point that builds the per-decision Context.
type Classifier struct {
	cfg      Config
	shortcut *ShortcutDetector
	clock    func() time.Time

	lastEditAt time.Time
}

// New creates a classifier with the given configuration
func New(cfg Config) *Classifier {
	return &Classifier{
		cfg:      cfg,
		shortcut: NewShortcutDetector(cfg.ShortcutWindow, cfg.ShortcutValidity),
		clock:    time.Now,
	}
}

// Process runs one change event through the throttle and classifier.
// The second return value is false when the event was skipped by the
// throttle and never classified.
func (c *Classifier) Process(ev ChangeEvent, clipboard string) (Result, bool) {
	now := ev.Timestamp
	if now.IsZero() {
		now = c.clock()
	}

	// Keystroke timing is observed for every arriving edit, including
	// ones the throttle skips. The shortcut sub-routine is independent
	// of classification.
	sinceKey := c.shortcut.SinceLastKey()
	c.shortcut.ObserveInsert(ev.Text)

	if !c.lastEditAt.IsZero() && now.Sub(c.lastEditAt) < c.cfg.MinEventInterval {
		if c.cfg.Debug {
			slog.Debug("change skipped by throttle",
				"since_last_edit", now.Sub(c.lastEditAt),
				"uri", ev.Document.URI)
		}
		return Result{}, false
	}

	cctx := Context{
		Clipboard:      clipboard,
		SinceLastEdit:  now.Sub(c.lastEditAt),
		SinceLastKey:   sinceKey,
		ShortcutActive: c.shortcut.Active(),
	}

	res := c.Classify(ev, cctx)
	c.lastEditAt = now

	if c.cfg.Debug {
		slog.Debug("change classified",
			"is_paste", res.IsPaste,
			"line_count", res.LineCount,
			"insert_len", len(ev.Text),
			"shortcut_active", cctx.ShortcutActive,
			"uri", ev.Document.URI)
	}

	return res, true
}

// Classify is a pure function of the event and its context. It never
// errors: ambiguous or missing signals resolve to "not a paste".
func (c *Classifier) Classify(ev ChangeEvent, cctx Context) Result {
	text := ev.Text
	if text == "" {
		return Result{}
	}

	// Pre-filters short-circuit to false.
	if profile := ProfileDocument(ev.Document); !profile.Editable {
		return Result{}
	}
	if c.matchesAttributionMarker(text) {
		return Result{}
	}
	hasNewline := strings.Contains(text, "\n")
	if len(text) < c.cfg.MinInsertLen && !hasNewline {
		return Result{}
	}

	// Clipboard match is the strongest signal and alone sufficient.
	if c.clipboardMatches(text, cctx.Clipboard) {
		return paste(text)
	}

	// Bulk heuristic: keystroke-by-keystroke typing rarely inserts more
	// than BulkInsertLen characters in a single reported change.
	if len(text) > c.cfg.BulkInsertLen {
		if lineCount(text) > c.cfg.BulkLineSpan || c.replacedSpanWidth(ev.Range) > c.cfg.BulkColumnSpan {
			return paste(text)
		}
	}

	// Shortcut corroboration raises sensitivity when the clipboard is
	// unavailable or non-matching, but still requires a reasonably
	// sized insertion.
	if cctx.ShortcutActive && (len(text) > c.cfg.ShortcutInsertLen || hasNewline) {
		return paste(text)
	}

	return Result{}
}

// Shortcut exposes the detector for hosts that deliver keypress timing
// out of band
func (c *Classifier) Shortcut() *ShortcutDetector {
	return c.shortcut
}

// Close stops the shortcut expiry timer
func (c *Classifier) Close() {
	c.shortcut.Stop()
}

func (c *Classifier) matchesAttributionMarker(text string) bool {
	for _, marker := range c.cfg.AttributionMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// clipboardMatches checks whether the insertion contains at least the
// clipboard's leading characters. A missing clipboard is treated as a
// non-match, never an error.
func (c *Classifier) clipboardMatches(text, clipboard string) bool {
	if clipboard == "" {
		return false
	}
	prefix := clipboard
	if len(prefix) > c.cfg.ClipboardPrefixLen {
		prefix = prefix[:c.cfg.ClipboardPrefixLen]
	}
	return strings.Contains(text, prefix)
}

// replacedSpanWidth measures how wide a one-shot replace was. A range
// crossing lines always counts as wider than any single-line threshold.
func (c *Classifier) replacedSpanWidth(r Range) int {
	if r.End.Line != r.Start.Line {
		return c.cfg.BulkColumnSpan + 1
	}
	return r.End.Character - r.Start.Character
}

func paste(text string) Result {
	return Result{IsPaste: true, LineCount: lineCount(text)}
}

func lineCount(text string) int {
	return strings.Count(text, "\n") + 1
}
