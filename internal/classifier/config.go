package classifier

import "time"

// Config holds the classifier thresholds and filters. All fields are
// explicit so tuning is visible at construction instead of buried in
// dynamic settings lookups.
type Config struct {
	// MinInsertLen is the smallest single-line insertion worth classifying
	MinInsertLen int

	// BulkInsertLen is the length above which the bulk heuristic applies
	BulkInsertLen int

	// BulkLineSpan is the line count a bulk insertion must exceed
	BulkLineSpan int

	// BulkColumnSpan is the replaced-range width a single-line bulk
	// insertion must exceed
	BulkColumnSpan int

	// ClipboardPrefixLen is how many leading clipboard characters must
	// appear in the insertion for a clipboard match
	ClipboardPrefixLen int

	// ShortcutInsertLen is the minimum insertion size for the
	// shortcut-corroboration signal (unless the insertion is multi-line)
	ShortcutInsertLen int

	// ShortcutWindow is the max keystroke interval treated as a paste
	// shortcut proxy
	ShortcutWindow time.Duration

	// ShortcutValidity is how long a detected shortcut stays usable
	ShortcutValidity time.Duration

	// MinEventInterval throttles classification: edits arriving sooner
	// after the previous processed edit are skipped entirely
	MinEventInterval time.Duration

	// AttributionMarkers excludes in-editor AI/assistant insertions that
	// would otherwise look like pastes
	AttributionMarkers []string

	// Debug enables verbose decision logging
	Debug bool
}

// DefaultConfig returns the tuned production thresholds
func DefaultConfig() Config {
	return Config{
		MinInsertLen:       5,
		BulkInsertLen:      50,
		BulkLineSpan:       2,
		BulkColumnSpan:     10,
		ClipboardPrefixLen: 20,
		ShortcutInsertLen:  10,
		ShortcutWindow:     300 * time.Millisecond,
		ShortcutValidity:   500 * time.Millisecond,
		MinEventInterval:   300 * time.Millisecond,
		AttributionMarkers: defaultAttributionMarkers(),
		Debug:              false,
	}
}

// defaultAttributionMarkers returns the known assistant signature strings.
// These insertions originate from in-editor generation, not the clipboard.
func defaultAttributionMarkers() []string {
	return []string{
		"Generated by",
		"Suggested by",
		"Copilot suggestion",
		"AI-generated",
		"Auto-generated by",
	}
}
