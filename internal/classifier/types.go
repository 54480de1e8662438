package classifier

import "time"

// Position is a zero-based line/character location in a document
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is the span a change replaced. Start == End for plain insertions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Document identifies the document a change belongs to
type Document struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
}

// ChangeEvent is one text modification reported by the editor host.
// It is immutable and consumed once.
type ChangeEvent struct {
	Text      string    `json:"text"`
	Range     Range     `json:"range"`
	Document  Document  `json:"document"`
	Timestamp time.Time `json:"timestamp"`
}

// Context is the per-decision bundle assembled around one ChangeEvent.
// It lives for exactly one Classify call.
type Context struct {
	Clipboard      string
	SinceLastEdit  time.Duration
	SinceLastKey   time.Duration
	ShortcutActive bool
}

// Result is the classification outcome. LineCount is only meaningful
// when IsPaste is true.
type Result struct {
	IsPaste   bool `json:"is_paste"`
	LineCount int  `json:"line_count"`
}
