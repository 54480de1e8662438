// Package agent runs the editor-side event loop: it consumes
// document-change notifications from the editor shim, classifies them,
// and feeds detected pastes into the stats store and the sync pipeline.
package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/clipwatch/clipwatch/internal/classifier"
	"github.com/clipwatch/clipwatch/internal/stats"
	"github.com/clipwatch/clipwatch/internal/types"
)

// ContentChange is one modification inside a host notification
type ContentChange struct {
	Text  string           `json:"text"`
	Range classifier.Range `json:"range"`
}

// ChangeSet is the wire format the editor shim emits: one notification
// per document edit, newline-delimited JSON. The optional clipboard
// snapshot lets the shim avoid a second round trip.
type ChangeSet struct {
	URI            string          `json:"uri"`
	LanguageID     string          `json:"languageId"`
	Timestamp      time.Time       `json:"timestamp"`
	ContentChanges []ContentChange `json:"contentChanges"`
	Clipboard      *string         `json:"clipboard,omitempty"`
}

// Config holds the agent session settings
type Config struct {
	UserID        string
	EditorVersion string
	Debug         bool
}

// Submitter receives updated totals for delivery to the leaderboard
// service. *syncer.Syncer is the production implementation.
type Submitter interface {
	Enqueue(types.SubmitRequest)
}

// Session wires the classifier to the stats store and syncer. All event
// handling happens on the single Run goroutine; the clipboard read is
// the only suspension point.
type Session struct {
	cfg        Config
	classifier *classifier.Classifier
	store      *stats.Store
	syncer     Submitter
	clipboard  ClipboardReader
}

// NewSession creates a session over the given collaborators
func NewSession(cfg Config, cls *classifier.Classifier, store *stats.Store, sync Submitter, clipboard ClipboardReader) *Session {
	return &Session{
		cfg:        cfg,
		classifier: cls,
		store:      store,
		syncer:     sync,
		clipboard:  clipboard,
	}
}

// Run consumes newline-delimited JSON change sets until EOF or context
// cancellation. Malformed payloads are logged and skipped; the loop
// never aborts on a single bad event.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var set ChangeSet
		if err := json.Unmarshal(line, &set); err != nil {
			slog.Warn("malformed change event skipped", "error", err)
			continue
		}

		s.Handle(ctx, set)
	}

	return scanner.Err()
}

// Handle processes one change set. Only the first change in a batch is
// classified; the host reports a single paste as one leading change
// plus formatting fragments.
func (s *Session) Handle(ctx context.Context, set ChangeSet) {
	if len(set.ContentChanges) == 0 {
		return
	}

	change := set.ContentChanges[0]
	ev := classifier.ChangeEvent{
		Text:  change.Text,
		Range: change.Range,
		Document: classifier.Document{
			URI:        set.URI,
			LanguageID: set.LanguageID,
		},
		Timestamp: set.Timestamp,
	}

	res, processed := s.classifier.Process(ev, s.readClipboard(ctx, set))
	if !processed || !res.IsPaste {
		return
	}

	record, err := s.store.AddPaste(res.LineCount)
	if err != nil {
		slog.Error("failed to persist paste stats", "error", err)
		return
	}

	slog.Info("paste detected",
		"line_count", res.LineCount,
		"total_pastes", record.TotalPastes,
		"total_lines", record.TotalLinesPasted)

	s.syncer.Enqueue(types.SubmitRequest{
		UserID:           record.UserID,
		TotalPastes:      record.TotalPastes,
		TotalLinesPasted: record.TotalLinesPasted,
		Date:             record.Date,
		OS:               runtime.GOOS,
		EditorVersion:    s.cfg.EditorVersion,
	})
}

// readClipboard prefers the snapshot carried on the event and falls
// back to the host clipboard. Any failure degrades to an empty
// snapshot; classification continues without the signal.
func (s *Session) readClipboard(ctx context.Context, set ChangeSet) string {
	if set.Clipboard != nil {
		return *set.Clipboard
	}
	if s.clipboard == nil {
		return ""
	}

	text, err := s.clipboard.Read(ctx)
	if err != nil {
		if s.cfg.Debug {
			slog.Debug("clipboard read failed, continuing without it", "error", err)
		}
		return ""
	}
	return text
}
