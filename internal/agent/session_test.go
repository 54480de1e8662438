package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/clipwatch/clipwatch/internal/classifier"
	"github.com/clipwatch/clipwatch/internal/stats"
	"github.com/clipwatch/clipwatch/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubmitter struct {
	requests []types.SubmitRequest
}

func (r *recordingSubmitter) Enqueue(req types.SubmitRequest) {
	r.requests = append(r.requests, req)
}

type staticClipboard struct {
	text string
	err  error
}

func (s *staticClipboard) Read(context.Context) (string, error) {
	return s.text, s.err
}

func newTestSession(t *testing.T, clipboard ClipboardReader) (*Session, *recordingSubmitter) {
	t.Helper()

	store, err := stats.NewStore(t.TempDir(), "user-1")
	require.NoError(t, err)

	submitter := &recordingSubmitter{}
	cls := classifier.New(classifier.DefaultConfig())
	t.Cleanup(cls.Close)

	session := NewSession(Config{UserID: "user-1", EditorVersion: "1.90.0"}, cls, store, submitter, clipboard)
	return session, submitter
}

func pasteSet(ts time.Time) ChangeSet {
	clipboard := "func foo() {"
	return ChangeSet{
		URI:        "file:///home/dev/main.go",
		LanguageID: "go",
		Timestamp:  ts,
		ContentChanges: []ContentChange{
			{Text: "func foo() {\n\treturn 1\n}"},
		},
		Clipboard: &clipboard,
	}
}

func TestSessionHandlePaste(t *testing.T) {
	session, submitter := newTestSession(t, nil)

	session.Handle(context.Background(), pasteSet(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)))

	require.Len(t, submitter.requests, 1)
	req := submitter.requests[0]
	assert.Equal(t, "user-1", req.UserID)
	assert.Equal(t, 1, req.TotalPastes)
	assert.Equal(t, 3, req.TotalLinesPasted)
	assert.Equal(t, "1.90.0", req.EditorVersion)
	assert.NotEmpty(t, req.OS)
}

func TestSessionThrottlesBursts(t *testing.T) {
	session, submitter := newTestSession(t, nil)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	session.Handle(context.Background(), pasteSet(base))
	// The host reports the same paste again 50ms later; skipped.
	session.Handle(context.Background(), pasteSet(base.Add(50*time.Millisecond)))

	assert.Len(t, submitter.requests, 1)
}

func TestSessionOnlyFirstChangeInBatch(t *testing.T) {
	session, submitter := newTestSession(t, nil)

	clipboard := "func foo() {"
	set := ChangeSet{
		URI:        "file:///home/dev/main.go",
		LanguageID: "go",
		Timestamp:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		ContentChanges: []ContentChange{
			{Text: "x"}, // typed character leads the batch
			{Text: "func foo() {\n\treturn 1\n}"},
		},
		Clipboard: &clipboard,
	}

	session.Handle(context.Background(), set)

	assert.Empty(t, submitter.requests)
}

func TestSessionClipboardFailureDegrades(t *testing.T) {
	session, submitter := newTestSession(t, &staticClipboard{err: errors.New("clipboard unavailable")})

	set := pasteSet(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	set.Clipboard = nil
	// With the clipboard signal gone, the 24-char insert is under the
	// bulk threshold and classifies as typing.
	session.Handle(context.Background(), set)

	assert.Empty(t, submitter.requests)
}

func TestSessionRunConsumesStream(t *testing.T) {
	session, submitter := newTestSession(t, nil)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var lines []string

	first, err := json.Marshal(pasteSet(base))
	require.NoError(t, err)
	lines = append(lines, string(first))

	lines = append(lines, "{malformed json")

	second, err := json.Marshal(pasteSet(base.Add(time.Second)))
	require.NoError(t, err)
	lines = append(lines, string(second))

	err = session.Run(context.Background(), strings.NewReader(strings.Join(lines, "\n")+"\n"))
	require.NoError(t, err)

	require.Len(t, submitter.requests, 2)
	assert.Equal(t, 2, submitter.requests[1].TotalPastes)
	assert.Equal(t, 6, submitter.requests[1].TotalLinesPasted)
}

func TestSessionIgnoresNonCodeDocuments(t *testing.T) {
	session, submitter := newTestSession(t, nil)

	set := pasteSet(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	set.URI = "file:///home/dev/README.md"
	set.LanguageID = "markdown"

	session.Handle(context.Background(), set)

	assert.Empty(t, submitter.requests)
}
