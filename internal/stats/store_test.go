package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AddPaste(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir, "user-1")
	require.NoError(t, err)

	rec, err := store.AddPaste(3)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.TotalPastes)
	assert.Equal(t, 3, rec.TotalLinesPasted)
	assert.Equal(t, "user-1", rec.UserID)

	rec, err = store.AddPaste(10)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.TotalPastes)
	assert.Equal(t, 13, rec.TotalLinesPasted)
}

func TestStore_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir, "user-1")
	require.NoError(t, err)

	_, err = store.AddPaste(7)
	require.NoError(t, err)

	reloaded, err := NewStore(dir, "user-1")
	require.NoError(t, err)

	rec := reloaded.Record()
	assert.Equal(t, 1, rec.TotalPastes)
	assert.Equal(t, 7, rec.TotalLinesPasted)
}

func TestStore_DailyReset(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir, "user-1")
	require.NoError(t, err)

	day1 := time.Date(2024, 6, 1, 23, 50, 0, 0, time.UTC)
	store.clock = func() time.Time { return day1 }

	rec, err := store.AddPaste(5)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", rec.Date)
	assert.Equal(t, 1, rec.TotalPastes)

	// Past midnight the counters start over.
	store.clock = func() time.Time { return day1.Add(time.Hour) }

	rec = store.Record()
	assert.Equal(t, "2024-06-02", rec.Date)
	assert.Equal(t, 0, rec.TotalPastes)
	assert.Equal(t, 0, rec.TotalLinesPasted)

	rec, err = store.AddPaste(2)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.TotalPastes)
	assert.Equal(t, 2, rec.TotalLinesPasted)
}

func TestStore_IgnoresForeignUserID(t *testing.T) {
	dir := t.TempDir()

	today := time.Now().Format("2006-01-02")
	seeded := Record{TotalPastes: 4, TotalLinesPasted: 40, Date: today, UserID: "someone-else"}
	data, err := json.Marshal(seeded)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, recordFile), data, 0644))

	store, err := NewStore(dir, "user-1")
	require.NoError(t, err)

	rec := store.Record()
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, 4, rec.TotalPastes)
}

func TestStore_CorruptFileFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, recordFile), []byte("{not json"), 0644))

	_, err := NewStore(dir, "user-1")
	assert.Error(t, err)
}
