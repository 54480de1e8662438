// Package stats persists the per-day paste counters the classifier feeds.
package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Record is the file-backed daily counter keyed by day. The date string
// uses YYYY-MM-DD; when it differs from the current date the counters
// reset.
type Record struct {
	TotalPastes      int    `json:"totalPastes"`
	TotalLinesPasted int    `json:"totalLinesPasted"`
	Date             string `json:"date"`
	UserID           string `json:"userId"`
}

// Store manages the record file inside a data directory
type Store struct {
	dataDir string
	userID  string
	clock   func() time.Time

	record Record
}

const recordFile = "paste_stats.json"

// NewStore loads (or initializes) the stats record for the given user
func NewStore(dataDir, userID string) (*Store, error) {
	s := &Store{
		dataDir: dataDir,
		userID:  userID,
		clock:   time.Now,
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Record returns a copy of the current counters, resetting first if the
// stored date has rolled over
func (s *Store) Record() Record {
	s.rollover()
	return s.record
}

// AddPaste increments the counters for one detected paste and persists
func (s *Store) AddPaste(lineCount int) (Record, error) {
	s.rollover()

	s.record.TotalPastes++
	s.record.TotalLinesPasted += lineCount

	if err := s.save(); err != nil {
		return s.record, err
	}

	slog.Debug("paste recorded",
		"total_pastes", s.record.TotalPastes,
		"total_lines", s.record.TotalLinesPasted,
		"date", s.record.Date)

	return s.record, nil
}

// rollover resets the counters when the stored date is not today
func (s *Store) rollover() {
	today := s.clock().Format("2006-01-02")
	if s.record.Date == today {
		return
	}

	if s.record.Date != "" {
		slog.Info("daily stats reset", "previous_date", s.record.Date, "date", today)
	}

	s.record = Record{Date: today, UserID: s.userID}
}

func (s *Store) load() error {
	path := filepath.Join(s.dataDir, recordFile)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.record = Record{Date: s.clock().Format("2006-01-02"), UserID: s.userID}
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open stats file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&s.record); err != nil {
		return fmt.Errorf("failed to decode stats file: %w", err)
	}

	// The file may belong to another install; the configured user wins.
	s.record.UserID = s.userID
	s.rollover()

	return nil
}

// save writes the record atomically: temp file then rename, so a crash
// mid-write never corrupts the counters
func (s *Store) save() error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(s.record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	path := filepath.Join(s.dataDir, recordFile)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace stats file: %w", err)
	}

	return nil
}
