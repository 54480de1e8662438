// Package leaderboard serves ranked paste totals over the database
// repository, with TTL caching for the read paths.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clipwatch/clipwatch/internal/database"
)

// Entry is one ranked leaderboard row
type Entry struct {
	Rank             int    `json:"rank"`
	UserID           string `json:"userId"`
	Username         string `json:"username,omitempty"`
	TotalPastes      int    `json:"totalPastes"`
	TotalLinesPasted int    `json:"totalLinesPasted"`
}

// Response is the payload for leaderboard queries
type Response struct {
	Today       []Entry   `json:"today"`
	AllTime     []Entry   `json:"allTime"`
	Date        string    `json:"date"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// UserView is one user's stats plus their rank
type UserView struct {
	database.User
	Rank  int                 `json:"rank"`
	Today *database.DailyStat `json:"today,omitempty"`
}

// Service handles leaderboard operations
type Service struct {
	repo  *database.Repository
	cache *Cache
	clock func() time.Time
}

// NewService creates a new leaderboard service
func NewService(repo *database.Repository) *Service {
	return &Service{
		repo:  repo,
		cache: NewCache(time.Minute),
		clock: time.Now,
	}
}

// Submit records a user's daily totals and invalidates cached rankings
func (s *Service) Submit(userID, date, os, editorVersion string, totalPastes, totalLines int) (int, error) {
	if err := s.repo.UpsertSubmission(userID, date, os, editorVersion, totalPastes, totalLines); err != nil {
		return 0, err
	}

	s.cache.Invalidate()

	rank, err := s.repo.GetUserRank(userID)
	if err != nil {
		// Rank is advisory on the submit path; the write succeeded.
		slog.Warn("failed to compute rank after submission", "user_id", userID, "error", err)
		return 0, nil
	}

	return rank, nil
}

// GetLeaderboard returns today's and the all-time rankings
func (s *Service) GetLeaderboard(limit int) (*Response, error) {
	date := s.clock().Format("2006-01-02")
	cacheKey := fmt.Sprintf("leaderboard:%s:%d", date, limit)

	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*Response), nil
	}

	dailyRows, err := s.repo.GetDailyLeaderboard(date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily leaderboard: %w", err)
	}

	allTimeRows, err := s.repo.GetAllTimeLeaderboard(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load all-time leaderboard: %w", err)
	}

	response := &Response{
		Today:       rankRows(dailyRows),
		AllTime:     rankRows(allTimeRows),
		Date:        date,
		GeneratedAt: s.clock(),
	}

	s.cache.Set(cacheKey, response)

	return response, nil
}

// GetUser returns one user's stats, rank, and today's counters
func (s *Service) GetUser(userID string) (*UserView, error) {
	user, err := s.repo.GetUser(userID)
	if err != nil {
		return nil, err
	}

	rank, err := s.repo.GetUserRank(userID)
	if err != nil {
		return nil, err
	}

	today, err := s.repo.GetDailyStat(userID, s.clock().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	return &UserView{User: *user, Rank: rank, Today: today}, nil
}

// SetUsername updates a user's display name
func (s *Service) SetUsername(userID, username string) error {
	if err := s.repo.SetUsername(userID, username); err != nil {
		return err
	}

	s.cache.Invalidate()
	return nil
}

// GetGlobalStats returns aggregates across all users
func (s *Service) GetGlobalStats() (*database.GlobalStats, error) {
	date := s.clock().Format("2006-01-02")
	cacheKey := "global:" + date

	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*database.GlobalStats), nil
	}

	stats, err := s.repo.GetGlobalStats(date)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, stats)

	return stats, nil
}

// WarmCache primes the default leaderboard query so the first reader
// after startup is not the one paying for it
func (s *Service) WarmCache() {
	if _, err := s.GetLeaderboard(50); err != nil {
		slog.Warn("failed to warm leaderboard cache", "error", err)
	}
}

// StartAutoRefresh re-primes the cache on the given interval until the
// context is cancelled. Blocks; run it on its own goroutine.
func (s *Service) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cache.Invalidate()
			s.WarmCache()
		}
	}
}

// GetCacheStats exposes cache counters for the ops endpoints
func (s *Service) GetCacheStats() map[string]interface{} {
	return s.cache.Stats()
}

func rankRows(rows []database.LeaderboardRow) []Entry {
	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = Entry{
			Rank:             i + 1,
			UserID:           row.UserID,
			Username:         row.Username,
			TotalPastes:      row.TotalPastes,
			TotalLinesPasted: row.TotalLinesPasted,
		}
	}
	return entries
}
