package database

import (
	"time"

	"github.com/google/uuid"
)

// User holds a user's cumulative totals and profile
type User struct {
	ID               string    `json:"userId" db:"id"`
	Username         string    `json:"username,omitempty" db:"username"`
	OS               string    `json:"os,omitempty" db:"os"`
	EditorVersion    string    `json:"editorVersion,omitempty" db:"editor_version"`
	TotalPastes      int       `json:"totalPastes" db:"total_pastes"`
	TotalLinesPasted int       `json:"totalLinesPasted" db:"total_lines_pasted"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// DailyStat is one user's counters for a single day
type DailyStat struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"userId" db:"user_id"`
	Date             string    `json:"date" db:"date"`
	TotalPastes      int       `json:"totalPastes" db:"total_pastes"`
	TotalLinesPasted int       `json:"totalLinesPasted" db:"total_lines_pasted"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// GlobalStats aggregates across all users
type GlobalStats struct {
	TotalUsers       int    `json:"totalUsers"`
	TotalPastes      int    `json:"totalPastes"`
	TotalLinesPasted int    `json:"totalLinesPasted"`
	ActiveToday      int    `json:"activeToday"`
	Date             string `json:"date"`
}

// NewDailyStatID generates a primary key for a daily stats row
func NewDailyStatID() string {
	return uuid.New().String()
}
