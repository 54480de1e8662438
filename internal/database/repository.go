package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Repository provides data access for users and daily stats
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// UpsertSubmission stores a user's daily totals and refreshes the
// cumulative totals on the user row. Submissions carry absolute daily
// counters, so the cumulative total is the sum over daily rows.
func (r *Repository) UpsertSubmission(userID, date, os, editorVersion string, totalPastes, totalLines int) error {
	now := time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO users (id, os, editor_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			os = excluded.os,
			editor_version = excluded.editor_version,
			updated_at = excluded.updated_at`,
		userID, os, editorVersion, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	upsert, err := r.db.GetPreparedStatement("upsert_daily")
	if err != nil {
		return err
	}

	_, err = tx.Stmt(upsert).Exec(NewDailyStatID(), userID, date, totalPastes, totalLines, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert daily stats: %w", err)
	}

	_, err = tx.Exec(`UPDATE users SET
			total_pastes = (SELECT COALESCE(SUM(total_pastes), 0) FROM daily_stats WHERE user_id = ?),
			total_lines_pasted = (SELECT COALESCE(SUM(total_lines_pasted), 0) FROM daily_stats WHERE user_id = ?),
			updated_at = ?
		WHERE id = ?`,
		userID, userID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update user totals: %w", err)
	}

	return tx.Commit()
}

// GetUser returns a user by ID
func (r *Repository) GetUser(userID string) (*User, error) {
	stmt, err := r.db.GetPreparedStatement("get_user")
	if err != nil {
		return nil, err
	}

	var user User
	var username, os, editorVersion sql.NullString

	err = stmt.QueryRow(userID).Scan(
		&user.ID, &username, &os, &editorVersion,
		&user.TotalPastes, &user.TotalLinesPasted,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s not found", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Username = username.String
	user.OS = os.String
	user.EditorVersion = editorVersion.String

	return &user, nil
}

// UserExists reports whether a user row is present
func (r *Repository) UserExists(userID string) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(1) FROM users WHERE id = ?`, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

// SetUsername updates a user's display name
func (r *Repository) SetUsername(userID, username string) error {
	res, err := r.db.Exec(`UPDATE users SET username = ?, updated_at = ? WHERE id = ?`,
		username, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set username: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s not found", userID)
	}

	return nil
}

// GetDailyStat returns one user's counters for a date
func (r *Repository) GetDailyStat(userID, date string) (*DailyStat, error) {
	var stat DailyStat
	err := r.db.QueryRow(`SELECT id, user_id, date, total_pastes, total_lines_pasted, created_at, updated_at
		FROM daily_stats WHERE user_id = ? AND date = ?`, userID, date).Scan(
		&stat.ID, &stat.UserID, &stat.Date,
		&stat.TotalPastes, &stat.TotalLinesPasted,
		&stat.CreatedAt, &stat.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}

	return &stat, nil
}

// LeaderboardRow is one ranked row returned by the leaderboard queries
type LeaderboardRow struct {
	UserID           string
	Username         string
	TotalPastes      int
	TotalLinesPasted int
}

// GetDailyLeaderboard returns the top rows for a date ordered by lines pasted
func (r *Repository) GetDailyLeaderboard(date string, limit int) ([]LeaderboardRow, error) {
	stmt, err := r.db.GetPreparedStatement("get_daily_leaderboard")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily leaderboard: %w", err)
	}
	defer rows.Close()

	return scanLeaderboardRows(rows)
}

// GetAllTimeLeaderboard returns the top rows by cumulative lines pasted
func (r *Repository) GetAllTimeLeaderboard(limit int) ([]LeaderboardRow, error) {
	stmt, err := r.db.GetPreparedStatement("get_alltime_leaderboard")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query all-time leaderboard: %w", err)
	}
	defer rows.Close()

	return scanLeaderboardRows(rows)
}

func scanLeaderboardRows(rows *sql.Rows) ([]LeaderboardRow, error) {
	result := make([]LeaderboardRow, 0, 50)

	for rows.Next() {
		var row LeaderboardRow
		var username sql.NullString

		if err := rows.Scan(&row.UserID, &username, &row.TotalPastes, &row.TotalLinesPasted); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		row.Username = username.String
		result = append(result, row)
	}

	return result, rows.Err()
}

// GetUserRank returns a user's 1-based all-time rank by lines pasted
func (r *Repository) GetUserRank(userID string) (int, error) {
	var rank int
	err := r.db.QueryRow(`SELECT COUNT(1) + 1 FROM users
		WHERE total_lines_pasted > (SELECT total_lines_pasted FROM users WHERE id = ?)`,
		userID).Scan(&rank)
	if err != nil {
		return 0, fmt.Errorf("failed to compute rank: %w", err)
	}
	return rank, nil
}

// GetGlobalStats aggregates totals across all users
func (r *Repository) GetGlobalStats(date string) (*GlobalStats, error) {
	stats := &GlobalStats{Date: date}

	err := r.db.QueryRow(`SELECT COUNT(1), COALESCE(SUM(total_pastes), 0), COALESCE(SUM(total_lines_pasted), 0)
		FROM users`).Scan(&stats.TotalUsers, &stats.TotalPastes, &stats.TotalLinesPasted)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user stats: %w", err)
	}

	err = r.db.QueryRow(`SELECT COUNT(1) FROM daily_stats WHERE date = ?`, date).Scan(&stats.ActiveToday)
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	return stats, nil
}
