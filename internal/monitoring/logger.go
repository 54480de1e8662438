package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger provides structured logging with domain-specific helpers
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new JSON logger
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// SubmitLogger logs a leaderboard submission
func (l *Logger) SubmitLogger(userID string, totalPastes, totalLines int, date string) {
	l.Info("Submission Processed",
		"user_id", userID,
		"total_pastes", totalPastes,
		"total_lines", totalLines,
		"date", date,
	)
}

// APIErrorLogger logs an API error with request context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	l.Error("API Error",
		"error", err,
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
	)
}

// PerformanceLogger logs a performance observation
func (l *Logger) PerformanceLogger(metric string, value float64, unit string) {
	l.Warn("Performance Warning",
		"metric", metric,
		"value", value,
		"unit", unit,
	)
}
