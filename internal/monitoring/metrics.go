package monitoring

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application counters exposed on /metrics
type Metrics struct {
	RequestCount     int64
	ErrorCount       int64
	SubmitCount      int64
	RateLimitBlocks  int64
	RateLimitErrors  int64
	FallbackLimiters int64
	StartTime        time.Time

	statusMutex          sync.RWMutex
	requestCountByStatus map[int]int64

	averageResponseTime int64 // nanoseconds
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		requestCountByStatus: make(map[int]int64),
	}
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementSubmit increments the accepted submission count
func (m *Metrics) IncrementSubmit() {
	atomic.AddInt64(&m.SubmitCount, 1)
}

// IncrementRateLimitBlock records a blocked request
func (m *Metrics) IncrementRateLimitBlock() {
	atomic.AddInt64(&m.RateLimitBlocks, 1)
}

// IncrementRateLimitError records a rate limiter backend error
func (m *Metrics) IncrementRateLimitError() {
	atomic.AddInt64(&m.RateLimitErrors, 1)
}

// IncrementFallback records a fall back to the in-memory limiter
func (m *Metrics) IncrementFallback() {
	atomic.AddInt64(&m.FallbackLimiters, 1)
}

// RecordResponseTime folds a response time into the running average
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	current := atomic.LoadInt64(&m.averageResponseTime)
	atomic.StoreInt64(&m.averageResponseTime, (current+duration.Nanoseconds())/2)
}

// RecordRequestByStatus tracks status code distribution
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.statusMutex.Lock()
	defer m.statusMutex.Unlock()
	m.requestCountByStatus[statusCode]++
}

// GetStats returns a snapshot of all counters
func (m *Metrics) GetStats() map[string]interface{} {
	m.statusMutex.RLock()
	byStatus := make(map[int]int64, len(m.requestCountByStatus))
	for code, count := range m.requestCountByStatus {
		byStatus[code] = count
	}
	m.statusMutex.RUnlock()

	return map[string]interface{}{
		"request_count":        atomic.LoadInt64(&m.RequestCount),
		"error_count":          atomic.LoadInt64(&m.ErrorCount),
		"submit_count":         atomic.LoadInt64(&m.SubmitCount),
		"rate_limit_blocks":    atomic.LoadInt64(&m.RateLimitBlocks),
		"rate_limit_errors":    atomic.LoadInt64(&m.RateLimitErrors),
		"fallback_limiters":    atomic.LoadInt64(&m.FallbackLimiters),
		"avg_response_time_ms": time.Duration(atomic.LoadInt64(&m.averageResponseTime)).Milliseconds(),
		"requests_by_status":   byStatus,
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
	}
}
