// Package middleware holds transport-level gin middleware shared by the
// API routes.
package middleware

import (
	"compress/gzip"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	CompressionLevel int      // gzip level, 1 to 9
	ContentTypes     []string // content types worth compressing
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		CompressionLevel: gzip.DefaultCompression,
		ContentTypes: []string{
			"application/json",
			"text/plain",
			"text/html",
		},
	}
}

// CompressionMiddleware gzips API responses for clients that accept it.
// Leaderboard payloads are highly repetitive JSON and compress well.
type CompressionMiddleware struct {
	config CompressionConfig
	pool   sync.Pool

	totalRequests      int64
	compressedRequests int64
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	cm := &CompressionMiddleware{config: config}
	cm.pool = sync.Pool{
		New: func() interface{} {
			gz, _ := gzip.NewWriterLevel(io.Discard, config.CompressionLevel)
			return gz
		},
	}
	return cm
}

// Handler returns the gin middleware
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		atomic.AddInt64(&cm.totalRequests, 1)

		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gz := cm.pool.Get().(*gzip.Writer)
		defer cm.pool.Put(gz)

		writer := &gzipResponseWriter{
			ResponseWriter: c.Writer,
			gz:             gz,
			cm:             cm,
		}
		c.Writer = writer
		c.Next()
		writer.close()
	}
}

// GetStats returns compression counters
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	total := atomic.LoadInt64(&cm.totalRequests)
	compressed := atomic.LoadInt64(&cm.compressedRequests)

	return map[string]interface{}{
		"total_requests":      total,
		"compressed_requests": compressed,
	}
}

func (cm *CompressionMiddleware) shouldCompress(contentType string) bool {
	for _, ct := range cm.config.ContentTypes {
		if strings.Contains(contentType, ct) {
			return true
		}
	}
	return false
}

// gzipResponseWriter decides on the first write whether the response is
// compressible, then streams everything through the gzip writer.
type gzipResponseWriter struct {
	gin.ResponseWriter
	gz      *gzip.Writer
	cm      *CompressionMiddleware
	active  bool
	decided bool
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	if !w.decided {
		w.decided = true
		if w.cm.shouldCompress(w.Header().Get("Content-Type")) {
			w.active = true
			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Set("Vary", "Accept-Encoding")
			w.Header().Del("Content-Length")
			w.gz.Reset(w.ResponseWriter)
			atomic.AddInt64(&w.cm.compressedRequests, 1)
		}
	}

	if w.active {
		if n, err := w.gz.Write(data); err != nil {
			return n, err
		}
		return len(data), nil
	}
	return w.ResponseWriter.Write(data)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *gzipResponseWriter) close() {
	if w.active {
		w.gz.Close()
	}
}
