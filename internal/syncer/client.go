// Package syncer pushes paste totals to the leaderboard service. The
// event loop fires submissions and forgets them; failures land in a
// pending slot that a background loop retries with backoff.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/clipwatch/clipwatch/internal/errors"
	"github.com/clipwatch/clipwatch/internal/types"
)

// Client talks to the leaderboard service HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	dataDir    string

	mu    sync.Mutex
	token string
}

// NewClient creates a client for the given service base URL. The data
// dir stores the device token issued on first submission.
func NewClient(baseURL, dataDir string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		dataDir: dataDir,
	}
	c.token = c.loadToken()
	return c
}

// Submit posts the current totals to /api/submit
func (c *Client) Submit(ctx context.Context, req types.SubmitRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return errors.WrapError(err, "failed to marshal submission")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/submit", bytes.NewReader(body))
	if err != nil {
		return errors.WrapError(err, "failed to build submit request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token := c.deviceToken(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.NewNetworkError("submit request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var submitResp types.SubmitResponse
		if err := json.NewDecoder(resp.Body).Decode(&submitResp); err == nil && submitResp.DeviceToken != "" {
			c.setDeviceToken(submitResp.DeviceToken)
			c.saveToken(submitResp.DeviceToken)
		}
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.NewRateLimitError(resp.Header.Get("Retry-After"))
	case resp.StatusCode >= 500:
		return errors.NewNetworkError(fmt.Sprintf("service returned %d", resp.StatusCode), nil)
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.NewValidationError(fmt.Sprintf("submission rejected (%d): %s", resp.StatusCode, msg))
	}
}

// Health probes /api/health
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return errors.WrapError(err, "failed to build health request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.NewNetworkError("health check failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewNetworkError(fmt.Sprintf("service unhealthy (%d)", resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) deviceToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setDeviceToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

const tokenFile = "device_token"

func (c *Client) loadToken() string {
	data, err := os.ReadFile(filepath.Join(c.dataDir, tokenFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (c *Client) saveToken(token string) {
	if c.dataDir == "" {
		return
	}
	if err := os.MkdirAll(c.dataDir, 0755); err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(c.dataDir, tokenFile), []byte(token), 0600)
}
