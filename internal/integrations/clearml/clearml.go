package clearml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client reports chat interactions to a ClearML server
type Client struct {
	accessKey string
	secretKey string
	host      string
	client    *http.Client
}

// ChatEvent describes a single chat interaction for experiment tracking
type ChatEvent struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	TokensUsed int64  `json:"tokens_used"`
	LatencyMs  int64  `json:"latency_ms"`
}

// New creates a new ClearML client
func New(accessKey, secretKey, host string) *Client {
	return &Client{
		accessKey: accessKey,
		secretKey: secretKey,
		host:      strings.TrimRight(host, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Available reports whether credentials and a host are configured
func (c *Client) Available() bool {
	return c != nil && c.accessKey != "" && c.secretKey != "" && c.host != ""
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.host+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.accessKey, c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("clearml request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("clearml API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Ping verifies the server is reachable with the configured credentials
func (c *Client) Ping(ctx context.Context) error {
	if !c.Available() {
		return fmt.Errorf("clearml credentials not configured")
	}
	return c.post(ctx, "/debug.ping", map[string]interface{}{})
}

// ReportChat records a chat interaction as scalar events on the
// personachat monitoring task
func (c *Client) ReportChat(ctx context.Context, event ChatEvent) error {
	if !c.Available() {
		return fmt.Errorf("clearml credentials not configured")
	}

	now := time.Now().UnixMilli()
	requests := []map[string]interface{}{
		{
			"type":      "training_stats_scalar",
			"task":      "personachat",
			"metric":    "chat",
			"variant":   fmt.Sprintf("%s/%s/tokens", event.Provider, event.Model),
			"value":     float64(event.TokensUsed),
			"timestamp": now,
		},
		{
			"type":      "training_stats_scalar",
			"task":      "personachat",
			"metric":    "chat",
			"variant":   fmt.Sprintf("%s/%s/latency_ms", event.Provider, event.Model),
			"value":     float64(event.LatencyMs),
			"timestamp": now,
		},
	}

	return c.post(ctx, "/events.add_batch", map[string]interface{}{"requests": requests})
}
