package e2b

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.e2b.dev"

// Client runs untrusted code in E2B cloud sandboxes
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Execution holds the output of a sandboxed code run
type Execution struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Error  string `json:"error,omitempty"`
}

// New creates a new E2B client
func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// NewWithBaseURL creates a client against a custom endpoint
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = baseURL
	return c
}

// Available reports whether a credential is configured
func (c *Client) Available() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("e2b request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("e2b API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// RunCode creates a sandbox, executes the code in it and tears the
// sandbox down before returning the captured output
func (c *Client) RunCode(ctx context.Context, language, code string) (*Execution, error) {
	if !c.Available() {
		return nil, fmt.Errorf("e2b API key not configured")
	}
	if language == "" {
		language = "python"
	}

	var sandbox struct {
		SandboxID string `json:"sandboxID"`
	}
	createBody := map[string]interface{}{
		"templateID": "code-interpreter-v1",
		"timeout":    60,
	}
	if err := c.do(ctx, "POST", "/sandboxes", createBody, &sandbox); err != nil {
		return nil, fmt.Errorf("failed to create sandbox: %w", err)
	}
	defer func() {
		killCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// best effort, the sandbox times out on its own
		_ = c.do(killCtx, "DELETE", "/sandboxes/"+sandbox.SandboxID, nil, nil)
	}()

	var exec Execution
	execBody := map[string]interface{}{
		"language": language,
		"code":     code,
	}
	if err := c.do(ctx, "POST", "/sandboxes/"+sandbox.SandboxID+"/execute", execBody, &exec); err != nil {
		return nil, fmt.Errorf("failed to execute code: %w", err)
	}

	return &exec, nil
}
