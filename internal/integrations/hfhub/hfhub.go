package hfhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://huggingface.co"

// Client talks to the Hugging Face Hub API
type Client struct {
	token   string
	baseURL string
	client  *http.Client
}

// New creates a new Hub client
func New(token string) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// NewWithBaseURL creates a client against a custom endpoint
func NewWithBaseURL(token, baseURL string) *Client {
	c := New(token)
	c.baseURL = baseURL
	return c
}

// Available reports whether a token is configured
func (c *Client) Available() bool {
	return c != nil && c.token != ""
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface hub request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("huggingface hub API error (%d): %s", resp.StatusCode, string(body))
	}

	return resp, nil
}

// ListFiles returns the file paths in a model repository
func (c *Client) ListFiles(ctx context.Context, repoID string) ([]string, error) {
	resp, err := c.get(ctx, "/api/models/"+repoID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var modelResp struct {
		Siblings []struct {
			Rfilename string `json:"rfilename"`
		} `json:"siblings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&modelResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	files := make([]string, 0, len(modelResp.Siblings))
	for _, s := range modelResp.Siblings {
		files = append(files, s.Rfilename)
	}
	return files, nil
}

// DownloadFile fetches a single file from a model repository at the
// main revision
func (c *Client) DownloadFile(ctx context.Context, repoID, filename string) ([]byte, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/%s/resolve/main/%s", repoID, filename))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}
