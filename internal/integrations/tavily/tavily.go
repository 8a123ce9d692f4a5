package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.tavily.com"

// Client calls the Tavily web search API
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Result is a single search hit
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchResponse is the answer plus ranked results for a query
type SearchResponse struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer"`
	Results []Result `json:"results"`
}

// New creates a new Tavily client
func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
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

// Search runs a basic-depth web search and returns up to maxResults hits
func (c *Client) Search(ctx context.Context, query string, maxResults int) (*SearchResponse, error) {
	if !c.Available() {
		return nil, fmt.Errorf("tavily API key not configured")
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	reqBody := map[string]interface{}{
		"api_key":        c.apiKey,
		"query":          query,
		"search_depth":   "basic",
		"max_results":    maxResults,
		"include_answer": true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/search", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(respBody, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &searchResp, nil
}
