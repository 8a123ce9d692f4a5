package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// Client is a minimal GitHub REST API client
type Client struct {
	token   string
	baseURL string
	client  *http.Client
}

// Repository summarizes a repository search hit
type Repository struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Stars       int    `json:"stargazers_count"`
	HTMLURL     string `json:"html_url"`
}

// New creates a new GitHub client
func New(token string) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewWithBaseURL creates a client against a custom endpoint
func NewWithBaseURL(token, baseURL string) *Client {
	c := New(token)
	c.baseURL = baseURL
	return c
}

// Available reports whether a credential is configured
func (c *Client) Available() bool {
	return c != nil && c.token != ""
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// SearchRepositories returns up to maxResults repositories matching the query
func (c *Client) SearchRepositories(ctx context.Context, query string, maxResults int) ([]Repository, error) {
	if !c.Available() {
		return nil, fmt.Errorf("github token not configured")
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	var searchResp struct {
		Items []Repository `json:"items"`
	}
	path := fmt.Sprintf("/search/repositories?q=%s&per_page=%d", url.QueryEscape(query), maxResults)
	if err := c.get(ctx, path, &searchResp); err != nil {
		return nil, err
	}

	return searchResp.Items, nil
}

// FileContent fetches the decoded content of a file in a repository.
// The repo argument is "owner/name".
func (c *Client) FileContent(ctx context.Context, repo, path string) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("github token not configured")
	}

	var contentResp struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	apiPath := fmt.Sprintf("/repos/%s/contents/%s", repo, strings.TrimPrefix(path, "/"))
	if err := c.get(ctx, apiPath, &contentResp); err != nil {
		return "", err
	}

	if contentResp.Encoding != "base64" {
		return contentResp.Content, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(contentResp.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("failed to decode file content: %w", err)
	}

	return string(decoded), nil
}
