package astra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Client talks to the Astra DB Document API over REST. It authenticates
// with an application token when one is configured, falling back to
// exchanging the database ID/secret pair for a session token.
type Client struct {
	token    string
	username string
	secret   string
	keyspace string
	baseURL  string
	client   *http.Client

	mu      sync.Mutex
	session string
}

// New creates a client for the given database. The endpoint is derived
// from the database ID and region unless overridden with baseURL.
func New(token, databaseID, secret, keyspace, baseURL string) *Client {
	if baseURL == "" && databaseID != "" {
		baseURL = fmt.Sprintf("https://%s-us-east1.apps.astra.datastax.com", databaseID)
	}
	if keyspace == "" {
		keyspace = "default_keyspace"
	}
	return &Client{
		token:    token,
		username: databaseID,
		secret:   secret,
		keyspace: keyspace,
		baseURL:  baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Available reports whether credentials and an endpoint are configured
func (c *Client) Available() bool {
	if c == nil || c.baseURL == "" {
		return false
	}
	return c.token != "" || (c.username != "" && c.secret != "")
}

// authToken returns the credential sent with each request. The
// exchanged session token is cached for the lifetime of the client.
func (c *Client) authToken(ctx context.Context) (string, error) {
	if c.token != "" {
		return c.token, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != "" {
		return c.session, nil
	}

	jsonBody, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.secret,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/rest/v1/auth", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("astra auth request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read auth response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("astra auth error (%d): %s", resp.StatusCode, string(respBody))
	}

	var authResp struct {
		AuthToken string `json:"authToken"`
	}
	if err := json.Unmarshal(respBody, &authResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal auth response: %w", err)
	}
	if authResp.AuthToken == "" {
		return "", fmt.Errorf("astra auth returned no token")
	}

	c.session = authResp.AuthToken
	return c.session, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	token, err := c.authToken(ctx)
	if err != nil {
		return err
	}

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
	req.Header.Set("X-Cassandra-Token", token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("astra request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("astra API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// Ping checks that the keyspace is reachable
func (c *Client) Ping(ctx context.Context) error {
	if !c.Available() {
		return fmt.Errorf("astra credentials not configured")
	}
	path := fmt.Sprintf("/api/rest/v2/schemas/keyspaces/%s", c.keyspace)
	return c.do(ctx, "GET", path, nil, nil)
}

// PutDocument stores a document under the given collection and ID
func (c *Client) PutDocument(ctx context.Context, collection, id string, doc map[string]interface{}) error {
	if !c.Available() {
		return fmt.Errorf("astra credentials not configured")
	}
	path := fmt.Sprintf("/api/rest/v2/namespaces/%s/collections/%s/%s", c.keyspace, collection, id)
	return c.do(ctx, "PUT", path, doc, nil)
}

// GetDocument fetches a document by ID
func (c *Client) GetDocument(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	if !c.Available() {
		return nil, fmt.Errorf("astra credentials not configured")
	}

	var docResp struct {
		Data map[string]interface{} `json:"data"`
	}
	path := fmt.Sprintf("/api/rest/v2/namespaces/%s/collections/%s/%s", c.keyspace, collection, id)
	if err := c.do(ctx, "GET", path, nil, &docResp); err != nil {
		return nil, err
	}

	return docResp.Data, nil
}
