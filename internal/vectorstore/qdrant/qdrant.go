package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/personachat/personachat/internal/models"
)

// Qdrant implements the vector store interface over the Qdrant REST API
type Qdrant struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates a new Qdrant vector store client
func New(baseURL, apiKey string) *Qdrant {
	return &Qdrant{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (q *Qdrant) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qdrant API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// Ping verifies the Qdrant endpoint is reachable
func (q *Qdrant) Ping(ctx context.Context) error {
	return q.do(ctx, "GET", "/collections", nil, nil)
}

// EnsureCollection creates the collection with cosine distance if it does
// not exist
func (q *Qdrant) EnsureCollection(ctx context.Context, name string, vectorSize int) error {
	var listResp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}

	if err := q.do(ctx, "GET", "/collections", nil, &listResp); err != nil {
		return err
	}

	for _, col := range listResp.Result.Collections {
		if col.Name == name {
			return nil
		}
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	return q.do(ctx, "PUT", "/collections/"+name, body, nil)
}

// Upsert stores chunks with their embedding vectors
func (q *Qdrant) Upsert(ctx context.Context, collection string, chunks []models.DocumentChunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors must have same length: %d != %d", len(chunks), len(vectors))
	}

	points := make([]map[string]interface{}, 0, len(chunks))
	for i, chunk := range chunks {
		id := chunk.ID
		if id == "" {
			id = uuid.New().String()
		}
		points = append(points, map[string]interface{}{
			"id":     id,
			"vector": vectors[i],
			"payload": map[string]interface{}{
				"content":  chunk.Content,
				"metadata": chunk.Metadata,
			},
		})
	}

	body := map[string]interface{}{"points": points}
	return q.do(ctx, "PUT", "/collections/"+collection+"/points?wait=true", body, nil)
}

// Search returns the topK most similar chunks for a query vector
func (q *Qdrant) Search(ctx context.Context, collection string, queryVector []float64, topK int) ([]models.ScoredChunk, error) {
	body := map[string]interface{}{
		"vector":       queryVector,
		"limit":        topK,
		"with_payload": true,
	}

	var searchResp struct {
		Result []struct {
			ID      json.RawMessage `json:"id"`
			Score   float64         `json:"score"`
			Payload struct {
				Content  string            `json:"content"`
				Metadata map[string]string `json:"metadata"`
			} `json:"payload"`
		} `json:"result"`
	}

	if err := q.do(ctx, "POST", "/collections/"+collection+"/points/search", body, &searchResp); err != nil {
		return nil, err
	}

	results := make([]models.ScoredChunk, 0, len(searchResp.Result))
	for _, hit := range searchResp.Result {
		results = append(results, models.ScoredChunk{
			Chunk: models.DocumentChunk{
				ID:       strings.Trim(string(hit.ID), `"`),
				Content:  hit.Payload.Content,
				Metadata: hit.Payload.Metadata,
			},
			Score: hit.Score,
		})
	}

	return results, nil
}

// DeleteCollection removes a collection and its vectors
func (q *Qdrant) DeleteCollection(ctx context.Context, name string) error {
	return q.do(ctx, "DELETE", "/collections/"+name, nil, nil)
}
