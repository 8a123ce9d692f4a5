package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultModel is the sentence-transformer used for document embeddings
	DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

	// Dimensions is the vector size produced by the default model
	Dimensions = 384

	defaultBaseURL = "https://api-inference.huggingface.co"
)

// Embedder converts text into embedding vectors
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// HuggingFace calls the HuggingFace Inference API for feature extraction
type HuggingFace struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// New creates a new HuggingFace embedder with the default model
func New(apiKey string) *HuggingFace {
	return &HuggingFace{
		apiKey:  apiKey,
		model:   DefaultModel,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// NewWithBaseURL creates an embedder against a custom inference endpoint
func NewWithBaseURL(apiKey, baseURL string) *HuggingFace {
	hf := New(apiKey)
	hf.baseURL = baseURL
	return hf
}

// Embed returns one vector per input text
func (h *HuggingFace) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := map[string]interface{}{
		"inputs": texts,
		"options": map[string]interface{}{
			"wait_for_model": true,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", h.baseURL, h.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var vectors [][]float64
	if err := json.Unmarshal(respBody, &vectors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embeddings: %w", err)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("expected %d vectors, got %d", len(texts), len(vectors))
	}

	return vectors, nil
}
