package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/personachat/personachat/internal/embeddings"
	"github.com/personachat/personachat/internal/logger"
	"github.com/personachat/personachat/internal/models"
	"github.com/personachat/personachat/internal/vectorstore"
)

const (
	// DefaultCollection is the vector collection documents are ingested into
	DefaultCollection = "documents"

	// DefaultTopK is how many chunks a context search returns
	DefaultTopK = 3

	chunkSize    = 1000
	chunkOverlap = 200
)

// Service provides retrieval-augmented context over ingested documents
type Service struct {
	store      vectorstore.Store
	embedder   embeddings.Embedder
	collection string
}

// NewService creates a new RAG service
func NewService(store vectorstore.Store, embedder embeddings.Embedder) *Service {
	return &Service{
		store:      store,
		embedder:   embedder,
		collection: DefaultCollection,
	}
}

// Available reports whether the service has a vector store and embedder
func (s *Service) Available() bool {
	return s != nil && s.store != nil && s.embedder != nil
}

// IngestText splits a document into overlapping chunks, embeds them and
// stores them in the vector collection. Returns the number of chunks stored.
func (s *Service) IngestText(ctx context.Context, source, text string) (int, error) {
	if !s.Available() {
		return 0, fmt.Errorf("rag service not configured")
	}

	pieces := splitChunks(text, chunkSize, chunkOverlap)
	if len(pieces) == 0 {
		return 0, fmt.Errorf("document is empty")
	}

	vectors, err := s.embedder.Embed(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("failed to embed document: %w", err)
	}

	if err := s.store.EnsureCollection(ctx, s.collection, embeddings.Dimensions); err != nil {
		return 0, fmt.Errorf("failed to ensure collection: %w", err)
	}

	chunks := make([]models.DocumentChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = models.DocumentChunk{
			ID:      uuid.New().String(),
			Content: piece,
			Metadata: map[string]string{
				"source": source,
				"chunk":  fmt.Sprintf("%d", i),
			},
		}
	}

	if err := s.store.Upsert(ctx, s.collection, chunks, vectors); err != nil {
		return 0, fmt.Errorf("failed to store document chunks: %w", err)
	}

	return len(chunks), nil
}

// Search embeds the query and returns the most relevant chunks
func (s *Service) Search(ctx context.Context, query string, topK int) ([]models.ScoredChunk, error) {
	if !s.Available() {
		return nil, fmt.Errorf("rag service not configured")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return s.store.Search(ctx, s.collection, vectors[0], topK)
}

// Context retrieves relevant chunks and formats them as a context block
// for the model. Retrieval failures degrade to an empty context so chat
// keeps working without the vector store.
func (s *Service) Context(ctx context.Context, query string) string {
	if !s.Available() {
		return ""
	}

	results, err := s.Search(ctx, query, DefaultTopK)
	if err != nil {
		logger.Warning("RAG context retrieval failed: %v", err)
		return ""
	}
	if len(results) == 0 {
		return ""
	}

	parts := make([]string, 0, len(results))
	for _, r := range results {
		source := r.Chunk.Metadata["source"]
		if source == "" {
			source = "unknown"
		}
		parts = append(parts, fmt.Sprintf("Source: %s (Score: %.2f)\nContent: %s", source, r.Score, r.Chunk.Content))
	}

	return strings.Join(parts, "\n---\n")
}

// splitChunks cuts text into pieces of at most size runes with the given
// overlap between consecutive pieces
func splitChunks(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	step := size - overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}

	return chunks
}
