package vectorstore

import (
	"context"

	"github.com/personachat/personachat/internal/models"
)

// Store defines the interface for vector storage backends
type Store interface {
	// Ping verifies the store is reachable
	Ping(ctx context.Context) error

	// EnsureCollection creates the collection if it does not exist
	EnsureCollection(ctx context.Context, name string, vectorSize int) error

	// Upsert stores chunks with their embedding vectors
	Upsert(ctx context.Context, collection string, chunks []models.DocumentChunk, vectors [][]float64) error

	// Search returns the topK most similar chunks for a query vector
	Search(ctx context.Context, collection string, queryVector []float64, topK int) ([]models.ScoredChunk, error)

	// DeleteCollection removes a collection and its vectors
	DeleteCollection(ctx context.Context, name string) error
}
