package types

import (
	"context"

	"github.com/mbarlow/apiq/internal/models"
)

// Core interfaces. Components depend on these rather than concrete
// clients so tests can substitute fakes.

// Embedder turns texts into fixed-length vectors, one per input.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore persists embedding records and answers similarity queries.
type VectorStore interface {
	Add(ctx context.Context, records []models.EmbeddingRecord) error
	Query(ctx context.Context, vector []float32, k int) ([]string, error)
	Count(ctx context.Context) (int, error)
	Close()
}

// ChatModel is a single system+user exchange with a language model.
type ChatModel interface {
	Generate(ctx context.Context, system, user string) (string, error)
}
