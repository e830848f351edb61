package types

import (
	"context"

	"github.com/xhad/biorag/internal/models"
)

// Core interfaces. The embedding provider, vector store and LLM are external
// services; keeping them behind narrow interfaces lets tests stub them out.

type Chunker interface {
	Chunk(text string) ([]models.Chunk, error)
}

type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	Upsert(ctx context.Context, paper models.Paper, chunks []models.Chunk, vectors [][]float32) error
	Search(ctx context.Context, embedding []float32, limit int) ([]models.RetrievedChunk, error)
	Count(ctx context.Context) (int64, error)
	Close()
}

type ChatModel interface {
	Chat(ctx context.Context, system, prompt string) (string, error)
	ChatStream(ctx context.Context, system, prompt string) (<-chan string, error)
}
