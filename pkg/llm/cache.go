package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xhad/biorag/internal/types"
)

// CachingEmbedder wraps an Embedder with an on-disk cache keyed by the
// SHA-256 of each text. Embedding a chunk twice only hits the provider once,
// so re-ingesting a paper costs nothing on the embedding side.
type CachingEmbedder struct {
	inner types.Embedder
	dir   string
}

// NewCachingEmbedder creates the cache directory if needed.
func NewCachingEmbedder(inner types.Embedder, dir string) (*CachingEmbedder, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %v", err)
	}
	return &CachingEmbedder{inner: inner, dir: dir}, nil
}

// CreateEmbedding returns one vector per input text, in input order. Cached
// texts are served from disk; the rest are fetched from the inner embedder in
// a single batch and written back. Cache writes are best effort.
func (c *CachingEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if vector, ok := c.load(text); ok {
			out[i] = vector
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := c.inner.CreateEmbedding(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d texts", len(vectors), len(missing))
	}

	for i, vector := range vectors {
		out[missingIdx[i]] = vector
		c.save(missing[i], vector)
	}
	return out, nil
}

func (c *CachingEmbedder) load(text string) ([]float32, bool) {
	data, err := os.ReadFile(c.path(text))
	if err != nil {
		return nil, false
	}
	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil {
		// Corrupt entry, treat as a miss and overwrite on save.
		return nil, false
	}
	return vector, true
}

func (c *CachingEmbedder) save(text string, vector []float32) {
	data, err := json.Marshal(vector)
	if err != nil {
		return
	}
	_ = os.WriteFile(c.path(text), data, 0o644)
}

func (c *CachingEmbedder) path(text string) string {
	sum := sha256.Sum256([]byte(text))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}
