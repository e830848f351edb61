package rag_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/biorag/internal/models"
	"github.com/xhad/biorag/pkg/processor"
	"github.com/xhad/biorag/pkg/rag"
)

type stubEmbedder struct {
	fail bool
}

func (s *stubEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if s.fail {
		return nil, errors.New("embedding provider down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 0}
	}
	return out, nil
}

type stubStore struct {
	rows       []models.RetrievedChunk
	failUpsert bool
	failSearch bool
}

func (s *stubStore) Upsert(ctx context.Context, paper models.Paper, chunks []models.Chunk, vectors [][]float32) error {
	if s.failUpsert {
		return errors.New("store unavailable")
	}
	for _, c := range chunks {
		row := models.RetrievedChunk{
			PaperID:    paper.ID,
			Title:      paper.Title,
			URL:        paper.URL,
			ChunkIndex: c.Index,
			Content:    c.Text,
		}
		replaced := false
		for i, existing := range s.rows {
			if existing.PaperID == row.PaperID && existing.ChunkIndex == row.ChunkIndex {
				s.rows[i] = row
				replaced = true
				break
			}
		}
		if !replaced {
			s.rows = append(s.rows, row)
		}
	}
	return nil
}

func (s *stubStore) Search(ctx context.Context, embedding []float32, limit int) ([]models.RetrievedChunk, error) {
	if s.failSearch {
		return nil, errors.New("store unavailable")
	}
	if limit > len(s.rows) {
		limit = len(s.rows)
	}
	return s.rows[:limit], nil
}

func (s *stubStore) Count(ctx context.Context) (int64, error) {
	return int64(len(s.rows)), nil
}

func (s *stubStore) Close() {}

// stubChat echoes its prompt so tests can check the retrieved context made
// it into the LLM call.
type stubChat struct{}

func (s *stubChat) Chat(ctx context.Context, system, prompt string) (string, error) {
	return prompt, nil
}

func (s *stubChat) ChatStream(ctx context.Context, system, prompt string) (<-chan string, error) {
	ch := make(chan string, 2)
	ch <- prompt[:len(prompt)/2]
	ch <- prompt[len(prompt)/2:]
	close(ch)
	return ch, nil
}

func newTestManager(store *stubStore, embedder *stubEmbedder) *rag.Manager {
	chunker := processor.NewWithConfig(processor.ProcessorConfig{
		MaxChunkSize: 100,
		ChunkOverlap: 20,
	})
	return rag.NewManager(rag.ManagerConfig{TopK: 3}, &chunker, embedder, store, &stubChat{})
}

func TestAddPaperThenQuery(t *testing.T) {
	store := &stubStore{}
	m := newTestManager(store, &stubEmbedder{})

	paper := models.Paper{
		Title:   "CRISPR Screening Methods",
		URL:     "https://example.com/crispr",
		Authors: []string{"J. Doe"},
		Year:    2022,
		Content: "CRISPR screening enables genome-wide functional studies of gene knockouts in cell lines.",
	}

	n, err := m.AddPaper(context.Background(), paper)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	answer, err := m.Query(context.Background(), "What does CRISPR screening enable?", models.QueryGeneral)
	require.NoError(t, err)
	assert.Contains(t, answer.Text, "genome-wide functional studies")
	assert.Contains(t, answer.Text, "What does CRISPR screening enable?")
}

func TestAddPaper_SameTitleAndURLReplacesRows(t *testing.T) {
	store := &stubStore{}
	m := newTestManager(store, &stubEmbedder{})

	paper := models.Paper{
		Title:   "Protein Folding Review",
		URL:     "https://example.com/folding",
		Content: "AlphaFold predicts protein structures from amino acid sequences.",
	}

	_, err := m.AddPaper(context.Background(), paper)
	require.NoError(t, err)
	_, err = m.AddPaper(context.Background(), paper)
	require.NoError(t, err)

	require.Len(t, store.rows, 1)
	first := store.rows[0].PaperID

	other := paper
	other.URL = "https://example.com/folding-v2"
	_, err = m.AddPaper(context.Background(), other)
	require.NoError(t, err)

	require.Len(t, store.rows, 2)
	assert.NotEqual(t, first, store.rows[1].PaperID)
}

func TestAddPaper_ExplicitIDWins(t *testing.T) {
	store := &stubStore{}
	m := newTestManager(store, &stubEmbedder{})

	_, err := m.AddPaper(context.Background(), models.Paper{
		ID:      "paper-42",
		Title:   "Preassigned Paper",
		Content: "Hidden Markov models annotate gene structure in genomic sequences.",
	})
	require.NoError(t, err)

	require.Len(t, store.rows, 1)
	assert.Equal(t, "paper-42", store.rows[0].PaperID)
}

func TestQuery_EmptyStore(t *testing.T) {
	m := newTestManager(&stubStore{}, &stubEmbedder{})

	_, err := m.Query(context.Background(), "anything", models.QueryGeneral)
	require.Error(t, err)

	var qErr *rag.QueryError
	require.True(t, errors.As(err, &qErr))
	assert.Contains(t, qErr.Message, "no relevant documents")
}

func TestQuery_SearchFailure(t *testing.T) {
	m := newTestManager(&stubStore{failSearch: true}, &stubEmbedder{})

	_, err := m.Query(context.Background(), "anything", models.QueryGeneral)
	var qErr *rag.QueryError
	require.True(t, errors.As(err, &qErr))
}

func TestAddPaper_EmbedderFailure(t *testing.T) {
	m := newTestManager(&stubStore{}, &stubEmbedder{fail: true})

	_, err := m.AddPaper(context.Background(), models.Paper{
		Title:   "Failing Paper",
		Content: "Some content that will never be embedded.",
	})
	require.Error(t, err)

	var iErr *rag.IngestionError
	assert.True(t, errors.As(err, &iErr))
}

func TestAddPaper_StoreFailure(t *testing.T) {
	m := newTestManager(&stubStore{failUpsert: true}, &stubEmbedder{})

	_, err := m.AddPaper(context.Background(), models.Paper{
		Title:   "Failing Paper",
		Content: "Some content that will never be stored.",
	})
	var iErr *rag.IngestionError
	require.True(t, errors.As(err, &iErr))
}

func TestAddPaper_InvalidChunkConfig(t *testing.T) {
	chunker := processor.NewWithConfig(processor.ProcessorConfig{
		MaxChunkSize: 100,
		ChunkOverlap: 100,
	})
	m := rag.NewManager(rag.ManagerConfig{}, &chunker, &stubEmbedder{}, &stubStore{}, &stubChat{})

	_, err := m.AddPaper(context.Background(), models.Paper{Content: "text"})
	require.Error(t, err)

	var cfgErr *processor.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestAddPaper_EmptyContent(t *testing.T) {
	m := newTestManager(&stubStore{}, &stubEmbedder{})

	_, err := m.AddPaper(context.Background(), models.Paper{Title: "Empty"})
	var iErr *rag.IngestionError
	require.True(t, errors.As(err, &iErr))
}

func TestAnalyzeTopic(t *testing.T) {
	store := &stubStore{}
	m := newTestManager(store, &stubEmbedder{})

	_, err := m.AddPaper(context.Background(), models.Paper{
		Title:   "Single Cell Atlas",
		Content: "Single cell RNA sequencing maps cellular heterogeneity across tissues.",
	})
	require.NoError(t, err)

	analysis, err := m.AnalyzeTopic(context.Background(), "single cell sequencing")
	require.NoError(t, err)
	assert.Contains(t, analysis, "single cell sequencing")
	assert.Contains(t, analysis, "cellular heterogeneity")
}

func TestImplementationSuggestions(t *testing.T) {
	store := &stubStore{}
	m := newTestManager(store, &stubEmbedder{})

	_, err := m.AddPaper(context.Background(), models.Paper{
		Title:   "Alignment Pipeline",
		Content: "The pipeline aligns reads with BWA and calls variants with GATK.",
	})
	require.NoError(t, err)

	suggestions, err := m.ImplementationSuggestions(context.Background(), "variant calling pipeline")
	require.NoError(t, err)
	assert.Contains(t, suggestions, "variant calling pipeline")
	assert.Contains(t, suggestions, "BWA")
}

func TestQueryStream(t *testing.T) {
	store := &stubStore{}
	m := newTestManager(store, &stubEmbedder{})

	_, err := m.AddPaper(context.Background(), models.Paper{
		Title:   "Streaming Paper",
		Content: "Phylogenetic trees model evolutionary relationships between species.",
	})
	require.NoError(t, err)

	stream, err := m.QueryStream(context.Background(), "What do phylogenetic trees model?", models.QueryGeneral)
	require.NoError(t, err)

	var full string
	for chunk := range stream {
		full += chunk
	}
	assert.Contains(t, full, "evolutionary relationships")
}

func TestStats(t *testing.T) {
	store := &stubStore{}
	m := newTestManager(store, &stubEmbedder{})

	_, err := m.AddPaper(context.Background(), models.Paper{
		Title:   "Counted Paper",
		Content: "Gene ontology terms annotate gene function across organisms.",
	})
	require.NoError(t, err)

	stats, err := m.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Chunks)
}
