package processor_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/biorag/internal/models"
	"github.com/xhad/biorag/pkg/processor"
)

func TestChunk_OverlapExample(t *testing.T) {
	// 1000 characters of ten-character words, so chunk boundaries land
	// exactly on word boundaries.
	text := strings.Repeat("abcdefghi ", 100)
	require.Len(t, text, 1000)

	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxChunkSize: 300,
		ChunkOverlap: 50,
	})

	chunks, err := p.Chunk(text)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 300)
		assert.Equal(t, text[c.Start:c.End], c.Text)
	}

	for i := 0; i < len(chunks)-1; i++ {
		assert.Equal(t, 50, chunks[i].End-chunks[i+1].Start,
			"adjacent chunks should overlap by 50 characters")
	}
}

func TestChunk_Deterministic(t *testing.T) {
	text := "Gene expression profiling identifies distinct molecular subtypes. " +
		"Sequence alignment remains the workhorse of comparative genomics. " +
		"Hidden Markov models underpin many annotation pipelines. " +
		"Protein folding prediction has improved with deep learning."

	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxChunkSize: 80,
		ChunkOverlap: 20,
	})

	first, err := p.Chunk(text)
	require.NoError(t, err)
	second, err := p.Chunk(text)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestChunk_WordBoundaries(t *testing.T) {
	text := "Alignment algorithms compare nucleotide sequences to reference genomes " +
		"using dynamic programming and heuristic seeding strategies for speed."

	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxChunkSize: 40,
		ChunkOverlap: 10,
	})

	chunks, err := p.Chunk(text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 40)
		if c.End < len(text) {
			assert.True(t, text[c.End] == ' ' || text[c.End-1] == ' ',
				"chunk should not end mid-word: %q", c.Text)
		}
	}
}

func TestChunk_InvalidOverlap(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxChunkSize: 100,
		ChunkOverlap: 100,
	})

	chunks, err := p.Chunk("some text that would otherwise chunk fine")
	require.Error(t, err)
	assert.Nil(t, chunks)

	var cfgErr *processor.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "chunk_overlap", cfgErr.Field)
}

func TestChunk_EmptyText(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxChunkSize: 100,
		ChunkOverlap: 10,
	})

	chunks, err := p.Chunk("   \n  ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_LongTokenHardCut(t *testing.T) {
	// A single token longer than the chunk size cannot snap to a word
	// boundary and gets a hard cut instead of looping forever.
	text := strings.Repeat("x", 250)

	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxChunkSize: 100,
		ChunkOverlap: 20,
	})

	chunks, err := p.Chunk(text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 100)
	}
}

func TestProcess_StampsPaperID(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxChunkSize: 50,
		ChunkOverlap: 0,
	})

	paper := models.Paper{
		ID:      "paper-1",
		Title:   "Test Paper",
		Content: "Short content for a single chunk.",
	}

	processed, err := p.Process(paper)
	require.NoError(t, err)
	require.Len(t, processed.Chunks, 1)
	assert.Equal(t, "paper-1", processed.Chunks[0].PaperID)
	assert.Equal(t, paper.Content, processed.Chunks[0].Text)
}
