// Package rag owns the ingestion and query pipeline: it chunks papers,
// requests embeddings, talks to the vector store and forwards retrieved
// context to the LLM. All three externals sit behind interfaces so they can
// be swapped or stubbed.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xhad/biorag/internal/models"
	"github.com/xhad/biorag/internal/types"
	"github.com/xhad/biorag/pkg/bioinfo"
)

type ManagerConfig struct {
	TopK      int
	BatchSize int
}

type Manager struct {
	config   ManagerConfig
	chunker  types.Chunker
	embedder types.Embedder
	store    types.VectorStore
	chat     types.ChatModel
}

func NewManager(config ManagerConfig, chunker types.Chunker, embedder types.Embedder, store types.VectorStore, chat types.ChatModel) *Manager {
	if config.TopK == 0 {
		config.TopK = 3
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}

	return &Manager{
		config:   config,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		chat:     chat,
	}
}

// AddPaper chunks the paper, embeds each chunk and upserts the results into
// the vector store. Batches written before a failure stay written. Returns
// the number of chunks stored.
func (m *Manager) AddPaper(ctx context.Context, paper models.Paper) (int, error) {
	if paper.ID == "" {
		paper.ID = paperID(paper)
	}

	chunks, err := m.chunker.Chunk(paper.Content)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, &IngestionError{Err: fmt.Errorf("paper %q has no chunkable content", paper.Title)}
	}

	for i := range chunks {
		chunks[i].PaperID = paper.ID
	}

	for start := 0; start < len(chunks); start += m.config.BatchSize {
		end := start + m.config.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := m.embedder.CreateEmbedding(ctx, texts)
		if err != nil {
			return start, &IngestionError{Err: err}
		}
		if len(vectors) != len(batch) {
			return start, &IngestionError{Err: fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch))}
		}

		if err := m.store.Upsert(ctx, paper, batch, vectors); err != nil {
			return start, &IngestionError{Err: err}
		}
	}

	return len(chunks), nil
}

// paperID derives a stable identifier from the paper's title and URL so that
// re-ingesting the same paper replaces its rows instead of duplicating them.
func paperID(paper models.Paper) string {
	if paper.Title == "" && paper.URL == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(paper.Title+"\n"+paper.URL)).String()
}

// Query embeds the question, retrieves the top-k most similar chunks and
// asks the LLM with the template for the given query type.
func (m *Manager) Query(ctx context.Context, question string, queryType models.QueryType) (models.Answer, error) {
	contextBlock, err := m.retrieve(ctx, question)
	if err != nil {
		return models.Answer{}, err
	}

	text, err := m.chat.Chat(ctx,
		bioinfo.SystemPrompt(queryType),
		bioinfo.QueryPrompt(queryType, contextBlock, question),
	)
	if err != nil {
		return models.Answer{}, &QueryError{Message: "provider failure", Err: err}
	}

	return models.Answer{Text: text}, nil
}

// QueryStream runs the same pipeline as Query but streams the generated
// answer chunk by chunk.
func (m *Manager) QueryStream(ctx context.Context, question string, queryType models.QueryType) (<-chan string, error) {
	contextBlock, err := m.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	stream, err := m.chat.ChatStream(ctx,
		bioinfo.SystemPrompt(queryType),
		bioinfo.QueryPrompt(queryType, contextBlock, question),
	)
	if err != nil {
		return nil, &QueryError{Message: "provider failure", Err: err}
	}

	return stream, nil
}

// AnalyzeTopic retrieves the chunks relevant to a topic and asks the LLM to
// synthesize an analysis of the papers behind them.
func (m *Manager) AnalyzeTopic(ctx context.Context, topic string) (string, error) {
	contextBlock, err := m.retrieve(ctx, topic)
	if err != nil {
		return "", err
	}

	analysis, err := m.chat.Chat(ctx, bioinfo.AnalysisSystem(), bioinfo.AnalysisPrompt(topic, contextBlock))
	if err != nil {
		return "", &QueryError{Message: "provider failure", Err: err}
	}

	return analysis, nil
}

// ImplementationSuggestions retrieves context for a topic and asks the LLM
// for concrete implementation guidance.
func (m *Manager) ImplementationSuggestions(ctx context.Context, topic string) (string, error) {
	contextBlock, err := m.retrieve(ctx, topic)
	if err != nil {
		return "", err
	}

	suggestions, err := m.chat.Chat(ctx, bioinfo.ImplementationSystem(), bioinfo.ImplementationPrompt(topic, contextBlock))
	if err != nil {
		return "", &QueryError{Message: "provider failure", Err: err}
	}

	return suggestions, nil
}

// Stats reports the size of the knowledge base.
type Stats struct {
	Chunks int64
}

func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	count, err := m.store.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read stats: %w", err)
	}
	return Stats{Chunks: count}, nil
}

// retrieve embeds the text and assembles the retrieved chunks into a context
// block. Retrieval order is whatever the store returns.
func (m *Manager) retrieve(ctx context.Context, text string) (string, error) {
	vectors, err := m.embedder.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return "", &QueryError{Message: "failed to embed query", Err: err}
	}
	if len(vectors) == 0 {
		return "", &QueryError{Message: "embedding provider returned no vectors"}
	}

	results, err := m.store.Search(ctx, vectors[0], m.config.TopK)
	if err != nil {
		return "", &QueryError{Message: "similarity search failed", Err: err}
	}
	if len(results) == 0 {
		return "", &QueryError{Message: "no relevant documents found"}
	}

	var builder strings.Builder
	for _, rc := range results {
		if rc.Title != "" || rc.URL != "" {
			builder.WriteString(fmt.Sprintf("Source: %s (%s)\n", rc.Title, rc.URL))
		}
		builder.WriteString(rc.Content)
		builder.WriteString("\n\n")
	}

	return builder.String(), nil
}
