package processor

import (
	"fmt"
	"strings"

	"github.com/xhad/biorag/internal/models"
)

// ConfigError reports invalid chunking parameters. It is returned before any
// chunk is produced.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ProcessorConfig struct {
	MaxChunkSize   int
	ChunkOverlap   int
	MinChunkLength int
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.MaxChunkSize == 0 {
		config.MaxChunkSize = 1000
	}

	return Processor{
		config: config,
	}
}

// Process chunks a paper's content and stamps each chunk with the paper ID.
func (p *Processor) Process(paper models.Paper) (models.ProcessedPaper, error) {
	chunks, err := p.Chunk(paper.Content)
	if err != nil {
		return models.ProcessedPaper{}, err
	}

	for i := range chunks {
		chunks[i].PaperID = paper.ID
	}

	return models.ProcessedPaper{
		Paper:  paper,
		Chunks: chunks,
	}, nil
}

// Chunk splits text into ordered chunks of at most MaxChunkSize characters.
// Adjacent chunks share ChunkOverlap characters of tail context, and cut
// points snap back to word boundaries so no word is split. The output is
// deterministic for identical input.
func (p *Processor) Chunk(text string) ([]models.Chunk, error) {
	if p.config.MaxChunkSize < 1 {
		return nil, &ConfigError{
			Field:   "max_chunk_size",
			Message: "max_chunk_size must be positive",
		}
	}
	if p.config.ChunkOverlap < 0 || p.config.ChunkOverlap >= p.config.MaxChunkSize {
		return nil, &ConfigError{
			Field:   "chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than max_chunk_size",
		}
	}

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var chunks []models.Chunk
	start := 0
	index := 0

	for start < len(text) {
		end := start + p.config.MaxChunkSize
		if end >= len(text) {
			end = len(text)
		} else if !isBoundary(text, end) {
			// Back up to the last space so the cut never lands mid-word.
			// Text with no space in the window gets a hard cut.
			if cut := strings.LastIndexByte(text[start:end], ' '); cut > 0 {
				end = start + cut
			}
		}

		chunks = append(chunks, models.Chunk{
			Index: index,
			Start: start,
			End:   end,
			Text:  text[start:end],
		})
		index++

		if end >= len(text) {
			break
		}

		next := end - p.config.ChunkOverlap
		if next <= start {
			next = end
		}
		if !isBoundary(text, next) {
			// The overlap window starts mid-word; advance to the next
			// word start inside the window.
			if adv := strings.IndexByte(text[next:end], ' '); adv >= 0 {
				next = next + adv + 1
			}
		}
		if next <= start {
			next = end
		}
		start = next
	}

	// A trailing fragment below the minimum length carries no signal.
	if p.config.MinChunkLength > 0 && len(chunks) > 1 {
		last := chunks[len(chunks)-1]
		if len(last.Text) < p.config.MinChunkLength {
			chunks = chunks[:len(chunks)-1]
		}
	}

	return chunks, nil
}

func isBoundary(text string, i int) bool {
	if i <= 0 || i >= len(text) {
		return true
	}
	return text[i] == ' ' || text[i-1] == ' '
}
