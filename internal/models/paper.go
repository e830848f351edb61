package models

// Paper is a single ingested document: a research paper or a source file.
// Papers are immutable once ingested and identified by title+URL.
type Paper struct {
	ID       string
	Title    string
	Authors  []string
	Year     int
	URL      string
	Content  string
	Metadata map[string]interface{}
}

// Chunk is a contiguous slice of a paper's content with stable offsets.
type Chunk struct {
	PaperID string
	Index   int
	Start   int
	End     int
	Text    string
}

// ProcessedPaper pairs a paper with the chunks produced from its content.
type ProcessedPaper struct {
	Paper
	Chunks []Chunk
}

// RetrievedChunk is a chunk returned from a similarity search, with the
// paper fields needed to cite it.
type RetrievedChunk struct {
	PaperID    string
	Title      string
	URL        string
	ChunkIndex int
	Content    string
	Metadata   map[string]interface{}
}

// Answer is the result of a query against the knowledge base.
type Answer struct {
	Text string
}

// QueryType selects the prompt template used for a query.
type QueryType string

const (
	QueryGeneral  QueryType = "general"
	QueryCode     QueryType = "code"
	QueryResearch QueryType = "research"
)

// ParseQueryType maps a request string to a known query type, defaulting
// to general for unknown or empty values.
func ParseQueryType(s string) QueryType {
	switch QueryType(s) {
	case QueryCode:
		return QueryCode
	case QueryResearch:
		return QueryResearch
	default:
		return QueryGeneral
	}
}
