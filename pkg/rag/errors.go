package rag

import "fmt"

// IngestionError reports an embedding or store failure during AddPaper.
// Chunks written before the failure are not rolled back.
type IngestionError struct {
	Err error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed: %v", e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// QueryError reports a failed query: no relevant documents, or a provider
// failure while embedding or generating.
type QueryError struct {
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("query failed: %s", e.Message)
}

func (e *QueryError) Unwrap() error { return e.Err }
