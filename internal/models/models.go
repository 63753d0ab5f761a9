package models

import "encoding/json"

// Document is one source of API documentation text, read once at ingest
// time and discarded after chunking.
type Document struct {
	ID      string
	Source  string // file name or page URL
	Title   string
	Content string
}

// EmbeddingRecord is a single chunk with its vector, as persisted in the
// vector store. IDs are deterministic, so re-ingesting the same corpus
// overwrites the previous rows.
type EmbeddingRecord struct {
	ID      string
	Source  string
	Content string
	Index   int
	Vector  []float32
}

// APICall is the HTTP call descriptor produced by the planner. Body is
// kept as raw JSON so whatever object the model emitted is forwarded
// verbatim.
type APICall struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

// APIResult is the normalized outcome of an executed call. StatusCode is
// zero when the request never reached the server.
type APIResult struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"status_code,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}
