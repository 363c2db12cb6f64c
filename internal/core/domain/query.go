package domain

// Query is the per-request search input. Original feeds the embedding model,
// Normalized feeds full-text search.
type Query struct {
	Original   string `json:"original"`
	Normalized string `json:"normalized"`
}
