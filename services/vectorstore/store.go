package vectorstore

import "context"

// QueryResult holds the raw response of a similarity search. Documents and
// Metadatas are index-aligned: Metadatas[i] describes Documents[i].
type QueryResult struct {
	Documents []string
	Metadatas []map[string]interface{}
}

// Store is the similarity-search capability consumed by the retrieval gateway.
// Implementations wrap an external vector database; embedding computation is
// the store's concern, not the caller's.
type Store interface {
	// Query returns the topK passages most similar to text. The filter narrows
	// the search to documents whose metadata matches every key/value pair;
	// a nil or empty filter performs an unrestricted search.
	Query(ctx context.Context, text string, topK int, filter map[string]string) (*QueryResult, error)
}
