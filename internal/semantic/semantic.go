// Package semantic is the similarity-search boundary of the recommender:
// a Searcher that answers free-text queries with similarity-ranked hits,
// an in-memory cosine index over stored book embeddings, and the Gemini
// embedding client behind it.
package semantic

import "context"

// Hit is one similarity-ranked result. Content is the raw document text
// (tagged description, leading token is the ISBN); Tags optionally carries
// structured metadata, in particular the "isbn" tag.
type Hit struct {
	Content string
	Tags    map[string]string
}

// Searcher is the external semantic-index contract the recommendation
// engine depends on. Implementations return at most k hits, best match
// first. An error means the index is unavailable; callers degrade to an
// empty result rather than failing the request.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Hit, error)
}

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
