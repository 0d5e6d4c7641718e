package semantic

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/vmnguyen/readnext/internal/store"
)

// Index is an in-memory nearest-neighbor index over the persisted book
// embeddings. All documents are held in memory (the catalog is a few
// thousand books); a query is embedded once and scored against every
// document by cosine similarity. Read-only after construction: new data
// means building a new Index and swapping the reference.
type Index struct {
	embedder Embedder
	docs     []store.BookEmbedding
}

// NewIndex loads every stored book embedding into memory. Zero documents
// is not an error: the index is constructed in degraded mode and every
// search returns empty, per the unavailable-collaborator policy.
func NewIndex(docs []store.BookEmbedding, embedder Embedder) *Index {
	usable := make([]store.BookEmbedding, 0, len(docs))
	for _, d := range docs {
		if len(d.Embedding) == 0 {
			log.Printf("Skipping embedding row %d (isbn %s): empty vector.", d.ID, d.ISBN)
			continue
		}
		usable = append(usable, d)
	}
	if len(usable) == 0 {
		log.Println("Warning: semantic index initialized with no embeddings. Run the server with -ingest to build them.")
	} else {
		log.Printf("Semantic index initialized with %d documents.", len(usable))
	}
	return &Index{embedder: embedder, docs: usable}
}

// Available reports whether the index holds any documents.
func (ix *Index) Available() bool { return len(ix.docs) > 0 }

// Search embeds the query and returns the k most similar documents, best
// first. Ties keep document order, so results are deterministic for a
// fixed index.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if !ix.Available() || k <= 0 {
		return nil, nil
	}

	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	type scored struct {
		doc   int
		score float32
	}
	ranked := make([]scored, 0, len(ix.docs))
	for i, d := range ix.docs {
		score, err := CosineSimilarity(queryVec, d.Embedding)
		if err != nil {
			log.Printf("Error scoring embedding row %d: %v. Skipping.", d.ID, err)
			continue
		}
		ranked = append(ranked, scored{doc: i, score: score})
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	hits := make([]Hit, 0, k)
	for _, s := range ranked[:k] {
		d := ix.docs[s.doc]
		hit := Hit{Content: d.Content}
		if d.ISBN != "" {
			hit.Tags = map[string]string{"isbn": d.ISBN}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
