package engine

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/vmnguyen/readnext/internal/isbn"
	"github.com/vmnguyen/readnext/internal/semantic"
	"github.com/vmnguyen/readnext/internal/store"
)

// SemanticSearch runs the content-based track: query the semantic index,
// extract and normalize the returned identifiers, join them against the
// catalog without disturbing the similarity ranking, then apply the
// category filter and the tone re-sort. Every stage degrades to empty;
// this never fails.
func (e *Engine) SemanticSearch(ctx context.Context, query, category, tone string, topK int) []store.Book {
	searcher := e.currentSearcher()
	if searcher == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.searchTimeout)
	defer cancel()

	hits, err := searcher.Search(ctx, query, topK)
	if err != nil {
		log.Printf("Semantic search failed for query %q: %v. Returning empty result.", query, err)
		e.stats.SearchFailures.Add(1)
		return nil
	}

	ids := e.extractISBNs(hits)
	books := e.catalog.ByISBNs(ids)

	if category != "" && category != AllFilter && e.catalog.HasCategories() {
		filtered := make([]store.Book, 0, len(books))
		for _, b := range books {
			if b.Category == category {
				filtered = append(filtered, b)
			}
		}
		books = filtered
	}

	// The tone sort is the one transformation allowed to override the
	// similarity ranking, and it is applied last. All-zero scores are a
	// data-quality condition upstream; sorting them is a stable no-op.
	if tone != "" && tone != AllFilter {
		if _, known := toneScore(store.Book{}, tone); known {
			sort.SliceStable(books, func(i, j int) bool {
				si, _ := toneScore(books[i], tone)
				sj, _ := toneScore(books[j], tone)
				return si > sj
			})
		}
	}

	return books
}

// extractISBNs pulls a canonical identifier out of each hit: the "isbn"
// tag when the index attached one, otherwise the leading token of the raw
// content. Non-numeric identifiers and duplicates are dropped, and drops
// are counted.
func (e *Engine) extractISBNs(hits []semantic.Hit) []string {
	ids := make([]string, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		raw := h.Tags["isbn"]
		if raw == "" {
			if fields := strings.Fields(h.Content); len(fields) > 0 {
				raw = fields[0]
			}
		}
		id := isbn.Normalize(raw)
		if !isbn.IsNumeric(id) {
			e.stats.DroppedIdentifiers.Add(1)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
