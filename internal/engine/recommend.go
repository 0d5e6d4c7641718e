package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/vmnguyen/readnext/internal/store"
)

// Request is one recommendation call. Category and Tone default to the
// "All" sentinel; TopK defaults to a sensible cap.
type Request struct {
	Query    string
	Category string
	Tone     string
	TopK     int
	UserID   string
}

// Result is the recommendation response: the content-based primary track,
// the secondary track with a label explaining its provenance, and the
// user's updated history.
type Result struct {
	Primary        []store.Book         `json:"primary"`
	Secondary      []store.Book         `json:"secondary"`
	SecondaryLabel string               `json:"secondary_label"`
	History        []store.HistoryEntry `json:"history"`
}

// Recommend resolves one query through the full chain. The primary track
// is the semantic search result and is returned as-is, empty or not. The
// secondary track tries collaborative neighbors of the top primary hit,
// then a re-query from the user's recent searches, then a uniform random
// catalog sample, stopping at the first strategy that yields anything.
// For a non-empty catalog the secondary track is therefore never empty.
// Exactly one history entry is appended per call with a non-blank query.
func (e *Engine) Recommend(ctx context.Context, req Request) Result {
	if req.Category == "" {
		req.Category = AllFilter
	}
	if req.Tone == "" {
		req.Tone = AllFilter
	}
	if req.TopK <= 0 || req.TopK > maxTopK {
		req.TopK = defaultTopK
	}

	primary := e.SemanticSearch(ctx, req.Query, req.Category, req.Tone, req.TopK)

	topTitle := NotFoundTitle
	if len(primary) > 0 {
		topTitle = primary[0].Title
	}
	e.history.Append(req.UserID, req.Query, topTitle)

	secondary, label := e.secondaryTrack(ctx, req, primary)

	return Result{
		Primary:        primary,
		Secondary:      secondary,
		SecondaryLabel: label,
		History:        e.history.Recent(req.UserID, historyListLimit),
	}
}

func (e *Engine) secondaryTrack(ctx context.Context, req Request, primary []store.Book) ([]store.Book, string) {
	// Collaborative: readers who rated the top hit also rated these.
	if finder := e.currentFinder(); finder != nil && len(primary) > 0 {
		top := primary[0]
		if neighbors := finder.Neighbors(top.ISBN13, neighborCount); len(neighbors) > 0 {
			if books := e.catalog.ByISBNs(neighbors); len(books) > 0 {
				return books, fmt.Sprintf("Because you liked %q (readers also rated)", top.Title)
			}
		}
	}

	// History: re-query the semantic index with the user's recent
	// interests. Shuffled on purpose so repeated calls vary.
	if recent := e.history.RecentDistinct(req.UserID, req.Query, recentQueryLimit); len(recent) > 0 {
		books := e.SemanticSearch(ctx, strings.Join(recent, " "), AllFilter, AllFilter, historyTopK)
		if len(books) > 0 {
			e.shuffle(books)
			if len(books) > fallbackSampleSize {
				books = books[:fallbackSampleSize]
			}
			return books, "Based on your recent searches"
		}
	}

	// Random: guaranteed terminal for a non-empty catalog.
	e.stats.RandomFallbacks.Add(1)
	return e.sample(fallbackSampleSize), "You might also like (random picks)"
}
