// Package engine is the hybrid recommendation core: it reconciles
// similarity-ranked semantic hits against the catalog, pulls collaborative
// neighbors for the top hit, and resolves a deterministic fallback chain
// (collaborative, history re-query, random sample) so every call returns a
// usable response.
package engine

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmnguyen/readnext/internal/catalog"
	"github.com/vmnguyen/readnext/internal/semantic"
	"github.com/vmnguyen/readnext/internal/store"
)

const (
	// AllFilter is the sentinel meaning "no category/tone filter".
	AllFilter = "All"
	// NotFoundTitle is logged as the top result when the primary search
	// comes back empty.
	NotFoundTitle = "Not found"

	defaultTopK        = 16
	maxTopK            = 100
	neighborCount      = 6 // includes the self slot, so up to 5 neighbors
	recentQueryLimit   = 3
	historyTopK        = 50
	fallbackSampleSize = 8
	historyListLimit   = 10

	defaultSearchTimeout = 10 * time.Second
)

// Tones lists the tone filter values accepted by SemanticSearch, the
// sentinel first.
var Tones = []string{AllFilter, "Happy", "Sad", "Suspenseful", "Surprising", "Angry"}

// toneScore maps a tone filter to the emotion score it sorts on.
func toneScore(b store.Book, tone string) (float64, bool) {
	switch tone {
	case "Happy":
		return b.Joy, true
	case "Surprising":
		return b.Surprise, true
	case "Angry":
		return b.Anger, true
	case "Suspenseful":
		return b.Fear, true
	case "Sad":
		return b.Sadness, true
	}
	return 0, false
}

// NeighborFinder is the collaborative-filtering contract the engine needs:
// items nearest to an item in rating space, self excluded.
type NeighborFinder interface {
	Available() bool
	Neighbors(isbn string, count int) []string
}

// HistoryLog is the best-effort search-history contract. Appends and reads
// must never fail the caller; a broken store behaves as an empty history.
type HistoryLog interface {
	Append(userID, query, topTitle string)
	RecentDistinct(userID, excluding string, limit int) []string
	Recent(userID string, limit int) []store.HistoryEntry
}

// Stats are cumulative degradation counters, observable for diagnostics.
// They never influence results.
type Stats struct {
	DroppedIdentifiers atomic.Int64
	SearchFailures     atomic.Int64
	RandomFallbacks    atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats for reporting.
type StatsSnapshot struct {
	DroppedIdentifiers int64 `json:"dropped_identifiers"`
	SearchFailures     int64 `json:"search_failures"`
	RandomFallbacks    int64 `json:"random_fallbacks"`
}

// Engine wires the catalog, the semantic index and the collaborative
// neighbor finder together. The catalog, finder and searcher are read-only
// snapshots; rebuilding any of them means constructing the new object and
// swapping it in via the setters, never mutating in place.
type Engine struct {
	catalog *catalog.Catalog
	history HistoryLog

	mu       sync.RWMutex // guards searcher and finder swaps
	searcher semantic.Searcher
	finder   NeighborFinder

	rngMu sync.Mutex // rand.Rand is not goroutine safe
	rng   *rand.Rand

	searchTimeout time.Duration
	stats         Stats
}

func NewEngine(cat *catalog.Catalog, searcher semantic.Searcher, finder NeighborFinder, hist HistoryLog, searchTimeout time.Duration, rng *rand.Rand) *Engine {
	if searchTimeout <= 0 {
		searchTimeout = defaultSearchTimeout
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		catalog:       cat,
		searcher:      searcher,
		finder:        finder,
		history:       hist,
		searchTimeout: searchTimeout,
		rng:           rng,
	}
}

// SetNeighborFinder swaps in a freshly built neighbor index. In-flight
// calls keep the snapshot they already read.
func (e *Engine) SetNeighborFinder(f NeighborFinder) {
	e.mu.Lock()
	e.finder = f
	e.mu.Unlock()
}

// SetSearcher swaps in a freshly built semantic index.
func (e *Engine) SetSearcher(s semantic.Searcher) {
	e.mu.Lock()
	e.searcher = s
	e.mu.Unlock()
}

func (e *Engine) currentSearcher() semantic.Searcher {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.searcher
}

func (e *Engine) currentFinder() NeighborFinder {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.finder
}

// StatsSnapshot returns the current degradation counters.
func (e *Engine) StatsSnapshot() StatsSnapshot {
	return StatsSnapshot{
		DroppedIdentifiers: e.stats.DroppedIdentifiers.Load(),
		SearchFailures:     e.stats.SearchFailures.Load(),
		RandomFallbacks:    e.stats.RandomFallbacks.Load(),
	}
}

func (e *Engine) shuffle(books []store.Book) {
	e.rngMu.Lock()
	e.rng.Shuffle(len(books), func(i, j int) {
		books[i], books[j] = books[j], books[i]
	})
	e.rngMu.Unlock()
}

func (e *Engine) sample(n int) []store.Book {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.catalog.Sample(n, e.rng)
}
