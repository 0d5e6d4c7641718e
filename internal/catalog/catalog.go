// Package catalog holds the in-memory book catalog: loaded once at process
// start, read-only afterwards, and keyed by canonical ISBN.
package catalog

import (
	"math/rand"
	"sort"

	"github.com/vmnguyen/readnext/internal/isbn"
	"github.com/vmnguyen/readnext/internal/store"
)

// PlaceholderThumbnail is served for books without a usable cover image.
const PlaceholderThumbnail = "cover-not-found.jpg"

type Catalog struct {
	books      []store.Book
	byISBN     map[string]int
	categories []string
	dropped    int
}

// New builds a catalog from book records. ISBNs are normalized; records
// whose ISBN is not purely numeric after normalization are dropped (they
// could never join against ratings or search hits anyway). When the same
// ISBN appears twice the first record wins.
func New(books []store.Book) *Catalog {
	c := &Catalog{byISBN: make(map[string]int, len(books))}
	catSet := map[string]struct{}{}
	for _, b := range books {
		b.ISBN13 = isbn.Normalize(b.ISBN13)
		if !isbn.IsNumeric(b.ISBN13) {
			c.dropped++
			continue
		}
		if _, exists := c.byISBN[b.ISBN13]; exists {
			c.dropped++
			continue
		}
		if b.Authors == "" {
			b.Authors = "Unknown"
		}
		if b.Thumbnail == "" {
			b.Thumbnail = PlaceholderThumbnail
		}
		c.byISBN[b.ISBN13] = len(c.books)
		c.books = append(c.books, b)
		if b.Category != "" {
			catSet[b.Category] = struct{}{}
		}
	}
	for cat := range catSet {
		c.categories = append(c.categories, cat)
	}
	sort.Strings(c.categories)
	return c
}

func (c *Catalog) Len() int { return len(c.books) }

// Dropped reports how many input records were discarded during
// construction (malformed or duplicate ISBNs). Diagnostics only.
func (c *Catalog) Dropped() int { return c.dropped }

// Get looks a book up by identifier, normalizing it first.
func (c *Catalog) Get(id string) (store.Book, bool) {
	i, ok := c.byISBN[isbn.Normalize(id)]
	if !ok {
		return store.Book{}, false
	}
	return c.books[i], true
}

// All returns every record in catalog order. Callers must not mutate the
// returned slice.
func (c *Catalog) All() []store.Book { return c.books }

// ByISBNs joins a list of canonical identifiers against the catalog,
// preserving the input order. Identifiers not in the catalog are skipped.
func (c *Catalog) ByISBNs(ids []string) []store.Book {
	out := make([]store.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := c.Get(id); ok {
			out = append(out, b)
		}
	}
	return out
}

// Categories returns the sorted distinct category labels present in the
// catalog. Empty when the catalog carries no category attribute at all.
func (c *Catalog) Categories() []string { return c.categories }

// HasCategories reports whether any record carries a category label. When
// it is false the category filter is a no-op by contract.
func (c *Catalog) HasCategories() bool { return len(c.categories) > 0 }

// Sample draws n distinct books uniformly at random. Fewer than n books in
// the catalog means all of them, shuffled.
func (c *Catalog) Sample(n int, rng *rand.Rand) []store.Book {
	if n > len(c.books) {
		n = len(c.books)
	}
	if n <= 0 {
		return nil
	}
	perm := rng.Perm(len(c.books))
	out := make([]store.Book, 0, n)
	for _, i := range perm[:n] {
		out = append(out, c.books[i])
	}
	return out
}
