package catalog

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmnguyen/readnext/internal/store"
)

func TestNewNormalizesAndDefaults(t *testing.T) {
	c := New([]store.Book{
		{ISBN13: "9780439785969.0", Title: "Harry Potter and the Half-Blood Prince"},
		{ISBN13: "bogus", Title: "Unjoinable"},
		{ISBN13: "9780451524935", Title: "1984", Authors: "George Orwell", Category: "Fiction", Thumbnail: "http://x/1984.jpg"},
	})
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.Dropped())

	b, ok := c.Get("9780439785969")
	require.True(t, ok)
	assert.Equal(t, "Unknown", b.Authors)
	assert.Equal(t, PlaceholderThumbnail, b.Thumbnail)

	// Lookup through the malformed form must still hit the canonical key.
	_, ok = c.Get(" 9780439785969.0 ")
	assert.True(t, ok)

	assert.Equal(t, []string{"Fiction"}, c.Categories())
}

func TestByISBNsPreservesOrder(t *testing.T) {
	c := New([]store.Book{
		{ISBN13: "111", Title: "A"},
		{ISBN13: "222", Title: "B"},
		{ISBN13: "333", Title: "C"},
	})
	got := c.ByISBNs([]string{"333", "999", "111"})
	require.Len(t, got, 2)
	assert.Equal(t, "C", got[0].Title)
	assert.Equal(t, "A", got[1].Title)
}

func TestSample(t *testing.T) {
	c := New([]store.Book{
		{ISBN13: "111"}, {ISBN13: "222"}, {ISBN13: "333"},
	})
	rng := rand.New(rand.NewSource(1))

	got := c.Sample(2, rng)
	assert.Len(t, got, 2)
	assert.NotEqual(t, got[0].ISBN13, got[1].ISBN13)

	assert.Len(t, c.Sample(10, rng), 3, "oversized sample returns the whole catalog")
	assert.Empty(t, c.Sample(0, rng))
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.csv")
	data := "isbn13,title,authors,description,simple_categories,thumbnail,joy,sadness,fear,anger,surprise\n" +
		"9780439785969.0,Harry Potter and the Half-Blood Prince,J.K. Rowling,A story about magic and wizards.,Fantasy,,0.9,0.1,0.3,0.05,0.4\n" +
		"9780451524935,1984,George Orwell,A dystopian cautionary tale.,Fiction,http://x/1984.jpg,0.1,0.7,0.8,0.6,0.2\n" +
		"notanisbn,Broken Row,,,,,,,,,\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	b, ok := c.Get("9780439785969")
	require.True(t, ok)
	assert.Equal(t, "Fantasy", b.Category)
	assert.InDelta(t, 0.9, b.Joy, 1e-9)
	assert.Equal(t, PlaceholderThumbnail, b.Thumbnail)

	assert.Equal(t, []string{"Fantasy", "Fiction"}, c.Categories())
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
