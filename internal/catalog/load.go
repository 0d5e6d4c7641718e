package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vmnguyen/readnext/internal/store"
)

// LoadCSV reads a catalog export (books_with_emotions.csv layout) into a
// Catalog. Columns are resolved by header name so extra columns and column
// order do not matter; missing optional columns (category, emotions,
// thumbnails) simply leave their fields zero.
func LoadCSV(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows, skip them below

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["isbn13"]; !ok {
		return nil, fmt.Errorf("catalog csv has no isbn13 column")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	score := func(row []string, name string) float64 {
		v, err := strconv.ParseFloat(field(row, name), 64)
		if err != nil {
			return 0
		}
		return v
	}

	var books []store.Book
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		thumb := field(row, "large_thumbnail")
		if thumb == "" {
			thumb = field(row, "thumbnail")
		}
		category := field(row, "simple_categories")
		if category == "" {
			category = field(row, "categories")
		}
		books = append(books, store.Book{
			ISBN13:      field(row, "isbn13"),
			Title:       field(row, "title"),
			Authors:     field(row, "authors"),
			Description: field(row, "description"),
			Category:    category,
			Thumbnail:   thumb,
			Joy:         score(row, "joy"),
			Sadness:     score(row, "sadness"),
			Fear:        score(row, "fear"),
			Anger:       score(row, "anger"),
			Surprise:    score(row, "surprise"),
		})
	}

	c := New(books)
	if c.Len() == 0 {
		return nil, fmt.Errorf("catalog csv %s contains no usable records", path)
	}
	return c, nil
}
