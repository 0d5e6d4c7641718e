// Package cf implements item-based collaborative filtering over a sparse
// user-item rating matrix: a stable item-by-user matrix built from raw
// rating observations and a cosine nearest-neighbor finder on its rows.
package cf

import (
	"sort"

	"github.com/vmnguyen/readnext/internal/isbn"
	"github.com/vmnguyen/readnext/internal/store"
)

// Matrix is an item-by-user rating matrix. Row order is sorted by ISBN and
// column order sorted by user ID, so the row-index mapping is stable for a
// given set of observations. A cell of 0 means "no rating" (0 is never a
// valid rating value). The matrix is immutable after construction; new
// rating data means building a new Matrix.
type Matrix struct {
	isbns []string
	users []string
	index map[string]int
	rows  [][]float64
}

// BuildMatrix pivots rating observations into a Matrix. ISBNs are
// normalized on the way in and non-numeric ones dropped. Duplicate
// (user, item) pairs resolve to the last observation in input order.
// Returns nil when no usable observations exist; callers must treat the
// collaborative subsystem as unavailable in that case.
func BuildMatrix(ratings []store.Rating) *Matrix {
	type obs struct {
		isbn, user string
		value      float64
	}
	cleaned := make([]obs, 0, len(ratings))
	isbnSet := map[string]struct{}{}
	userSet := map[string]struct{}{}
	for _, r := range ratings {
		id := isbn.Normalize(r.ISBN)
		if !isbn.IsNumeric(id) {
			continue
		}
		cleaned = append(cleaned, obs{isbn: id, user: r.UserID, value: float64(r.Value)})
		isbnSet[id] = struct{}{}
		userSet[r.UserID] = struct{}{}
	}
	if len(cleaned) == 0 {
		return nil
	}

	m := &Matrix{
		isbns: make([]string, 0, len(isbnSet)),
		users: make([]string, 0, len(userSet)),
		index: make(map[string]int, len(isbnSet)),
	}
	for id := range isbnSet {
		m.isbns = append(m.isbns, id)
	}
	sort.Strings(m.isbns)
	for u := range userSet {
		m.users = append(m.users, u)
	}
	sort.Strings(m.users)

	for i, id := range m.isbns {
		m.index[id] = i
	}
	userIdx := make(map[string]int, len(m.users))
	for j, u := range m.users {
		userIdx[u] = j
	}

	m.rows = make([][]float64, len(m.isbns))
	for i := range m.rows {
		m.rows[i] = make([]float64, len(m.users))
	}
	// Input order decides duplicates: the last observation for a
	// (user, item) pair overwrites earlier ones.
	for _, o := range cleaned {
		m.rows[m.index[o.isbn]][userIdx[o.user]] = o.value
	}
	return m
}

// Items returns the number of distinct items (rows).
func (m *Matrix) Items() int {
	if m == nil {
		return 0
	}
	return len(m.isbns)
}

// Users returns the number of distinct users (columns).
func (m *Matrix) Users() int {
	if m == nil {
		return 0
	}
	return len(m.users)
}

// RowIndex returns the row index for a canonical ISBN.
func (m *Matrix) RowIndex(id string) (int, bool) {
	if m == nil {
		return 0, false
	}
	i, ok := m.index[id]
	return i, ok
}

// ISBNAt returns the canonical ISBN for a row index.
func (m *Matrix) ISBNAt(row int) string { return m.isbns[row] }

// Row returns the rating vector for a row index. Callers must not mutate it.
func (m *Matrix) Row(row int) []float64 { return m.rows[row] }
