package cf

import (
	"math"
	"sort"

	"github.com/vmnguyen/readnext/internal/isbn"
)

// Finder answers "items similar to item X" by cosine distance between the
// rows of a Matrix. It is read-only after construction; when the rating
// data changes, build a new Matrix and a new Finder and swap the reference.
type Finder struct {
	matrix *Matrix
	norms  []float64
}

// NewFinder precomputes the row norms for m. A nil matrix is allowed and
// yields a Finder whose lookups return no neighbors (the "no collaborative
// signal" case).
func NewFinder(m *Matrix) *Finder {
	f := &Finder{matrix: m}
	if m == nil {
		return f
	}
	f.norms = make([]float64, m.Items())
	for i := range f.norms {
		f.norms[i] = norm(m.Row(i))
	}
	return f
}

// Available reports whether the finder has any items to search over.
func (f *Finder) Available() bool {
	return f != nil && f.matrix.Items() > 0
}

// Neighbors returns up to count-1 item ISBNs nearest to the given item,
// nearest first, never including the item itself (one slot of count is
// consumed by the self match, mirroring an n_neighbors-style search).
// Ties break by row index ascending so the ordering is deterministic.
// An unknown or malformed ISBN yields an empty result, not an error.
func (f *Finder) Neighbors(rawISBN string, count int) []string {
	if !f.Available() || count <= 1 {
		return nil
	}
	id := isbn.Normalize(rawISBN)
	self, ok := f.matrix.RowIndex(id)
	if !ok {
		return nil
	}

	type scored struct {
		row  int
		dist float64
	}
	q := f.matrix.Row(self)
	qn := f.norms[self]
	candidates := make([]scored, 0, f.matrix.Items()-1)
	for i := 0; i < f.matrix.Items(); i++ {
		if i == self {
			continue
		}
		candidates = append(candidates, scored{row: i, dist: cosineDistance(q, qn, f.matrix.Row(i), f.norms[i])})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].dist != candidates[b].dist {
			return candidates[a].dist < candidates[b].dist
		}
		return candidates[a].row < candidates[b].row
	})

	limit := count - 1
	if limit > len(candidates) {
		limit = len(candidates)
	}
	out := make([]string, 0, limit)
	for _, c := range candidates[:limit] {
		out = append(out, f.matrix.ISBNAt(c.row))
	}
	return out
}

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

// cosineDistance is 1 - cosine similarity. A zero-norm vector has no
// direction, so its distance to anything is the maximum 1.
func cosineDistance(a []float64, an float64, b []float64, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 1
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return 1 - dot/(an*bn)
}
