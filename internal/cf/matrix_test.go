package cf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmnguyen/readnext/internal/store"
)

func TestBuildMatrixStableSortedRows(t *testing.T) {
	m := BuildMatrix([]store.Rating{
		{UserID: "u2", ISBN: "222", Value: 4},
		{UserID: "u1", ISBN: "111", Value: 5},
		{UserID: "u1", ISBN: "333", Value: 3},
	})
	require.NotNil(t, m)
	assert.Equal(t, 3, m.Items())
	assert.Equal(t, 2, m.Users())

	// Row order is sorted by ISBN, independent of observation order.
	assert.Equal(t, "111", m.ISBNAt(0))
	assert.Equal(t, "222", m.ISBNAt(1))
	assert.Equal(t, "333", m.ISBNAt(2))

	i, ok := m.RowIndex("222")
	require.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestBuildMatrixNormalizesAndDrops(t *testing.T) {
	m := BuildMatrix([]store.Rating{
		{UserID: "u1", ISBN: "9780439785969.0", Value: 5},
		{UserID: "u1", ISBN: " 111 ", Value: 2},
		{UserID: "u1", ISBN: "garbage", Value: 3},
	})
	require.NotNil(t, m)
	assert.Equal(t, 2, m.Items())
	_, ok := m.RowIndex("9780439785969")
	assert.True(t, ok, "float artifact must normalize to the canonical ISBN")
	_, ok = m.RowIndex("garbage")
	assert.False(t, ok)
}

func TestBuildMatrixLastObservationWins(t *testing.T) {
	m := BuildMatrix([]store.Rating{
		{UserID: "u1", ISBN: "111", Value: 1},
		{UserID: "u1", ISBN: "111", Value: 5},
	})
	require.NotNil(t, m)
	row, ok := m.RowIndex("111")
	require.True(t, ok)
	assert.Equal(t, []float64{5}, m.Row(row))
}

func TestBuildMatrixEmptyInput(t *testing.T) {
	assert.Nil(t, BuildMatrix(nil))
	assert.Nil(t, BuildMatrix([]store.Rating{}))
	// Observations that all fail normalization leave no distinct items.
	assert.Nil(t, BuildMatrix([]store.Rating{{UserID: "u1", ISBN: "n/a", Value: 3}}))
}
