package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmnguyen/readnext/internal/store"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewLog(s)
}

func TestAppendAndRecent(t *testing.T) {
	l := newTestLog(t)

	l.Append("u1", "magic", "Harry Potter and the Half-Blood Prince")
	l.Append("u1", "space", "The Hitchhiker's Guide to the Galaxy")
	l.Append("u2", "crime", "In Cold Blood")

	entries := l.Recent("u1", 10)
	require.Len(t, entries, 2)
	assert.Equal(t, "space", entries[0].Query, "newest first")
	assert.Equal(t, "magic", entries[1].Query)
	assert.Equal(t, "Harry Potter and the Half-Blood Prince", entries[1].TopTitle)
}

func TestAppendIgnoresBlankQuery(t *testing.T) {
	l := newTestLog(t)

	l.Append("u1", "", "whatever")
	l.Append("u1", "   \t", "whatever")

	assert.Empty(t, l.Recent("u1", 10))
}

func TestRecentDistinct(t *testing.T) {
	l := newTestLog(t)

	l.Append("u1", "magic", "t1")
	l.Append("u1", "dragons", "t2")
	l.Append("u1", "magic", "t3") // repeat
	l.Append("u1", "space", "t4")

	got := l.RecentDistinct("u1", "space", 3)
	assert.Equal(t, []string{"magic", "dragons"}, got,
		"distinct, newest first, current query excluded")

	assert.Equal(t, []string{"space"}, l.RecentDistinct("u1", "", 1))
	assert.Empty(t, l.RecentDistinct("nobody", "", 3))
}
