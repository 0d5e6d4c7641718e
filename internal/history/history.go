// Package history is the best-effort read/write layer over the search
// history log. History is never load-bearing: a failing store degrades to
// "no history", it never fails a recommendation call.
package history

import (
	"log"
	"strings"

	"github.com/vmnguyen/readnext/internal/store"
)

type Log struct {
	store *store.SQLiteStore
}

func NewLog(s *store.SQLiteStore) *Log {
	return &Log{store: s}
}

// Append records one executed query with its top result title. Blank
// queries are not recorded. Store failures are logged and swallowed so
// the caller's response path is unaffected.
func (l *Log) Append(userID, query, topTitle string) {
	if strings.TrimSpace(query) == "" {
		return
	}
	if err := l.store.InsertHistory(userID, query, topTitle); err != nil {
		log.Printf("History append failed for user %s: %v", userID, err)
	}
}

// RecentDistinct returns the user's most recent distinct queries, newest
// first, excluding the current one. Empty on any store failure.
func (l *Log) RecentDistinct(userID, excluding string, limit int) []string {
	queries, err := l.store.RecentDistinctQueries(userID, excluding, limit)
	if err != nil {
		log.Printf("History lookup failed for user %s: %v", userID, err)
		return nil
	}
	return queries
}

// Recent returns the user's latest history entries, newest first. Empty on
// any store failure.
func (l *Log) Recent(userID string, limit int) []store.HistoryEntry {
	entries, err := l.store.RecentHistory(userID, limit)
	if err != nil {
		log.Printf("History fetch failed for user %s: %v", userID, err)
		return nil
	}
	return entries
}
