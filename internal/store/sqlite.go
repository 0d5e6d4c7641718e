package store

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        external_user_id TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS search_history (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT NOT NULL,
        query TEXT NOT NULL,
        top_book TEXT,
        timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS ratings (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT NOT NULL,
        isbn TEXT NOT NULL,
        rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5)
    );

    CREATE TABLE IF NOT EXISTS book_embeddings (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        isbn TEXT NOT NULL,
        content TEXT NOT NULL,
        embedding_json TEXT -- Storing as JSON string of []float32
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods
func (s *SQLiteStore) GetUserByExternalID(externalUserID string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, external_user_id, password_hash, created_at FROM users WHERE external_user_id = ?", externalUserID).Scan(&user.ID, &user.ExternalUserID, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) CreateUser(externalUserID, passwordHash string) (*User, error) {
	res, err := s.db.Exec("INSERT INTO users (external_user_id, password_hash) VALUES (?, ?)", externalUserID, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.getUserByID(id)
}

func (s *SQLiteStore) getUserByID(id int64) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, external_user_id, password_hash, created_at FROM users WHERE id = ?", id).Scan(&user.ID, &user.ExternalUserID, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// History methods
func (s *SQLiteStore) InsertHistory(userID, query, topTitle string) error {
	_, err := s.db.Exec("INSERT INTO search_history (user_id, query, top_book) VALUES (?, ?, ?)", userID, query, topTitle)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// RecentDistinctQueries returns the user's most recent distinct query
// strings, newest first, excluding the given current query.
func (s *SQLiteStore) RecentDistinctQueries(userID, excluding string, limit int) ([]string, error) {
	rows, err := s.db.Query(`
        SELECT query
        FROM search_history
        WHERE user_id = ? AND query != ?
        GROUP BY query
        ORDER BY MAX(id) DESC
        LIMIT ?`, userID, excluding, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent interests: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to scan history query: %w", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

func (s *SQLiteStore) RecentHistory(userID string, limit int) ([]HistoryEntry, error) {
	rows, err := s.db.Query(`
        SELECT id, user_id, query, COALESCE(top_book, ''), timestamp
        FROM search_history
        WHERE user_id = ?
        ORDER BY id DESC
        LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Query, &e.TopTitle, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Rating methods
func (s *SQLiteStore) GetAllRatings() ([]Rating, error) {
	rows, err := s.db.Query("SELECT user_id, isbn, rating FROM ratings ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []Rating
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.UserID, &r.ISBN, &r.Value); err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// ImportRatingsCSV replaces the ratings table with the rows of a
// user_id,isbn,rating CSV export. Rows with a missing field or a rating
// outside 1..5 are skipped with a warning.
func (s *SQLiteStore) ImportRatingsCSV(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open ratings csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read ratings header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"user_id", "isbn", "rating"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("ratings csv has no %s column", required)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin ratings import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM ratings"); err != nil {
		return 0, fmt.Errorf("failed to clear ratings: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO ratings (user_id, isbn, rating) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare rating insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		if len(row) <= col["rating"] {
			continue
		}
		value, err := strconv.Atoi(strings.TrimSpace(row[col["rating"]]))
		if err != nil || value < 1 || value > 5 {
			log.Printf("Skipping ratings row with invalid rating value %q", row[col["rating"]])
			continue
		}
		if _, err := stmt.Exec(strings.TrimSpace(row[col["user_id"]]), strings.TrimSpace(row[col["isbn"]]), value); err != nil {
			return 0, fmt.Errorf("failed to insert rating: %w", err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ratings import: %w", err)
	}
	return count, nil
}

// BookEmbedding methods (semantic index storage)
func (s *SQLiteStore) createBookEmbedding(e *BookEmbedding) error {
	embeddingBytes, err := json.Marshal(e.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	e.EmbeddingJSON = string(embeddingBytes)

	res, err := s.db.Exec("INSERT INTO book_embeddings (isbn, content, embedding_json) VALUES (?, ?, ?)", e.ISBN, e.Content, e.EmbeddingJSON)
	if err != nil {
		return fmt.Errorf("failed to insert book embedding: %w", err)
	}
	e.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) GetAllBookEmbeddings() ([]BookEmbedding, error) {
	rows, err := s.db.Query("SELECT id, isbn, content, embedding_json FROM book_embeddings ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query book_embeddings: %w", err)
	}
	defer rows.Close()

	var docs []BookEmbedding
	for rows.Next() {
		var d BookEmbedding
		var embeddingJSON string
		if err := rows.Scan(&d.ID, &d.ISBN, &d.Content, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan book_embedding row: %w", err)
		}
		if embeddingJSON != "" {
			if err := json.Unmarshal([]byte(embeddingJSON), &d.Embedding); err != nil {
				log.Printf("Warning: failed to unmarshal embedding for row %d (isbn %s): %v. Embedding will be empty.", d.ID, d.ISBN, err)
				d.Embedding = nil
			}
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) ClearBookEmbeddings() error {
	if _, err := s.db.Exec("DELETE FROM book_embeddings"); err != nil {
		return fmt.Errorf("failed to delete book_embeddings: %w", err)
	}
	_, err := s.db.Exec("DELETE FROM sqlite_sequence WHERE name='book_embeddings'")
	if err != nil && !strings.Contains(err.Error(), "no such table") {
		log.Printf("Warning: could not reset sequence for book_embeddings: %v", err)
	}
	return nil
}

// IngestBookEmbeddings rebuilds the embedding store from catalog records:
// one document per book with the tagged content "ISBN Title Description",
// embedded through the provided embedder. Existing rows are cleared first.
// Books whose tagged content is too short to embed meaningfully are skipped.
func (s *SQLiteStore) IngestBookEmbeddings(books []Book, embedder func(string) ([]float32, error)) (int, error) {
	if len(books) == 0 {
		return 0, fmt.Errorf("no catalog records to ingest")
	}

	if err := s.ClearBookEmbeddings(); err != nil {
		return 0, fmt.Errorf("failed to clear existing embeddings: %w", err)
	}

	log.Printf("Embedding %d catalog records (this may take a while)...", len(books))

	ticker := time.NewTicker(40 * time.Millisecond) // stay under the embedding API rate limit
	defer ticker.Stop()

	count := 0
	for i, b := range books {
		content := strings.TrimSpace(b.ISBN13 + " " + b.Title + " " + b.Description)
		if len(content) <= 10 {
			log.Printf("Skipping book %s: tagged content too short.", b.ISBN13)
			continue
		}

		<-ticker.C

		embedding, err := embedder(content)
		if err != nil {
			log.Printf("Failed to embed book %d/%d (%s): %v. Skipping.", i+1, len(books), b.ISBN13, err)
			continue
		}

		doc := BookEmbedding{ISBN: b.ISBN13, Content: content, Embedding: embedding}
		if err := s.createBookEmbedding(&doc); err != nil {
			log.Printf("Failed to store embedding for %s: %v. Skipping.", b.ISBN13, err)
			continue
		}
		count++
		if count%50 == 0 || count == len(books) {
			log.Printf("Ingested %d/%d embeddings...", count, len(books))
		}
	}
	log.Printf("Successfully ingested %d embeddings.", count)
	return count, nil
}
