package store

import "time"

type User struct {
	ID             int64     `json:"id"`
	ExternalUserID string    `json:"external_user_id"`
	PasswordHash   string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt      time.Time `json:"created_at"`
}

// Book is one catalog record. Loaded once at startup and immutable for the
// life of the process. ISBN13 is the canonical join key across the catalog,
// the rating matrix and the semantic index: digits only, no ".0" artifact.
type Book struct {
	ISBN13      string  `json:"isbn13"`
	Title       string  `json:"title"`
	Authors     string  `json:"authors"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Thumbnail   string  `json:"thumbnail"`
	Joy         float64 `json:"joy"`
	Sadness     float64 `json:"sadness"`
	Fear        float64 `json:"fear"`
	Anger       float64 `json:"anger"`
	Surprise    float64 `json:"surprise"`
}

// Rating is a single (user, item, rating) observation. Value is 1..5; zero
// never appears as a real rating, so the matrix can use 0 for "no rating"
// without ambiguity.
type Rating struct {
	UserID string `json:"user_id"`
	ISBN   string `json:"isbn"`
	Value  int    `json:"rating"`
}

type HistoryEntry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Query     string    `json:"query"`
	TopTitle  string    `json:"top_title"`
	CreatedAt time.Time `json:"created_at"`
}

// BookEmbedding is one document of the semantic index: the book's tagged
// description plus its embedding vector, persisted as a JSON string.
type BookEmbedding struct {
	ID            int64     `json:"id"`
	ISBN          string    `json:"isbn"`
	Content       string    `json:"content"`
	Embedding     []float32 `json:"-"`
	EmbeddingJSON string    `json:"-"`
}
