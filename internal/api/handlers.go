package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vmnguyen/readnext/internal/auth"
	"github.com/vmnguyen/readnext/internal/catalog"
	"github.com/vmnguyen/readnext/internal/engine"
	"github.com/vmnguyen/readnext/internal/history"
	"github.com/vmnguyen/readnext/internal/store"
)

type APIHandler struct {
	engine  *engine.Engine
	catalog *catalog.Catalog
	history *history.Log
	store   *store.SQLiteStore
}

func NewAPIHandler(e *engine.Engine, cat *catalog.Catalog, hist *history.Log, s *store.SQLiteStore) *APIHandler {
	return &APIHandler{engine: e, catalog: cat, history: hist, store: s}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		externalUserID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		user, err := h.store.GetUserByExternalID(externalUserID)
		if err != nil {
			log.Printf("Error in JWTAuthMiddleware for user %s: %v", externalUserID, err)
			http.Error(w, "Failed to process user identity", http.StatusInternalServerError)
			return
		}

		if user == nil {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "externalUserID", user.ExternalUserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type SignupRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.UserID == "" || req.Password == "" {
		http.Error(w, "User ID and password are required", http.StatusBadRequest)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for user %s: %v", req.UserID, err)
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	user, err := h.store.CreateUser(req.UserID, hashedPassword)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.UserID, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

type LoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.UserID == "" || req.Password == "" {
		http.Error(w, "User ID and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.store.GetUserByExternalID(req.UserID)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.UserID, err)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(req.UserID)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", req.UserID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

// GuestHandler creates a throwaway guest identity and returns a token for
// it, so anonymous visitors still get their own search history instead of
// sharing a single "guest" account.
func (h *APIHandler) GuestHandler(w http.ResponseWriter, r *http.Request) {
	guestID := "guest-" + uuid.NewString()

	hashedPassword, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		log.Printf("Error hashing guest password: %v", err)
		http.Error(w, "Failed to create guest identity", http.StatusInternalServerError)
		return
	}
	if _, err := h.store.CreateUser(guestID, hashedPassword); err != nil {
		log.Printf("Error creating guest user: %v", err)
		http.Error(w, "Failed to create guest identity", http.StatusInternalServerError)
		return
	}

	token, err := auth.GenerateJWT(guestID)
	if err != nil {
		log.Printf("Error generating guest JWT: %v", err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"user_id": guestID, "token": token})
}

type RecommendRequest struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	Tone     string `json:"tone"`
	TopK     int    `json:"top_k"`
}

func (h *APIHandler) RecommendHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("externalUserID").(string)

	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result := h.engine.Recommend(r.Context(), engine.Request{
		Query:    req.Query,
		Category: req.Category,
		Tone:     req.Tone,
		TopK:     req.TopK,
		UserID:   userID,
	})
	json.NewEncoder(w).Encode(result)
}

// MetaHandler returns the filter values clients can offer: the category
// labels present in the catalog and the fixed tone table, each with the
// "All" sentinel first.
func (h *APIHandler) MetaHandler(w http.ResponseWriter, r *http.Request) {
	categories := append([]string{engine.AllFilter}, h.catalog.Categories()...)
	json.NewEncoder(w).Encode(map[string][]string{
		"categories": categories,
		"tones":      engine.Tones,
	})
}

func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("externalUserID").(string)
	entries := h.history.Recent(userID, 10)
	if entries == nil {
		entries = []store.HistoryEntry{}
	}
	json.NewEncoder(w).Encode(entries)
}

func (h *APIHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(h.engine.StatsSnapshot())
}
