package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmnguyen/readnext/internal/catalog"
	"github.com/vmnguyen/readnext/internal/cf"
	"github.com/vmnguyen/readnext/internal/config"
	"github.com/vmnguyen/readnext/internal/engine"
	"github.com/vmnguyen/readnext/internal/history"
	"github.com/vmnguyen/readnext/internal/semantic"
	"github.com/vmnguyen/readnext/internal/store"
)

type staticSearcher struct {
	hits []semantic.Hit
}

func (s *staticSearcher) Search(_ context.Context, _ string, k int) ([]semantic.Hit, error) {
	hits := s.hits
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	config.AppConfig.JWTSecret = "test-secret"

	dbStore, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { dbStore.Close() })

	cat := catalog.New([]store.Book{
		{ISBN13: "9780439785969", Title: "Harry Potter and the Half-Blood Prince", Category: "Fantasy"},
		{ISBN13: "9780451524935", Title: "1984", Category: "Fiction"},
	})
	searcher := &staticSearcher{hits: []semantic.Hit{
		{Content: "9780439785969 wizard school", Tags: map[string]string{"isbn": "9780439785969"}},
	}}
	histLog := history.NewLog(dbStore)
	e := engine.NewEngine(cat, searcher, cf.NewFinder(nil), histLog, time.Second, rand.New(rand.NewSource(7)))

	srv := httptest.NewServer(NewRouter(NewAPIHandler(e, cat, histLog, dbStore)))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(buf))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestRecommendationFlow(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/signup", "", map[string]string{"user_id": "alice", "password": "s3cret"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/login", "", map[string]string{"user_id": "alice", "password": "s3cret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	resp.Body.Close()
	require.NotEmpty(t, login["token"])

	resp = postJSON(t, srv.URL+"/api/recommendations", login["token"], map[string]any{"query": "magic"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result engine.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()

	require.NotEmpty(t, result.Primary)
	assert.Equal(t, "Harry Potter and the Half-Blood Prince", result.Primary[0].Title)
	assert.NotEmpty(t, result.Secondary, "fallback chain must produce a secondary track")
	assert.NotEmpty(t, result.SecondaryLabel)
	require.Len(t, result.History, 1)
	assert.Equal(t, "magic", result.History[0].Query)
}

func TestRecommendationsRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/recommendations", "", map[string]any{"query": "magic"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/recommendations", "not-a-token", map[string]any{"query": "magic"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestGuestIdentity(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/guest", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var guest map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&guest))
	resp.Body.Close()
	require.NotEmpty(t, guest["token"])
	assert.Contains(t, guest["user_id"], "guest-")

	resp = postJSON(t, srv.URL+"/api/recommendations", guest["token"], map[string]any{"query": "magic"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestMeta(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/meta")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var meta map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&meta))
	resp.Body.Close()

	assert.Equal(t, []string{"All", "Fantasy", "Fiction"}, meta["categories"])
	assert.Equal(t, engine.Tones, meta["tones"])
}
