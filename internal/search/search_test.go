package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/soyeahso/docent/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	out := Format([]Result{
		{Title: "Go", URL: "https://go.dev", Snippet: "The Go language"},
		{Title: "Tour", URL: "https://go.dev/tour", Snippet: "A tour of Go"},
	})
	assert.Equal(t, "[1] Go - https://go.dev\n The Go language\n[2] Tour - https://go.dev/tour\n A tour of Go", out)
	assert.Equal(t, "No results found.", Format(nil))
}

func TestBraveSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "golang generics", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("count"))
		w.Write([]byte(`{"web":{"results":[
			{"title":"A","url":"https://a.example","description":"first"},
			{"title":"B","url":"https://b.example","description":"second"},
			{"title":"C","url":"https://c.example","description":"third"}]}}`))
	}))
	defer srv.Close()

	results, err := NewBrave("secret", srv.URL, srv.Client()).Search(context.Background(), "golang generics", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, Result{Title: "A", URL: "https://a.example", Snippet: "first"}, results[0])
}

func TestBraveSearchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewBrave("k", srv.URL, srv.Client()).Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestGoogleSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/customsearch/v1"), r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "key1", q.Get("key"))
		assert.Equal(t, "engine", q.Get("cx"))
		assert.Equal(t, "pdf parsing", q.Get("q"))
		assert.Equal(t, "3", q.Get("num"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"title":"Doc","link":"https://doc.example","snippet":"about pdfs"}]}`))
	}))
	defer srv.Close()

	g, err := NewGoogle(context.Background(), "key1", "engine", srv.URL+"/", srv.Client())
	require.NoError(t, err)
	results, err := g.Search(context.Background(), "pdf parsing", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, Result{Title: "Doc", URL: "https://doc.example", Snippet: "about pdfs"}, results[0])
}

func TestNone(t *testing.T) {
	_, err := None{}.Search(context.Background(), "q", 5)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestClampMax(t *testing.T) {
	assert.Equal(t, 5, clampMax(0, 10))
	assert.Equal(t, 10, clampMax(50, 10))
	assert.Equal(t, 3, clampMax(3, 10))
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, config.SearchConfig{Provider: "brave"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "brave", p.Name())

	p, err = New(ctx, config.SearchConfig{Provider: "google", CX: "cx"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "google", p.Name())

	p, err = New(ctx, config.SearchConfig{Provider: "none"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "none", p.Name())

	_, err = New(ctx, config.SearchConfig{Provider: "duckduckgo"}, nil)
	assert.Error(t, err)
}
