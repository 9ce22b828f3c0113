package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soyeahso/docent/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexicalRerank(t *testing.T) {
	docs := []string{
		"The weather is sunny.",
		"Go has goroutines and channels.",
		"Channels connect goroutines.",
	}
	results, err := Lexical{}.Rerank(context.Background(), "goroutines channels go", docs, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Index)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, 2, results[1].Index)
}

func TestLexicalKeepsOrderOnTies(t *testing.T) {
	results, err := Lexical{}.Rerank(context.Background(), "", []string{"a", "b", "c"}, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{results[0].Index, results[1].Index, results[2].Index})
}

func TestHTTPRerankCohereShape(t *testing.T) {
	var got rerankRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"results":[{"index":1,"relevance_score":0.9},{"index":0,"relevance_score":0.2}]}`))
	}))
	defer srv.Close()

	rr := NewHTTP(srv.URL, "key", "bge-reranker-v2-m3", srv.Client())
	results, err := rr.Rerank(context.Background(), "q", []string{"a", "b"}, 5)
	require.NoError(t, err)
	assert.Equal(t, "bge-reranker-v2-m3", got.Model)
	assert.Equal(t, []string{"a", "b"}, got.Documents)
	assert.Equal(t, 5, got.TopN)
	require.Len(t, results, 2)
	assert.Equal(t, Result{Index: 1, Score: 0.9}, results[0])
}

func TestHTTPRerankTEIShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"index":0,"score":0.1},{"index":2,"score":0.8},{"index":1,"score":0.5}]`))
	}))
	defer srv.Close()

	results, err := NewHTTP(srv.URL, "", "", srv.Client()).Rerank(context.Background(), "q", []string{"a", "b", "c"}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].Index)
	assert.Equal(t, 1, results[1].Index)
}

func TestHTTPRerankErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()
		_, err := NewHTTP(srv.URL, "", "", srv.Client()).Rerank(context.Background(), "q", []string{"a"}, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
	t.Run("out of range", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results":[{"index":4,"relevance_score":1}]}`))
		}))
		defer srv.Close()
		_, err := NewHTTP(srv.URL, "", "", srv.Client()).Rerank(context.Background(), "q", []string{"a"}, 1)
		assert.ErrorContains(t, err, "out of range")
	})
}

func TestHTTPRerankEmptyDocs(t *testing.T) {
	results, err := NewHTTP("http://127.0.0.1:0", "", "", nil).Rerank(context.Background(), "q", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNew(t *testing.T) {
	r, err := New(config.RerankConfig{Provider: "lexical"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "lexical", r.Name())

	r, err = New(config.RerankConfig{Provider: "http", URL: "http://x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http", r.Name())

	_, err = New(config.RerankConfig{Provider: "pinecone"}, nil)
	assert.Error(t, err)
}
