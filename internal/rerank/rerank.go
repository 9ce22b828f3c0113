// Package rerank reorders retrieved passages by relevance to a query.
package rerank

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/soyeahso/docent/internal/config"
	"github.com/soyeahso/docent/internal/embed"
)

// Result points at one input document by position.
type Result struct {
	Index int
	Score float64
}

// Reranker scores documents against a query and returns the best topN,
// best first. topN <= 0 keeps every document.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string, topN int) ([]Result, error)
	Name() string
}

// New builds the reranker selected by configuration.
func New(cfg config.RerankConfig, httpClient *http.Client) (Reranker, error) {
	switch cfg.Provider {
	case "http":
		return NewHTTP(cfg.URL, cfg.APIKey, cfg.Model, httpClient), nil
	case "lexical", "":
		return Lexical{}, nil
	default:
		return nil, fmt.Errorf("unknown rerank provider %q", cfg.Provider)
	}
}

// Lexical ranks by the share of distinct query terms each document contains.
type Lexical struct{}

func (Lexical) Name() string { return "lexical" }

func (Lexical) Rerank(_ context.Context, query string, docs []string, topN int) ([]Result, error) {
	terms := make(map[string]struct{})
	for _, w := range embed.Tokenize(query) {
		terms[w] = struct{}{}
	}
	results := make([]Result, len(docs))
	for i, d := range docs {
		results[i] = Result{Index: i}
		if len(terms) == 0 {
			continue
		}
		seen := make(map[string]struct{})
		for _, w := range embed.Tokenize(d) {
			if _, ok := terms[w]; ok {
				seen[w] = struct{}{}
			}
		}
		results[i].Score = float64(len(seen)) / float64(len(terms))
	}
	return top(results, topN), nil
}

func top(results []Result, topN int) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}
