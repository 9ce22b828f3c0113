// Package search queries web search engines for the browsing tool.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/soyeahso/docent/internal/config"
)

// ErrDisabled is returned by the "none" provider.
var ErrDisabled = errors.New("web search is disabled")

// Result is one web hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Provider runs a web search and returns at most max results.
type Provider interface {
	Search(ctx context.Context, query string, max int) ([]Result, error)
	Name() string
}

// New builds the provider selected by configuration.
func New(ctx context.Context, cfg config.SearchConfig, httpClient *http.Client) (Provider, error) {
	switch cfg.Provider {
	case "brave", "":
		return NewBrave(cfg.APIKey, cfg.BaseURL, httpClient), nil
	case "google":
		return NewGoogle(ctx, cfg.APIKey, cfg.CX, cfg.BaseURL, httpClient)
	case "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}

// Format renders results as numbered "[n] title - url" lines, each followed
// by its snippet.
func Format(results []Result) string {
	if len(results) == 0 {
		return "No results found."
	}
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%d] %s - %s\n %s", i+1, r.Title, r.URL, r.Snippet)
	}
	return b.String()
}

// None always fails with ErrDisabled.
type None struct{}

func (None) Name() string { return "none" }

func (None) Search(context.Context, string, int) ([]Result, error) {
	return nil, ErrDisabled
}

func clampMax(max, limit int) int {
	if max <= 0 {
		max = 5
	}
	if max > limit {
		max = limit
	}
	return max
}
