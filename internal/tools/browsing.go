package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/soyeahso/docent/internal/agent"
	"github.com/soyeahso/docent/internal/logging"
	"github.com/soyeahso/docent/internal/search"
)

// Browsing searches the web for material related to the document.
type Browsing struct {
	provider   search.Provider
	maxResults int
	log        *logging.Logger
}

// NewBrowsing creates the browsing tool.
func NewBrowsing(provider search.Provider, maxResults int, log *logging.Logger) *Browsing {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Browsing{provider: provider, maxResults: maxResults, log: log.Sub("tools.browsing")}
}

func (b *Browsing) Name() string { return NameBrowsing }

func (b *Browsing) Description() string {
	return "Browse a 'query' on the web to find similar documents or up-to-date information."
}

func (b *Browsing) InputSchema() map[string]any {
	return objectSchema(map[string]any{
		"query":       property("string", "What to search for."),
		"max_results": property("integer", fmt.Sprintf("Maximum number of results (default %d).", b.maxResults)),
	}, "query")
}

func (b *Browsing) Execute(ctx context.Context, inv agent.Invocation) (string, error) {
	query := strings.TrimSpace(inv.String("query"))
	if query == "" {
		return "Search failed: query is empty", nil
	}
	results, err := b.provider.Search(ctx, query, inv.Int("max_results", b.maxResults))
	if err != nil {
		b.log.Warn().Err(err).Str("provider", b.provider.Name()).Msg("web search failed")
		return "Search failed: " + err.Error(), nil
	}
	b.log.Debug().Str("query", query).Int("results", len(results)).Msg("web search")
	return search.Format(results), nil
}
