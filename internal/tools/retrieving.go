package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/docent/internal/agent"
	"github.com/soyeahso/docent/internal/embed"
	"github.com/soyeahso/docent/internal/logging"
	"github.com/soyeahso/docent/internal/rerank"
	"github.com/soyeahso/docent/internal/vectorindex"
)

// NoResultsMessage is returned when retrieval finds nothing.
const NoResultsMessage = "I found no relevant information in this text."

// EmptyQueryMessage is returned when the call carries no query.
const EmptyQueryMessage = "retrieving requires a non-empty 'query' argument"

// Retrieving answers a query with the closest passages of the caller's
// ingested document, reranked for relevance.
type Retrieving struct {
	index     vectorindex.Index
	embedder  embed.Embedder
	reranker  rerank.Reranker
	indexName string
	topK      int
	topN      int
	log       *logging.Logger
}

// RetrievingOptions configures the retrieving tool.
type RetrievingOptions struct {
	Index     vectorindex.Index
	Embedder  embed.Embedder
	Reranker  rerank.Reranker
	IndexName string
	TopK      int
	TopN      int
}

// NewRetrieving creates the retrieving tool.
func NewRetrieving(opts RetrievingOptions, log *logging.Logger) *Retrieving {
	t := &Retrieving{
		index:     opts.Index,
		embedder:  opts.Embedder,
		reranker:  opts.Reranker,
		indexName: opts.IndexName,
		topK:      opts.TopK,
		topN:      opts.TopN,
		log:       log.Sub("tools.retrieving"),
	}
	if t.topK <= 0 {
		t.topK = 5
	}
	if t.topN <= 0 {
		t.topN = 5
	}
	return t
}

func (t *Retrieving) Name() string { return NameRetrieving }

func (t *Retrieving) Description() string {
	return "Performs semantic search over the stored document of this user and returns the most relevant passages."
}

func (t *Retrieving) InputSchema() map[string]any {
	return objectSchema(map[string]any{
		"query":   property("string", "What to look for in the stored document."),
		"user_id": property("string", "Identifier of the user."),
	}, "query")
}

func (t *Retrieving) Execute(ctx context.Context, inv agent.Invocation) (string, error) {
	query := strings.TrimSpace(inv.String("query"))
	if query == "" {
		return EmptyQueryMessage, nil
	}

	vec, err := embed.One(ctx, t.embedder, query)
	if err != nil {
		return "", fmt.Errorf("embedding query: %w", err)
	}
	matches, err := t.index.Search(ctx, t.indexName, inv.UserID, vec, t.topK)
	switch {
	case errors.Is(err, vectorindex.ErrIndexNotFound), errors.Is(err, vectorindex.ErrNamespaceNotFound):
		return NoResultsMessage, nil
	case err != nil:
		return "", fmt.Errorf("searching index: %w", err)
	case len(matches) == 0:
		return NoResultsMessage, nil
	}

	docs := make([]string, len(matches))
	for i, m := range matches {
		docs[i] = m.Text
	}
	ranked, err := t.reranker.Rerank(ctx, query, docs, t.topN)
	if err != nil {
		t.log.Warn().Err(err).Str("reranker", t.reranker.Name()).Msg("rerank failed, keeping vector order")
		ranked = make([]rerank.Result, 0, min(len(matches), t.topN))
		for i := 0; i < len(matches) && i < t.topN; i++ {
			ranked = append(ranked, rerank.Result{Index: i, Score: matches[i].Score})
		}
	}
	if len(ranked) == 0 {
		return NoResultsMessage, nil
	}

	var b strings.Builder
	for i, r := range ranked {
		if i > 0 {
			b.WriteString("\n\n")
		}
		m := matches[r.Index]
		fmt.Fprintf(&b, "[%d] (%s, score %.3f)\n%s", i+1, m.ID, r.Score, m.Text)
	}
	return b.String(), nil
}
