package tools

import (
	"context"
	"fmt"

	"github.com/soyeahso/docent/internal/agent"
	"github.com/soyeahso/docent/internal/embed"
	"github.com/soyeahso/docent/internal/logging"
	"github.com/soyeahso/docent/internal/vectorindex"
)

// embedBatch caps the number of chunks sent per embedding request.
const embedBatch = 64

// Ingesting splits a document, embeds the chunks and stores them in the
// caller's namespace of the vector index.
type Ingesting struct {
	index     vectorindex.Index
	embedder  embed.Embedder
	splitter  *Splitter
	indexName string
	log       *logging.Logger
}

// NewIngesting creates the ingesting tool.
func NewIngesting(index vectorindex.Index, embedder embed.Embedder, splitter *Splitter, indexName string, log *logging.Logger) *Ingesting {
	return &Ingesting{
		index:     index,
		embedder:  embedder,
		splitter:  splitter,
		indexName: indexName,
		log:       log.Sub("tools.ingesting"),
	}
}

func (t *Ingesting) Name() string { return NameIngesting }

// Writes makes a turn finish ingesting before any other call reads the index.
func (t *Ingesting) Writes() bool { return true }

func (t *Ingesting) Description() string {
	return "Ingests document chunks into a vector database for semantic search. " +
		"If 'text' is omitted the uploaded document is ingested."
}

func (t *Ingesting) InputSchema() map[string]any {
	return objectSchema(map[string]any{
		"text":    property("string", "Text to ingest; defaults to the uploaded document."),
		"user_id": property("string", "Identifier of the user."),
	})
}

func (t *Ingesting) Execute(ctx context.Context, inv agent.Invocation) (string, error) {
	n, err := t.Ingest(ctx, inv.UserID, documentOr(inv, "text"))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Ingested %d chunks into index %q namespace %q", n, t.indexName, inv.UserID), nil
}

// Ingest replaces the contents of namespace with the chunks of text and
// returns the number of chunks.
func (t *Ingesting) Ingest(ctx context.Context, namespace, text string) (int, error) {
	chunks := t.splitter.Split(text)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("nothing to ingest")
	}

	records := make([]vectorindex.Record, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatch {
		end := min(start+embedBatch, len(chunks))
		vecs, err := t.embedder.Embed(ctx, chunks[start:end])
		if err != nil {
			return 0, fmt.Errorf("embedding chunks: %w", err)
		}
		if len(vecs) != end-start {
			return 0, fmt.Errorf("embedding chunks: got %d vectors for %d chunks", len(vecs), end-start)
		}
		for i, v := range vecs {
			records = append(records, vectorindex.Record{
				ID:     fmt.Sprintf("chunk-%d", start+i),
				Text:   chunks[start+i],
				Vector: v,
			})
		}
	}

	if err := t.index.EnsureIndex(ctx, t.indexName, len(records[0].Vector)); err != nil {
		return 0, fmt.Errorf("preparing index: %w", err)
	}
	if err := t.index.DeleteNamespace(ctx, t.indexName, namespace); err != nil {
		return 0, fmt.Errorf("clearing namespace: %w", err)
	}
	if err := t.index.Upsert(ctx, t.indexName, namespace, records); err != nil {
		return 0, fmt.Errorf("storing chunks: %w", err)
	}
	t.log.Info().Str("namespace", namespace).Int("chunks", len(records)).Msg("document ingested")
	return len(records), nil
}
