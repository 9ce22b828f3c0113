// Package embed turns text into dense vectors for the vector index.
package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/soyeahso/docent/internal/config"
)

// ErrEmptyEmbedding is returned when a provider answers without vectors.
var ErrEmptyEmbedding = errors.New("embed: provider returned no embeddings")

// Embedder produces one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

// New builds the embedder selected by configuration.
func New(cfg config.EmbeddingConfig, httpClient *http.Client) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Dimension, httpClient), nil
	case "ollama":
		return NewOllama(cfg.BaseURL, cfg.Model, httpClient)
	case "hash", "":
		return NewHash(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// One embeds a single text.
func One(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, ErrEmptyEmbedding
	}
	return vecs[0], nil
}
