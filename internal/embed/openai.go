package embed

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI embeds through the OpenAI embeddings endpoint or any compatible one.
type OpenAI struct {
	client    *openai.Client
	model     string
	dimension int
}

// NewOpenAI creates an OpenAI embedder. A zero dimension keeps the model default.
func NewOpenAI(apiKey, baseURL, model string, dimension int, httpClient *http.Client) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model, dimension: dimension}
}

func (e *OpenAI) Name() string { return "openai" }

func (e *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(e.model),
		Input:      texts,
		Dimensions: e.dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs: %w", len(resp.Data), len(texts), ErrEmptyEmbedding)
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) || len(d.Embedding) == 0 {
			return nil, ErrEmptyEmbedding
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
