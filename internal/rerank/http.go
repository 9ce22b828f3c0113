package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTP calls a /rerank endpoint. Both the Cohere/Jina response shape
// ({"results":[{"index","relevance_score"}]}) and the bare array returned
// by text-embeddings-inference ([{"index","score"}]) are accepted.
type HTTP struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

// NewHTTP creates a client for a rerank endpoint.
func NewHTTP(url, apiKey, model string, httpClient *http.Client) *HTTP {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTP{url: url, apiKey: apiKey, model: model, client: httpClient}
}

func (h *HTTP) Name() string { return "http" }

type rerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Texts     []string `json:"texts"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankHit struct {
	Index          int      `json:"index"`
	RelevanceScore *float64 `json:"relevance_score"`
	Score          *float64 `json:"score"`
}

func (h *HTTP) Rerank(ctx context.Context, query string, docs []string, topN int) ([]Result, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(rerankRequest{
		Model:     h.model,
		Query:     query,
		Documents: docs,
		Texts:     docs,
		TopN:      topN,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rerank: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	hits, err := decodeHits(data)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		if hit.Index < 0 || hit.Index >= len(docs) {
			return nil, fmt.Errorf("rerank: index %d out of range", hit.Index)
		}
		r := Result{Index: hit.Index}
		switch {
		case hit.RelevanceScore != nil:
			r.Score = *hit.RelevanceScore
		case hit.Score != nil:
			r.Score = *hit.Score
		}
		results = append(results, r)
	}
	return top(results, topN), nil
}

func decodeHits(data []byte) ([]rerankHit, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var hits []rerankHit
		if err := json.Unmarshal(trimmed, &hits); err != nil {
			return nil, fmt.Errorf("decoding rerank response: %w", err)
		}
		return hits, nil
	}
	var wrapped struct {
		Results []rerankHit `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decoding rerank response: %w", err)
	}
	return wrapped.Results, nil
}
