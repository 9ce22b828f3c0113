package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QdrantOptions configures the Qdrant REST backend.
type QdrantOptions struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

// Qdrant stores each index as a collection and each namespace as a payload
// filter on that collection. Distance is cosine.
type Qdrant struct {
	url    string
	apiKey string
	client *http.Client
}

// NewQdrant creates a REST client for a Qdrant server.
func NewQdrant(opts QdrantOptions) *Qdrant {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Qdrant{
		url:    strings.TrimRight(opts.URL, "/"),
		apiKey: opts.APIKey,
		client: client,
	}
}

type qdrantStatusError struct {
	method, path string
	status       int
	body         string
}

func (e *qdrantStatusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %d %s", e.method, e.path, e.status, e.body)
}

func (q *Qdrant) EnsureIndex(ctx context.Context, name string, dim int) error {
	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := q.do(ctx, http.MethodGet, q.collectionPath(name), nil, &info)
	if err == nil {
		if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != dim {
			return fmt.Errorf("%w: %q has %d, got %d", ErrDimensionMismatch, name, size, dim)
		}
		return nil
	}
	if !isStatus(err, http.StatusNotFound) {
		return err
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	return q.do(ctx, http.MethodPut, q.collectionPath(name), body, nil)
}

func (q *Qdrant) Upsert(ctx context.Context, name, namespace string, records []Record) error {
	points := make([]map[string]any, len(records))
	for i, r := range records {
		points[i] = map[string]any{
			"id":     pointID(namespace, r.ID),
			"vector": r.Vector,
			"payload": map[string]any{
				"namespace": namespace,
				"chunk_id":  r.ID,
				"text":      r.Text,
			},
		}
	}
	err := q.do(ctx, http.MethodPut, q.collectionPath(name)+"/points?wait=true", map[string]any{"points": points}, nil)
	if isStatus(err, http.StatusNotFound) {
		return ErrIndexNotFound
	}
	return err
}

func (q *Qdrant) Search(ctx context.Context, name, namespace string, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"filter":       namespaceFilter(namespace),
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				ChunkID string `json:"chunk_id"`
				Text    string `json:"text"`
			} `json:"payload"`
		} `json:"result"`
	}
	err := q.do(ctx, http.MethodPost, q.collectionPath(name)+"/points/search", req, &resp)
	if isStatus(err, http.StatusNotFound) {
		return nil, ErrIndexNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(resp.Result) == 0 {
		return nil, ErrNamespaceNotFound
	}
	matches := make([]Match, len(resp.Result))
	for i, r := range resp.Result {
		matches[i] = Match{ID: r.Payload.ChunkID, Text: r.Payload.Text, Score: r.Score}
	}
	return matches, nil
}

func (q *Qdrant) DeleteNamespace(ctx context.Context, name, namespace string) error {
	body := map[string]any{"filter": namespaceFilter(namespace)}
	err := q.do(ctx, http.MethodPost, q.collectionPath(name)+"/points/delete?wait=true", body, nil)
	if isStatus(err, http.StatusNotFound) {
		return nil
	}
	return err
}

func (q *Qdrant) Close() error { return nil }

func namespaceFilter(namespace string) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{"key": "namespace", "match": map[string]any{"value": namespace}},
		},
	}
}

func (q *Qdrant) collectionPath(name string) string {
	return "/collections/" + url.PathEscape(name)
}

func (q *Qdrant) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, q.url+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &qdrantStatusError{method: method, path: path, status: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// pointID maps a namespaced chunk id to the UUID form Qdrant requires.
func pointID(namespace, id string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(namespace+"/"+id)).String()
}

func isStatus(err error, status int) bool {
	se, ok := err.(*qdrantStatusError)
	return ok && se.status == status
}
