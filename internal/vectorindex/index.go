// Package vectorindex stores document chunk embeddings partitioned by
// namespace and answers nearest-neighbour queries over them.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"

	"github.com/soyeahso/docent/internal/config"
	"github.com/soyeahso/docent/internal/logging"
	"github.com/soyeahso/docent/internal/store"
)

var (
	// ErrIndexNotFound is returned when querying an index that was never created.
	ErrIndexNotFound = errors.New("vectorindex: index not found")

	// ErrNamespaceNotFound is returned when a namespace holds no records.
	ErrNamespaceNotFound = errors.New("vectorindex: namespace not found")

	// ErrDimensionMismatch is returned when an existing index is reopened
	// with another vector size.
	ErrDimensionMismatch = store.ErrDimensionMismatch
)

// Record is one chunk to be stored.
type Record struct {
	ID     string
	Text   string
	Vector []float32
}

// Match is one search hit. Higher Score means closer.
type Match struct {
	ID    string
	Text  string
	Score float64
}

// Index is a named collection of vectors split into namespaces.
type Index interface {
	// EnsureIndex creates the index if it does not exist.
	EnsureIndex(ctx context.Context, name string, dim int) error
	// Upsert inserts or replaces records by id within a namespace.
	Upsert(ctx context.Context, name, namespace string, records []Record) error
	// Search returns up to topK records of a namespace, best first.
	Search(ctx context.Context, name, namespace string, vector []float32, topK int) ([]Match, error)
	// DeleteNamespace drops every record of a namespace. A missing index or
	// namespace is not an error.
	DeleteNamespace(ctx context.Context, name, namespace string) error
	Close() error
}

// Options carries the collaborators some backends need.
type Options struct {
	HTTPClient *http.Client
	Log        *logging.Logger
}

// New opens the backend selected by configuration.
func New(ctx context.Context, cfg config.IndexConfig, opts Options) (Index, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemory(), nil
	case "sqlite":
		db, err := store.Open(cfg.SQLitePath, opts.Log)
		if err != nil {
			return nil, err
		}
		return NewSQLite(db, true), nil
	case "qdrant":
		return NewQdrant(QdrantOptions{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			HTTPClient: opts.HTTPClient,
		}), nil
	case "postgres":
		return NewPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
}

// Cosine returns the cosine similarity of two vectors, or 0 when either is
// zero or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// rank scores candidates against the query and keeps the best topK.
// Ties are broken by id so results are deterministic.
func rank(query []float32, candidates []Record, topK int) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, Match{ID: c.ID, Text: c.Text, Score: Cosine(query, c.Vector)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func checkDim(records []Record, dim int) error {
	for _, r := range records {
		if len(r.Vector) != dim {
			return fmt.Errorf("record %s has dimension %d, index expects %d", r.ID, len(r.Vector), dim)
		}
	}
	return nil
}
