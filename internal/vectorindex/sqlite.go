package vectorindex

import (
	"context"

	"github.com/soyeahso/docent/internal/store"
)

// SQLite persists chunks in the local database and scores them in process.
type SQLite struct {
	db     *store.DB
	chunks *store.ChunkStore
	owned  bool
}

// NewSQLite wraps an open database. When owned is true Close also closes db.
func NewSQLite(db *store.DB, owned bool) *SQLite {
	return &SQLite{db: db, chunks: store.NewChunkStore(db), owned: owned}
}

func (s *SQLite) EnsureIndex(ctx context.Context, name string, dim int) error {
	return s.chunks.EnsureIndex(ctx, name, dim)
}

func (s *SQLite) Upsert(ctx context.Context, name, namespace string, records []Record) error {
	ok, err := s.chunks.IndexExists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrIndexNotFound
	}
	chunks := make([]store.Chunk, len(records))
	for i, r := range records {
		chunks[i] = store.Chunk{ID: r.ID, Content: r.Text, Embedding: r.Vector}
	}
	return s.chunks.Upsert(ctx, name, namespace, chunks)
}

func (s *SQLite) Search(ctx context.Context, name, namespace string, vector []float32, topK int) ([]Match, error) {
	ok, err := s.chunks.IndexExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrIndexNotFound
	}
	chunks, err := s.chunks.List(ctx, name, namespace)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrNamespaceNotFound
	}
	candidates := make([]Record, len(chunks))
	for i, c := range chunks {
		candidates[i] = Record{ID: c.ID, Text: c.Content, Vector: c.Embedding}
	}
	return rank(vector, candidates, topK), nil
}

func (s *SQLite) DeleteNamespace(ctx context.Context, name, namespace string) error {
	return s.chunks.DeleteNamespace(ctx, name, namespace)
}

// Stats reports namespace and chunk counts for an index.
func (s *SQLite) Stats(ctx context.Context, name string) (store.Stats, error) {
	return s.chunks.Stats(ctx, name)
}

func (s *SQLite) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
