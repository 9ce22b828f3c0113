package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrDimensionMismatch is returned when an index is reopened with a
// different vector dimension than it was created with.
var ErrDimensionMismatch = errors.New("store: index dimension mismatch")

// Chunk is a stored piece of a document and its embedding.
type Chunk struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChunkStore persists document chunks grouped by index and namespace.
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a chunk store using the given database.
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// EnsureIndex creates the named index if it does not exist yet.
func (s *ChunkStore) EnsureIndex(ctx context.Context, name string, dim int) error {
	var existing int
	err := s.db.sql.QueryRowContext(ctx, `SELECT dimension FROM vector_indexes WHERE name = ?`, name).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.sql.ExecContext(ctx, `INSERT INTO vector_indexes (name, dimension) VALUES (?, ?)`, name, dim)
		if err != nil {
			return fmt.Errorf("creating index %q: %w", name, err)
		}
		s.db.log.Info().Str("index", name).Int("dimension", dim).Msg("created vector index")
		return nil
	case err != nil:
		return fmt.Errorf("looking up index %q: %w", name, err)
	case existing != dim:
		return fmt.Errorf("%w: %q has %d, got %d", ErrDimensionMismatch, name, existing, dim)
	}
	return nil
}

// IndexExists reports whether the named index has been created.
func (s *ChunkStore) IndexExists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM vector_indexes WHERE name = ?`, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Upsert inserts or replaces chunks in one transaction.
func (s *ChunkStore) Upsert(ctx context.Context, index, namespace string, chunks []Chunk) error {
	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.DateTime)
	for _, c := range chunks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (index_name, namespace, id, content, embedding, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(index_name, namespace, id) DO UPDATE SET
			   content = excluded.content,
			   embedding = excluded.embedding,
			   updated_at = excluded.updated_at`,
			index, namespace, c.ID, c.Content, encodeVector(c.Embedding), now,
		); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// List returns every chunk of a namespace, ordered by id.
func (s *ChunkStore) List(ctx context.Context, index, namespace string) ([]Chunk, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id, content, embedding, updated_at FROM chunks
		 WHERE index_name = ? AND namespace = ?
		 ORDER BY id`,
		index, namespace,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var blob []byte
		var updatedAt string
		if err := rows.Scan(&c.ID, &c.Content, &blob, &updatedAt); err != nil {
			return nil, err
		}
		c.Embedding = decodeVector(blob)
		c.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// DeleteNamespace removes every chunk of a namespace.
func (s *ChunkStore) DeleteNamespace(ctx context.Context, index, namespace string) error {
	_, err := s.db.sql.ExecContext(ctx, `DELETE FROM chunks WHERE index_name = ? AND namespace = ?`, index, namespace)
	return err
}

// Stats summarizes an index.
type Stats struct {
	Namespaces int `json:"namespaces"`
	Chunks     int `json:"chunks"`
}

// Stats counts namespaces and chunks of an index.
func (s *ChunkStore) Stats(ctx context.Context, index string) (Stats, error) {
	var st Stats
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT namespace), COUNT(*) FROM chunks WHERE index_name = ?`, index,
	).Scan(&st.Namespaces, &st.Chunks)
	return st, err
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
