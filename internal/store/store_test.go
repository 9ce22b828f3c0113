package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/soyeahso/docent/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_SchemaVersion(t *testing.T) {
	db := testDB(t)
	v, err := db.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, migrations[len(migrations)-1].Version, v)
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.db")
	db, err := Open(path, logging.New(nil, "silent"))
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.FileExists(t, path)
}

func TestOpen_ReopenKeepsChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()

	db, err := Open(path, logging.New(nil, "silent"))
	require.NoError(t, err)
	cs := NewChunkStore(db)
	require.NoError(t, cs.EnsureIndex(ctx, "docs", 2))
	require.NoError(t, cs.Upsert(ctx, "docs", "alice", []Chunk{{ID: "chunk-0", Content: "a", Embedding: []float32{1, 0}}}))
	require.NoError(t, db.Close())

	db, err = Open(path, logging.New(nil, "silent"))
	require.NoError(t, err)
	defer db.Close()
	chunks, err := NewChunkStore(db).List(ctx, "docs", "alice")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, []float32{1, 0}, chunks[0].Embedding)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.migrate())

	var timeout int
	require.NoError(t, db.sql.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}

func TestSchema_TablesExist(t *testing.T) {
	db := testDB(t)

	for _, table := range []string{"vector_indexes", "chunks"} {
		var name string
		err := db.sql.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

// --- ChunkStore tests ---

func TestChunkStore_EnsureIndex(t *testing.T) {
	s := NewChunkStore(testDB(t))
	ctx := context.Background()

	ok, err := s.IndexExists(ctx, "doc-index")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.EnsureIndex(ctx, "doc-index", 3))
	require.NoError(t, s.EnsureIndex(ctx, "doc-index", 3))

	ok, err = s.IndexExists(ctx, "doc-index")
	require.NoError(t, err)
	assert.True(t, ok)

	err = s.EnsureIndex(ctx, "doc-index", 4)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestChunkStore_UpsertAndList(t *testing.T) {
	s := NewChunkStore(testDB(t))
	ctx := context.Background()
	require.NoError(t, s.EnsureIndex(ctx, "idx", 2))

	require.NoError(t, s.Upsert(ctx, "idx", "user-a", []Chunk{
		{ID: "chunk-1", Content: "second", Embedding: []float32{0, 1}},
		{ID: "chunk-0", Content: "first", Embedding: []float32{1, 0.5}},
	}))
	require.NoError(t, s.Upsert(ctx, "idx", "user-b", []Chunk{
		{ID: "chunk-0", Content: "other user", Embedding: []float32{1, 1}},
	}))

	chunks, err := s.List(ctx, "idx", "user-a")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "chunk-0", chunks[0].ID)
	assert.Equal(t, "first", chunks[0].Content)
	assert.Equal(t, []float32{1, 0.5}, chunks[0].Embedding)

	// Re-ingesting replaces by id.
	require.NoError(t, s.Upsert(ctx, "idx", "user-a", []Chunk{
		{ID: "chunk-0", Content: "first v2", Embedding: []float32{0.25, 0.75}},
	}))
	chunks, err = s.List(ctx, "idx", "user-a")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "first v2", chunks[0].Content)

	st, err := s.Stats(ctx, "idx")
	require.NoError(t, err)
	assert.Equal(t, Stats{Namespaces: 2, Chunks: 3}, st)
}

func TestChunkStore_ListUnknownNamespace(t *testing.T) {
	s := NewChunkStore(testDB(t))
	chunks, err := s.List(context.Background(), "idx", "nobody")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkStore_DeleteNamespace(t *testing.T) {
	s := NewChunkStore(testDB(t))
	ctx := context.Background()
	require.NoError(t, s.EnsureIndex(ctx, "idx", 1))
	require.NoError(t, s.Upsert(ctx, "idx", "u", []Chunk{{ID: "chunk-0", Content: "x", Embedding: []float32{1}}}))

	require.NoError(t, s.DeleteNamespace(ctx, "idx", "u"))
	chunks, err := s.List(ctx, "idx", "u")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestVectorEncoding(t *testing.T) {
	v := []float32{0, -1.5, 3.25, 1e-7}
	assert.Equal(t, v, decodeVector(encodeVector(v)))
}
