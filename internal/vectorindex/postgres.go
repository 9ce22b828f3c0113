package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores each index in its own pgvector table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to Postgres and enables the pgvector extension.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("enabling pgvector: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) EnsureIndex(ctx context.Context, name string, dim int) error {
	table := tableName(name)
	_, err := p.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			namespace TEXT NOT NULL,
			id TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (namespace, id)
		)`, table, dim))
	if err != nil {
		return fmt.Errorf("creating index %q: %w", name, err)
	}
	return nil
}

func (p *Postgres) Upsert(ctx context.Context, name, namespace string, records []Record) error {
	if err := p.requireTable(ctx, name); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (namespace, id, content, embedding, updated_at)
		VALUES ($1, $2, $3, $4::vector, NOW())
		ON CONFLICT (namespace, id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at`, tableName(name))

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(query, namespace, r.ID, r.Text, vectorLiteral(r.Vector))
	}
	return p.pool.SendBatch(ctx, batch).Close()
}

func (p *Postgres) Search(ctx context.Context, name, namespace string, vector []float32, topK int) ([]Match, error) {
	if err := p.requireTable(ctx, name); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 5
	}
	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, content, 1 - (embedding <=> $2::vector) AS score
		FROM %s
		WHERE namespace = $1
		ORDER BY embedding <=> $2::vector, id
		LIMIT $3`, tableName(name)), namespace, vectorLiteral(vector), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Text, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNamespaceNotFound
	}
	return matches, nil
}

func (p *Postgres) DeleteNamespace(ctx context.Context, name, namespace string) error {
	err := p.requireTable(ctx, name)
	if errors.Is(err, ErrIndexNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1`, tableName(name)), namespace)
	return err
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) requireTable(ctx context.Context, name string) error {
	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, tableName(name)).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrIndexNotFound
	}
	return nil
}

func tableName(index string) string {
	return pgx.Identifier{"docent_" + index}.Sanitize()
}

// vectorLiteral renders a vector in pgvector's text form, e.g. [0.1,0.2].
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
