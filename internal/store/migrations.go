package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create vector indexes",
		SQL: `
			CREATE TABLE vector_indexes (
				name        TEXT PRIMARY KEY,
				dimension   INTEGER NOT NULL,
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
	{
		Version: 2,
		Name:    "create chunks",
		SQL: `
			CREATE TABLE chunks (
				index_name  TEXT NOT NULL REFERENCES vector_indexes(name) ON DELETE CASCADE,
				namespace   TEXT NOT NULL,
				id          TEXT NOT NULL,
				content     TEXT NOT NULL,
				embedding   BLOB NOT NULL,
				updated_at  TEXT NOT NULL DEFAULT (datetime('now')),
				PRIMARY KEY (index_name, namespace, id)
			);

			CREATE INDEX idx_chunks_namespace ON chunks (index_name, namespace);
		`,
	},
}
