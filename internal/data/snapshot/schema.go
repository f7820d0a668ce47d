package snapshot

import (
	"database/sql"
	"fmt"
)

const SchemaVersion = 1

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS snapshots (
  id TEXT PRIMARY KEY,
  project_key TEXT NOT NULL DEFAULT 'default',
  schema_version INTEGER NOT NULL,
  created_at_utc TEXT NOT NULL,
  root TEXT NOT NULL DEFAULT '',
  node_count INTEGER NOT NULL,
  edge_count INTEGER NOT NULL,
  external_count INTEGER NOT NULL,
  dangling_count INTEGER NOT NULL,
  unresolvable_count INTEGER NOT NULL,
  cycle_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_project_created ON snapshots(project_key, created_at_utc);

CREATE TABLE IF NOT EXISTS nodes (
  snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
  path TEXT NOT NULL,
  stub INTEGER NOT NULL DEFAULT 0,
  exports TEXT NOT NULL DEFAULT '[]',
  PRIMARY KEY (snapshot_id, path)
);

CREATE TABLE IF NOT EXISTS edges (
  snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
  from_path TEXT NOT NULL,
  to_path TEXT NOT NULL,
  position INTEGER NOT NULL,
  PRIMARY KEY (snapshot_id, from_path, to_path)
);

CREATE TABLE IF NOT EXISTS provenance (
  snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
  from_path TEXT NOT NULL,
  to_path TEXT NOT NULL,
  kind TEXT NOT NULL,
  specifier TEXT NOT NULL,
  line INTEGER NOT NULL,
  col INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_provenance_edge ON provenance(snapshot_id, from_path, to_path);

CREATE TABLE IF NOT EXISTS refs (
  snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
  category TEXT NOT NULL,
  from_path TEXT NOT NULL,
  specifier TEXT NOT NULL DEFAULT '',
  package TEXT NOT NULL DEFAULT '',
  kind TEXT NOT NULL,
  line INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_refs_snapshot ON refs(snapshot_id, category);
`,
	},
}

func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_migrations version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}
