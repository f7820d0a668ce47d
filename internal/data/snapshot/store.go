// Package snapshot persists built dependency graphs in SQLite so that later
// queries can run against a chosen build.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	domainerrors "jsdeps/internal/core/errors"
	"jsdeps/internal/engine/graph"
	"jsdeps/internal/shared/observability"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
	// fixed width so created_at_utc sorts lexically
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

const (
	categoryExternal     = "external"
	categoryDangling     = "dangling"
	categoryUnresolvable = "unresolvable"
)

// Info describes one stored snapshot.
type Info struct {
	ID           string
	ProjectKey   string
	CreatedAt    time.Time
	Root         string
	Nodes        int
	Edges        int
	Externals    int
	Dangling     int
	Unresolvable int
	Cycles       int
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
	now  func() time.Time
}

func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("snapshot db path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("snapshot db path %q is a directory, expected file", cleanPath)
	}
	if dir := filepath.Dir(cleanPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot directory %q: %w", dir, err)
		}
	}
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite snapshot db %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite snapshot db %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}
	return &Store{path: cleanPath, db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func normalizeKey(projectKey string) string {
	if k := strings.TrimSpace(projectKey); k != "" {
		return k
	}
	return "default"
}

// Save stores g under a new snapshot id.
func (s *Store) Save(ctx context.Context, projectKey, root string, g *graph.DependencyGraph) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{
		ID:           uuid.NewString(),
		ProjectKey:   normalizeKey(projectKey),
		CreatedAt:    s.now().UTC(),
		Root:         root,
		Nodes:        g.NodeCount(),
		Edges:        g.EdgeCount(),
		Externals:    len(g.Externals()),
		Dangling:     len(g.Dangling()),
		Unresolvable: len(g.Unresolvable()),
		Cycles:       len(graph.DetectCycles(g)),
	}

	err := s.withRetry("save snapshot", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := insertSnapshot(ctx, tx, info, g); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return Info{}, err
	}
	observability.SnapshotWritesTotal.Inc()
	return info, nil
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, info Info, g *graph.DependencyGraph) error {
	if _, err := tx.ExecContext(ctx, `
INSERT INTO snapshots (
  id, project_key, schema_version, created_at_utc, root, node_count, edge_count,
  external_count, dangling_count, unresolvable_count, cycle_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		info.ID, info.ProjectKey, SchemaVersion, info.CreatedAt.Format(timeLayout), info.Root,
		info.Nodes, info.Edges, info.Externals, info.Dangling, info.Unresolvable, info.Cycles,
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes (snapshot_id, path, stub, exports) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer nodeStmt.Close()
	edgeStmt, err := tx.PrepareContext(ctx, `INSERT INTO edges (snapshot_id, from_path, to_path, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()
	provStmt, err := tx.PrepareContext(ctx, `
INSERT INTO provenance (snapshot_id, from_path, to_path, kind, specifier, line, col) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer provStmt.Close()

	for _, p := range g.Paths() {
		node, _ := g.Node(p)
		exports, err := json.Marshal(append([]string{}, node.Exports...))
		if err != nil {
			return err
		}
		if _, err := nodeStmt.ExecContext(ctx, info.ID, p, node.Stub, string(exports)); err != nil {
			return fmt.Errorf("insert node %s: %w", p, err)
		}
		for i, to := range node.Edges() {
			if _, err := edgeStmt.ExecContext(ctx, info.ID, p, to, i); err != nil {
				return fmt.Errorf("insert edge %s -> %s: %w", p, to, err)
			}
			for _, prov := range g.Provenance(p, to) {
				if _, err := provStmt.ExecContext(ctx, info.ID, p, to, prov.Kind.String(), prov.Specifier, prov.Line, prov.Column); err != nil {
					return fmt.Errorf("insert provenance %s -> %s: %w", p, to, err)
				}
			}
		}
	}

	refStmt, err := tx.PrepareContext(ctx, `
INSERT INTO refs (snapshot_id, category, from_path, specifier, package, kind, line) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer refStmt.Close()
	for category, refs := range map[string][]graph.Reference{
		categoryExternal:     g.Externals(),
		categoryDangling:     g.Dangling(),
		categoryUnresolvable: g.Unresolvable(),
	} {
		for _, ref := range refs {
			if _, err := refStmt.ExecContext(ctx, info.ID, category, ref.From, ref.Specifier, ref.Package, ref.Kind, ref.Line); err != nil {
				return fmt.Errorf("insert %s reference: %w", category, err)
			}
		}
	}
	return nil
}

// List returns the newest snapshots for projectKey first. limit <= 0 means
// no limit.
func (s *Store) List(ctx context.Context, projectKey string, limit int) ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT id, project_key, created_at_utc, root, node_count, edge_count,
  external_count, dangling_count, unresolvable_count, cycle_count
FROM snapshots WHERE project_key = ? ORDER BY created_at_utc DESC, id ASC`
	args := []any{normalizeKey(projectKey)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("list snapshots", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Info, 0)
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner) (Info, error) {
	var (
		info  Info
		tsRaw string
	)
	if err := row.Scan(&info.ID, &info.ProjectKey, &tsRaw, &info.Root, &info.Nodes, &info.Edges,
		&info.Externals, &info.Dangling, &info.Unresolvable, &info.Cycles); err != nil {
		return Info{}, err
	}
	ts, err := time.Parse(timeLayout, tsRaw)
	if err != nil {
		return Info{}, fmt.Errorf("parse snapshot timestamp %q: %w", tsRaw, err)
	}
	info.CreatedAt = ts.UTC()
	return info, nil
}

// Resolve maps "latest" or an id to stored snapshot metadata.
func (s *Store) Resolve(ctx context.Context, projectKey, ref string) (Info, error) {
	if ref == "" || ref == "latest" {
		infos, err := s.List(ctx, projectKey, 1)
		if err != nil {
			return Info{}, err
		}
		if len(infos) == 0 {
			err := domainerrors.New(domainerrors.CodeNotFound, "no snapshots stored")
			return Info{}, domainerrors.AddContext(err, "project_key", normalizeKey(projectKey))
		}
		return infos[0], nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRowContext(ctx, `
SELECT id, project_key, created_at_utc, root, node_count, edge_count,
  external_count, dangling_count, unresolvable_count, cycle_count
FROM snapshots WHERE id = ?`, ref)
	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Info{}, domainerrors.Newf(domainerrors.CodeNotFound, "snapshot %s not found", ref)
	}
	if err != nil {
		return Info{}, fmt.Errorf("load snapshot %s: %w", ref, err)
	}
	return info, nil
}

// Load rebuilds the immutable graph for id with its original edge order.
func (s *Store) Load(ctx context.Context, id string) (*graph.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	adj := make(map[string][]string)
	exports := make(map[string][]string)

	nodeRows, err := s.db.QueryContext(ctx, `SELECT path, exports FROM nodes WHERE snapshot_id = ? ORDER BY path`, id)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	defer nodeRows.Close()
	for nodeRows.Next() {
		var p, raw string
		if err := nodeRows.Scan(&p, &raw); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		adj[p] = []string{}
		var names []string
		if err := json.Unmarshal([]byte(raw), &names); err != nil {
			return nil, fmt.Errorf("decode exports for %s: %w", p, err)
		}
		if len(names) > 0 {
			exports[p] = names
		}
	}
	if err := nodeRows.Err(); err != nil {
		return nil, err
	}
	if len(adj) == 0 {
		return nil, domainerrors.Newf(domainerrors.CodeNotFound, "snapshot %s has no nodes", id)
	}

	edgeRows, err := s.db.QueryContext(ctx, `
SELECT from_path, to_path FROM edges WHERE snapshot_id = ? ORDER BY from_path, position`, id)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var from, to string
		if err := edgeRows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		adj[from] = append(adj[from], to)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	return graph.NewSnapshot(adj).WithExports(exports), nil
}

// Provenance returns the statements recorded for one stored edge.
func (s *Store) Provenance(ctx context.Context, id, from, to string) ([]graph.Provenance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
SELECT kind, specifier, line, col FROM provenance
WHERE snapshot_id = ? AND from_path = ? AND to_path = ? ORDER BY rowid`, id, from, to)
	if err != nil {
		return nil, fmt.Errorf("load provenance: %w", err)
	}
	defer rows.Close()

	var out []graph.Provenance
	for rows.Next() {
		var (
			p    graph.Provenance
			kind string
		)
		if err := rows.Scan(&kind, &p.Specifier, &p.Line, &p.Column); err != nil {
			return nil, fmt.Errorf("scan provenance: %w", err)
		}
		if err := p.Kind.UnmarshalText([]byte(kind)); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Externals returns the external references stored with snapshot id.
func (s *Store) Externals(ctx context.Context, id string) ([]graph.Reference, error) {
	return s.refs(ctx, id, categoryExternal)
}

func (s *Store) Dangling(ctx context.Context, id string) ([]graph.Reference, error) {
	return s.refs(ctx, id, categoryDangling)
}

var categoryCodes = map[string]domainerrors.ErrorCode{
	categoryExternal:     domainerrors.CodeResolveExternal,
	categoryDangling:     domainerrors.CodeResolveUnresolved,
	categoryUnresolvable: domainerrors.CodeResolveUnresolved,
}

func (s *Store) refs(ctx context.Context, id, category string) ([]graph.Reference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
SELECT from_path, specifier, package, kind, line FROM refs
WHERE snapshot_id = ? AND category = ? ORDER BY from_path, line, rowid`, id, category)
	if err != nil {
		return nil, fmt.Errorf("load %s references: %w", category, err)
	}
	defer rows.Close()

	var out []graph.Reference
	for rows.Next() {
		var ref graph.Reference
		if err := rows.Scan(&ref.From, &ref.Specifier, &ref.Package, &ref.Kind, &ref.Line); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		ref.Code = categoryCodes[category]
		out = append(out, ref)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep snapshots of projectKey.
func (s *Store) Prune(ctx context.Context, projectKey string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	err := s.withRetry("prune snapshots", func() error {
		res, err := s.db.ExecContext(ctx, `
DELETE FROM snapshots WHERE project_key = ? AND id NOT IN (
  SELECT id FROM snapshots WHERE project_key = ? ORDER BY created_at_utc DESC, id ASC LIMIT ?
)`, normalizeKey(projectKey), normalizeKey(projectKey), keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return int(removed), err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
