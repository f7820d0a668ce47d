// Package ports declares the interfaces the application core uses to reach
// its collaborators.
package ports

import (
	"context"

	"jsdeps/internal/data/snapshot"
	"jsdeps/internal/engine/crosscheck"
	"jsdeps/internal/engine/extract"
	"jsdeps/internal/engine/graph"
)

// SourceFile is one discovered project file.
type SourceFile struct {
	// Path is the canonical, project-relative, slash-separated key.
	Path string
	// AbsPath is where the file lives on disk.
	AbsPath    string
	JSXEnabled bool
}

// FileDiscoverer enumerates the project files to analyse.
type FileDiscoverer interface {
	Discover(ctx context.Context) ([]SourceFile, error)
}

// SpecifierResolver is the resolver collaborator used by the graph builder.
type SpecifierResolver = graph.Resolver

// StatementOracle cross-checks extracted statements against another parser.
type StatementOracle interface {
	Compare(file string, src []byte, stmts []extract.DependencyStatement) ([]crosscheck.Mismatch, error)
}

// SnapshotStore persists built graphs.
type SnapshotStore interface {
	Save(ctx context.Context, projectKey, root string, g *graph.DependencyGraph) (snapshot.Info, error)
	Resolve(ctx context.Context, projectKey, ref string) (snapshot.Info, error)
	Load(ctx context.Context, id string) (*graph.Snapshot, error)
	Prune(ctx context.Context, projectKey string, keep int) (int, error)
	Close() error
}
