package graph

import (
	"context"
	"log/slog"
	"sort"

	domainerrors "jsdeps/internal/core/errors"
	"jsdeps/internal/engine/extract"
	"jsdeps/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ResolutionKind uint8

const (
	ProjectFile ResolutionKind = iota
	ExternalPackage
	Unresolved
)

func (k ResolutionKind) String() string {
	switch k {
	case ProjectFile:
		return "project"
	case ExternalPackage:
		return "external"
	default:
		return "unresolved"
	}
}

// Resolution is the outcome of resolving one specifier. Path is set for
// ProjectFile, Package for ExternalPackage.
type Resolution struct {
	Kind    ResolutionKind
	Path    string
	Package string
}

// Resolver maps a specifier written in from to a Resolution.
type Resolver interface {
	Resolve(from, specifier string) Resolution
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(from, specifier string) Resolution

func (f ResolverFunc) Resolve(from, specifier string) Resolution {
	return f(from, specifier)
}

// FileResult is the extraction output for one project file.
type FileResult struct {
	Path   string
	Result extract.Result
}

type BuildOptions struct {
	IncludeTypeOnly bool
	IncludeDynamic  bool
}

func DefaultBuildOptions() BuildOptions {
	return BuildOptions{IncludeTypeOnly: true, IncludeDynamic: true}
}

// Builder is the single writer that turns extraction results into a graph.
type Builder struct {
	g        *DependencyGraph
	resolver Resolver
	opts     BuildOptions
}

func NewBuilder(r Resolver, opts BuildOptions) *Builder {
	return &Builder{g: New(), resolver: r, opts: opts}
}

// Add records one file and its statements. Nodes referenced before they are
// added exist as stubs until then.
func (b *Builder) Add(file FileResult) {
	b.g.SetExports(file.Path, file.Result.Exports)
	for _, st := range file.Result.Statements {
		b.addStatement(file.Path, st)
	}
}

func (b *Builder) addStatement(from string, st extract.DependencyStatement) {
	if !st.HasSpecifier() {
		if st.Dynamic() {
			b.g.AddUnresolvable(Reference{
				From: from,
				Kind: st.Kind.String(),
				Line: st.Range.Line,
				Code: domainerrors.CodeResolveUnresolved,
			})
			observability.ResolutionsTotal.WithLabelValues("unresolvable").Inc()
		}
		return
	}
	if st.IsTypeOnly && !b.opts.IncludeTypeOnly {
		return
	}
	if st.Kind == extract.DynamicImport && !b.opts.IncludeDynamic {
		return
	}

	spec := *st.Specifier
	res := b.resolver.Resolve(from, spec)
	observability.ResolutionsTotal.WithLabelValues(res.Kind.String()).Inc()

	switch res.Kind {
	case ProjectFile:
		b.g.AddEdge(from, res.Path, &Provenance{
			Kind:      st.Kind,
			Specifier: spec,
			Line:      st.Range.Line,
			Column:    st.Range.Column,
		})
	case ExternalPackage:
		b.g.AddExternal(Reference{
			From:      from,
			Specifier: spec,
			Package:   res.Package,
			Kind:      st.Kind.String(),
			Line:      st.Range.Line,
			Code:      domainerrors.CodeResolveExternal,
		})
	default:
		slog.Debug("unresolved specifier", "code", domainerrors.CodeResolveUnresolved, "path", from, "specifier", spec, "line", st.Range.Line)
		b.g.AddDangling(Reference{
			From:      from,
			Specifier: spec,
			Kind:      st.Kind.String(),
			Line:      st.Range.Line,
			Code:      domainerrors.CodeResolveUnresolved,
		})
	}
}

func (b *Builder) Graph() *DependencyGraph {
	b.g.publishMetrics()
	return b.g
}

// Build assembles a graph from files in canonical path order so that the
// result does not depend on the order extraction finished in.
func Build(ctx context.Context, files []FileResult, r Resolver, opts BuildOptions) *DependencyGraph {
	_, span := observability.Tracer.Start(ctx, "graph.Build",
		trace.WithAttributes(attribute.Int("files", len(files))))
	defer span.End()

	sorted := append([]FileResult(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	b := NewBuilder(r, opts)
	for _, f := range sorted {
		b.g.SetExports(f.Path, f.Result.Exports)
	}
	for _, f := range sorted {
		for _, st := range f.Result.Statements {
			b.addStatement(f.Path, st)
		}
	}
	g := b.Graph()
	span.SetAttributes(
		attribute.Int("nodes", g.NodeCount()),
		attribute.Int("edges", g.EdgeCount()),
	)
	return g
}
