// # internal/engine/graph/graph_test.go
package graph

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	domainerrors "jsdeps/internal/core/errors"
	"jsdeps/internal/engine/extract"
)

func adjacency(pairs map[string][]string) *DependencyGraph {
	g := New()
	for _, from := range sortedKeys(pairs) {
		g.SetExports(from, nil)
		for _, to := range pairs[from] {
			g.AddEdge(from, to, nil)
		}
	}
	return g
}

func sortedKeys(m map[string][]string) []string {
	return NewSnapshot(m).Paths()
}

func TestAddEdgeIdempotent(t *testing.T) {
	g := New()
	if !g.AddEdge("a.ts", "b.ts", &Provenance{Kind: extract.StaticImport, Specifier: "./b", Line: 1}) {
		t.Fatal("expected first insert to add an edge")
	}
	if g.AddEdge("a.ts", "b.ts", &Provenance{Kind: extract.RequireCall, Specifier: "./b.ts", Line: 7}) {
		t.Fatal("expected second insert to be a no-op on the edge set")
	}

	if got := g.Neighbors("a.ts"); !reflect.DeepEqual(got, []string{"b.ts"}) {
		t.Fatalf("neighbors = %v", got)
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("edge count = %d", g.EdgeCount())
	}
	prov := g.Provenance("a.ts", "b.ts")
	if len(prov) != 2 || prov[1].Line != 7 || prov[1].Kind != extract.RequireCall {
		t.Fatalf("provenance = %+v", prov)
	}
}

func TestForwardReferenceCreatesStub(t *testing.T) {
	g := New()
	g.AddEdge("a.ts", "later.ts", nil)

	n, ok := g.Node("later.ts")
	if !ok || !n.Stub || len(n.Exports) != 0 {
		t.Fatalf("expected stub node, got %+v ok=%v", n, ok)
	}

	g.SetExports("later.ts", []string{"x"})
	n, _ = g.Node("later.ts")
	if n.Stub || !reflect.DeepEqual(n.Exports, []string{"x"}) {
		t.Fatalf("expected scanned node, got %+v", n)
	}
	if g.NodeCount() != 2 {
		t.Fatalf("node count = %d", g.NodeCount())
	}
}

func TestEdgeOrderPreserved(t *testing.T) {
	g := New()
	for _, to := range []string{"z.ts", "a.ts", "m.ts", "a.ts"} {
		g.AddEdge("root.ts", to, nil)
	}
	want := []string{"z.ts", "a.ts", "m.ts"}
	if got := g.Neighbors("root.ts"); !reflect.DeepEqual(got, want) {
		t.Fatalf("neighbors = %v, want %v", got, want)
	}
	n, _ := g.Node("root.ts")
	if !reflect.DeepEqual(n.Edges(), want) {
		t.Fatalf("node edges = %v", n.Edges())
	}
}

func TestFindPath(t *testing.T) {
	g := adjacency(map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"D"},
		"D": {},
	})

	path, ok := FindPath(g, "A", "D")
	if !ok || !reflect.DeepEqual(path, []string{"A", "B", "D"}) {
		t.Fatalf("path = %v ok=%v", path, ok)
	}
	if RenderPath(path) != "A --> B --> D" {
		t.Fatalf("render = %q", RenderPath(path))
	}

	if _, ok := FindPath(g, "D", "A"); ok {
		t.Fatal("expected no path against edge direction")
	}
	if _, ok := FindPath(g, "A", "Z"); ok {
		t.Fatal("expected no path to an absent destination")
	}
}

func TestFindPathAbsentOriginIsTrivial(t *testing.T) {
	g := New()
	g.AddEdge("b", "c", nil)

	r := &countingReader{Reader: g}
	path, ok := FindPath(r, "a", "c")
	if !ok || !reflect.DeepEqual(path, []string{"a"}) {
		t.Fatalf("path = %v ok=%v", path, ok)
	}
	if r.calls != 0 {
		t.Fatalf("expected zero expansion, got %d neighbor lookups", r.calls)
	}
}

func TestFindPathTieBreakFollowsEdgeOrder(t *testing.T) {
	g := adjacency(map[string][]string{
		"A": {"C", "B"},
		"B": {"D"},
		"C": {"D"},
	})
	path, _ := FindPath(g, "A", "D")
	if !reflect.DeepEqual(path, []string{"A", "C", "D"}) {
		t.Fatalf("path = %v", path)
	}
}

func TestFindPathPrefersFewerHops(t *testing.T) {
	g := adjacency(map[string][]string{
		"A": {"B", "E"},
		"B": {"C"},
		"C": {"D"},
		"E": {"D"},
	})
	path, _ := FindPath(g, "A", "D")
	if !reflect.DeepEqual(path, []string{"A", "E", "D"}) {
		t.Fatalf("path = %v", path)
	}
}

func TestFindPathTerminatesOnCycles(t *testing.T) {
	g := adjacency(map[string][]string{
		"A": {"B"},
		"B": {"A", "C"},
		"C": {"B"},
	})
	if _, ok := FindPath(g, "A", "X"); ok {
		t.Fatal("expected not found")
	}
	path, ok := FindPath(g, "C", "A")
	if !ok || !reflect.DeepEqual(path, []string{"C", "B", "A"}) {
		t.Fatalf("path = %v", path)
	}
}

type countingReader struct {
	Reader
	calls int
}

func (c *countingReader) Neighbors(path string) []string {
	c.calls++
	return c.Reader.Neighbors(path)
}

func TestFindPathSameNodeSkipsExpansion(t *testing.T) {
	r := &countingReader{Reader: adjacency(map[string][]string{"A": {"B"}})}
	path, ok := FindPath(r, "A", "A")
	if !ok || !reflect.DeepEqual(path, []string{"A"}) {
		t.Fatalf("path = %v", path)
	}
	if r.calls != 0 {
		t.Fatalf("expected zero expansion, got %d neighbor lookups", r.calls)
	}

	if path, ok := FindPath(r, "missing", "missing"); !ok || path[0] != "missing" {
		t.Fatalf("path = %v", path)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	g := adjacency(map[string][]string{
		"src/a.ts": {"src/c.ts", "src/b.ts"},
		"src/b.ts": {"src/c.ts"},
	})

	var buf bytes.Buffer
	if err := WriteJSON(&buf, g); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), `"src/c.ts": []`) {
		t.Fatalf("expected leaf node with empty list, got %s", buf.String())
	}

	snap, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(snap.Adjacency(), g.Adjacency()) {
		t.Fatalf("round trip mismatch: %v vs %v", snap.Adjacency(), g.Adjacency())
	}
	if got := snap.Neighbors("src/a.ts"); !reflect.DeepEqual(got, []string{"src/c.ts", "src/b.ts"}) {
		t.Fatalf("edge order lost: %v", got)
	}
}

func TestReadJSONRejectsMalformed(t *testing.T) {
	for _, in := range []string{`[]`, `null`, `{"a": "b"}`, `{`} {
		if _, err := ReadJSON(strings.NewReader(in)); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestNewSnapshotNormalises(t *testing.T) {
	s := NewSnapshot(map[string][]string{"a": {"b", "b", "c"}})
	if !s.Has("c") || !reflect.DeepEqual(s.Neighbors("a"), []string{"b", "c"}) {
		t.Fatalf("snapshot = %v", s.Adjacency())
	}
	if s.NodeCount() != 3 || s.EdgeCount() != 2 {
		t.Fatalf("counts = %d/%d", s.NodeCount(), s.EdgeCount())
	}
}

func TestFreeze(t *testing.T) {
	g := New()
	g.SetExports("a.ts", []string{"default", "x"})
	g.AddEdge("a.ts", "b.ts", nil)
	s := g.Freeze()
	g.AddEdge("a.ts", "c.ts", nil)

	if len(s.Neighbors("a.ts")) != 1 {
		t.Fatalf("snapshot changed after freeze: %v", s.Neighbors("a.ts"))
	}
	if !reflect.DeepEqual(s.Exports("a.ts"), []string{"default", "x"}) {
		t.Fatalf("exports = %v", s.Exports("a.ts"))
	}
}

func TestReverseEdgesAndImporters(t *testing.T) {
	g := adjacency(map[string][]string{
		"app.ts":  {"ui.ts", "util.ts"},
		"ui.ts":   {"util.ts"},
		"main.ts": {"app.ts"},
	})

	rev := ReverseEdges(g)
	if !reflect.DeepEqual(rev["util.ts"], []string{"app.ts", "ui.ts"}) {
		t.Fatalf("reverse = %v", rev)
	}

	direct, transitive := Importers(g, "util.ts")
	if !reflect.DeepEqual(direct, []string{"app.ts", "ui.ts"}) {
		t.Fatalf("direct = %v", direct)
	}
	if !reflect.DeepEqual(transitive, []string{"main.ts"}) {
		t.Fatalf("transitive = %v", transitive)
	}
}

func TestTraverse(t *testing.T) {
	g := adjacency(map[string][]string{
		"a": {"b", "c"},
		"b": {"d"},
		"c": {"d", "a"},
	})
	var order []string
	Traverse(g, "a", func(p string) bool {
		order = append(order, p)
		return true
	})
	if !reflect.DeepEqual(order, []string{"a", "b", "d", "c"}) {
		t.Fatalf("order = %v", order)
	}

	var stopped []string
	Traverse(g, "a", func(p string) bool {
		stopped = append(stopped, p)
		return len(stopped) < 2
	})
	if len(stopped) != 2 {
		t.Fatalf("expected walk to stop, visited %v", stopped)
	}

	Traverse(g, "missing", func(string) bool {
		t.Fatal("visit called for absent start")
		return false
	})
}

func TestDetectCycles(t *testing.T) {
	g := adjacency(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a", "d"},
		"d": {},
		"e": {"e"},
		"f": {"g"},
		"g": {"f"},
	})
	cycles := DetectCycles(g)
	want := [][]string{{"a", "b", "c"}, {"e"}, {"f", "g"}}
	if !reflect.DeepEqual(cycles, want) {
		t.Fatalf("cycles = %v, want %v", cycles, want)
	}

	edges := CycleEdges(g, cycles)
	if !edges[[2]string{"c", "a"}] || edges[[2]string{"c", "d"}] {
		t.Fatalf("cycle edges = %v", edges)
	}
}

func TestComputeMetrics(t *testing.T) {
	g := adjacency(map[string][]string{
		"a":    {"core"},
		"b":    {"core"},
		"c":    {"core", "b"},
		"core": {},
	})
	metrics := ComputeMetrics(g)
	if metrics[0].Path != "core" || metrics[0].FanIn != 3 || metrics[0].FanOut != 0 {
		t.Fatalf("top metric = %+v", metrics[0])
	}
	if len(Top(metrics, 2)) != 2 || len(Top(metrics, 0)) != len(metrics) {
		t.Fatal("unexpected Top slicing")
	}
}

func lit(s string) *string { return &s }

func TestBuild(t *testing.T) {
	resolver := ResolverFunc(func(from, spec string) Resolution {
		switch {
		case strings.HasPrefix(spec, "./"):
			return Resolution{Kind: ProjectFile, Path: "src/" + strings.TrimPrefix(spec, "./") + ".ts"}
		case spec == "react":
			return Resolution{Kind: ExternalPackage, Package: "react"}
		default:
			return Resolution{Kind: Unresolved}
		}
	})

	files := []FileResult{
		{Path: "src/b.ts", Result: extract.Result{Exports: []string{"b"}}},
		{Path: "src/a.ts", Result: extract.Result{
			Exports: []string{"default"},
			Statements: []extract.DependencyStatement{
				{Kind: extract.StaticImport, Specifier: lit("./b"), Range: extract.Range{Line: 1}},
				{Kind: extract.StaticImport, Specifier: lit("react"), Range: extract.Range{Line: 2}},
				{Kind: extract.RequireCall, Specifier: lit("./b"), Range: extract.Range{Line: 3}},
				{Kind: extract.RequireCall, Range: extract.Range{Line: 4}},
				{Kind: extract.DynamicImport, Specifier: lit("./lazy"), Range: extract.Range{Line: 5}},
				{Kind: extract.StaticImport, Specifier: lit("./types"), IsTypeOnly: true, Range: extract.Range{Line: 6}},
				{Kind: extract.StaticImport, Specifier: lit("missing-thing"), Range: extract.Range{Line: 7}},
				{Kind: extract.StaticExport, Range: extract.Range{Line: 8}},
			},
		}},
	}

	g := Build(context.Background(), files, resolver, DefaultBuildOptions())
	if got := g.Neighbors("src/a.ts"); !reflect.DeepEqual(got, []string{"src/b.ts", "src/lazy.ts", "src/types.ts"}) {
		t.Fatalf("edges = %v", got)
	}
	if len(g.Provenance("src/a.ts", "src/b.ts")) != 2 {
		t.Fatalf("provenance = %v", g.Provenance("src/a.ts", "src/b.ts"))
	}
	if n, _ := g.Node("src/lazy.ts"); !n.Stub {
		t.Fatal("expected unscanned destination to be a stub")
	}
	if ext := g.Externals(); len(ext) != 1 || ext[0].Package != "react" || ext[0].From != "src/a.ts" || ext[0].Code != domainerrors.CodeResolveExternal {
		t.Fatalf("externals = %+v", ext)
	}
	if d := g.Dangling(); len(d) != 1 || d[0].Specifier != "missing-thing" || d[0].Code != domainerrors.CodeResolveUnresolved {
		t.Fatalf("dangling = %+v", d)
	}
	if u := g.Unresolvable(); len(u) != 1 || u[0].Line != 4 || u[0].Code != domainerrors.CodeResolveUnresolved {
		t.Fatalf("unresolvable = %+v", u)
	}
	if !reflect.DeepEqual(g.ExternalPackages(), []string{"react"}) {
		t.Fatalf("packages = %v", g.ExternalPackages())
	}

	filtered := Build(context.Background(), files, resolver, BuildOptions{})
	if got := filtered.Neighbors("src/a.ts"); !reflect.DeepEqual(got, []string{"src/b.ts"}) {
		t.Fatalf("filtered edges = %v", got)
	}
}

func TestBuildIsOrderIndependent(t *testing.T) {
	resolver := ResolverFunc(func(from, spec string) Resolution {
		return Resolution{Kind: ProjectFile, Path: spec}
	})
	a := FileResult{Path: "a", Result: extract.Result{Statements: []extract.DependencyStatement{
		{Kind: extract.StaticImport, Specifier: lit("c")},
	}}}
	b := FileResult{Path: "b", Result: extract.Result{Statements: []extract.DependencyStatement{
		{Kind: extract.StaticImport, Specifier: lit("a")},
	}}}

	g1 := Build(context.Background(), []FileResult{a, b}, resolver, DefaultBuildOptions())
	g2 := Build(context.Background(), []FileResult{b, a}, resolver, DefaultBuildOptions())
	if !reflect.DeepEqual(g1.Adjacency(), g2.Adjacency()) {
		t.Fatalf("graphs differ: %v vs %v", g1.Adjacency(), g2.Adjacency())
	}
}
