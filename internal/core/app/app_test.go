package app

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"jsdeps/internal/core/config"
	domainerrors "jsdeps/internal/core/errors"
	"jsdeps/internal/engine/extract"
	"jsdeps/internal/engine/graph"
	"jsdeps/internal/shared/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func sampleProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/a.ts":                    "import { b } from './b'\nimport React from 'react'\nconst gone = require('./missing')\n",
		"src/b.ts":                    "export const b = 1\nexport async function load() { return import('./c') }\n",
		"src/c.js":                    "import './a.js'\nconst x = require(name)\n",
		"src/d.tsx":                   "export default function D() { return <div>{'./x'}</div> }\n",
		"node_modules/react/index.js": "module.exports = {}\n",
		"dist/bundle.js":              "require('./src/a')\n",
		"src/vendor.min.js":           "require('./a')\n",
		"README.md":                   "import x from './a'\n",
	})
	return root
}

func newTestApp(t *testing.T, root string, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Output.DOT = "out/graph.dot"
	if mutate != nil {
		mutate(cfg)
	}
	a, err := New(cfg, root)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestDiscoverHonoursExclusions(t *testing.T) {
	root := sampleProject(t)
	a := newTestApp(t, root, nil)

	files, err := a.discoverer.Discover(context.Background())
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	var got []string
	for _, f := range files {
		got = append(got, f.Path)
	}
	want := []string{"src/a.ts", "src/b.ts", "src/c.js", "src/d.tsx"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for _, f := range files {
		wantJSX := f.Path == "src/c.js" || f.Path == "src/d.tsx"
		if f.JSXEnabled != wantJSX {
			t.Fatalf("%s: expected jsx=%v", f.Path, wantJSX)
		}
	}
}

func TestDiscoverSkipsUnreadableEntries(t *testing.T) {
	root := sampleProject(t)
	d, err := NewDiscoverer(root, config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	denied := fs.ErrPermission

	sub := filepath.Join(root, "src")
	info, err := os.Stat(sub)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.walkError(sub, fs.FileInfoToDirEntry(info), denied); got != filepath.SkipDir {
		t.Fatalf("directory error = %v, want SkipDir", got)
	}

	file := filepath.Join(sub, "a.ts")
	info, err = os.Stat(file)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.walkError(file, fs.FileInfoToDirEntry(info), denied); got != nil {
		t.Fatalf("file error = %v, want nil", got)
	}

	if got := d.walkError(root, nil, denied); got != denied {
		t.Fatalf("root error = %v, want %v", got, denied)
	}
}

func TestDiscoverContinuesPastUnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced here")
	}
	root := sampleProject(t)
	locked := filepath.Join(root, "src", "locked")
	writeFiles(t, root, map[string]string{"src/locked/x.ts": "export const x = 1\n"})
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	a := newTestApp(t, root, nil)
	files, err := a.discoverer.Discover(context.Background())
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("expected the four readable sources, got %v", files)
	}
}

func TestBuildAssemblesGraph(t *testing.T) {
	root := sampleProject(t)
	a := newTestApp(t, root, nil)

	res, err := a.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	g := res.Graph

	if got := g.Neighbors("src/a.ts"); !reflect.DeepEqual(got, []string{"src/b.ts"}) {
		t.Fatalf("a.ts edges: %v", got)
	}
	if got := g.Neighbors("src/b.ts"); !reflect.DeepEqual(got, []string{"src/c.js"}) {
		t.Fatalf("b.ts edges: %v", got)
	}
	if got := g.Neighbors("src/c.js"); !reflect.DeepEqual(got, []string{"src/a.ts"}) {
		t.Fatalf("c.js edges: %v", got)
	}
	if got := g.ExternalPackages(); !reflect.DeepEqual(got, []string{"react"}) {
		t.Fatalf("externals: %v", got)
	}
	if d := g.Dangling(); len(d) != 1 || d[0].Specifier != "./missing" {
		t.Fatalf("dangling: %+v", d)
	}
	if u := g.Unresolvable(); len(u) != 1 || u[0].From != "src/c.js" {
		t.Fatalf("unresolvable: %+v", u)
	}
	if len(res.Cycles) != 1 || len(res.Cycles[0]) != 3 {
		t.Fatalf("expected one 3-file cycle, got %v", res.Cycles)
	}
	if len(res.Files) != 4 || res.RunID == "" {
		t.Fatalf("unexpected result: files=%d run=%q", len(res.Files), res.RunID)
	}
	if a.Current() != res {
		t.Fatal("current build not recorded")
	}

	summary := res.Summary()
	if summary.Nodes != 4 || summary.Edges != 3 || summary.Unresolvable != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestBuildOptionsFilterDynamicImports(t *testing.T) {
	root := sampleProject(t)
	off := false
	a := newTestApp(t, root, func(cfg *config.Config) { cfg.Graph.IncludeDynamic = &off })

	res, err := a.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := res.Graph.Neighbors("src/b.ts"); len(got) != 0 {
		t.Fatalf("dynamic import should be excluded, got %v", got)
	}
}

func TestExtractAllRegistersEveryStatementKind(t *testing.T) {
	a := newTestApp(t, sampleProject(t), nil)
	if _, err := a.ExtractAll(context.Background(), nil); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if n := testutil.CollectAndCount(observability.StatementsTotal); n < len(extract.Kinds()) {
		t.Fatalf("expected a series per statement kind, got %d", n)
	}
}

func TestExtractAllSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"small.js": "require('./big')\n",
		"big.js":   strings.Repeat("// padding\n", 100),
	})
	a := newTestApp(t, root, func(cfg *config.Config) { cfg.Scan.MaxFileBytes = 64 })

	res, err := a.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0].Path != "small.js" {
		t.Fatalf("expected only small.js extracted, got %+v", res.Files)
	}
	if node, ok := res.Graph.Node("big.js"); !ok || !node.Stub {
		t.Fatalf("skipped file should remain a stub node, got %+v %v", node, ok)
	}
}

func TestWriteOutputsAndQuery(t *testing.T) {
	root := sampleProject(t)
	a := newTestApp(t, root, func(cfg *config.Config) { cfg.DB.Enabled = true })
	ctx := context.Background()

	res, err := a.Rebuild(ctx)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(res.Outputs) != 3 || res.SnapshotID == "" {
		t.Fatalf("expected json, dot and snapshot outputs, got %v", res.Outputs)
	}
	for _, p := range []string{a.Paths.GraphJSON, a.Paths.DOT} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("missing output %s: %v", p, err)
		}
	}

	fromJSON, err := a.LoadGraph(ctx, "")
	if err != nil {
		t.Fatalf("load json graph: %v", err)
	}
	fromDB, err := a.LoadGraph(ctx, "latest")
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}

	for _, g := range []graph.Reader{fromJSON, fromDB} {
		path, ok := a.FindPath(ctx, g, "./src/a.ts", filepath.Join(root, "src", "c.js"))
		if !ok || graph.RenderPath(path) != "src/a.ts --> src/b.ts --> src/c.js" {
			t.Fatalf("unexpected path %v %v", path, ok)
		}
		if _, ok := a.FindPath(ctx, g, "src/d.tsx", "src/a.ts"); ok {
			t.Fatal("expected no path from d.tsx")
		}
	}

	key, direct, transitive := a.Importers(fromJSON, "src\\a.ts")
	if key != "src/a.ts" || !reflect.DeepEqual(direct, []string{"src/c.js"}) || !reflect.DeepEqual(transitive, []string{"src/b.ts"}) {
		t.Fatalf("unexpected importers %s %v %v", key, direct, transitive)
	}
}

func TestWriteOutputsPrunesOldSnapshots(t *testing.T) {
	root := sampleProject(t)
	a := newTestApp(t, root, func(cfg *config.Config) {
		cfg.DB.Enabled = true
		cfg.DB.Keep = 2
	})
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		res, err := a.Rebuild(ctx)
		if err != nil {
			t.Fatalf("rebuild %d: %v", i, err)
		}
		ids = append(ids, res.SnapshotID)
	}

	store, err := a.Store()
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := store.Resolve(ctx, a.Config.DB.ProjectKey, ids[0]); !domainerrors.IsCode(err, domainerrors.CodeNotFound) {
		t.Fatalf("expected oldest snapshot pruned, got %v", err)
	}
	for _, id := range ids[1:] {
		if _, err := store.Resolve(ctx, a.Config.DB.ProjectKey, id); err != nil {
			t.Fatalf("snapshot %s: %v", id, err)
		}
	}
}

func TestLoadGraphMissingFile(t *testing.T) {
	a := newTestApp(t, t.TempDir(), nil)

	_, err := a.LoadGraph(context.Background(), "")
	if !domainerrors.IsCode(err, domainerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCustomResolver(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.js": "import x from 'virtual:thing'\n"})

	var seen []string
	r := graph.ResolverFunc(func(from, spec string) graph.Resolution {
		seen = append(seen, from+" "+spec)
		return graph.Resolution{Kind: graph.ProjectFile, Path: "virtual.js"}
	})
	a, err := NewWithDependencies(config.DefaultConfig(), root, Dependencies{Resolver: r})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	res, err := a.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !reflect.DeepEqual(seen, []string{"a.js virtual:thing"}) {
		t.Fatalf("resolver calls: %v", seen)
	}
	if node, ok := res.Graph.Node("virtual.js"); !ok || !node.Stub {
		t.Fatalf("expected stub node for virtual.js, got %+v %v", node, ok)
	}
	if err := a.refreshResolver(); err != nil || a.resolver == nil {
		t.Fatalf("custom resolver must survive refresh: %v", err)
	}
}

func TestNewRejectsBadRoot(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Paths.ProjectRoot = "does-not-exist"
	if _, err := New(cfg, t.TempDir()); err == nil {
		t.Fatal("expected error for missing root")
	}
	if _, err := New(nil, t.TempDir()); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestHealth(t *testing.T) {
	root := sampleProject(t)
	a := newTestApp(t, root, nil)
	ctx := context.Background()

	if h := a.Health(ctx); h.Status != "starting" {
		t.Fatalf("expected starting before first build, got %q", h.Status)
	}
	if _, err := a.Build(ctx); err != nil {
		t.Fatalf("build: %v", err)
	}
	h := a.Health(ctx)
	if h.Status != "up" || !strings.Contains(h.Details["graph"], "4 nodes") {
		t.Fatalf("unexpected health: %+v", h)
	}
}

func TestWatchRebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.js": "import './b'\n", "b.js": "export const b = 1\n"})
	a := newTestApp(t, root, func(cfg *config.Config) {
		cfg.Watch.Debounce = 50 * time.Millisecond
		cfg.Watch.MaxRebuildsPerSecond = 50
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builds := make(chan *BuildResult, 8)
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, func(res *BuildResult, err error) {
			if err == nil {
				builds <- res
			}
		})
	}()

	select {
	case res := <-builds:
		if res.Graph.NodeCount() != 2 {
			t.Fatalf("initial build: expected 2 nodes, got %d", res.Graph.NodeCount())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for initial build")
	}

	// let the watcher register the root before changing it
	time.Sleep(100 * time.Millisecond)
	writeFiles(t, root, map[string]string{"c.js": "import './a'\n"})

	deadline := time.After(5 * time.Second)
	for {
		select {
		case res := <-builds:
			if res.Graph.Has("c.js") {
				cancel()
				if err := <-done; err != nil {
					t.Fatalf("watch returned error: %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for rebuild with c.js")
		}
	}
}
