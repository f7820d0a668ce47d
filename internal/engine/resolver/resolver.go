// Package resolver maps module specifiers to project files, external
// packages or nothing, without reading file contents beyond package.json.
package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"jsdeps/internal/engine/graph"
	"jsdeps/internal/shared/observability"

	lru "github.com/hashicorp/golang-lru/v2"
)

type Options struct {
	// Extensions are probed in order after the exact path.
	Extensions []string
	// IndexFiles are probed in order inside directories.
	IndexFiles []string
	// Aliases map a specifier prefix to a project-relative replacement.
	Aliases    map[string]string
	CacheSize  int
	Workspaces []Workspace
}

type alias struct {
	prefix, target string
}

type cacheKey struct {
	dir, specifier string
}

// Resolver is safe for concurrent use.
type Resolver struct {
	fsys       fs.FS
	extensions []string
	indexFiles []string
	aliases    []alias
	workspaces map[string]string
	cache      *lru.Cache[cacheKey, graph.Resolution]
}

func New(fsys fs.FS, opts Options) (*Resolver, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = 4096
	}
	cache, err := lru.New[cacheKey, graph.Resolution](size)
	if err != nil {
		return nil, fmt.Errorf("create resolver cache: %w", err)
	}

	r := &Resolver{
		fsys:       fsys,
		extensions: opts.Extensions,
		indexFiles: opts.IndexFiles,
		workspaces: make(map[string]string, len(opts.Workspaces)),
		cache:      cache,
	}
	for prefix, target := range opts.Aliases {
		r.aliases = append(r.aliases, alias{prefix: prefix, target: strings.TrimPrefix(target, "./")})
	}
	sort.Slice(r.aliases, func(i, j int) bool {
		if len(r.aliases[i].prefix) != len(r.aliases[j].prefix) {
			return len(r.aliases[i].prefix) > len(r.aliases[j].prefix)
		}
		return r.aliases[i].prefix < r.aliases[j].prefix
	})
	for _, ws := range opts.Workspaces {
		r.workspaces[ws.Name] = ws.Dir
	}
	return r, nil
}

// Resolve maps specifier, as written in the project file from, to a
// resolution. from is a canonical project-relative slash path.
func (r *Resolver) Resolve(from, specifier string) graph.Resolution {
	key := cacheKey{dir: path.Dir(from), specifier: specifier}
	if res, ok := r.cache.Get(key); ok {
		observability.ResolverCacheHitsTotal.Inc()
		return res
	}
	res := r.resolve(key.dir, specifier)
	r.cache.Add(key, res)
	if res.Kind == graph.Unresolved {
		slog.Debug("specifier not resolved", "path", from, "specifier", specifier)
	}
	return res
}

func (r *Resolver) resolve(dir, specifier string) graph.Resolution {
	spec := stripSuffix(specifier)
	switch {
	case spec == "":
		return unresolved()
	case spec == "." || spec == ".." || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../"):
		return r.file(path.Join(dir, spec))
	case strings.HasPrefix(spec, "/"):
		return r.file(path.Clean(strings.TrimPrefix(spec, "/")))
	}

	for _, a := range r.aliases {
		if rest, ok := strings.CutPrefix(spec, a.prefix); ok {
			if res := r.file(path.Join(a.target, rest)); res.Kind == graph.ProjectFile {
				return res
			}
		}
	}

	switch {
	case IsBuiltin(spec), isURL(spec):
		return graph.Resolution{Kind: graph.ExternalPackage, Package: externalName(spec)}
	case strings.HasPrefix(spec, "#"):
		return unresolved()
	}

	pkg := PackageName(spec)
	if dir, ok := r.workspaces[pkg]; ok {
		if sub := subpath(spec, pkg); sub != "" {
			return r.file(path.Join(dir, sub))
		}
		return r.file(dir)
	}
	return graph.Resolution{Kind: graph.ExternalPackage, Package: pkg}
}

// file probes p as a file, then as a directory. Paths that leave the
// project root never resolve.
func (r *Resolver) file(p string) graph.Resolution {
	p = path.Clean(p)
	if p == ".." || strings.HasPrefix(p, "../") {
		return unresolved()
	}
	if found, ok := r.probeFile(p); ok {
		return project(found)
	}
	if found, ok := r.probeDir(p); ok {
		return project(found)
	}
	return unresolved()
}

func (r *Resolver) probeFile(p string) (string, bool) {
	if p != "." && r.isFile(p) {
		return p, true
	}
	for _, alt := range rewrites(p) {
		if r.isFile(alt) {
			return alt, true
		}
	}
	for _, ext := range r.extensions {
		if r.isFile(p + ext) {
			return p + ext, true
		}
	}
	return "", false
}

func (r *Resolver) probeDir(dir string) (string, bool) {
	m, err := readManifest(r.fsys, path.Join(dir, "package.json"))
	if err == nil {
		for _, entry := range []string{m.Source, m.Types, m.Module, m.Main} {
			if entry == "" {
				continue
			}
			if found, ok := r.probeFile(path.Join(dir, entry)); ok {
				return found, true
			}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		slog.Debug("unreadable package manifest", "dir", dir, "error", err)
	}
	for _, index := range r.indexFiles {
		candidate := path.Join(dir, index)
		if r.isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) isFile(p string) bool {
	info, err := fs.Stat(r.fsys, p)
	return err == nil && !info.IsDir()
}

// rewrites returns the TypeScript sources a compiled-extension specifier
// may refer to, e.g. "./a.js" written in a .ts file for "./a.ts".
func rewrites(p string) []string {
	ext := path.Ext(p)
	base := strings.TrimSuffix(p, ext)
	switch ext {
	case ".js":
		return []string{base + ".ts", base + ".tsx"}
	case ".jsx":
		return []string{base + ".tsx"}
	case ".mjs":
		return []string{base + ".mts"}
	case ".cjs":
		return []string{base + ".cts"}
	}
	return nil
}

// stripSuffix drops a query string or fragment used by bundlers, as in
// "./icon.svg?raw".
func stripSuffix(spec string) string {
	if i := strings.IndexByte(spec, '?'); i >= 0 {
		spec = spec[:i]
	}
	if i := strings.IndexByte(spec, '#'); i > 0 {
		spec = spec[:i]
	}
	return spec
}

func externalName(spec string) string {
	if isURL(spec) {
		return spec
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(spec, "node:"), "/")
	return "node:" + name
}

func project(p string) graph.Resolution {
	return graph.Resolution{Kind: graph.ProjectFile, Path: p}
}

func unresolved() graph.Resolution {
	return graph.Resolution{Kind: graph.Unresolved}
}
