// # internal/engine/graph/graph.go
package graph

import (
	"sort"
	"sync"

	domainerrors "jsdeps/internal/core/errors"
	"jsdeps/internal/engine/extract"
	"jsdeps/internal/shared/observability"
)

// Node is one project file. Outgoing edges are stored by destination path
// in insertion order.
type Node struct {
	Path    string
	Exports []string
	Stub    bool
	edges   []string
}

// Provenance records one statement that contributed an edge.
type Provenance struct {
	Kind      extract.Kind `json:"kind"`
	Specifier string       `json:"specifier"`
	Line      int          `json:"line"`
	Column    int          `json:"column"`
}

// Reference is a non-graph outcome of resolving a specifier.
type Reference struct {
	From      string                 `json:"from"`
	Specifier string                 `json:"specifier,omitempty"`
	Package   string                 `json:"package,omitempty"`
	Kind      string                 `json:"kind"`
	Line      int                    `json:"line"`
	Code      domainerrors.ErrorCode `json:"code,omitempty"`
}

type edgeKey struct {
	from, to string
}

// DependencyGraph owns every node. Edges refer to nodes by path only, so
// import cycles need no special handling.
type DependencyGraph struct {
	mu sync.RWMutex

	nodes      map[string]*Node
	provenance map[edgeKey][]Provenance
	edgeCount  int

	externals    []Reference
	dangling     []Reference
	unresolvable []Reference
}

func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:      make(map[string]*Node),
		provenance: make(map[edgeKey][]Provenance),
	}
}

// EnsureNode returns the node for path, creating a stub if needed.
func (g *DependencyGraph) EnsureNode(path string) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ensureLocked(path)
}

func (g *DependencyGraph) ensureLocked(path string) *Node {
	n, ok := g.nodes[path]
	if !ok {
		n = &Node{Path: path, Stub: true}
		g.nodes[path] = n
	}
	return n
}

// SetExports marks path as scanned and records its exported names.
func (g *DependencyGraph) SetExports(path string, exports []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.ensureLocked(path)
	n.Stub = false
	n.Exports = append([]string(nil), exports...)
}

// AddEdge inserts from -> to. Repeated inserts leave a single edge and only
// append to the provenance log. It reports whether the edge is new.
func (g *DependencyGraph) AddEdge(from, to string, prov *Provenance) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	src := g.ensureLocked(from)
	g.ensureLocked(to)

	key := edgeKey{from, to}
	log, exists := g.provenance[key]
	if prov != nil {
		log = append(log, *prov)
	}
	if exists {
		g.provenance[key] = log
		return false
	}
	if log == nil {
		log = []Provenance{}
	}
	g.provenance[key] = log
	src.edges = append(src.edges, to)
	g.edgeCount++
	return true
}

func (g *DependencyGraph) AddExternal(ref Reference) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.externals = append(g.externals, ref)
}

func (g *DependencyGraph) AddDangling(ref Reference) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dangling = append(g.dangling, ref)
}

func (g *DependencyGraph) AddUnresolvable(ref Reference) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unresolvable = append(g.unresolvable, ref)
}

// Has reports whether path is a node.
func (g *DependencyGraph) Has(path string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[path]
	return ok
}

// Node returns a copy of the node for path.
func (g *DependencyGraph) Node(path string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[path]
	if !ok {
		return Node{}, false
	}
	cp := *n
	cp.Exports = append([]string(nil), n.Exports...)
	cp.edges = append([]string(nil), n.edges...)
	return cp, true
}

// Edges returns the outgoing edges of n in insertion order.
func (n Node) Edges() []string {
	return n.edges
}

// Neighbors returns the outgoing edges of path in insertion order.
func (g *DependencyGraph) Neighbors(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[path]
	if !ok {
		return nil
	}
	return append([]string(nil), n.edges...)
}

// Paths returns every node path, sorted.
func (g *DependencyGraph) Paths() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	paths := make([]string, 0, len(g.nodes))
	for p := range g.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Provenance returns the statements that contributed from -> to.
func (g *DependencyGraph) Provenance(from, to string) []Provenance {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Provenance(nil), g.provenance[edgeKey{from, to}]...)
}

func (g *DependencyGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

func (g *DependencyGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCount
}

func (g *DependencyGraph) Externals() []Reference {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Reference(nil), g.externals...)
}

func (g *DependencyGraph) Dangling() []Reference {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Reference(nil), g.dangling...)
}

func (g *DependencyGraph) Unresolvable() []Reference {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Reference(nil), g.unresolvable...)
}

// ExternalPackages returns the distinct external package names, sorted.
func (g *DependencyGraph) ExternalPackages() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	seen := make(map[string]struct{}, len(g.externals))
	for _, ref := range g.externals {
		seen[ref.Package] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Adjacency returns the graph as path -> ordered destinations.
func (g *DependencyGraph) Adjacency() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string][]string, len(g.nodes))
	for p, n := range g.nodes {
		out[p] = append([]string{}, n.edges...)
	}
	return out
}

// Freeze copies the graph into an immutable Snapshot.
func (g *DependencyGraph) Freeze() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := &Snapshot{
		edges:   make(map[string][]string, len(g.nodes)),
		exports: make(map[string][]string, len(g.nodes)),
	}
	for p, n := range g.nodes {
		s.edges[p] = append([]string{}, n.edges...)
		if len(n.Exports) > 0 {
			s.exports[p] = append([]string(nil), n.Exports...)
		}
	}
	return s
}

func (g *DependencyGraph) publishMetrics() {
	g.mu.RLock()
	nodes, edges := len(g.nodes), g.edgeCount
	g.mu.RUnlock()
	observability.GraphNodes.Set(float64(nodes))
	observability.GraphEdges.Set(float64(edges))
	observability.GraphExternals.Set(float64(len(g.ExternalPackages())))
}
