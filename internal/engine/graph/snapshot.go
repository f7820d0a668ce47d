package graph

import (
	"encoding/json"
	"fmt"
	"io"

	"jsdeps/internal/shared/util"
)

// Reader is the read-only view the query functions work on. Both a live
// DependencyGraph and a loaded Snapshot satisfy it.
type Reader interface {
	Has(path string) bool
	Neighbors(path string) []string
	Paths() []string
}

// Snapshot is an immutable graph, safe for concurrent queries without
// locking. Slices it returns must not be modified.
type Snapshot struct {
	edges   map[string][]string
	exports map[string][]string
}

// NewSnapshot builds a snapshot from path -> ordered destinations.
// Destinations missing as keys are added as nodes without edges.
func NewSnapshot(adj map[string][]string) *Snapshot {
	s := &Snapshot{
		edges:   make(map[string][]string, len(adj)),
		exports: make(map[string][]string),
	}
	for from, tos := range adj {
		seen := make(map[string]struct{}, len(tos))
		out := make([]string, 0, len(tos))
		for _, to := range tos {
			if _, dup := seen[to]; dup {
				continue
			}
			seen[to] = struct{}{}
			out = append(out, to)
		}
		s.edges[from] = out
	}
	for _, tos := range s.edges {
		for _, to := range tos {
			if _, ok := s.edges[to]; !ok {
				s.edges[to] = []string{}
			}
		}
	}
	return s
}

func (s *Snapshot) Has(path string) bool {
	_, ok := s.edges[path]
	return ok
}

func (s *Snapshot) Neighbors(path string) []string {
	return s.edges[path]
}

func (s *Snapshot) Paths() []string {
	return util.SortedKeys(s.edges)
}

func (s *Snapshot) Exports(path string) []string {
	return s.exports[path]
}

// WithExports returns a copy of s carrying the given export sets.
func (s *Snapshot) WithExports(exports map[string][]string) *Snapshot {
	cp := &Snapshot{edges: s.edges, exports: make(map[string][]string, len(exports))}
	for p, names := range exports {
		cp.exports[p] = append([]string(nil), names...)
	}
	return cp
}

func (s *Snapshot) NodeCount() int {
	return len(s.edges)
}

func (s *Snapshot) EdgeCount() int {
	n := 0
	for _, tos := range s.edges {
		n += len(tos)
	}
	return n
}

// Adjacency returns a copy of path -> ordered destinations.
func (s *Snapshot) Adjacency() map[string][]string {
	out := make(map[string][]string, len(s.edges))
	for p, tos := range s.edges {
		out[p] = append([]string{}, tos...)
	}
	return out
}

// WriteJSON writes g as a JSON object mapping each path to its ordered
// destination paths. Keys are sorted.
func WriteJSON(w io.Writer, g Reader) error {
	adj := make(map[string][]string)
	for _, p := range g.Paths() {
		adj[p] = append([]string{}, g.Neighbors(p)...)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(adj); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	return nil
}

// ReadJSON loads a graph written by WriteJSON. Edge order within each list is
// preserved.
func ReadJSON(r io.Reader) (*Snapshot, error) {
	var adj map[string][]string
	if err := json.NewDecoder(r).Decode(&adj); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	if adj == nil {
		return nil, fmt.Errorf("decode graph: expected a JSON object")
	}
	return NewSnapshot(adj), nil
}
