package graph

import (
	"strings"
)

// PathSeparator joins rendered path segments.
const PathSeparator = " --> "

// queued is a BFS entry. Partial paths share storage through parent links.
type queued struct {
	node   string
	parent int
}

// FindPath returns the shortest chain of edges from origin to destination.
//
// The search is breadth first and expands each node's edges in insertion
// order, so among equal-length paths the first one discovered wins. A node is
// marked visited when it is dequeued. origin == destination, or an origin
// absent from the graph, yields [origin] without expanding any edges.
func FindPath(g Reader, origin, destination string) ([]string, bool) {
	if origin == destination || !g.Has(origin) {
		return []string{origin}, true
	}

	queue := []queued{{node: origin, parent: -1}}
	visited := make(map[string]struct{})

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if cur.node == destination {
			return unwind(queue, head), true
		}
		if _, seen := visited[cur.node]; seen {
			continue
		}
		visited[cur.node] = struct{}{}
		for _, next := range g.Neighbors(cur.node) {
			if _, seen := visited[next]; seen {
				continue
			}
			queue = append(queue, queued{node: next, parent: head})
		}
	}
	return nil, false
}

func unwind(queue []queued, at int) []string {
	n := 0
	for i := at; i >= 0; i = queue[i].parent {
		n++
	}
	path := make([]string, n)
	for i := at; i >= 0; i = queue[i].parent {
		n--
		path[n] = queue[i].node
	}
	return path
}

// RenderPath joins a path for display.
func RenderPath(path []string) string {
	return strings.Join(path, PathSeparator)
}
