package graph

import "sort"

// ReverseEdges maps each node to the nodes that import it. Importer lists
// are sorted.
func ReverseEdges(g Reader) map[string][]string {
	rev := make(map[string][]string)
	for _, from := range g.Paths() {
		for _, to := range g.Neighbors(from) {
			rev[to] = append(rev[to], from)
		}
	}
	for _, importers := range rev {
		sort.Strings(importers)
	}
	return rev
}

// Importers returns the direct importers of path and, separately, every
// further file that reaches it transitively.
func Importers(g Reader, path string) (direct, transitive []string) {
	rev := ReverseEdges(g)
	direct = append([]string(nil), rev[path]...)

	seen := map[string]bool{path: true}
	for _, d := range direct {
		seen[d] = true
	}
	queue := append([]string(nil), direct...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range rev[cur] {
			if seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
			transitive = append(transitive, next)
		}
	}
	sort.Strings(transitive)
	return direct, transitive
}

// Traverse visits every node reachable from start once, depth first in
// edge order. Returning false from visit stops the walk.
func Traverse(g Reader, start string, visit func(path string) bool) {
	if !g.Has(start) {
		return
	}
	seen := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(cur) {
			return
		}
		next := g.Neighbors(cur)
		for i := len(next) - 1; i >= 0; i-- {
			if seen[next[i]] {
				continue
			}
			seen[next[i]] = true
			stack = append(stack, next[i])
		}
	}
}
