package graph

import "sort"

// DetectCycles returns each import cycle as the sorted member paths of a
// strongly connected component. Single files that import themselves count.
// Cycles are ordered by their first member.
func DetectCycles(g Reader) [][]string {
	t := tarjan{
		g:       g,
		index:   make(map[string]int),
		low:     make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, p := range g.Paths() {
		if _, ok := t.index[p]; !ok {
			t.connect(p)
		}
	}
	sort.Slice(t.cycles, func(i, j int) bool { return t.cycles[i][0] < t.cycles[j][0] })
	return t.cycles
}

type tarjan struct {
	g       Reader
	next    int
	index   map[string]int
	low     map[string]int
	onStack map[string]bool
	stack   []string
	cycles  [][]string
}

func (t *tarjan) connect(v string) {
	t.index[v] = t.next
	t.low[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	selfLoop := false
	for _, w := range t.g.Neighbors(v) {
		if w == v {
			selfLoop = true
		}
		if _, ok := t.index[w]; !ok {
			t.connect(w)
			t.low[v] = min(t.low[v], t.low[w])
		} else if t.onStack[w] {
			t.low[v] = min(t.low[v], t.index[w])
		}
	}

	if t.low[v] != t.index[v] {
		return
	}
	var scc []string
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	if len(scc) > 1 || selfLoop {
		sort.Strings(scc)
		t.cycles = append(t.cycles, scc)
	}
}

// CycleMembers returns the set of paths that sit on some cycle.
func CycleMembers(cycles [][]string) map[string]bool {
	members := make(map[string]bool)
	for _, c := range cycles {
		for _, p := range c {
			members[p] = true
		}
	}
	return members
}

// CycleEdges returns the edges whose endpoints share a cycle.
func CycleEdges(g Reader, cycles [][]string) map[[2]string]bool {
	component := make(map[string]int)
	for i, c := range cycles {
		for _, p := range c {
			component[p] = i
		}
	}
	edges := make(map[[2]string]bool)
	for _, from := range g.Paths() {
		ci, ok := component[from]
		if !ok {
			continue
		}
		for _, to := range g.Neighbors(from) {
			if cj, ok := component[to]; ok && ci == cj {
				edges[[2]string{from, to}] = true
			}
		}
	}
	return edges
}
