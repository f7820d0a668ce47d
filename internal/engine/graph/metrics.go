package graph

import "sort"

// ModuleMetrics summarises one node's position in the graph.
type ModuleMetrics struct {
	Path       string
	FanIn      int
	FanOut     int
	InCycle    bool
	Importance float64
}

// importance weights fan-in twice as heavily as fan-out.
func importance(fanIn, fanOut int, inCycle bool) float64 {
	score := float64(fanIn*2 + fanOut)
	if inCycle {
		score += 5
	}
	return score
}

// ComputeMetrics returns metrics for every node, most important first.
func ComputeMetrics(g Reader) []ModuleMetrics {
	rev := ReverseEdges(g)
	members := CycleMembers(DetectCycles(g))

	paths := g.Paths()
	out := make([]ModuleMetrics, 0, len(paths))
	for _, p := range paths {
		m := ModuleMetrics{
			Path:    p,
			FanIn:   len(rev[p]),
			FanOut:  len(g.Neighbors(p)),
			InCycle: members[p],
		}
		m.Importance = importance(m.FanIn, m.FanOut, m.InCycle)
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Top returns at most n entries of metrics.
func Top(metrics []ModuleMetrics, n int) []ModuleMetrics {
	if n <= 0 || n >= len(metrics) {
		return metrics
	}
	return metrics[:n]
}
