package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"jsdeps/internal/engine/graph"
	"jsdeps/internal/shared/util"
)

// WriteDOT renders g as a Graphviz digraph. Cycle members and cycle edges
// are highlighted; external packages, when given, appear as dashed nodes.
func WriteDOT(w io.Writer, g graph.Reader, cycles [][]string, externals []graph.Reference) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("digraph dependencies {\n")
	bw.WriteString("  rankdir=LR;\n")
	bw.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	bw.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	bw.WriteString("  overlap=false;\n\n")

	inCycle := graph.CycleMembers(cycles)
	cycleEdges := graph.CycleEdges(g, cycles)

	bw.WriteString("  subgraph cluster_project {\n")
	bw.WriteString("    label=\"Project Files\";\n")
	bw.WriteString("    style=filled;\n")
	bw.WriteString("    color=\"whitesmoke\";\n")
	bw.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\"];\n")
	paths := g.Paths()
	for _, p := range paths {
		if inCycle[p] {
			fmt.Fprintf(bw, "    %q [fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];\n", p)
		} else {
			fmt.Fprintf(bw, "    %q [color=\"darkslategrey\"];\n", p)
		}
	}
	bw.WriteString("  }\n\n")

	for _, from := range paths {
		for _, to := range g.Neighbors(from) {
			if cycleEdges[[2]string{from, to}] {
				fmt.Fprintf(bw, "  %q -> %q [color=\"red\", penwidth=2.5];\n", from, to)
			} else {
				fmt.Fprintf(bw, "  %q -> %q [color=\"forestgreen\"];\n", from, to)
			}
		}
	}

	if len(externals) > 0 {
		bw.WriteString("\n  node [fillcolor=\"gainsboro\", style=\"rounded,filled,dashed\", color=\"grey\"];\n")
		pkgs := make(map[string]bool)
		edges := make(map[[2]string]bool)
		for _, ref := range externals {
			pkgs[ref.Package] = true
			edges[[2]string{ref.From, ref.Package}] = true
		}
		for _, name := range util.SortedKeys(pkgs) {
			fmt.Fprintf(bw, "  %q;\n", "pkg:"+name)
		}
		keys := make([][2]string, 0, len(edges))
		for k := range edges {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i][0] != keys[j][0] {
				return keys[i][0] < keys[j][0]
			}
			return keys[i][1] < keys[j][1]
		})
		for _, k := range keys {
			fmt.Fprintf(bw, "  %q -> %q [color=\"grey\", style=dashed];\n", k[0], "pkg:"+k[1])
		}
	}

	bw.WriteString("}\n")
	return bw.Flush()
}
