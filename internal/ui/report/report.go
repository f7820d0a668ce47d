// Package report renders analysis results for humans: query paths, build
// summaries, cycles and importer lists.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"jsdeps/internal/engine/crosscheck"
	"jsdeps/internal/engine/graph"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	nodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	arrowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))

	cycleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// Renderer writes reports to w. Styling is applied only when enabled.
type Renderer struct {
	w      io.Writer
	styled bool
}

// NewRenderer styles output when w is a terminal and NO_COLOR is unset.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w, styled: IsTerminal(w)}
}

// NewPlainRenderer never styles output.
func NewPlainRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

func IsTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

// Path prints a found path on one line.
func (r *Renderer) Path(path []string) {
	if !r.styled {
		fmt.Fprintln(r.w, graph.RenderPath(path))
		return
	}
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = nodeStyle.Render(p)
	}
	fmt.Fprintln(r.w, strings.Join(parts, arrowStyle.Render(graph.PathSeparator)))
}

// NotFoundMessage is printed when no path exists.
func NotFoundMessage(origin, destination string) string {
	return fmt.Sprintf("no path from %s to %s found in dependency graph", origin, destination)
}

func (r *Renderer) NotFound(origin, destination string) {
	fmt.Fprintln(r.w, r.style(warnStyle, NotFoundMessage(origin, destination)))
}

// BuildSummary describes one completed build.
type BuildSummary struct {
	RunID            string
	Files            int
	Statements       int
	Nodes            int
	Edges            int
	ExternalPackages []string
	Dangling         []graph.Reference
	Unresolvable     int
	Diagnostics      int
	Cycles           [][]string
	Duration         time.Duration
	Outputs          []string
}

func (r *Renderer) Summary(s BuildSummary) {
	fmt.Fprintln(r.w, r.style(titleStyle, "jsdeps build "+s.RunID))
	fmt.Fprintf(r.w, "  files:        %d\n", s.Files)
	fmt.Fprintf(r.w, "  statements:   %d\n", s.Statements)
	fmt.Fprintf(r.w, "  nodes:        %d\n", s.Nodes)
	fmt.Fprintf(r.w, "  edges:        %d\n", s.Edges)
	fmt.Fprintf(r.w, "  packages:     %d\n", len(s.ExternalPackages))
	fmt.Fprintf(r.w, "  dangling:     %d\n", len(s.Dangling))
	fmt.Fprintf(r.w, "  unresolvable: %d\n", s.Unresolvable)
	fmt.Fprintf(r.w, "  diagnostics:  %d\n", s.Diagnostics)
	cycles := fmt.Sprintf("  cycles:       %d", len(s.Cycles))
	if len(s.Cycles) > 0 {
		cycles = r.style(cycleStyle, cycles)
	}
	fmt.Fprintln(r.w, cycles)
	fmt.Fprintln(r.w, r.style(mutedStyle, fmt.Sprintf("  took %s", s.Duration.Round(time.Millisecond))))

	for _, ref := range s.Dangling {
		fmt.Fprintln(r.w, r.style(warnStyle, fmt.Sprintf("  dangling %s:%d %q", ref.From, ref.Line, ref.Specifier)))
	}
	for _, out := range s.Outputs {
		fmt.Fprintf(r.w, "  wrote %s\n", out)
	}
}

func (r *Renderer) Cycles(cycles [][]string) {
	if len(cycles) == 0 {
		fmt.Fprintln(r.w, "no import cycles")
		return
	}
	fmt.Fprintln(r.w, r.style(cycleStyle, fmt.Sprintf("%d import cycle(s)", len(cycles))))
	for i, c := range cycles {
		fmt.Fprintf(r.w, "  %d. %s\n", i+1, strings.Join(c, ", "))
	}
}

func (r *Renderer) Importers(path string, direct, transitive []string) {
	fmt.Fprintln(r.w, r.style(titleStyle, "importers of "+path))
	fmt.Fprintf(r.w, "  direct (%d)\n", len(direct))
	for _, p := range direct {
		fmt.Fprintf(r.w, "    %s\n", p)
	}
	fmt.Fprintf(r.w, "  transitive (%d)\n", len(transitive))
	for _, p := range transitive {
		fmt.Fprintf(r.w, "    %s\n", p)
	}
}

// Hotspots lists the most connected modules.
func (r *Renderer) Hotspots(metrics []graph.ModuleMetrics) {
	if len(metrics) == 0 {
		return
	}
	fmt.Fprintln(r.w, r.style(titleStyle, "most connected modules"))
	for _, m := range metrics {
		line := fmt.Sprintf("  %-40s in=%d out=%d", m.Path, m.FanIn, m.FanOut)
		if m.InCycle {
			line = r.style(cycleStyle, line+" cycle")
		}
		fmt.Fprintln(r.w, line)
	}
}

func (r *Renderer) Mismatches(files int, mismatches []crosscheck.Mismatch) {
	if len(mismatches) == 0 {
		fmt.Fprintf(r.w, "crosscheck: %d files agree\n", files)
		return
	}
	fmt.Fprintln(r.w, r.style(warnStyle, fmt.Sprintf("crosscheck: %d disagreement(s) in %d files", len(mismatches), files)))
	for _, m := range mismatches {
		fmt.Fprintf(r.w, "  %s\n", m)
	}
}
