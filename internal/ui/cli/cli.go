// Package cli implements the jsdeps command line.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"jsdeps/internal/core/config"
	domainerrors "jsdeps/internal/core/errors"
)

const versionString = "0.3.0"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type cliOptions struct {
	configPath  string
	envFile     string
	build       bool
	watch       bool
	cycles      bool
	importers   string
	crosscheck  bool
	snapshot    string
	top         int
	metricsAddr string
	verbose     bool
	version     bool
	args        []string
}

func newFlagSet(opts *cliOptions, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("jsdeps", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: jsdeps [flags] <origin> <destination>")
		fmt.Fprintln(stderr, "       jsdeps -build | -watch | -cycles | -importers <file> | -crosscheck")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", config.DefaultFile, "Path to config file")
	fs.StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before config overrides")
	fs.BoolVar(&opts.build, "build", false, "Scan the project and write the dependency graph")
	fs.BoolVar(&opts.watch, "watch", false, "Rebuild the graph whenever sources change")
	fs.BoolVar(&opts.cycles, "cycles", false, "List import cycles in the graph")
	fs.StringVar(&opts.importers, "importers", "", "List files that depend on this file")
	fs.BoolVar(&opts.crosscheck, "crosscheck", false, "Compare extracted specifiers with a tree-sitter parse")
	fs.StringVar(&opts.snapshot, "snapshot", "", "Query a stored snapshot (latest or an id) instead of the graph file")
	fs.IntVar(&opts.top, "top", 0, "With -build, list the N most connected files")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")
	return fs
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := newFlagSet(&opts, stderr)
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, domainerrors.Wrap(err, domainerrors.CodeUsage, "invalid flags")
	}
	opts.args = fs.Args()
	if err := validateOptions(opts); err != nil {
		fs.Usage()
		return cliOptions{}, err
	}
	return opts, nil
}

func (o cliOptions) modeCount() int {
	n := 0
	for _, set := range []bool{o.build, o.watch, o.cycles, o.importers != "", o.crosscheck} {
		if set {
			n++
		}
	}
	return n
}

func validateOptions(opts cliOptions) error {
	if opts.version {
		return nil
	}
	if opts.modeCount() > 1 {
		return domainerrors.New(domainerrors.CodeUsage, "-build, -watch, -cycles, -importers and -crosscheck are mutually exclusive")
	}
	if opts.top < 0 {
		return domainerrors.New(domainerrors.CodeUsage, "-top must not be negative")
	}
	if opts.snapshot != "" && (opts.build || opts.watch || opts.crosscheck) {
		return domainerrors.New(domainerrors.CodeUsage, "-snapshot only applies to queries, -cycles and -importers")
	}

	switch {
	case opts.build:
		if len(opts.args) != 0 && len(opts.args) != 2 {
			return domainerrors.New(domainerrors.CodeUsage, "-build takes no arguments or an origin and a destination")
		}
	case opts.modeCount() == 1:
		if len(opts.args) != 0 {
			return domainerrors.Newf(domainerrors.CodeUsage, "unexpected arguments %v", opts.args)
		}
	default:
		if len(opts.args) != 2 {
			return domainerrors.New(domainerrors.CodeUsage, "origin and destination are required")
		}
	}
	return nil
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if domainerrors.IsCode(err, domainerrors.CodeUsage) {
		return exitUsage
	}
	return exitFailure
}
