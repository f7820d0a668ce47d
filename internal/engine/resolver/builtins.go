package resolver

import "strings"

var nodeBuiltins = map[string]bool{
	"assert": true, "async_hooks": true, "buffer": true, "child_process": true,
	"cluster": true, "console": true, "constants": true, "crypto": true,
	"dgram": true, "diagnostics_channel": true, "dns": true, "domain": true,
	"events": true, "fs": true, "http": true, "http2": true, "https": true,
	"inspector": true, "module": true, "net": true, "os": true, "path": true,
	"perf_hooks": true, "process": true, "punycode": true, "querystring": true,
	"readline": true, "repl": true, "stream": true, "string_decoder": true,
	"sys": true, "timers": true, "tls": true, "trace_events": true, "tty": true,
	"url": true, "util": true, "v8": true, "vm": true, "wasi": true,
	"worker_threads": true, "zlib": true,
}

// IsBuiltin reports whether specifier names a Node.js core module, with or
// without the node: scheme and with or without a subpath.
func IsBuiltin(specifier string) bool {
	if strings.HasPrefix(specifier, "node:") {
		return true
	}
	name, _, _ := strings.Cut(specifier, "/")
	return nodeBuiltins[name]
}

// PackageName returns the package part of a bare specifier: "@scope/pkg"
// for scoped packages, the first segment otherwise.
func PackageName(specifier string) string {
	parts := strings.SplitN(specifier, "/", 3)
	if strings.HasPrefix(specifier, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

func subpath(specifier, pkg string) string {
	return strings.TrimPrefix(strings.TrimPrefix(specifier, pkg), "/")
}

func isURL(specifier string) bool {
	for _, scheme := range []string{"http://", "https://", "data:", "file:"} {
		if strings.HasPrefix(specifier, scheme) {
			return true
		}
	}
	return false
}
