package scanner

import (
	"testing"
)

func FuzzScanner(f *testing.F) {
	seeds := []string{
		"import a from 'b'",
		"`${`${`x`}`}`",
		"<div>{a < b ? <A/> : /re/}</div>",
		"a / b / c /",
		"const m: Map<K, V<W>> = x >>> 1",
		"\"\\",
		"/*",
		"<T,>(x: T) => x",
		"\xff\xfe\x00",
	}
	for _, s := range seeds {
		f.Add(s, false)
		f.Add(s, true)
	}

	f.Fuzz(func(t *testing.T, src string, jsx bool) {
		s := New(src, Options{JSX: jsx})
		var out []byte
		// Every non-EOF token consumes at least one byte.
		for i := 0; i <= len(src)+1; i++ {
			tok := s.Next()
			if tok.Kind == EOF {
				if string(out) != src {
					t.Fatalf("round trip mismatch: %q vs %q", out, src)
				}
				return
			}
			if tok.End <= tok.Start {
				t.Fatalf("empty token %v", tok)
			}
			out = append(out, tok.Text...)
		}
		t.Fatalf("scanner did not reach EOF for %q", src)
	})
}
