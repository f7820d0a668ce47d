package util

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestProjectPath(t *testing.T) {
	t.Parallel()

	root := filepath.Join("work", "app")
	cases := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "Root", input: root, want: "", wantOK: true},
		{name: "Nested", input: filepath.Join(root, "src", "a.ts"), want: "src/a.ts", wantOK: true},
		{name: "Outside", input: filepath.Join("work", "other", "b.js"), wantOK: false},
		{name: "Parent", input: "work", wantOK: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ProjectPath(root, tc.input)
			if ok != tc.wantOK || got != tc.want {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tc.want, tc.wantOK, got, ok)
			}
		})
	}
}

func TestCleanKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Dot", input: ".", expected: ""},
		{name: "Trim", input: "  ./src/a.js  ", expected: "src/a.js"},
		{name: "Relative", input: "src/../lib/b.js", expected: "lib/b.js"},
		{name: "Backslashes", input: `src\nested\c.ts`, expected: "src/nested/c.ts"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanKey(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestSortedKeys(t *testing.T) {
	t.Parallel()

	got := SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected keys %v", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	name := filepath.Join(dir, "out", "graph.json")

	if err := WriteFileAtomic(name, []byte("first"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := WriteFileAtomic(name, []byte("second"), 0o644); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	got, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("expected %q, got %q", "second", string(got))
	}
	entries, err := os.ReadDir(filepath.Dir(name))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}
