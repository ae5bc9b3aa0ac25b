package cmd

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"cppparser/pkg/config"
	"cppparser/pkg/lexer"
)

func TestIsCppSource(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"widget.hpp", true},
		{"widget.H", true},
		{"impl.cxx", true},
		{"detail.inl", true},
		{"main.c", true},
		{"notes.txt", false},
		{"Makefile", false},
		{"script.py", false},
	}

	for _, tt := range tests {
		if got := isCppSource(tt.filename); got != tt.want {
			t.Errorf("isCppSource(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestFindCppFiles(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"a.hpp",
		"src/b.cpp",
		"src/b_generated.h",
		"src/readme.md",
		"build/c.hpp",
		"third_party/lib/d.h",
	} {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("int x;\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	c := config.Default()
	c.Ignore = []string{"*_generated.h"}

	files, err := findCppFiles([]string{root}, c)
	if err != nil {
		t.Fatalf("findCppFiles failed: %v", err)
	}
	sort.Strings(files)
	want := []string{filepath.Join(root, "a.hpp"), filepath.Join(root, "src", "b.cpp")}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}

	// an explicit file is kept whatever its name
	explicit := filepath.Join(root, "src", "readme.md")
	files, err = findCppFiles([]string{explicit}, c)
	if err != nil || len(files) != 1 || files[0] != explicit {
		t.Errorf("findCppFiles(%s) = %v, %v", explicit, files, err)
	}

	if _, err := findCppFiles([]string{filepath.Join(root, "missing")}, c); err == nil {
		t.Error("expected an error for a missing path")
	}
}

func TestRenderLines(t *testing.T) {
	toks := lexer.Lex("x.c", "int a = 1;\nint\n  b;")
	var kept []lexer.Token
	for _, tok := range toks {
		if tok.Type != lexer.TokenEOF && tok.Type != lexer.TokenNewline {
			kept = append(kept, tok)
		}
	}

	want := "int a = 1;\nint\nb;\n"
	if got := renderLines(kept); got != want {
		t.Errorf("renderLines() = %q, want %q", got, want)
	}
}

func TestRelativeTo(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	got := relativeTo(filepath.Join(wd, "project"), []string{"include", "/abs/path"})
	want := []string{filepath.Join("..", "include"), "/abs/path"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("relativeTo()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
