package cpp

import (
	"errors"
	"strings"
	"testing"

	"cppparser/pkg/ast"
	"cppparser/pkg/diag"
	"cppparser/pkg/lexer"
	"cppparser/pkg/macro"
)

func preprocess(t *testing.T, cfg Config, files MapResolver, content string) (string, *diag.Collector, error) {
	t.Helper()
	diags := diag.NewCollector(nil, 0)
	pp := New(cfg, files, diags)
	pp.Push("main.c", content)
	toks, err := pp.Tokens()
	return macro.Render(toks), diags, err
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		files    MapResolver
		content  string
		want     string
		errors   int
		warnings int
	}{
		{
			name: "self-referential macro",
			content: `#define sched_priority sched_priority
#define __sched_priority (sched_priority)
int __sched_priority = 0;
`,
			want: "int (sched_priority) = 0;",
		},
		{
			name: "pasted macro name is expanded",
			content: `#define __CONCAT(x,y) x ## y
#define __SIMD_DECL(function) __CONCAT(__DECL_SIMD_, function)
#define __DECL_SIMD_ab __DECL_SIMD_ab
int __SIMD_DECL(ab);
`,
			want: "int __DECL_SIMD_ab;",
		},
		{
			name: "conditionals",
			content: `#define A 2
#if A > 1 && defined(A)
yes
#elif 1
no
#else
no
#endif
#ifdef B
no
#endif
#ifndef B
ok
#endif
`,
			want: "yes ok",
		},
		{
			name: "nested skipped groups",
			content: `#if 0
#if 1
bad
#else
bad
#endif
#elif defined A || 1
good
#else
bad
#endif
`,
			want: "good",
		},
		{
			name: "elifdef",
			content: `#define X
#ifdef Y
a
#elifdef X
b
#elifndef X
c
#endif
`,
			want: "b",
		},
		{
			name: "skipped regions ignore directives",
			content: `#if 0
#error not reached
#include "missing.h"
#define Z 1
#endif
Z
`,
			want: "Z",
		},
		{
			name:    "quoted include",
			files:   MapResolver{"inc.h": "int x;\n"},
			content: "#include \"inc.h\"\nint y;\n",
			want:    "int x; int y;",
		},
		{
			name:    "angled include",
			files:   MapResolver{"sys/types.h": "typedef int size;\n"},
			content: "#include <sys/types.h>\nsize n;\n",
			want:    "typedef int size; size n;",
		},
		{
			name:    "macro include",
			files:   MapResolver{"conf.h": "int conf;\n"},
			content: "#define HEADER \"conf.h\"\n#include HEADER\n",
			want:    "int conf;",
		},
		{
			name:    "include guard",
			files:   MapResolver{"g.h": "#ifndef G_H\n#define G_H\nint g;\n#endif\n"},
			content: "#include \"g.h\"\n#include \"g.h\"\n",
			want:    "int g;",
		},
		{
			name:    "pragma once",
			files:   MapResolver{"o.h": "#pragma once\nint o;\n"},
			content: "#include \"o.h\"\n#include \"o.h\"\n",
			want:    "int o;",
		},
		{
			name:    "missing include is skipped",
			content: "#include \"missing.h\"\nint z;\n",
			want:    "int z;",
			errors:  1,
		},
		{
			name:    "has include",
			files:   MapResolver{"there.h": ""},
			content: "#if __has_include(\"there.h\") && !__has_include(<missing.h>) && !__has_cpp_attribute(nodiscard)\nyes\n#endif\n",
			want:    "yes",
		},
		{
			name:    "line and file",
			content: "a\n__LINE__ __FILE__\n",
			want:    `a 2 "main.c"`,
		},
		{
			name:    "line directive",
			content: "#line 100 \"foo.c\"\n__LINE__ __FILE__\n",
			want:    `100 "foo.c"`,
		},
		{
			name:    "counter",
			content: "__COUNTER__ __COUNTER__\n",
			want:    "0 1",
		},
		{
			name:    "command line definitions",
			cfg:     Config{Defines: []string{"DEBUG", "LEVEL=3"}, Undefines: []string{"CPPPARSER"}},
			content: "DEBUG LEVEL CPPPARSER\n",
			want:    "1 3 CPPPARSER",
		},
		{
			name:    "arguments span lines",
			content: "#define F(a,b) a+b\nF(1,\n2)\n",
			want:    "1+2",
		},
		{
			name:    "pragma operator",
			content: "_Pragma(\"once\") int x;\n",
			want:    "int x;",
		},
		{
			name:    "error directive",
			content: "#error boom\nint x;\n",
			want:    "int x;",
			errors:  1,
		},
		{
			name:     "warning directive",
			content:  "#warning careful\n",
			warnings: 1,
		},
		{
			name:    "division by zero",
			content: "#if 1 / 0\nx\n#else\ny\n#endif\n",
			want:    "y",
			errors:  1,
		},
		{
			name:     "unknown directive",
			content:  "#frobnicate\nint x;\n",
			want:     "int x;",
			warnings: 1,
		},
		{
			name:     "incompatible redefinition",
			content:  "#define N 1\n#define N 1\n#define N 2\nN\n",
			want:     "2",
			warnings: 1,
		},
		{
			name:    "undef",
			content: "#define N 1\n#undef N\nN\n",
			want:    "N",
		},
		{
			name:    "null directive",
			content: "#\nint x;\n",
			want:    "int x;",
		},
		{
			name:    "wrong argument count",
			content: "#define F(a) a\nF(1, 2)\n",
			want:    "F(1, 2)",
			errors:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diags, err := preprocess(t, tt.cfg, tt.files, tt.content)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
			if diags.ErrorCount() != tt.errors {
				t.Errorf("got %d errors, want %d: %v", diags.ErrorCount(), tt.errors, diags.Diagnostics())
			}
			if diags.WarningCount() != tt.warnings {
				t.Errorf("got %d warnings, want %d: %v", diags.WarningCount(), tt.warnings, diags.Diagnostics())
			}
		})
	}
}

func TestFatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		content string
	}{
		{name: "unterminated conditional", content: "#if 1\nint x;\n"},
		{name: "else without if", content: "#else\n"},
		{name: "endif without if", content: "int x;\n#endif\n"},
		{name: "elif after else", content: "#if 0\n#else\n#elif 1\n#endif\n"},
		{name: "else after else", content: "#if 0\n#else\n#else\n#endif\n"},
		{name: "unterminated invocation", content: "#define F(x) x\nF(1, (2)\n"},
		{name: "fatal include", cfg: Config{IncludeErrorsFatal: true}, content: "#include <missing.h>\n"},
		{name: "include depth", cfg: Config{MaxIncludeDepth: 4}, content: "#include \"main.c\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags, err := preprocess(t, tt.cfg, MapResolver{"main.c": "#include \"main.c\"\n"}, tt.content)
			if err == nil {
				t.Fatal("expected a fatal error")
			}
			var d *diag.Diagnostic
			if !errors.As(err, &d) || d.Severity != diag.Fatal {
				t.Errorf("expected a fatal diagnostic, got %v", err)
			}
			if diags.Fatal() == nil {
				t.Error("collector did not record the fatal diagnostic")
			}
		})
	}
}

func TestUnterminatedInvocationLocation(t *testing.T) {
	_, _, err := preprocess(t, Config{}, nil, "#define F(x) x\nF(1, (2)\n")
	var d *diag.Diagnostic
	if !errors.As(err, &d) {
		t.Fatalf("expected a diagnostic, got %v", err)
	}
	want := diag.Location{File: "main.c", Line: 2, Column: 1}
	if d.Location != want {
		t.Errorf("location = %v, want %v", d.Location, want)
	}
	if strings.Contains(d.Message, "main.c") || !strings.Contains(d.Message, "unterminated argument list") {
		t.Errorf("message = %q", d.Message)
	}
}

func TestIncludeGuardDetection(t *testing.T) {
	files := MapResolver{
		"guarded.h":   "// comment\n#ifndef GUARDED_H\n#define GUARDED_H\nint a;\n#endif\n",
		"unguarded.h": "#ifndef U_H\n#define U_H\n#endif\nint b;\n",
		"else.h":      "#ifndef E_H\n#define E_H\n#else\nint c;\n#endif\n",
	}
	pp := New(Config{}, files, nil)
	pp.Push("main.c", "#include \"guarded.h\"\n#include \"unguarded.h\"\n#include \"else.h\"\n")
	if _, err := pp.Tokens(); err != nil {
		t.Fatal(err)
	}
	if got := pp.guards["guarded.h"]; got != "GUARDED_H" {
		t.Errorf("guard of guarded.h = %q", got)
	}
	if _, ok := pp.guards["unguarded.h"]; ok {
		t.Error("unguarded.h has tokens after its #endif")
	}
	if _, ok := pp.guards["else.h"]; ok {
		t.Error("else.h has an #else branch")
	}
}

func TestPublishedMacros(t *testing.T) {
	pp := New(Config{}, nil, nil)
	pp.Push("main.h", "__begin_publish\n#define P 1\n__end_publish\n#define Q 2\n")
	toks, err := pp.Tokens()
	if err != nil {
		t.Fatal(err)
	}
	if got := macro.Render(toks); got != "__begin_publish __end_publish" {
		t.Errorf("tokens = %q", got)
	}
	if m := pp.Macros().Lookup("P"); m == nil || m.Visibility != ast.VisibilityPublished {
		t.Error("P should be published")
	}
	if m := pp.Macros().Lookup("Q"); m == nil || m.Visibility != ast.VisibilityPublic {
		t.Error("Q should be public")
	}
}

func TestKeepComments(t *testing.T) {
	pp := New(Config{KeepComments: true}, nil, nil)
	pp.Push("main.h", "/** doc */\n// plain\nint x;\n")
	toks, err := pp.Tokens()
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 4 || !toks[0].IsComment() {
		t.Fatalf("expected the Doxygen comment and 3 tokens, got %v", toks)
	}
}

func TestPosition(t *testing.T) {
	pp := New(Config{}, nil, nil)
	pp.Push("main.c", "int\n  x;\n")
	for _, want := range []struct{ line, col int }{{1, 1}, {2, 3}, {2, 4}} {
		if _, err := pp.Next(); err != nil {
			t.Fatal(err)
		}
		if pp.Line() != want.line || pp.Column() != want.col {
			t.Errorf("position = %d:%d, want %d:%d", pp.Line(), pp.Column(), want.line, want.col)
		}
	}
	tok, err := pp.Next()
	if err != nil || tok.Type != lexer.TokenEOF {
		t.Errorf("expected EOF, got %v, %v", tok, err)
	}
}
