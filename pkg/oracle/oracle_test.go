package oracle

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"cppparser/pkg/config"
	"cppparser/pkg/parser"
)

func TestParseChecks(t *testing.T) {
	content := "int a;\n// CHECK: int b\nint b;\n  //   CHECK:   char c  \n// CHECK int d\n"
	checks := ParseChecks(content)

	want := []Check{{Line: 2, Want: "int b"}, {Line: 4, Want: "char c"}}
	if len(checks) != len(want) {
		t.Fatalf("got %d checks, want %d: %v", len(checks), len(want), checks)
	}
	for i := range want {
		if checks[i] != want[i] {
			t.Errorf("checks[%d] = %+v, want %+v", i, checks[i], want[i])
		}
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantPassed []bool
	}{
		{
			name: "all match",
			content: `// CHECK: int a = 1
int a = 1;
namespace n {
// CHECK: char c
char c;
}`,
			wantPassed: []bool{true, true},
		},
		{
			name: "mismatch",
			content: `// CHECK: int a
long a;`,
			wantPassed: []bool{false},
		},
		{
			name: "nothing follows",
			content: `int a;
// CHECK: int b`,
			wantPassed: []bool{false},
		},
		{
			name: "function",
			content: `// CHECK: void f(int x)
void f(int x);`,
			wantPassed: []bool{true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Run(parser.New(), "check.cpp", tt.content)
			if report.Err != nil {
				t.Fatalf("Run failed: %v", report.Err)
			}
			if len(report.Results) != len(tt.wantPassed) {
				t.Fatalf("got %d results, want %d", len(report.Results), len(tt.wantPassed))
			}
			for i, res := range report.Results {
				if res.Passed() != tt.wantPassed[i] {
					t.Errorf("result %d: passed = %v, want %v (want %q, got %q)", i, res.Passed(), tt.wantPassed[i], res.Want, res.Got)
				}
			}
		})
	}
}

func TestMismatchReportsFormattedDeclaration(t *testing.T) {
	report := Run(parser.New(), "check.cpp", "// CHECK: int a\nlong a;\n")
	failures := report.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	if failures[0].Got != "long int a" || failures[0].Loc.Line != 2 {
		t.Errorf("failure = %+v", failures[0])
	}
	if report.OK() {
		t.Error("report with a failure should not be OK")
	}
}

func TestRunFiles(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "parser", "testdata", "*"))
	if err != nil || len(paths) == 0 {
		t.Fatalf("no corpus files: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	reports, err := RunFiles(context.Background(), config.Default(), logger, paths, 2)
	if err != nil {
		t.Fatalf("RunFiles failed: %v", err)
	}
	if len(reports) != len(paths) {
		t.Fatalf("got %d reports for %d files", len(reports), len(paths))
	}

	for i, report := range reports {
		if report.File != paths[i] {
			t.Errorf("report %d is for %s, want %s", i, report.File, paths[i])
		}
		if len(report.Results) == 0 {
			t.Errorf("%s: no checks found", report.File)
		}
		for _, d := range report.Errors() {
			t.Errorf("%s: unexpected diagnostic %v", report.File, d)
		}
		for _, res := range report.Failures() {
			t.Errorf("%s:%d: want %q, got %q", report.File, res.Line, res.Want, res.Got)
		}
	}
}

func TestRunFileMissing(t *testing.T) {
	if _, err := RunFile(config.Default(), slog.Default(), filepath.Join(t.TempDir(), "none.h")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
