package xcheck

import (
	"context"
	"testing"

	"cppparser/pkg/parser"
)

func TestFindings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		clean   bool
	}{
		{"class", "class A { public: int x; };\n", true},
		{"namespace", "namespace n { int f(int a); }\n", true},
		{"unbalanced", "int f( {\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings, err := Findings(context.Background(), []byte(tt.content))
			if err != nil {
				t.Fatalf("Findings failed: %v", err)
			}
			if got := len(findings) == 0; got != tt.clean {
				t.Errorf("clean = %v, want %v: %v", got, tt.clean, findings)
			}
			for _, f := range findings {
				if f.Line < 1 || f.Column < 1 {
					t.Errorf("finding has no position: %+v", f)
				}
			}
		})
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		content string
		syntax  bool
		agree   bool
	}{
		{"both clean", "struct S { int a; };\nint g(S *s);\n", false, true},
		{"both broken", "int x = ;\n", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Check(context.Background(), parser.New(), "x.cpp", []byte(tt.content))
			if err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			if got := len(result.Syntax) > 0; got != tt.syntax {
				t.Errorf("syntax errors = %v, want %v", result.Syntax, tt.syntax)
			}
			if result.Agree() != tt.agree {
				t.Errorf("Agree() = %v, tree-sitter %v, parser %v", result.Agree(), result.TreeSitter, result.Syntax)
			}
		})
	}
}

func TestFindingString(t *testing.T) {
	tests := []struct {
		finding Finding
		want    string
	}{
		{Finding{Line: 3, Column: 7, Node: "ERROR"}, "3:7: error"},
		{Finding{Line: 1, Column: 2, Missing: true, Node: ";"}, "1:2: missing ;"},
	}
	for _, tt := range tests {
		if got := tt.finding.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
