package docstring

import (
	"testing"

	"cppparser/pkg/diag"
)

func TestIsDoxygen(t *testing.T) {
	tests := []struct {
		comment string
		want    bool
	}{
		{"/** brief */", true},
		{"/*! brief */", true},
		{"/// brief", true},
		{"//! brief", true},
		{"///< trailing", true},
		{"  /** indented */", true},
		{"// plain", false},
		{"/* plain */", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsDoxygen(tt.comment); got != tt.want {
			t.Errorf("IsDoxygen(%q) = %v, want %v", tt.comment, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	comment := `/**
 * Computes the sum
 *
 * Adds both operands and
 * returns the result.
 * @tparam T element type
 * @param a first operand
 * @param b second operand
 * @return the sum
 * @throws std::overflow_error on overflow
 * @since 1.2
 * @see difference
 * @note not thread safe
 */`
	loc := diag.Location{File: "sum.hpp", Line: 3, Column: 1}
	doc := Parse(comment, loc)
	if doc == nil {
		t.Fatal("Parse returned nil")
	}

	if doc.Brief != "Computes the sum" {
		t.Errorf("Brief = %q", doc.Brief)
	}
	if doc.Detailed != "Adds both operands and returns the result." {
		t.Errorf("Detailed = %q", doc.Detailed)
	}
	if doc.TParams["T"] != "element type" {
		t.Errorf("TParams[T] = %q", doc.TParams["T"])
	}
	if doc.Params["a"] != "first operand" || doc.Params["b"] != "second operand" {
		t.Errorf("Params = %v", doc.Params)
	}
	if doc.Returns != "the sum" {
		t.Errorf("Returns = %q", doc.Returns)
	}
	if len(doc.Throws) != 1 || doc.Throws[0] != "std::overflow_error on overflow" {
		t.Errorf("Throws = %v", doc.Throws)
	}
	if doc.Since != "1.2" {
		t.Errorf("Since = %q", doc.Since)
	}
	if len(doc.See) != 1 || doc.See[0] != "difference" {
		t.Errorf("See = %v", doc.See)
	}
	if doc.CustomTags["note"] != "not thread safe" {
		t.Errorf("CustomTags[note] = %q", doc.CustomTags["note"])
	}
	if doc.Loc != loc {
		t.Errorf("Loc = %v, want %v", doc.Loc, loc)
	}
}

func TestParseLineComments(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		brief   string
		details string
	}{
		{"single line", "/// Returns the size", "Returns the size", ""},
		{"qt style", "//! Returns the size", "Returns the size", ""},
		{"trailing member", "///< element count", "element count", ""},
		{"trailing block", "/**< element count */", "element count", ""},
		{"consecutive lines", "/// First line\n/// second line\n/// third line", "First line", "second line third line"},
		{"backslash tags", "/*! \\brief Short\n \\details Long text */", "Short", "Long text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Parse(tt.comment, diag.Location{})
			if doc.Brief != tt.brief {
				t.Errorf("Brief = %q, want %q", doc.Brief, tt.brief)
			}
			if doc.Detailed != tt.details {
				t.Errorf("Detailed = %q, want %q", doc.Detailed, tt.details)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	if doc := Parse("   ", diag.Location{}); doc != nil {
		t.Errorf("expected nil for blank comment, got %+v", doc)
	}
}

func TestRepeatedCustomTag(t *testing.T) {
	doc := Parse("/**\n * @todo first\n * @todo second\n */", diag.Location{})
	if got := doc.CustomTags["todo"]; got != "first\nsecond" {
		t.Errorf("CustomTags[todo] = %q", got)
	}
}
