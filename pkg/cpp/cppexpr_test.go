package cpp

import (
	"testing"

	"cppparser/pkg/lexer"
)

func TestEvalCondition(t *testing.T) {
	tests := []struct {
		expr string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 / 3", 3},
		{"10 % 3", 1},
		{"3 - 2 - 1", 0},
		{"1 << 4", 16},
		{"256 >> 4", 16},
		{"-1 < 0", 1},
		{"!0", 1},
		{"~0", -1},
		{"+5", 5},
		{"1 ? 2 : 3", 2},
		{"0 ? 2 : 3", 3},
		{"1 > 2 ? 3 : 4 > 3", 1},
		{"0 || 1 && 0", 0},
		{"1 and 0", 0},
		{"0 or 1", 1},
		{"2 == 2 == 1", 1},
		{"5 != 5", 0},
		{"6 & 3", 2},
		{"6 ^ 3", 5},
		{"0x10 | 0b1", 17},
		{"010", 8},
		{"10UL == 10", 1},
		{"'A'", 65},
		{`'\n'`, 10},
		{"true", 1},
		{"false || 0", 0},
		{"1, 2", 2},
		{"202002L >= 201703L", 1},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalCondition(lexer.Lex("expr", tt.expr))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("%s = %d, want %d", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvalConditionErrors(t *testing.T) {
	tests := []string{
		"",
		"1 +",
		"(1",
		"1 / 0",
		"1 % 0",
		"name",
		"1 2",
		"1 ? 2",
	}
	for _, expr := range tests {
		if v, err := evalCondition(lexer.Lex("expr", expr)); err == nil {
			t.Errorf("%q: expected an error, got %d", expr, v)
		}
	}
}
