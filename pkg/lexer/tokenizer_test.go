package lexer

import (
	"strings"
	"testing"
)

func types(tokens []Token) []TokenType {
	out := make([]TokenType, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Type)
	}
	return out
}

func TestTokenizerBasics(t *testing.T) {
	input := `namespace Test {
    class MyClass {
    public:
        void method();
    };
}`

	tokens := NewTokenizer("basics.h", input).Tokenize()

	expected := []TokenType{
		TokenNamespace, TokenIdentifier, TokenLeftBrace, TokenNewline,
		TokenClass, TokenIdentifier, TokenLeftBrace, TokenNewline,
		TokenPublic, TokenColon, TokenNewline,
		TokenVoid, TokenIdentifier, TokenLeftParen, TokenRightParen, TokenSemicolon, TokenNewline,
		TokenRightBrace, TokenSemicolon, TokenNewline,
		TokenRightBrace, TokenEOF,
	}

	got := types(tokens)
	if len(got) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(expected), len(got), tokens)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("token %d: expected %v, got %v", i, expected[i], tokens[i])
		}
	}
}

func TestTokenizerComments(t *testing.T) {
	input := `// Line comment
/* Block comment */
/** Doxygen block */
/// Doxygen line
//! Qt line
/**/
//// banner`

	var commentTypes []TokenType
	for _, token := range NewTokenizer("comments.h", input).Tokenize() {
		if token.IsComment() {
			commentTypes = append(commentTypes, token.Type)
		}
	}

	expected := []TokenType{
		TokenLineComment,
		TokenBlockComment,
		TokenDoxygenComment,
		TokenDoxygenComment,
		TokenDoxygenComment,
		TokenBlockComment,
		TokenLineComment,
	}
	if len(commentTypes) != len(expected) {
		t.Fatalf("Expected %d comments, got %d", len(expected), len(commentTypes))
	}
	for i := range expected {
		if commentTypes[i] != expected[i] {
			t.Errorf("comment %d: expected %v, got %v", i, expected[i], commentTypes[i])
		}
	}
}

func TestTokenizerOperators(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{"a::b", []TokenType{TokenIdentifier, TokenDoubleColon, TokenIdentifier}},
		{"x <=> y", []TokenType{TokenIdentifier, TokenSpaceship, TokenIdentifier}},
		{"p->*m", []TokenType{TokenIdentifier, TokenArrowStar, TokenIdentifier}},
		{"v >>= 2", []TokenType{TokenIdentifier, TokenRightShiftEquals, TokenNumber}},
		{"Ts...", []TokenType{TokenIdentifier, TokenEllipsis}},
		{"a ## b", []TokenType{TokenIdentifier, TokenHashHash, TokenIdentifier}},
		{"#x", []TokenType{TokenHash, TokenIdentifier}},
		{"a and b", []TokenType{TokenIdentifier, TokenDoubleAmp, TokenIdentifier}},
		{"not x", []TokenType{TokenExclamation, TokenIdentifier}},
		{"@", []TokenType{TokenUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := types(Lex("ops.h", tt.input))
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("token %d: expected %v, got %v", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestTokenizerLiterals(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		typ      TokenType
		expected string
	}{
		{"hex", "0x1Fu", TokenNumber, "0x1Fu"},
		{"float exponent", "1.5e+10f", TokenNumber, "1.5e+10f"},
		{"leading dot", ".5", TokenNumber, ".5"},
		{"digit separator", "1'000'000", TokenNumber, "1'000'000"},
		{"string", `"a \"quoted\" word"`, TokenString, `"a \"quoted\" word"`},
		{"wide string", `L"wide"`, TokenString, `L"wide"`},
		{"utf8 string", `u8"text"`, TokenString, `u8"text"`},
		{"raw string", `R"x(a ) " b)x"`, TokenString, `R"x(a ) " b)x"`},
		{"char", `'\n'`, TokenCharLiteral, `'\n'`},
		{"prefixed char", `U'x'`, TokenCharLiteral, `U'x'`},
		{"udl", `"abc"_s`, TokenString, `"abc"_s`},
		{"published", "__published", TokenPublished, "__published"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Lex("lit.h", tt.input)
			if len(tokens) != 1 {
				t.Fatalf("Expected 1 token, got %d: %v", len(tokens), tokens)
			}
			if tokens[0].Type != tt.typ {
				t.Errorf("Expected type %v, got %v", tt.typ, tokens[0].Type)
			}
			if tokens[0].Value != tt.expected {
				t.Errorf("Expected value %q, got %q", tt.expected, tokens[0].Value)
			}
		})
	}
}

func TestTokenizerSplicesAndPositions(t *testing.T) {
	input := "int ab\\\ncd;\n  x"
	tokens := Lex("splice.h", input)

	if len(tokens) != 4 {
		t.Fatalf("Expected 4 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[1].Value != "abcd" {
		t.Errorf("Expected spliced identifier 'abcd', got %q", tokens[1].Value)
	}

	pos := tokens[3].Position()
	if pos.Line != 3 || pos.Column != 3 {
		t.Errorf("Expected x at 3:3, got %d:%d", pos.Line, pos.Column)
	}
	if pos.Filename != "splice.h" {
		t.Errorf("Expected filename splice.h, got %q", pos.Filename)
	}
	if loc := tokens[0].Location().String(); loc != "splice.h:1:1" {
		t.Errorf("Expected location splice.h:1:1, got %s", loc)
	}
}

func TestTokenizerSpacing(t *testing.T) {
	tokens := NewTokenizer("space.h", "#define A(x) x\n  # if").Tokenize()

	if !tokens[0].BOL || tokens[0].Space {
		t.Errorf("Expected first token at BOL without space, got %+v", tokens[0])
	}
	// A( has no space, (x) follows directly
	if !tokens[2].Space || tokens[3].Space || tokens[4].Space {
		t.Errorf("Expected no space inside A(x")
	}
	if !tokens[6].Space {
		t.Errorf("Expected space before replacement token")
	}
	hash := tokens[8]
	if hash.Type != TokenHash || !hash.BOL {
		t.Errorf("Expected # at beginning of line, got %v (bol=%v)", hash, hash.BOL)
	}
}

func TestTokenizerErrors(t *testing.T) {
	tokenizer := NewTokenizer("err.h", "char c = 'x;\n/* open")
	tokenizer.Tokenize()

	if !tokenizer.HasErrors() {
		t.Fatal("Expected errors")
	}
	errs := tokenizer.GetErrors()
	if len(errs) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(errs))
	}
	if !strings.Contains(errs[0].Value, "character literal") {
		t.Errorf("Unexpected first error: %s", errs[0].Value)
	}
	if !strings.Contains(errs[1].Value, "block comment") {
		t.Errorf("Unexpected second error: %s", errs[1].Value)
	}
}

func TestTokenizerMaxTokens(t *testing.T) {
	tokenizer := NewTokenizer("big.h", strings.Repeat("a ", 100))
	tokenizer.SetMaxTokens(10)
	tokens := tokenizer.Tokenize()

	if len(tokens) > 12 {
		t.Errorf("Expected token count to be capped, got %d", len(tokens))
	}
	if !tokenizer.HasErrors() {
		t.Error("Expected a too-many-tokens error")
	}
}
