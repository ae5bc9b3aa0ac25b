package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"modernc.org/token"
)

// Tokenizer represents the tokenizer state
type Tokenizer struct {
	input     string
	file      *token.File
	pos       int // current position in input
	width     int // bytes consumed by the last next, line splices included
	start     int // start position of current token
	space     bool
	bol       bool
	tokens    []Token
	maxTokens int // Maximum number of tokens to prevent OOM
}

// NewTokenizer creates a new tokenizer for the named input
func NewTokenizer(name, input string) *Tokenizer {
	const maxTokensLimit = 5000000
	return &Tokenizer{
		input:     input,
		file:      token.NewFile(name, len(input)),
		bol:       true,
		tokens:    make([]Token, 0, len(input)/4+16),
		maxTokens: maxTokensLimit,
	}
}

// File returns the line table backing token positions
func (t *Tokenizer) File() *token.File {
	return t.file
}

// SetMaxTokens overrides the token limit
func (t *Tokenizer) SetMaxTokens(n int) {
	t.maxTokens = n
}

// spliceLen returns the length of a backslash-newline at the start of s, or zero
func spliceLen(s string) int {
	if len(s) >= 2 && s[0] == '\\' && s[1] == '\n' {
		return 2
	}
	if len(s) >= 3 && s[0] == '\\' && s[1] == '\r' && s[2] == '\n' {
		return 3
	}
	return 0
}

// next reads the next rune, skipping line splices, and advances position
func (t *Tokenizer) next() rune {
	from := t.pos
	for t.pos < len(t.input) && t.input[t.pos] == '\\' {
		n := spliceLen(t.input[t.pos:])
		if n == 0 {
			break
		}
		t.pos += n
		t.file.AddLine(t.pos)
	}
	if t.pos >= len(t.input) {
		t.width = t.pos - from
		return 0
	}

	r, w := utf8.DecodeRuneInString(t.input[t.pos:])
	t.pos += w
	t.width = t.pos - from
	if r == '\n' {
		t.file.AddLine(t.pos)
	}
	return r
}

// backup steps back one rune
func (t *Tokenizer) backup() {
	t.pos -= t.width
	t.width = 0
}

// peek returns the next rune without advancing position
func (t *Tokenizer) peek() rune {
	r := t.next()
	t.backup()
	return r
}

// peekN returns the nth rune ahead without advancing position
func (t *Tokenizer) peekN(n int) rune {
	pos := t.pos
	var r rune
	for i := 0; i < n; i++ {
		r = t.next()
		if r == 0 {
			break
		}
	}
	t.pos = pos
	t.width = 0
	return r
}

// emit creates a token and adds it to the tokens slice
func (t *Tokenizer) emit(tokenType TokenType) {
	value := t.input[t.start:t.pos]
	if strings.Contains(value, "\\\n") || strings.Contains(value, "\\\r\n") {
		value = strings.ReplaceAll(strings.ReplaceAll(value, "\\\r\n", ""), "\\\n", "")
	}
	if tokenType == TokenIdentifier {
		tokenType = KeywordType(value)
	}
	t.emitValue(tokenType, value)
}

// emitValue appends a token with an explicit value
func (t *Tokenizer) emitValue(tokenType TokenType, value string) {
	if len(t.tokens) >= t.maxTokens {
		return
	}
	t.tokens = append(t.tokens, Token{
		Type:  tokenType,
		Value: value,
		Pos:   t.file.Pos(t.start),
		File:  t.file,
		Space: t.space,
		BOL:   t.bol,
	})
	t.start = t.pos
	t.space = false
	t.bol = false
}

// emitError creates an error token
func (t *Tokenizer) emitError(message string) {
	t.emitValue(TokenError, message)
}

// ignore discards the current token
func (t *Tokenizer) ignore() {
	t.start = t.pos
}

// Tokenize processes the input and returns all tokens, ending with EOF
func (t *Tokenizer) Tokenize() []Token {
	iterations := 0
	maxIterations := len(t.input) + 1024

	for {
		// Safeguard: Check for infinite loops
		iterations++
		if iterations > maxIterations {
			t.emitError("tokenizer exceeded maximum iterations - possible infinite loop")
			break
		}
		if len(t.tokens) >= t.maxTokens {
			t.tokens = append(t.tokens, Token{
				Type:  TokenError,
				Value: "too many tokens - possible infinite loop or memory exhaustion",
				Pos:   t.file.Pos(t.pos),
				File:  t.file,
			})
			break
		}

		oldPos := t.pos
		r := t.next()

		switch {
		case r == 0 && t.pos >= len(t.input):
			t.start = len(t.input)
			t.tokens = append(t.tokens, Token{Type: TokenEOF, Pos: t.file.Pos(len(t.input)), File: t.file, Space: t.space, BOL: t.bol})
			return t.tokens

		case r == '\n':
			t.emit(TokenNewline)
			t.bol = true
			t.space = true

		case r == ' ' || r == '\t' || r == '\r' || r == '\f' || r == '\v':
			t.space = true
			t.ignore()

		case r == '/':
			if !t.scanComment() {
				t.scanOperator(r)
			}

		case r == '"':
			t.scanString('"')

		case r == '\'':
			t.scanString('\'')

		case r == '.' && isDigit(t.peek()):
			t.scanNumber()

		case isIdentStart(r):
			t.scanIdentifier()

		case isDigit(r):
			t.scanNumber()

		default:
			t.scanOperator(r)
		}

		// Safeguard: Ensure position advanced
		if t.pos == oldPos {
			t.emitError(fmt.Sprintf("tokenizer stuck at position %d", t.pos))
			t.pos++
			t.start = t.pos
		}
	}

	t.tokens = append(t.tokens, Token{Type: TokenEOF, Pos: t.file.Pos(t.pos), File: t.file})
	return t.tokens
}

// scanComment handles line and block comments. The leading slash is already consumed.
func (t *Tokenizer) scanComment() bool {
	switch t.peek() {
	case '/':
		t.next()
		t.scanLineComment()
		return true
	case '*':
		t.next()
		t.scanBlockComment()
		return true
	}
	return false
}

// scanLineComment scans a // comment up to, not including, the newline
func (t *Tokenizer) scanLineComment() {
	doc := false
	switch t.peek() {
	case '/':
		doc = t.peekN(2) != '/'
	case '!':
		doc = true
	}
	for {
		r := t.next()
		if r == '\n' {
			t.backup()
			break
		}
		if r == 0 {
			break
		}
	}
	t.emitComment(TokenLineComment, doc)
}

// scanBlockComment scans a /* */ comment
func (t *Tokenizer) scanBlockComment() {
	doc := false
	switch t.peek() {
	case '*':
		second := t.peekN(2)
		doc = second != '/' && second != '*'
	case '!':
		doc = true
	}
	for {
		r := t.next()
		if r == 0 {
			t.emitError("unterminated block comment")
			return
		}
		if r == '*' && t.peek() == '/' {
			t.next()
			break
		}
	}
	t.emitComment(TokenBlockComment, doc)
}

// emitComment emits a comment; comments separate tokens like whitespace but do not end a line
func (t *Tokenizer) emitComment(tokenType TokenType, doc bool) {
	if doc {
		tokenType = TokenDoxygenComment
	}
	bol := t.bol
	t.emit(tokenType)
	t.bol = bol
	t.space = true
}

// scanString scans a string or character literal whose opening quote is already consumed
func (t *Tokenizer) scanString(quote rune) {
	for {
		r := t.next()
		switch r {
		case '\\':
			if t.next() == 0 {
				t.emitError("unterminated literal")
				return
			}
		case '\n', 0:
			if r == '\n' {
				t.backup()
			}
			if quote == '"' {
				t.emitError("unterminated string literal")
			} else {
				t.emitError("unterminated character literal")
			}
			return
		case quote:
			t.scanSuffix()
			if quote == '"' {
				t.emit(TokenString)
			} else {
				t.emit(TokenCharLiteral)
			}
			return
		}
	}
}

// scanRawString scans R"delim( ... )delim"; the opening quote is already consumed
func (t *Tokenizer) scanRawString() {
	open := strings.IndexByte(t.input[t.pos:], '(')
	if open < 0 || open > 16 || strings.ContainsAny(t.input[t.pos:t.pos+open], " \\)\t\n") {
		t.emitError("invalid raw string delimiter")
		return
	}
	delim := t.input[t.pos : t.pos+open]
	body := t.pos + open + 1
	end := strings.Index(t.input[body:], ")"+delim+"\"")
	if end < 0 {
		t.pos = len(t.input)
		t.emitError("unterminated raw string literal")
		return
	}
	stop := body + end + len(delim) + 2
	for i := t.pos; i < stop; i++ {
		if t.input[i] == '\n' {
			t.file.AddLine(i + 1)
		}
	}
	t.pos = stop
	t.scanSuffix()
	t.emitValue(TokenString, t.input[t.start:t.pos])
}

// scanSuffix consumes a user-defined literal suffix
func (t *Tokenizer) scanSuffix() {
	if !isIdentStart(t.peek()) {
		return
	}
	for isIdentChar(t.peek()) {
		t.next()
	}
}

// scanIdentifier scans identifiers, keywords and encoding-prefixed literals
func (t *Tokenizer) scanIdentifier() {
	for {
		r := t.next()
		if !isIdentChar(r) {
			t.backup()
			break
		}
	}

	word := strings.ReplaceAll(t.input[t.start:t.pos], "\\\n", "")
	switch t.peek() {
	case '"':
		switch word {
		case "L", "u", "U", "u8":
			t.next()
			t.scanString('"')
			return
		case "R", "LR", "uR", "UR", "u8R":
			t.next()
			t.scanRawString()
			return
		}
	case '\'':
		switch word {
		case "L", "u", "U", "u8":
			t.next()
			t.scanString('\'')
			return
		}
	}
	t.emit(TokenIdentifier)
}

// scanNumber scans a preprocessing number
func (t *Tokenizer) scanNumber() {
	for {
		mark := t.pos
		r := t.next()
		switch {
		case r == 'e' || r == 'E' || r == 'p' || r == 'P':
			if s := t.peek(); s == '+' || s == '-' {
				t.next()
			}
		case r == '\'':
			// digit separator
			if !isIdentChar(t.peek()) {
				t.pos = mark
				t.emit(TokenNumber)
				return
			}
		case isIdentChar(r) || r == '.':
		default:
			t.pos = mark
			t.emit(TokenNumber)
			return
		}
	}
}

// operators lists multi-character punctuators, longest first
var operators = []struct {
	text string
	typ  TokenType
}{
	{"<<=", TokenLeftShiftEquals},
	{">>=", TokenRightShiftEquals},
	{"<=>", TokenSpaceship},
	{"...", TokenEllipsis},
	{"->*", TokenArrowStar},
	{"::", TokenDoubleColon},
	{"->", TokenArrow},
	{".*", TokenDotStar},
	{"##", TokenHashHash},
	{"==", TokenDoubleEquals},
	{"!=", TokenNotEquals},
	{"<=", TokenLessEqual},
	{">=", TokenGreaterEqual},
	{"&&", TokenDoubleAmp},
	{"||", TokenDoublePipe},
	{"++", TokenPlusPlus},
	{"--", TokenMinusMinus},
	{"+=", TokenPlusEquals},
	{"-=", TokenMinusEquals},
	{"*=", TokenStarEquals},
	{"/=", TokenSlashEquals},
	{"%=", TokenPercentEquals},
	{"&=", TokenAmpEquals},
	{"|=", TokenPipeEquals},
	{"^=", TokenCaretEquals},
	{"<<", TokenLeftShift},
	{">>", TokenRightShift},
}

var singleOperators = map[rune]TokenType{
	'(':  TokenLeftParen,
	')':  TokenRightParen,
	'{':  TokenLeftBrace,
	'}':  TokenRightBrace,
	'[':  TokenLeftBracket,
	']':  TokenRightBracket,
	';':  TokenSemicolon,
	':':  TokenColon,
	',':  TokenComma,
	'.':  TokenDot,
	'=':  TokenEquals,
	'<':  TokenLess,
	'>':  TokenGreater,
	'&':  TokenAmpersand,
	'|':  TokenPipe,
	'^':  TokenCaret,
	'~':  TokenTilde,
	'!':  TokenExclamation,
	'?':  TokenQuestion,
	'+':  TokenPlus,
	'-':  TokenMinus,
	'*':  TokenStar,
	'/':  TokenSlash,
	'%':  TokenPercent,
	'#':  TokenHash,
	'\\': TokenBackslash,
}

// scanOperator scans punctuators; r has already been consumed
func (t *Tokenizer) scanOperator(r rune) {
	at := t.pos - utf8.RuneLen(r)
	if at >= 0 && at < len(t.input) && t.input[at] == byte(r) {
		rest := t.input[at:]
		for _, op := range operators {
			if strings.HasPrefix(rest, op.text) {
				t.pos = at + len(op.text)
				t.emitValue(op.typ, op.text)
				return
			}
		}
	}
	if tt, ok := singleOperators[r]; ok {
		t.emit(tt)
		return
	}
	t.emit(TokenUnknown)
}

// HasErrors returns true if any error tokens were found
func (t *Tokenizer) HasErrors() bool {
	for _, token := range t.tokens {
		if token.Type == TokenError {
			return true
		}
	}
	return false
}

// GetErrors returns all error tokens
func (t *Tokenizer) GetErrors() []Token {
	var errors []Token
	for _, token := range t.tokens {
		if token.Type == TokenError {
			errors = append(errors, token)
		}
	}
	return errors
}

// Lex tokenizes a fragment and drops comments, newlines and the EOF token
func Lex(name, text string) []Token {
	all := NewTokenizer(name, text).Tokenize()
	out := make([]Token, 0, len(all))
	for _, tok := range all {
		if tok.IsComment() || tok.Type == TokenNewline || tok.Type == TokenEOF {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= 0x80 && unicode.IsLetter(r))
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || isDigit(r) || (r >= 0x80 && unicode.IsDigit(r))
}
