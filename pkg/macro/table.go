package macro

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"cppparser/pkg/diag"
	"cppparser/pkg/lexer"
)

// Token is a preprocessing token carrying the hide set of the expansions that produced it
type Token struct {
	lexer.Token
	Hide *HideSet
}

// Wrap converts lexer tokens into expansion tokens with empty hide sets
func Wrap(toks []lexer.Token) []Token {
	out := make([]Token, len(toks))
	for i, t := range toks {
		out[i] = Token{Token: t}
	}
	return out
}

// Unwrap drops the hide sets
func Unwrap(toks []Token) []lexer.Token {
	out := make([]lexer.Token, len(toks))
	for i, t := range toks {
		out[i] = t.Token
	}
	return out
}

// Reader supplies tokens to the expansion engine
type Reader interface {
	// Read returns the next unexpanded token; ok is false at the end of input.
	Read() (tok Token, ok bool, err error)
	// Unread pushes toks back so that they are read next, in order.
	Unread(toks []Token)
}

// Options control one expansion run
type Options struct {
	// ExpandUndefined replaces identifiers that are not macros with 0, as in #if
	ExpandUndefined bool
	// Ignores lists macro names that are left unexpanded
	Ignores map[string]bool
}

// Error is an expansion failure at the location of the macro name that caused it
type Error struct {
	Loc diag.Location
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Loc, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Table holds the macro definitions of one preprocessing session
type Table struct {
	macros map[string]*Macro
	diags  *diag.Collector
}

// NewTable creates an empty macro table reporting to diags. A nil collector discards
// diagnostics.
func NewTable(diags *diag.Collector) *Table {
	if diags == nil {
		diags = diag.NewCollector(nil, 0)
	}
	return &Table{macros: make(map[string]*Macro), diags: diags}
}

// Define registers m, replacing any previous definition, which is returned
func (t *Table) Define(m *Macro) *Macro {
	prev := t.macros[m.Name]
	t.macros[m.Name] = m
	return prev
}

// Undefine removes a definition and reports whether one existed
func (t *Table) Undefine(name string) bool {
	_, ok := t.macros[name]
	delete(t.macros, name)
	return ok
}

// Lookup returns the definition of name, or nil
func (t *Table) Lookup(name string) *Macro {
	return t.macros[name]
}

// IsDefined reports whether name is a macro
func (t *Table) IsDefined(name string) bool {
	_, ok := t.macros[name]
	return ok
}

// Names returns the defined macro names in sorted order
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.macros))
	for name := range t.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of definitions
func (t *Table) Len() int {
	return len(t.macros)
}

// Expand invokes the macro name with args and returns the fully expanded text
func (t *Table) Expand(name string, args []string, expandUndefined bool, ignores map[string]bool) (string, error) {
	m := t.Lookup(name)
	if m == nil {
		return "", fmt.Errorf("macro %s is not defined", name)
	}
	text := name
	if m.HasParams {
		text += "(" + strings.Join(args, ", ") + ")"
	}
	return t.ExpandText(text, expandUndefined, ignores)
}

// ExpandText lexes text and returns its expansion
func (t *Table) ExpandText(text string, expandUndefined bool, ignores map[string]bool) (string, error) {
	toks, err := t.ExpandTokens(lexer.Lex("<expansion>", text), Options{ExpandUndefined: expandUndefined, Ignores: ignores})
	if err != nil {
		return "", err
	}
	return Render(toks), nil
}

// ExpandTokens fully expands a finite token sequence
func (t *Table) ExpandTokens(toks []lexer.Token, opts Options) ([]lexer.Token, error) {
	out, err := t.expandAll(Wrap(toks), opts)
	if err != nil {
		return nil, err
	}
	return Unwrap(out), nil
}

func (t *Table) expandAll(toks []Token, opts Options) ([]Token, error) {
	r := &SliceReader{toks: toks}
	var out []Token
	for {
		tok, ok, err := t.Next(r, opts)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, tok)
	}
}

// Next returns the next token of r that is not a macro invocation, expanding
// invocations in place and rescanning their replacement
func (t *Table) Next(r Reader, opts Options) (Token, bool, error) {
	for {
		tok, ok, err := r.Read()
		if err != nil || !ok {
			return Token{}, false, err
		}
		if !tok.IsIdentifierLike() || tok.Hide.Contains(tok.Value) || opts.Ignores[tok.Value] {
			return tok, true, nil
		}
		m := t.macros[tok.Value]
		if m == nil {
			if opts.ExpandUndefined && tok.Type != lexer.TokenTrue && tok.Type != lexer.TokenFalse {
				zero := tok
				zero.Type = lexer.TokenNumber
				zero.Value = "0"
				return zero, true, nil
			}
			return tok, true, nil
		}

		switch {
		case m.Dynamic != nil:
			repl := Wrap(m.Dynamic(tok.Token))
			hs := tok.Hide.Add(m.Name)
			for i := range repl {
				repl[i].Hide = hs
				repl[i].Pos, repl[i].File = tok.Pos, tok.File
			}
			if len(repl) > 0 {
				repl[0].Space = tok.Space
			}
			r.Unread(repl)
		case !m.HasParams:
			repl, err := t.substitute(m, nil, tok.Hide.Add(m.Name), tok, opts)
			if err != nil {
				return Token{}, false, err
			}
			r.Unread(repl)
		default:
			next, ok, err := r.Read()
			if err != nil {
				return Token{}, false, err
			}
			if !ok || next.Type != lexer.TokenLeftParen {
				if ok {
					r.Unread([]Token{next})
				}
				if opts.ExpandUndefined {
					tok.Type, tok.Value = lexer.TokenNumber, "0"
				}
				return tok, true, nil
			}
			args, raw, rparen, err := collectArgs(r, m)
			if err != nil {
				return Token{}, false, &Error{Loc: tok.Location(), Err: err}
			}
			if err := checkArgCount(m, args); err != nil {
				t.diags.Errorf(diag.CategoryMacro, tok.Location(), "%v", err)
				// leave the invocation unexpanded
				invocation := append([]Token{next}, raw...)
				r.Unread(append(invocation, rparen))
				tok.Hide = tok.Hide.Add(m.Name)
				return tok, true, nil
			}
			hs := tok.Hide.Intersect(rparen.Hide).Add(m.Name)
			repl, err := t.substitute(m, args, hs, tok, opts)
			if err != nil {
				return Token{}, false, err
			}
			r.Unread(repl)
		}
	}
}

// collectArgs reads the arguments of a function-like invocation after its opening
// parenthesis. It returns the arguments, every token read before the closing
// parenthesis, and the closing parenthesis itself.
func collectArgs(r Reader, m *Macro) (args [][]Token, raw []Token, rparen Token, err error) {
	depth := 0
	cur := []Token{}
	for {
		tok, ok, err := r.Read()
		if err != nil {
			return nil, nil, Token{}, err
		}
		if !ok {
			return nil, nil, Token{}, fmt.Errorf("unterminated argument list invoking macro %q", m.Name)
		}
		if tok.IsComment() {
			continue
		}
		switch tok.Type {
		case lexer.TokenLeftParen:
			depth++
		case lexer.TokenRightParen:
			if depth == 0 {
				args = append(args, cur)
				return args, raw, tok, nil
			}
			depth--
		case lexer.TokenComma:
			if depth == 0 && !(m.IsVariadic() && len(args) >= m.Variadic) {
				args = append(args, cur)
				cur = []Token{}
				raw = append(raw, tok)
				continue
			}
		}
		cur = append(cur, tok)
		raw = append(raw, tok)
	}
}

func checkArgCount(m *Macro, args [][]Token) error {
	n := len(args)
	want := len(m.Params)
	if want == 0 && n == 1 && len(args[0]) == 0 {
		return nil
	}
	if m.IsVariadic() {
		if n >= want-1 {
			return nil
		}
		return fmt.Errorf("macro %q requires at least %d arguments, but only %d given", m.Name, want-1, n)
	}
	if n != want {
		return fmt.Errorf("macro %q passed %d arguments, but takes %d", m.Name, n, want)
	}
	return nil
}

// Substitute produces the replacement of one invocation of m. Each argument is a token
// list; arguments are expanded before substitution unless they are operands of # or ##.
// Every produced token gets hs added to its hide set and takes the position of at.
func (t *Table) Substitute(m *Macro, args [][]Token, hs *HideSet, at Token) ([]Token, error) {
	return t.substitute(m, args, hs, at, Options{})
}

func (t *Table) substitute(m *Macro, args [][]Token, hs *HideSet, at Token, opts Options) ([]Token, error) {
	s := &substitution{table: t, m: m, args: args, expanded: make(map[int][]Token)}
	// arguments are expanded on their own; undefined names are left to the rescan
	s.opts = Options{Ignores: opts.Ignores}
	out, err := s.nodes(m.Body)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Hide = out[i].Hide.Union(hs)
		out[i].Pos, out[i].File = at.Pos, at.File
		out[i].BOL = false
	}
	if len(out) > 0 {
		out[0].Space = at.Space
	}
	return out, nil
}

type substitution struct {
	table    *Table
	m        *Macro
	args     [][]Token
	opts     Options
	expanded map[int][]Token
}

func (s *substitution) arg(i int) []Token {
	if i < len(s.args) {
		return s.args[i]
	}
	return nil
}

func (s *substitution) expandedArg(i int) ([]Token, error) {
	if toks, ok := s.expanded[i]; ok {
		return toks, nil
	}
	toks, err := s.table.expandAll(s.arg(i), s.opts)
	if err != nil {
		return nil, err
	}
	s.expanded[i] = toks
	return toks, nil
}

func (s *substitution) nodes(nodes []Node) ([]Token, error) {
	var out []Token
	pending := -1 // index of the left operand of a pending ##
	for i, n := range nodes {
		start := len(out)

		if n.Kind == NodeParam && n.Param == s.m.Variadic && !n.Stringify && i > 0 &&
			nodes[i-1].Paste && nodes[i-1].Kind == NodeToken && nodes[i-1].Tok.Type == lexer.TokenComma &&
			pending == start-1 {
			// GNU comma elision: ", ## __VA_ARGS__"
			arg := s.arg(n.Param)
			if len(arg) == 0 {
				out = out[:start-1]
			} else {
				out = appendTokens(out, arg, n.Space)
			}
			pending = -1
			continue
		}

		var err error
		out, err = s.node(out, n)
		if err != nil {
			return nil, err
		}
		produced := len(out) > start

		if pending >= 0 && produced {
			glued, err := s.paste(out[pending], out[start])
			if err != nil {
				return nil, err
			}
			tail := append([]Token{}, out[start+1:]...)
			out = append(append(out[:pending], glued...), tail...)
		}
		switch {
		case !n.Paste:
			pending = -1
		case produced || pending < 0:
			if len(out) > 0 && produced {
				pending = len(out) - 1
			}
		}
	}
	return out, nil
}

func appendTokens(out, toks []Token, space bool) []Token {
	start := len(out)
	out = append(out, toks...)
	if len(out) > start {
		out[start].Space = space
	}
	return out
}

func (s *substitution) node(out []Token, n Node) ([]Token, error) {
	switch n.Kind {
	case NodeToken:
		tok := Token{Token: n.Tok}
		tok.Space = n.Space
		return append(out, tok), nil
	case NodeParam:
		if n.Stringify {
			str := Token{Token: lexer.Token{Type: lexer.TokenString, Value: Stringify(Render(Unwrap(s.arg(n.Param)))), Space: n.Space}}
			return append(out, str), nil
		}
		if !n.Expand {
			return appendTokens(out, s.arg(n.Param), n.Space), nil
		}
		toks, err := s.expandedArg(n.Param)
		if err != nil {
			return nil, err
		}
		return appendTokens(out, toks, n.Space), nil
	case NodeVAOpt:
		if len(s.arg(s.m.Variadic)) == 0 {
			return out, nil
		}
		nested, err := s.nodes(n.Nested)
		if err != nil {
			return nil, err
		}
		return appendTokens(out, nested, n.Space), nil
	}
	return out, nil
}

// paste glues two tokens and re-lexes the result. A result that is not a single token
// is reported and the operands are kept apart.
func (s *substitution) paste(a, b Token) ([]Token, error) {
	text := a.Value + b.Value
	toks := lexer.Lex("<paste>", text)
	if len(toks) != 1 {
		s.table.diags.Warnf(diag.CategoryMacro, a.Location(),
			"pasting %q and %q does not give a valid preprocessing token", a.Value, b.Value)
		b.Space = false
		return []Token{a, b}, nil
	}
	glued := Token{Token: toks[0], Hide: a.Hide.Intersect(b.Hide)}
	glued.Space = a.Space
	glued.Pos, glued.File = a.Pos, a.File
	return []Token{glued}, nil
}

// Stringify quotes text as a string literal. Quotes are escaped, as are backslashes
// inside string and character literals, and runs of whitespace outside literals
// collapse to one space.
func Stringify(text string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	var quote rune
	space, escaped := false, false
	for _, r := range strings.TrimSpace(text) {
		if quote == 0 && unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		switch {
		case quote != 0 && escaped:
			escaped = false
		case quote != 0 && r == '\\':
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
		}
		if r == '"' || r == '\\' && quote != 0 {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
	return sb.String()
}

// Render joins tokens into text, separating tokens that were separated in the source
// or that would otherwise lex as one
func Render(toks []lexer.Token) string {
	var sb strings.Builder
	for i, tok := range toks {
		if i > 0 && (tok.Space || wouldMerge(toks[i-1], tok)) {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Value)
	}
	return sb.String()
}

func wouldMerge(a, b lexer.Token) bool {
	word := func(t lexer.Token) bool {
		return t.IsIdentifierLike() || t.Type == lexer.TokenNumber
	}
	if word(a) && word(b) {
		return true
	}
	if word(a) || word(b) || a.Type == lexer.TokenString || b.Type == lexer.TokenString {
		return false
	}
	return len(lexer.Lex("<render>", a.Value+b.Value)) == 1
}

// SliceReader reads tokens from a slice
type SliceReader struct {
	toks []Token
}

// NewSliceReader creates a reader over toks
func NewSliceReader(toks []Token) *SliceReader {
	return &SliceReader{toks: toks}
}

// Read implements Reader
func (r *SliceReader) Read() (Token, bool, error) {
	if len(r.toks) == 0 {
		return Token{}, false, nil
	}
	tok := r.toks[0]
	r.toks = r.toks[1:]
	return tok, true, nil
}

// Unread implements Reader
func (r *SliceReader) Unread(toks []Token) {
	if len(toks) == 0 {
		return
	}
	r.toks = append(append(make([]Token, 0, len(toks)+len(r.toks)), toks...), r.toks...)
}
