// Package macro implements the macro table of the preprocessor and the expansion engine
// that rewrites token sequences using it.
package macro

import (
	"fmt"
	"strings"

	"cppparser/pkg/ast"
	"cppparser/pkg/diag"
	"cppparser/pkg/lexer"
)

// NodeKind identifies the form of a replacement-list node
type NodeKind int

const (
	NodeToken NodeKind = iota // literal token
	NodeParam                 // reference to a parameter
	NodeVAOpt                 // __VA_OPT__( ... )
)

// Node is one element of a macro replacement list
type Node struct {
	Kind      NodeKind
	Tok       lexer.Token // NodeToken
	Param     int         // NodeParam: index into Macro.Params
	Stringify bool        // #param
	Expand    bool        // the argument is macro-expanded before substitution
	Paste     bool        // glued to the following node by ##
	Space     bool        // preceded by whitespace in the definition
	Nested    []Node      // NodeVAOpt contents
}

// Macro is a preprocessor macro definition
type Macro struct {
	Name       string
	Params     []string
	HasParams  bool
	Variadic   int // index of the variadic parameter, or -1
	Body       []Node
	Visibility ast.Visibility
	Loc        diag.Location

	// Dynamic computes the replacement of built-in macros such as __LINE__
	Dynamic func(at lexer.Token) []lexer.Token
}

// IsVariadic reports whether the macro accepts a variable argument list
func (m *Macro) IsVariadic() bool {
	return m.Variadic >= 0
}

func (m *Macro) paramIndex(name string) int {
	for i, p := range m.Params {
		if p == name {
			return i
		}
	}
	return -1
}

// ParseDefinition builds a macro from the tokens of a #define line that follow the
// directive name
func ParseDefinition(toks []lexer.Token) (*Macro, error) {
	if len(toks) == 0 {
		return nil, fmt.Errorf("macro name missing")
	}
	name := toks[0]
	if !name.IsIdentifierLike() {
		return nil, fmt.Errorf("macro name must be an identifier, found %q", name.Value)
	}
	if name.Value == "defined" {
		return nil, fmt.Errorf("\"defined\" cannot be used as a macro name")
	}
	m := &Macro{Name: name.Value, Variadic: -1, Loc: name.Location()}
	rest := toks[1:]

	if len(rest) > 0 && rest[0].Type == lexer.TokenLeftParen && !rest[0].Space {
		m.HasParams = true
		n, err := m.parseParams(rest)
		if err != nil {
			return nil, err
		}
		rest = rest[n:]
	}

	body, err := m.parseBody(rest)
	if err != nil {
		return nil, err
	}
	m.Body = body
	return m, nil
}

// parseParams reads "(a, b, ...)" and returns the number of tokens consumed
func (m *Macro) parseParams(toks []lexer.Token) (int, error) {
	i := 1
	if i < len(toks) && toks[i].Type == lexer.TokenRightParen {
		return i + 1, nil
	}
	for i < len(toks) {
		tok := toks[i]
		switch {
		case tok.Type == lexer.TokenEllipsis:
			m.Variadic = len(m.Params)
			m.Params = append(m.Params, "__VA_ARGS__")
			i++
		case tok.IsIdentifierLike():
			if m.paramIndex(tok.Value) >= 0 {
				return 0, fmt.Errorf("duplicate macro parameter %q", tok.Value)
			}
			if tok.Value == "__VA_ARGS__" {
				return 0, fmt.Errorf("__VA_ARGS__ can only appear in the expansion of a variadic macro")
			}
			m.Params = append(m.Params, tok.Value)
			i++
			if i < len(toks) && toks[i].Type == lexer.TokenEllipsis {
				m.Variadic = len(m.Params) - 1
				i++
			}
		default:
			return 0, fmt.Errorf("expected parameter name, found %q", tok.Value)
		}
		if i >= len(toks) {
			break
		}
		switch {
		case toks[i].Type == lexer.TokenRightParen:
			return i + 1, nil
		case toks[i].Type == lexer.TokenComma && m.Variadic < 0:
			i++
		case m.Variadic >= 0:
			return 0, fmt.Errorf("missing ')' after variadic parameter")
		default:
			return 0, fmt.Errorf("expected ',' or ')' in macro parameter list, found %q", toks[i].Value)
		}
	}
	return 0, fmt.Errorf("missing ')' in macro parameter list")
}

func (m *Macro) parseBody(toks []lexer.Token) ([]Node, error) {
	var nodes []Node
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch {
		case tok.Type == lexer.TokenHash && m.HasParams:
			if i+1 >= len(toks) {
				return nil, fmt.Errorf("'#' is not followed by a macro parameter")
			}
			idx := m.paramIndex(toks[i+1].Value)
			if idx < 0 {
				return nil, fmt.Errorf("'#' is not followed by a macro parameter")
			}
			nodes = append(nodes, Node{Kind: NodeParam, Param: idx, Stringify: true, Space: tok.Space})
			i++
		case tok.Type == lexer.TokenHashHash:
			if len(nodes) == 0 || i == len(toks)-1 {
				return nil, fmt.Errorf("'##' cannot appear at either end of a macro expansion")
			}
			nodes[len(nodes)-1].Paste = true
		case tok.Value == "__VA_OPT__" && m.IsVariadic():
			end, err := matchParen(toks, i+1)
			if err != nil {
				return nil, fmt.Errorf("__VA_OPT__: %w", err)
			}
			nested, err := m.parseBody(toks[i+2 : end])
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, Node{Kind: NodeVAOpt, Nested: nested, Space: tok.Space})
			i = end
		case tok.IsIdentifierLike() && m.paramIndex(tok.Value) >= 0:
			nodes = append(nodes, Node{Kind: NodeParam, Param: m.paramIndex(tok.Value), Space: tok.Space})
		case tok.Value == "__VA_ARGS__" && !m.IsVariadic():
			return nil, fmt.Errorf("__VA_ARGS__ can only appear in the expansion of a variadic macro")
		default:
			nodes = append(nodes, Node{Kind: NodeToken, Tok: tok, Space: tok.Space})
		}
	}
	for i := range nodes {
		n := &nodes[i]
		if n.Kind == NodeParam {
			n.Expand = !n.Stringify && !n.Paste && (i == 0 || !nodes[i-1].Paste)
		}
	}
	return nodes, nil
}

// matchParen returns the index of the parenthesis closing the one at open
func matchParen(toks []lexer.Token, open int) (int, error) {
	if open >= len(toks) || toks[open].Type != lexer.TokenLeftParen {
		return 0, fmt.Errorf("missing '('")
	}
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].Type {
		case lexer.TokenLeftParen:
			depth++
		case lexer.TokenRightParen:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("missing ')'")
}

// ParseCommandLine builds a macro from a -D style definition: NAME, NAME=VALUE or
// NAME(args)=VALUE. A bare NAME is defined as 1.
func ParseCommandLine(def string) (*Macro, error) {
	name, value, found := strings.Cut(def, "=")
	if !found {
		value = "1"
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("invalid macro definition %q", def)
	}
	m, err := ParseDefinition(lexer.Lex("<command line>", name+" "+value))
	if err != nil {
		return nil, fmt.Errorf("invalid macro definition %q: %w", def, err)
	}
	return m, nil
}

// String renders the macro as a #define line
func (m *Macro) String() string {
	var sb strings.Builder
	sb.WriteString("#define ")
	sb.WriteString(m.Name)
	if m.HasParams {
		params := make([]string, len(m.Params))
		for i, p := range m.Params {
			switch {
			case i == m.Variadic && p == "__VA_ARGS__":
				params[i] = "..."
			case i == m.Variadic:
				params[i] = p + "..."
			default:
				params[i] = p
			}
		}
		sb.WriteString("(" + strings.Join(params, ", ") + ")")
	}
	if body := m.BodyString(); body != "" {
		sb.WriteString(" " + body)
	}
	return sb.String()
}

// BodyString renders the replacement list
func (m *Macro) BodyString() string {
	var sb strings.Builder
	m.writeNodes(&sb, m.Body)
	return sb.String()
}

func (m *Macro) writeNodes(sb *strings.Builder, nodes []Node) {
	for i, n := range nodes {
		if i > 0 && (n.Space || nodes[i-1].Paste) {
			sb.WriteString(" ")
		}
		switch n.Kind {
		case NodeToken:
			sb.WriteString(n.Tok.Value)
		case NodeParam:
			if n.Stringify {
				sb.WriteString("#")
			}
			sb.WriteString(m.Params[n.Param])
		case NodeVAOpt:
			sb.WriteString("__VA_OPT__(")
			m.writeNodes(sb, n.Nested)
			sb.WriteString(")")
		}
		if n.Paste {
			sb.WriteString(" ##")
		}
	}
}

// Equal reports whether two definitions are identical in the sense that permits a
// redefinition without a diagnostic
func (m *Macro) Equal(other *Macro) bool {
	if other == nil || m.Name != other.Name || m.HasParams != other.HasParams || m.Variadic != other.Variadic {
		return false
	}
	if len(m.Params) != len(other.Params) {
		return false
	}
	for i := range m.Params {
		if m.Params[i] != other.Params[i] {
			return false
		}
	}
	return m.BodyString() == other.BodyString()
}

// DetermineType classifies the replacement of an object-like macro that expands to a
// single constant. It returns nil when the macro is not such a constant.
func (m *Macro) DetermineType(in *ast.Interner) ast.Type {
	if m.HasParams || m.Dynamic != nil {
		return nil
	}
	body := m.Body
	// strip enclosing parentheses and a leading sign
	for len(body) >= 3 && body[0].Kind == NodeToken && body[0].Tok.Type == lexer.TokenLeftParen &&
		body[len(body)-1].Kind == NodeToken && body[len(body)-1].Tok.Type == lexer.TokenRightParen {
		body = body[1 : len(body)-1]
	}
	if len(body) == 2 && body[0].Kind == NodeToken && (body[0].Tok.Type == lexer.TokenMinus || body[0].Tok.Type == lexer.TokenPlus) {
		body = body[1:]
	}
	if len(body) != 1 || body[0].Kind != NodeToken {
		return nil
	}
	tok := body[0].Tok
	switch tok.Type {
	case lexer.TokenNumber:
		return numberType(tok.Value, in)
	case lexer.TokenString:
		return in.Pointer(in.CV(in.Simple(ast.KindChar, 0), true, false))
	case lexer.TokenCharLiteral:
		return in.Simple(ast.KindChar, 0)
	case lexer.TokenTrue, lexer.TokenFalse:
		return in.Simple(ast.KindBool, 0)
	}
	return nil
}

func numberType(text string, in *ast.Interner) ast.Type {
	lower := strings.ToLower(strings.ReplaceAll(text, "'", ""))
	hex := strings.HasPrefix(lower, "0x")
	isFloat := strings.Contains(lower, ".") ||
		(!hex && strings.Contains(lower, "e")) ||
		(hex && strings.Contains(lower, "p"))
	if isFloat {
		switch {
		case strings.HasSuffix(lower, "f"):
			return in.Simple(ast.KindFloat, 0)
		case strings.HasSuffix(lower, "l"):
			return in.Simple(ast.KindDouble, ast.FlagLong)
		}
		return in.Simple(ast.KindDouble, 0)
	}
	suffix := lower[len(strings.TrimRight(lower, "ulz")):]
	var flags ast.SimpleFlags
	if strings.Contains(suffix, "u") {
		flags |= ast.FlagUnsigned
	}
	switch {
	case strings.Contains(suffix, "ll"):
		flags |= ast.FlagLongLong
	case strings.Contains(suffix, "l"), strings.Contains(suffix, "z"):
		flags |= ast.FlagLong
	}
	return in.Simple(ast.KindInt, flags)
}
