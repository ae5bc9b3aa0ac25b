package cpp

import (
	"fmt"
	"strings"

	"cppparser/pkg/ast"
	"cppparser/pkg/diag"
	"cppparser/pkg/lexer"
	"cppparser/pkg/macro"
)

// readLine consumes the rest of a directive line, dropping comments. It also records
// the offset at which the following line starts.
func (f *fileState) readLine() []lexer.Token {
	var line []lexer.Token
	f.nextLine = -1
	for f.pos < len(f.toks) {
		tok := f.toks[f.pos]
		if tok.Type == lexer.TokenEOF {
			break
		}
		f.pos++
		if tok.Type == lexer.TokenNewline {
			f.nextLine = tok.Offset() + 1
			break
		}
		if !tok.IsComment() {
			line = append(line, tok)
		}
	}
	return line
}

// directive handles the line starting with hash
func (pp *Preprocessor) directive(f *fileState) error {
	line := f.readLine()
	if len(line) == 0 {
		return nil // null directive
	}
	name, args := line[0], line[1:]
	loc := name.Location()
	depth := len(f.conds)

	switch name.Value {
	case "if", "ifdef", "ifndef":
		return pp.ifGroup(f, name.Value, args, loc)
	case "elif", "elifdef", "elifndef":
		return pp.elifGroup(f, name.Value, args, loc)
	case "else":
		return pp.elseGroup(f, loc)
	case "endif":
		return pp.endifGroup(f, loc)
	}
	if !f.active() {
		return nil
	}
	if depth == 0 {
		f.outside = true
	}

	switch name.Value {
	case "define":
		pp.define(args, loc)
	case "undef":
		if len(args) == 0 || !args[0].IsIdentifierLike() {
			pp.diags.Errorf(diag.CategoryDirective, loc, "macro name missing in #undef")
			return nil
		}
		pp.macros.Undefine(args[0].Value)
	case "include", "include_next", "import":
		return pp.include(f, args, name.Value == "include_next", loc)
	case "error":
		pp.diags.Errorf(diag.CategoryDirective, loc, "#error %s", macro.Render(args))
	case "warning":
		pp.diags.Warnf(diag.CategoryDirective, loc, "#warning %s", macro.Render(args))
	case "pragma":
		if len(args) > 0 && args[0].Value == "once" {
			pp.once[f.name] = true
		}
	case "line":
		pp.lineDirective(f, args, loc)
	case "ident", "sccs", "assert", "unassert":
	default:
		if name.Type == lexer.TokenNumber {
			// GNU line marker: # 12 "file" flags
			pp.lineDirective(f, line, loc)
			return nil
		}
		pp.diags.Warnf(diag.CategoryDirective, loc, "unknown preprocessing directive #%s", name.Value)
	}
	return nil
}

func (pp *Preprocessor) define(args []lexer.Token, loc diag.Location) {
	m, err := macro.ParseDefinition(args)
	if err != nil {
		pp.diags.Errorf(diag.CategoryDirective, loc, "%v", err)
		return
	}
	m.Visibility = pp.visibility()
	if prev := pp.macros.Define(m); prev != nil && !prev.Equal(m) {
		pp.diags.Warnf(diag.CategoryMacro, loc, "%q redefined", m.Name)
	}
	pp.logger.Debug("cpp.define", "name", m.Name, "loc", loc.String())
}

func (pp *Preprocessor) ifGroup(f *fileState, kind string, args []lexer.Token, loc diag.Location) error {
	c := cond{loc: loc}
	if !f.active() {
		c.taken = true
		f.conds = append(f.conds, c)
		return nil
	}
	switch kind {
	case "if":
		c.active = pp.evalIf(args, loc)
	case "ifdef", "ifndef":
		defined, ok := pp.definedName(args, kind, loc)
		c.active = ok && defined == (kind == "ifdef")
		if kind == "ifndef" && ok && len(f.conds) == 0 && !f.outside && f.guard == "" {
			f.guard = args[0].Value
			c.guard = true
		}
	}
	if len(f.conds) == 0 && !c.guard {
		f.outside = true
	}
	c.taken = c.active
	f.conds = append(f.conds, c)
	return nil
}

func (pp *Preprocessor) definedName(args []lexer.Token, kind string, loc diag.Location) (bool, bool) {
	if len(args) == 0 || !args[0].IsIdentifierLike() {
		pp.diags.Errorf(diag.CategoryDirective, loc, "macro name missing in #%s", kind)
		return false, false
	}
	return pp.macros.IsDefined(args[0].Value), true
}

func (pp *Preprocessor) elifGroup(f *fileState, kind string, args []lexer.Token, loc diag.Location) error {
	n := len(f.conds)
	if n == 0 {
		return pp.diags.Fatalf(diag.CategoryDirective, loc, "#%s without #if", kind)
	}
	c := &f.conds[n-1]
	if c.sawElse {
		return pp.diags.Fatalf(diag.CategoryDirective, loc, "#%s after #else", kind)
	}
	c.guard = false
	if c.taken {
		c.active = false
		return nil
	}
	switch kind {
	case "elif":
		c.active = pp.evalIf(args, loc)
	default:
		defined, ok := pp.definedName(args, kind, loc)
		c.active = ok && defined == (kind == "elifdef")
	}
	c.taken = c.active
	return nil
}

func (pp *Preprocessor) elseGroup(f *fileState, loc diag.Location) error {
	n := len(f.conds)
	if n == 0 {
		return pp.diags.Fatalf(diag.CategoryDirective, loc, "#else without #if")
	}
	c := &f.conds[n-1]
	if c.sawElse {
		return pp.diags.Fatalf(diag.CategoryDirective, loc, "#else after #else")
	}
	c.sawElse = true
	c.guard = false
	c.active = !c.taken
	c.taken = true
	return nil
}

func (pp *Preprocessor) endifGroup(f *fileState, loc diag.Location) error {
	n := len(f.conds)
	if n == 0 {
		return pp.diags.Fatalf(diag.CategoryDirective, loc, "#endif without #if")
	}
	if f.conds[n-1].guard {
		f.guardClosed = true
	} else if n == 1 && f.guard != "" {
		f.guard = ""
	}
	f.conds = f.conds[:n-1]
	return nil
}

// evalIf evaluates the controlling expression of #if and #elif. Errors are reported
// and make the condition false.
func (pp *Preprocessor) evalIf(args []lexer.Token, loc diag.Location) bool {
	toks, err := pp.prepareCondition(args)
	if err == nil {
		toks, err = pp.macros.ExpandTokens(toks, macro.Options{ExpandUndefined: true})
	}
	var v int64
	if err == nil {
		v, err = evalCondition(toks)
	}
	if err != nil {
		pp.diags.Errorf(diag.CategoryDirective, loc, "%v", err)
		return false
	}
	return v != 0
}

// prepareCondition replaces defined and __has_* operators before macro expansion
func (pp *Preprocessor) prepareCondition(args []lexer.Token) ([]lexer.Token, error) {
	out := make([]lexer.Token, 0, len(args))
	for i := 0; i < len(args); i++ {
		tok := args[i]
		switch {
		case tok.Value == "defined":
			name, n, err := definedOperand(args[i+1:])
			if err != nil {
				return nil, err
			}
			out = append(out, number(tok, pp.macros.IsDefined(name)))
			i += n
		case strings.HasPrefix(tok.Value, "__has_") && i+1 < len(args) && args[i+1].Type == lexer.TokenLeftParen:
			end, err := closeParen(args, i+1)
			if err != nil {
				return nil, err
			}
			result := false
			if tok.Value == "__has_include" || tok.Value == "__has_include_next" {
				result = pp.hasInclude(args[i+2:end], tok.Value == "__has_include_next")
			}
			out = append(out, number(tok, result))
			i = end
		default:
			out = append(out, tok)
		}
	}
	return out, nil
}

func definedOperand(toks []lexer.Token) (string, int, error) {
	switch {
	case len(toks) > 0 && toks[0].IsIdentifierLike():
		return toks[0].Value, 1, nil
	case len(toks) >= 3 && toks[0].Type == lexer.TokenLeftParen && toks[1].IsIdentifierLike() &&
		toks[2].Type == lexer.TokenRightParen:
		return toks[1].Value, 3, nil
	}
	return "", 0, fmt.Errorf("operator \"defined\" requires an identifier")
}

func closeParen(toks []lexer.Token, open int) (int, error) {
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
	return 0, fmt.Errorf("missing ')' in preprocessor expression")
}

func number(at lexer.Token, b bool) lexer.Token {
	at.Type, at.Value = lexer.TokenNumber, "0"
	if b {
		at.Value = "1"
	}
	return at
}

func (pp *Preprocessor) hasInclude(toks []lexer.Token, next bool) bool {
	name, angled, ok := headerName(toks)
	if !ok || len(pp.files) == 0 {
		return false
	}
	f := pp.top()
	_, err := pp.resolver.Resolve(IncludeRequest{Name: name, Angled: angled, Next: next, From: f.name, Index: f.index})
	return err == nil
}

// headerName extracts the file name of "name" or <name>
func headerName(toks []lexer.Token) (name string, angled bool, ok bool) {
	if len(toks) == 0 {
		return "", false, false
	}
	if toks[0].Type == lexer.TokenString {
		v := toks[0].Value
		if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
			return v[1 : len(v)-1], false, len(toks) == 1
		}
		return "", false, false
	}
	if toks[0].Type != lexer.TokenLess {
		return "", false, false
	}
	var sb strings.Builder
	for i := 1; i < len(toks); i++ {
		if toks[i].Type == lexer.TokenGreater {
			return sb.String(), true, i == len(toks)-1
		}
		if i > 1 && toks[i].Space {
			sb.WriteByte(' ')
		}
		sb.WriteString(toks[i].Value)
	}
	return "", false, false
}

func (pp *Preprocessor) include(f *fileState, args []lexer.Token, next bool, loc diag.Location) error {
	name, angled, ok := headerName(args)
	if !ok && len(args) > 0 {
		expanded, err := pp.macros.ExpandTokens(args, macro.Options{})
		if err == nil {
			name, angled, ok = headerName(expanded)
		}
	}
	if !ok {
		pp.diags.Errorf(diag.CategoryDirective, loc, "#include expects \"FILENAME\" or <FILENAME>")
		return nil
	}
	if len(pp.files) >= pp.cfg.MaxIncludeDepth {
		return pp.diags.Fatalf(diag.CategoryInclude, loc, "#include nested too deeply")
	}
	src, err := pp.resolver.Resolve(IncludeRequest{Name: name, Angled: angled, Next: next, From: f.name, Index: f.index})
	if err != nil {
		if pp.cfg.IncludeErrorsFatal {
			return pp.diags.Fatalf(diag.CategoryInclude, loc, "%v", err)
		}
		pp.diags.Errorf(diag.CategoryInclude, loc, "%v", err)
		return nil
	}
	if pp.once[src.Path] {
		return nil
	}
	if guard, ok := pp.guards[src.Path]; ok && pp.macros.IsDefined(guard) {
		return nil
	}
	pp.logger.Debug("cpp.include", "name", name, "path", src.Path, "depth", len(pp.files))
	pp.push(src.Path, src.Content, src.Index)
	return nil
}

// lineDirective handles #line N "file"; the new numbering starts at the next line
func (pp *Preprocessor) lineDirective(f *fileState, args []lexer.Token, loc diag.Location) {
	if len(args) > 0 && args[0].Type != lexer.TokenNumber {
		if expanded, err := pp.macros.ExpandTokens(args, macro.Options{}); err == nil {
			args = expanded
		}
	}
	if len(args) == 0 || args[0].Type != lexer.TokenNumber {
		pp.diags.Errorf(diag.CategoryDirective, loc, "#line directive requires a positive integer argument")
		return
	}
	line, ok := ast.ParseInteger(args[0].Value)
	if !ok || line <= 0 {
		pp.diags.Errorf(diag.CategoryDirective, loc, "#line directive requires a positive integer argument")
		return
	}
	filename := loc.File
	if len(args) > 1 {
		v := args[1].Value
		if args[1].Type != lexer.TokenString || len(v) < 2 {
			pp.diags.Errorf(diag.CategoryDirective, loc, "invalid filename %s in #line directive", v)
			return
		}
		filename = v[1 : len(v)-1]
	}
	if f.nextLine >= 0 {
		f.file.AddLineInfo(f.nextLine, filename, int(line))
	}
}
