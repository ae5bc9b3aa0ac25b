// Package cpp implements the C preprocessor: directives, conditional compilation,
// includes and macro expansion interleaved with tokenization.
package cpp

import (
	"errors"
	"log/slog"
	"time"

	"cppparser/pkg/ast"
	"cppparser/pkg/diag"
	"cppparser/pkg/lexer"
	"cppparser/pkg/macro"

	"modernc.org/token"
)

// DefaultMaxIncludeDepth bounds #include nesting
const DefaultMaxIncludeDepth = 200

// Config holds the preprocessor settings
type Config struct {
	Defines            []string // -D style definitions, NAME or NAME=VALUE
	Undefines          []string
	IncludeErrorsFatal bool
	MaxIncludeDepth    int
	KeepComments       bool // pass Doxygen comments through to the token stream
	Logger             *slog.Logger
}

// cond is one level of #if nesting
type cond struct {
	taken   bool // a branch of this group was selected, or the group is dead
	active  bool // tokens of the current branch are kept
	sawElse bool
	guard   bool // this group is the include guard of its file
	loc     diag.Location
}

// fileState is one file on the include stack
type fileState struct {
	name  string
	index int // search path index the file was found through
	file  *token.File
	toks  []lexer.Token
	pos   int
	conds []cond

	nextLine int // offset of the line after the last directive

	guard       string // macro of a candidate include guard
	guardClosed bool
	outside     bool // tokens or directives seen outside the guard
}

func (f *fileState) active() bool {
	return len(f.conds) == 0 || f.conds[len(f.conds)-1].active
}

// Preprocessor turns source text into a macro-expanded token stream
type Preprocessor struct {
	cfg      Config
	resolver IncludeResolver
	diags    *diag.Collector
	macros   *macro.Table
	logger   *slog.Logger

	files   []*fileState
	pending []macro.Token
	once    map[string]bool
	guards  map[string]string

	counter   int
	published bool
	now       time.Time
	last      lexer.Token
}

// New creates a preprocessor. A nil resolver fails every include and a nil collector
// discards diagnostics.
func New(cfg Config, resolver IncludeResolver, diags *diag.Collector) *Preprocessor {
	if cfg.MaxIncludeDepth <= 0 {
		cfg.MaxIncludeDepth = DefaultMaxIncludeDepth
	}
	if diags == nil {
		diags = diag.NewCollector(nil, 0)
	}
	if resolver == nil {
		resolver = MapResolver{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pp := &Preprocessor{
		cfg:      cfg,
		resolver: resolver,
		diags:    diags,
		macros:   macro.NewTable(diags),
		logger:   logger,
		once:     make(map[string]bool),
		guards:   make(map[string]string),
		now:      time.Now(),
	}
	pp.defineBuiltins()
	return pp
}

// Macros returns the macro table of the session
func (pp *Preprocessor) Macros() *macro.Table {
	return pp.macros
}

// Diagnostics returns the collector diagnostics are reported to
func (pp *Preprocessor) Diagnostics() *diag.Collector {
	return pp.diags
}

// Push starts reading content as the file name. Tokens of a pushed file are read before
// the rest of the file that was current.
func (pp *Preprocessor) Push(name, content string) {
	pp.push(name, content, -1)
}

func (pp *Preprocessor) push(name, content string, index int) {
	tk := lexer.NewTokenizer(name, content)
	pp.files = append(pp.files, &fileState{
		name:  name,
		index: index,
		file:  tk.File(),
		toks:  tk.Tokenize(),
	})
}

func (pp *Preprocessor) top() *fileState {
	return pp.files[len(pp.files)-1]
}

// Read implements macro.Reader over the include stack, handling directives
func (pp *Preprocessor) Read() (macro.Token, bool, error) {
	if n := len(pp.pending); n > 0 {
		tok := pp.pending[0]
		pp.pending = pp.pending[1:]
		return tok, true, nil
	}
	for len(pp.files) > 0 {
		f := pp.top()
		tok := f.toks[f.pos]
		if tok.Type == lexer.TokenEOF {
			if err := pp.leave(f); err != nil {
				return macro.Token{}, false, err
			}
			continue
		}
		f.pos++
		switch {
		case tok.Type == lexer.TokenHash && tok.BOL:
			if err := pp.directive(f); err != nil {
				return macro.Token{}, false, err
			}
			continue
		case tok.Type == lexer.TokenNewline || !f.active():
			continue
		case tok.IsComment():
			if pp.cfg.KeepComments && tok.Type == lexer.TokenDoxygenComment {
				return macro.Token{Token: tok}, true, nil
			}
			continue
		case tok.Type == lexer.TokenError:
			pp.diags.Errorf(diag.CategoryLexical, tok.Location(), "%s", tok.Value)
			continue
		}
		if len(f.conds) == 0 {
			f.outside = true
		}
		return macro.Token{Token: tok}, true, nil
	}
	return macro.Token{}, false, nil
}

// Unread implements macro.Reader
func (pp *Preprocessor) Unread(toks []macro.Token) {
	if len(toks) == 0 {
		return
	}
	pp.pending = append(append(make([]macro.Token, 0, len(toks)+len(pp.pending)), toks...), pp.pending...)
}

// leave pops a file at its end
func (pp *Preprocessor) leave(f *fileState) error {
	if n := len(f.conds); n > 0 {
		return pp.diags.Fatalf(diag.CategoryDirective, f.conds[n-1].loc, "unterminated conditional directive")
	}
	if f.guard != "" && f.guardClosed && !f.outside {
		pp.guards[f.name] = f.guard
	}
	pp.files = pp.files[:len(pp.files)-1]
	return nil
}

// Next returns the next fully expanded token. At the end of input it returns a token
// of type lexer.TokenEOF, and keeps doing so.
func (pp *Preprocessor) Next() (lexer.Token, error) {
	for {
		tok, ok, err := pp.macros.Next(pp, macro.Options{})
		if err != nil {
			var d *diag.Diagnostic
			if errors.As(err, &d) {
				return lexer.Token{}, d
			}
			loc := pp.last.Location()
			var me *macro.Error
			if errors.As(err, &me) {
				loc, err = me.Loc, me.Err
			}
			return lexer.Token{}, pp.diags.Fatalf(diag.CategoryMacro, loc, "%v", err)
		}
		if !ok {
			eof := lexer.Token{Type: lexer.TokenEOF, Pos: pp.last.Pos, File: pp.last.File}
			return eof, nil
		}
		switch tok.Value {
		case "_Pragma":
			if err := pp.skipPragmaOperator(tok.Token); err != nil {
				return lexer.Token{}, err
			}
			continue
		case "__begin_publish":
			pp.published = true
		case "__end_publish":
			pp.published = false
		}
		pp.last = tok.Token
		return tok.Token, nil
	}
}

// skipPragmaOperator drops the operand of _Pragma("...")
func (pp *Preprocessor) skipPragmaOperator(at lexer.Token) error {
	depth := 0
	for {
		tok, ok, err := pp.Read()
		if err != nil {
			return err
		}
		if !ok {
			return pp.diags.Fatalf(diag.CategoryDirective, at.Location(), "unterminated _Pragma")
		}
		switch tok.Type {
		case lexer.TokenLeftParen:
			depth++
		case lexer.TokenRightParen:
			depth--
		}
		if depth <= 0 {
			return nil
		}
	}
}

// Tokens drains the stream. The result does not include the end-of-file token.
func (pp *Preprocessor) Tokens() ([]lexer.Token, error) {
	var out []lexer.Token
	for {
		tok, err := pp.Next()
		if err != nil {
			return out, err
		}
		if tok.Type == lexer.TokenEOF {
			return out, nil
		}
		out = append(out, tok)
	}
}

// Position returns the location of the last token returned by Next
func (pp *Preprocessor) Position() token.Position {
	return pp.last.Position()
}

// Line returns the line of the last token returned by Next
func (pp *Preprocessor) Line() int {
	return pp.last.Position().Line
}

// Column returns the column of the last token returned by Next
func (pp *Preprocessor) Column() int {
	return pp.last.Position().Column
}

// Published reports whether the stream is between __begin_publish and __end_publish
func (pp *Preprocessor) Published() bool {
	return pp.published
}

func (pp *Preprocessor) visibility() ast.Visibility {
	if pp.published {
		return ast.VisibilityPublished
	}
	return ast.VisibilityPublic
}
