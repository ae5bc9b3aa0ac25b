// Package parser implements a recursive descent parser for C and C++ declarations. It
// reads the token stream of the preprocessor and builds the scope tree of package ast.
package parser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cppparser/pkg/ast"
	"cppparser/pkg/cpp"
	"cppparser/pkg/diag"
	"cppparser/pkg/lexer"
	"cppparser/pkg/macro"
)

// DefaultMaxNesting bounds the recursion of declarators, expressions and statements
const DefaultMaxNesting = 256

// Config holds the settings of a parse session
type Config struct {
	Preprocessor cpp.Config
	Resolver     cpp.IncludeResolver
	Sink         io.Writer // diagnostics are also written here, one per line
	MaxErrors    int
	MaxNesting   int
	Logger       *slog.Logger
}

// deferredBody is a member function body parsed once its class is complete
type deferredBody struct {
	fn    *ast.Function
	proto *ast.Scope
	at    checkpoint
}

// Parser turns source text into an ast.ScopeTree. A Parser is not safe for concurrent
// use; create one per goroutine.
type Parser struct {
	*tokenCache
	cfg    Config
	logger *slog.Logger
	diags  *diag.Collector
	macros *macro.Table

	tree           *ast.ScopeTree
	scope          *ast.Scope
	access         ast.Visibility
	published      bool
	pendingComment *ast.DoxygenComment // comment waiting to be associated with the next declaration

	angle     int // >0 while '>' closes a template argument list
	speculate int // >0 while parsing tentatively; semantic errors are not reported
	nesting   int
	classes   int // depth of class definitions being parsed
	deferred  []deferredBody
	anonymous map[*ast.Scope]*ast.Namespace
}

// New creates a parser with the default configuration
func New() *Parser {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a parser
func NewWithConfig(cfg Config) *Parser {
	if cfg.MaxNesting <= 0 {
		cfg.MaxNesting = DefaultMaxNesting
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{cfg: cfg, logger: logger}
}

// Diagnostics returns the collector of the last parse
func (p *Parser) Diagnostics() *diag.Collector {
	return p.diags
}

// Macros returns the macro table left by the last Parse
func (p *Parser) Macros() *macro.Table {
	return p.macros
}

func (p *Parser) reset() {
	p.diags = diag.NewCollector(p.cfg.Sink, p.cfg.MaxErrors)
	p.diags.SetLogger(p.logger)
	p.macros = nil
	p.access = ast.VisibilityPublic
	p.published = false
	p.pendingComment = nil
	p.angle, p.speculate, p.nesting, p.classes = 0, 0, 0, 0
	p.deferred = nil
	p.anonymous = make(map[*ast.Scope]*ast.Namespace)
}

// Parse preprocesses content as the file filename and parses it. Errors are collected
// in the tree's Diagnostics; the returned error is set only when the file could not be
// processed to its end, and the partial tree is returned with it.
func (p *Parser) Parse(filename, content string) (*ast.ScopeTree, error) {
	p.reset()
	ppcfg := p.cfg.Preprocessor
	ppcfg.KeepComments = true
	if ppcfg.Logger == nil {
		ppcfg.Logger = p.logger
	}
	pp := cpp.New(ppcfg, p.cfg.Resolver, p.diags)
	p.macros = pp.Macros()
	pp.Push(filename, content)

	toks, err := pp.Tokens()
	if err != nil {
		tree := ast.NewScopeTree(filename)
		tree.Diagnostics = p.diags.Diagnostics()
		return tree, err
	}
	return p.parse(filename, toks)
}

// ParseTokens parses an already preprocessed token stream
func (p *Parser) ParseTokens(filename string, toks []lexer.Token) (*ast.ScopeTree, error) {
	p.reset()
	return p.parse(filename, toks)
}

func (p *Parser) parse(filename string, toks []lexer.Token) (tree *ast.ScopeTree, err error) {
	start := time.Now()
	p.tokenCache = newTokenCache(toks)
	p.tree = ast.NewScopeTree(filename)
	p.scope = p.tree.Global
	p.logger.Debug("parse.start", "file", filename, "tokens", len(p.tokens))

	defer func() {
		if r := recover(); r != nil {
			fe, ok := r.(fatalError)
			if !ok {
				panic(r)
			}
			err = fe.d
		}
		p.tree.Diagnostics = p.diags.Diagnostics()
		tree = p.tree
		p.logger.Info("parse.done",
			"file", filename,
			"declarations", len(p.tree.Global.Declarations()),
			"errors", p.diags.ErrorCount(),
			"warnings", p.diags.WarningCount(),
			"elapsed", time.Since(start))
	}()

	p.parseDeclarationSeq(lexer.TokenEOF)
	return p.tree, nil
}

// syntaxError is a parse failure at a token; it unwinds to the nearest recovery point
type syntaxError struct {
	tok lexer.Token
	msg string
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.tok.Location(), e.msg)
}

// fatalError aborts the parse; it is raised with panic and recovered in parse
type fatalError struct {
	d *diag.Diagnostic
}

func (p *Parser) errorf(tok lexer.Token, format string, args ...interface{}) error {
	return &syntaxError{tok: tok, msg: fmt.Sprintf(format, args...)}
}

// expected builds the error for a missing construct at the current token
func (p *Parser) expected(what string) error {
	tok := p.peek()
	return p.errorf(tok, "expected %s, got %s", what, describe(tok))
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.TokenEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Value)
}

// expect consumes a token of type tt or fails
func (p *Parser) expect(tt lexer.TokenType, what string) (lexer.Token, error) {
	if !p.check(tt) {
		return lexer.Token{}, p.expected(what)
	}
	return p.advance(), nil
}

// report records a syntax error
func (p *Parser) report(err error) {
	var se *syntaxError
	if errors.As(err, &se) {
		p.diags.Errorf(diag.CategorySyntax, se.tok.Location(), "%s", se.msg)
		return
	}
	p.diags.Errorf(diag.CategorySyntax, p.peek().Location(), "%v", err)
}

// semanticf reports a name resolution or consistency error unless parsing tentatively
func (p *Parser) semanticf(tok lexer.Token, format string, args ...interface{}) {
	if p.speculate > 0 {
		return
	}
	p.diags.Errorf(diag.CategorySemantic, tok.Location(), format, args...)
}

func (p *Parser) warnf(tok lexer.Token, format string, args ...interface{}) {
	if p.speculate > 0 {
		return
	}
	p.diags.Warnf(diag.CategorySemantic, tok.Location(), format, args...)
}

// enter guards recursion depth; it is paired with leave
func (p *Parser) enter() {
	p.nesting++
	if p.nesting > p.cfg.MaxNesting {
		d := p.diags.Fatalf(diag.CategorySyntax, p.peek().Location(), "nesting exceeds %d levels", p.cfg.MaxNesting)
		panic(fatalError{d: d})
	}
}

func (p *Parser) leave() {
	p.nesting--
}

// tentatively runs fn and keeps its result only when it succeeds. Semantic errors are
// not reported while it runs.
func (p *Parser) tentatively(fn func() error) bool {
	cp := p.save()
	nesting, classes, deferred := p.nesting, p.classes, len(p.deferred)
	p.speculate++
	err := fn()
	p.speculate--
	p.nesting = nesting
	if err != nil {
		p.restore(cp)
		p.classes = classes
		if len(p.deferred) > deferred {
			p.deferred = p.deferred[:deferred]
		}
		return false
	}
	return true
}

// interner returns the type interner of the tree being built
func (p *Parser) interner() *ast.Interner {
	return p.tree.Interner
}
