package cpp

import (
	"strconv"

	"cppparser/pkg/diag"
	"cppparser/pkg/lexer"
	"cppparser/pkg/macro"
)

// predefined object-like macros of every session
var predefined = []string{
	"__cplusplus 202002L",
	"__STDC__ 1",
	"__STDC_HOSTED__ 1",
	"CPPPARSER 1",
}

func (pp *Preprocessor) defineBuiltins() {
	for _, def := range predefined {
		m, err := macro.ParseDefinition(lexer.Lex("<built-in>", def))
		if err != nil {
			panic("invalid predefined macro " + def)
		}
		pp.macros.Define(m)
	}

	pp.dynamic("__FILE__", func(at lexer.Token) lexer.Token {
		return lexer.Token{Type: lexer.TokenString, Value: strconv.Quote(at.Position().Filename)}
	})
	pp.dynamic("__LINE__", func(at lexer.Token) lexer.Token {
		return lexer.Token{Type: lexer.TokenNumber, Value: strconv.Itoa(at.Position().Line)}
	})
	pp.dynamic("__COUNTER__", func(lexer.Token) lexer.Token {
		n := pp.counter
		pp.counter++
		return lexer.Token{Type: lexer.TokenNumber, Value: strconv.Itoa(n)}
	})
	pp.dynamic("__DATE__", func(lexer.Token) lexer.Token {
		return lexer.Token{Type: lexer.TokenString, Value: strconv.Quote(pp.now.Format("Jan _2 2006"))}
	})
	pp.dynamic("__TIME__", func(lexer.Token) lexer.Token {
		return lexer.Token{Type: lexer.TokenString, Value: strconv.Quote(pp.now.Format("15:04:05"))}
	})

	cmdline := diag.Location{File: "<command line>"}
	for _, def := range pp.cfg.Defines {
		m, err := macro.ParseCommandLine(def)
		if err != nil {
			pp.diags.Errorf(diag.CategoryMacro, cmdline, "%v", err)
			continue
		}
		pp.macros.Define(m)
	}
	for _, name := range pp.cfg.Undefines {
		pp.macros.Undefine(name)
	}
}

func (pp *Preprocessor) dynamic(name string, fn func(at lexer.Token) lexer.Token) {
	pp.macros.Define(&macro.Macro{
		Name:     name,
		Variadic: -1,
		Dynamic: func(at lexer.Token) []lexer.Token {
			return []lexer.Token{fn(at)}
		},
	})
}
