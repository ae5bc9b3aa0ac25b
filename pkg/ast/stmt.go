package ast

import "cppparser/pkg/diag"

// StmtKind identifies the form of a Statement
type StmtKind int

const (
	StmtNull StmtKind = iota
	StmtCompound
	StmtDecl
	StmtExpr
	StmtIf
	StmtWhile
	StmtDo
	StmtFor
	StmtRangeFor
	StmtSwitch
	StmtCase
	StmtDefault
	StmtReturn
	StmtBreak
	StmtContinue
	StmtGoto
	StmtLabel
	StmtTry
)

// Statement is a node of a function body
type Statement struct {
	Kind      StmtKind
	Loc       diag.Location
	Expr      *Expression   // condition, returned value, expression or case value
	Decls     []Declaration // declaration statement, or the condition/range variable
	Init      *Statement    // init-statement of if, switch and for
	Step      *Expression   // increment of a classic for
	Body      *Statement
	Else      *Statement
	Stmts     []*Statement // compound statement
	Label     string
	Constexpr bool
	Handlers  []*Handler
	Scope     *Scope
}

// Handler is one catch clause of a try block; Param is nil for catch (...)
type Handler struct {
	Param Declaration
	Body  *Statement
}
