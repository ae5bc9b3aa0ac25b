package ast

// ExprKind identifies the form of an Expression
type ExprKind int

const (
	ExprInteger ExprKind = iota
	ExprFloat
	ExprString
	ExprChar
	ExprBool
	ExprNullptr
	ExprThis

	ExprVariable // reference to an Instance, Concept or enumerator
	ExprFunction // reference to a Function or FunctionGroup
	ExprUnknown  // identifier that did not resolve
	ExprTypeName // a type used where an expression was expected

	ExprUnary
	ExprPostfix
	ExprBinary
	ExprConditional
	ExprCall
	ExprSubscript
	ExprMember
	ExprCast
	ExprSizeof
	ExprSizeofPack
	ExprAlignof
	ExprNoexcept
	ExprTypeid
	ExprConstruct
	ExprInitList
	ExprNew
	ExprDelete
	ExprThrow
	ExprLambda
	ExprRequires
	ExprFold
	ExprPack
)

var exprKindNames = map[ExprKind]string{
	ExprInteger:     "integer",
	ExprFloat:       "float",
	ExprString:      "string",
	ExprChar:        "char",
	ExprBool:        "bool",
	ExprNullptr:     "nullptr",
	ExprThis:        "this",
	ExprVariable:    "variable",
	ExprFunction:    "function",
	ExprUnknown:     "unknown",
	ExprTypeName:    "typename",
	ExprUnary:       "unary",
	ExprPostfix:     "postfix",
	ExprBinary:      "binary",
	ExprConditional: "conditional",
	ExprCall:        "call",
	ExprSubscript:   "subscript",
	ExprMember:      "member",
	ExprCast:        "cast",
	ExprSizeof:      "sizeof",
	ExprSizeofPack:  "sizeof...",
	ExprAlignof:     "alignof",
	ExprNoexcept:    "noexcept",
	ExprTypeid:      "typeid",
	ExprConstruct:   "construct",
	ExprInitList:    "init_list",
	ExprNew:         "new",
	ExprDelete:      "delete",
	ExprThrow:       "throw",
	ExprLambda:      "lambda",
	ExprRequires:    "requires",
	ExprFold:        "fold",
	ExprPack:        "pack",
}

func (k ExprKind) String() string {
	if s, ok := exprKindNames[k]; ok {
		return s
	}
	return "invalid"
}

// Expression is a node of an expression tree. Which fields are meaningful depends on Kind:
//
//	literals            Text
//	ExprVariable        Decl, Ident, TemplateArgs of a concept-id
//	ExprUnary/Postfix   Op, X
//	ExprBinary          Op, X, Y
//	ExprConditional     X ? Y : Z
//	ExprCall            X(Args)
//	ExprMember          X Op Text, with Args for x.template f<T>
//	ExprCast            Op is the cast keyword, or "" for a C-style cast; Type, X
//	ExprSizeof/Alignof  Type or X
//	ExprConstruct       Type(Args) or Type{Args} when Braced
//	ExprRequires        Params, Requirements
//	ExprFold            Op, X the pack operand, Y the init operand of a binary fold
type Expression struct {
	Kind   ExprKind
	Text   string
	Op     string
	X      *Expression
	Y      *Expression
	Z      *Expression
	Args   []*Expression
	Type   Type
	Decl   Declaration
	Ident  *Identifier
	Braced bool

	TemplateArgs []*TemplateArg
	HasTemplate  bool // TemplateArgs were written, possibly empty

	Params       *Scope
	Requirements []*Requirement
	Lambda       *Lambda

	// FoldLeft marks (... op pack) and (init op ... op pack)
	FoldLeft bool
	// Array marks new[] and delete[]
	Array bool
}

// RequirementKind identifies the form of a requirement in a requires-expression
type RequirementKind int

const (
	RequirementSimple RequirementKind = iota
	RequirementType
	RequirementCompound
	RequirementNested
)

// Requirement is one entry of a requires-expression body
type Requirement struct {
	Kind     RequirementKind
	Expr     *Expression // the expression, or the constraint of a nested requirement
	Type     Type        // a type requirement
	Noexcept bool

	// Constraint is the type-constraint after -> in a compound requirement, a
	// concept-id whose first argument is the type of Expr.
	Constraint *Expression
}

// Lambda holds the parts of a lambda expression
type Lambda struct {
	Captures []string
	Template *Scope
	Function *Function
	Body     *Statement
}

// NewInteger creates an integer literal expression
func NewInteger(text string) *Expression {
	return &Expression{Kind: ExprInteger, Text: text}
}

// NewBool creates a boolean literal expression
func NewBool(v bool) *Expression {
	if v {
		return &Expression{Kind: ExprBool, Text: "true"}
	}
	return &Expression{Kind: ExprBool, Text: "false"}
}

// IsConceptID reports whether e names a concept, with or without template arguments
func (e *Expression) IsConceptID() bool {
	if e == nil || e.Kind != ExprVariable {
		return false
	}
	_, ok := e.Decl.(*Concept)
	return ok
}

// IsDependent reports whether e mentions a template parameter
func (e *Expression) IsDependent() bool {
	return exprDependent(e, 0)
}

func exprDependent(e *Expression, depth int) bool {
	if e == nil || depth > 64 {
		return false
	}
	switch e.Kind {
	case ExprVariable:
		if inst, ok := e.Decl.(*Instance); ok && inst.Scope != nil && inst.Scope.Kind == ScopeTemplate {
			return true
		}
	case ExprTypeName, ExprSizeof, ExprAlignof, ExprCast, ExprConstruct:
		if e.Type != nil && IsDependent(e.Type) {
			return true
		}
	case ExprRequires, ExprSizeofPack, ExprFold, ExprPack:
		return true
	}
	for _, a := range e.TemplateArgs {
		if (a.Type != nil && IsDependent(a.Type)) || exprDependent(a.Expr, depth+1) {
			return true
		}
	}
	if exprDependent(e.X, depth+1) || exprDependent(e.Y, depth+1) || exprDependent(e.Z, depth+1) {
		return true
	}
	for _, a := range e.Args {
		if exprDependent(a, depth+1) {
			return true
		}
	}
	return false
}
