package ast

// StorageClass is a bitmask of declaration specifiers that are not part of the type
type StorageClass uint32

const (
	StorageStatic StorageClass = 1 << iota
	StorageExtern
	StorageInline
	StorageConstexpr
	StorageConsteval
	StorageConstinit
	StorageThreadLocal
	StorageMutable
	StorageRegister
	StorageVirtual
	StorageExplicit
	StorageFriend
	StorageTypedef
)

var storageNames = []struct {
	flag StorageClass
	name string
}{
	{StorageFriend, "friend"},
	{StorageExtern, "extern"},
	{StorageStatic, "static"},
	{StorageThreadLocal, "thread_local"},
	{StorageRegister, "register"},
	{StorageMutable, "mutable"},
	{StorageInline, "inline"},
	{StorageVirtual, "virtual"},
	{StorageExplicit, "explicit"},
	{StorageConstexpr, "constexpr"},
	{StorageConsteval, "consteval"},
	{StorageConstinit, "constinit"},
}

// Has reports whether all bits of f are set
func (s StorageClass) Has(f StorageClass) bool {
	return s&f == f
}

// InitStyle records how an initializer was written
type InitStyle int

const (
	InitNone InitStyle = iota
	InitEquals
	InitParen
	InitBrace
)

// Instance is a variable, data member, parameter or enumerator
type Instance struct {
	DeclBase
	Type        Type
	Initializer *Expression
	InitStyle   InitStyle
	Storage     StorageClass
	BitWidth    *Expression
	Pack        bool // declares a function parameter pack
}

// SubType returns SubTypeInstance
func (*Instance) SubType() SubType { return SubTypeInstance }

// FunctionKind distinguishes special member functions
type FunctionKind int

const (
	FunctionNormal FunctionKind = iota
	FunctionConstructor
	FunctionDestructor
	FunctionConversion
	FunctionOperator
	FunctionDeductionGuide
)

// FunctionFlags are properties of a function declaration outside its type
type FunctionFlags uint32

const (
	FunctionPure FunctionFlags = 1 << iota
	FunctionDefaulted
	FunctionDeleted
	FunctionOverride
	FunctionFinal
)

// Function is a function or member function declaration. Its Type is always a *FunctionType.
type Function struct {
	Instance
	Kind     FunctionKind
	Flags    FunctionFlags
	Body     *Statement
	Requires *Expression // trailing requires-clause

	// Implicit holds the template parameters synthesized for constrained auto
	// parameters of an abbreviated function template.
	Implicit []*TemplateParameterType
}

// SubType returns SubTypeFunction
func (*Function) SubType() SubType { return SubTypeFunction }

// FuncType returns the function's signature
func (f *Function) FuncType() *FunctionType {
	ft, _ := f.Type.(*FunctionType)
	return ft
}

// Constraints returns the conjunction of the template requires-clause and the trailing
// requires-clause, in declaration order. It is nil when the function is unconstrained.
func (f *Function) Constraints() *Expression {
	var head *Expression
	if f.Template != nil {
		head = f.Template.Requires
	}
	switch {
	case head == nil:
		return f.Requires
	case f.Requires == nil:
		return head
	default:
		return &Expression{Kind: ExprBinary, Op: "&&", X: head, Y: f.Requires}
	}
}

// Concept is a named boolean constraint over template parameters. Its Type is bool and
// its Initializer the constraint expression.
type Concept struct {
	Instance
}

// SubType returns SubTypeConcept
func (*Concept) SubType() SubType { return SubTypeConcept }

// Constraint returns the constraint expression
func (c *Concept) Constraint() *Expression {
	return c.Initializer
}

// FunctionGroup collects the overloads sharing a name in one scope
type FunctionGroup struct {
	DeclBase
	Functions []*Function
}

// SubType returns SubTypeFunctionGroup
func (*FunctionGroup) SubType() SubType { return SubTypeFunctionGroup }

// Namespace is a namespace definition or, when Alias is set, a namespace alias
type Namespace struct {
	DeclBase
	Inline  bool
	Members *Scope
	Alias   *Namespace // target of a namespace alias
}

// SubType returns SubTypeNamespace
func (*Namespace) SubType() SubType { return SubTypeNamespace }

// Canonical follows alias chains to the namespace that owns the members
func (n *Namespace) Canonical() *Namespace {
	for n.Alias != nil {
		n = n.Alias
	}
	return n
}

// Using is a using-declaration or, when Directive is set, a using-directive
type Using struct {
	DeclBase
	Directive bool
	Target    Declaration // using-declaration target, or the namespace of a directive
}

// SubType returns SubTypeUsing
func (*Using) SubType() SubType { return SubTypeUsing }

// StaticAssert is a static_assert declaration
type StaticAssert struct {
	DeclBase
	Cond    *Expression
	Message string
}

// SubType returns SubTypeStaticAssert
func (*StaticAssert) SubType() SubType { return SubTypeStaticAssert }

// ErrorDecl stands in for a declaration that failed to parse or resolve
type ErrorDecl struct {
	DeclBase
	Message string
	Text    string // source tokens that were skipped
}

// SubType returns SubTypeError
func (*ErrorDecl) SubType() SubType { return SubTypeError }
