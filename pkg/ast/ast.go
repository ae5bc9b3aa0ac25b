// Package ast defines the declaration model produced by the C++ parser: declarations,
// types, expressions and the scopes that own them.
package ast

import (
	"strings"

	"cppparser/pkg/diag"
)

// SubType identifies the concrete variant of a Declaration
type SubType int

const (
	SubTypeInstance SubType = iota
	SubTypeFunction
	SubTypeConcept
	SubTypeFunctionGroup
	SubTypeNamespace
	SubTypeUsing
	SubTypeStaticAssert
	SubTypeError

	// Types
	SubTypeSimple
	SubTypePointer
	SubTypeReference
	SubTypeConst
	SubTypeArray
	SubTypeFunctionType
	SubTypeStruct
	SubTypeEnum
	SubTypeTypedef
	SubTypeTemplateParameter
	SubTypeTBD
	SubTypeDecltype
	SubTypePack
	SubTypeTemplateID
)

func (st SubType) String() string {
	switch st {
	case SubTypeInstance:
		return "instance"
	case SubTypeFunction:
		return "function"
	case SubTypeConcept:
		return "concept"
	case SubTypeFunctionGroup:
		return "function_group"
	case SubTypeNamespace:
		return "namespace"
	case SubTypeUsing:
		return "using"
	case SubTypeStaticAssert:
		return "static_assert"
	case SubTypeError:
		return "error"
	case SubTypeSimple:
		return "simple"
	case SubTypePointer:
		return "pointer"
	case SubTypeReference:
		return "reference"
	case SubTypeConst:
		return "const"
	case SubTypeArray:
		return "array"
	case SubTypeFunctionType:
		return "function_type"
	case SubTypeStruct:
		return "struct"
	case SubTypeEnum:
		return "enum"
	case SubTypeTypedef:
		return "typedef"
	case SubTypeTemplateParameter:
		return "template_parameter"
	case SubTypeTBD:
		return "tbd"
	case SubTypeDecltype:
		return "decltype"
	case SubTypePack:
		return "pack"
	case SubTypeTemplateID:
		return "template_id"
	default:
		return "unknown"
	}
}

// IsType reports whether the subtype is one of the type variants
func (st SubType) IsType() bool {
	return st >= SubTypeSimple
}

// Visibility represents C++ access levels plus the published binding extension
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityPrivate
	VisibilityPublished
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityProtected:
		return "protected"
	case VisibilityPrivate:
		return "private"
	case VisibilityPublished:
		return "published"
	default:
		return "unknown"
	}
}

// Declaration is implemented by every node of the declaration model. The set of
// implementations is closed: each one reports exactly one SubType.
type Declaration interface {
	Base() *DeclBase
	SubType() SubType
	declaration()
}

// Type is a Declaration that names or builds a type
type Type interface {
	Declaration
	typeNode()
}

// DeclBase holds the fields shared by every declaration
type DeclBase struct {
	Ident      *Identifier
	Vis        Visibility
	Scope      *Scope // enclosing scope
	Template   *Scope // template parameter scope when the declaration is generic
	Loc        diag.Location
	Comment    *DoxygenComment
	Attributes []string
}

// Base returns the shared declaration fields
func (b *DeclBase) Base() *DeclBase { return b }

func (b *DeclBase) declaration() {}

// Name returns the unqualified name, or "" for anonymous declarations
func (b *DeclBase) Name() string {
	if b.Ident == nil {
		return ""
	}
	return b.Ident.Name()
}

// IsTemplate reports whether the declaration carries template parameters
func (b *DeclBase) IsTemplate() bool {
	return b.Template != nil
}

// QualifiedName returns the fully scoped name with a leading ::
func (b *DeclBase) QualifiedName() string {
	name := b.Name()
	if b.Scope == nil {
		return name
	}
	return b.Scope.FullyScopedName() + "::" + name
}

// IsTemplate reports whether d is a template declaration
func IsTemplate(d Declaration) bool {
	return d != nil && d.Base().Template != nil
}

// AsInstance returns d as an Instance. Functions and concepts expose their embedded Instance.
func AsInstance(d Declaration) *Instance {
	switch v := d.(type) {
	case *Instance:
		return v
	case *Function:
		return &v.Instance
	case *Concept:
		return &v.Instance
	}
	return nil
}

// AsFunction returns d as a Function, or nil
func AsFunction(d Declaration) *Function {
	f, _ := d.(*Function)
	return f
}

// AsConcept returns d as a Concept, or nil
func AsConcept(d Declaration) *Concept {
	c, _ := d.(*Concept)
	return c
}

// AsFunctionGroup returns d as a FunctionGroup, or nil
func AsFunctionGroup(d Declaration) *FunctionGroup {
	g, _ := d.(*FunctionGroup)
	return g
}

// AsNamespace returns d as a Namespace, or nil
func AsNamespace(d Declaration) *Namespace {
	n, _ := d.(*Namespace)
	return n
}

// AsUsing returns d as a Using, or nil
func AsUsing(d Declaration) *Using {
	u, _ := d.(*Using)
	return u
}

// AsType returns d as a Type, or nil
func AsType(d Declaration) Type {
	t, _ := d.(Type)
	return t
}

// AsStruct returns d as a StructType, or nil
func AsStruct(d Declaration) *StructType {
	s, _ := d.(*StructType)
	return s
}

// AsEnum returns d as an EnumType, or nil
func AsEnum(d Declaration) *EnumType {
	e, _ := d.(*EnumType)
	return e
}

// AsTypedef returns d as a TypedefType, or nil
func AsTypedef(d Declaration) *TypedefType {
	t, _ := d.(*TypedefType)
	return t
}

// AsTemplateParameter returns d as a TemplateParameterType, or nil
func AsTemplateParameter(d Declaration) *TemplateParameterType {
	t, _ := d.(*TemplateParameterType)
	return t
}

// ScopeTree represents the complete parsed tree of a C++ file
type ScopeTree struct {
	Filename    string
	Global      *Scope
	Interner    *Interner
	Diagnostics []*diag.Diagnostic
}

// NewScopeTree creates a new scope tree with an empty global scope
func NewScopeTree(filename string) *ScopeTree {
	interner := NewInterner()
	return &ScopeTree{
		Filename: filename,
		Global:   NewGlobalScope(interner),
		Interner: interner,
	}
}

// FindDeclaration finds a declaration by its qualified path, e.g. "a::b::inner_var"
func (st *ScopeTree) FindDeclaration(path string) Declaration {
	path = strings.TrimPrefix(path, "::")
	if path == "" {
		return nil
	}
	return st.Global.FindSymbol(ParseIdentifier(path))
}

// Declarations returns the top-level declarations in source order
func (st *ScopeTree) Declarations() []Declaration {
	return st.Global.Declarations()
}

// Walk visits every declaration reachable from the global scope, depth first. Returning
// false from fn skips the children of that declaration.
func (st *ScopeTree) Walk(fn func(d Declaration, depth int) bool) {
	walkScope(st.Global, 0, fn)
}

func walkScope(s *Scope, depth int, fn func(Declaration, int) bool) {
	for _, d := range s.Declarations() {
		if !fn(d, depth) {
			continue
		}
		if inner := OwnedScope(d); inner != nil {
			walkScope(inner, depth+1, fn)
		}
	}
}

// OwnedScope returns the member scope of a namespace, class or enum
func OwnedScope(d Declaration) *Scope {
	switch v := d.(type) {
	case *Namespace:
		if v.Alias == nil {
			return v.Members
		}
	case *StructType:
		return v.Members
	case *EnumType:
		return v.Members
	}
	return nil
}
