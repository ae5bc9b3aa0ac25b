package ast

// SimpleKind is the fundamental type of a SimpleType
type SimpleKind int

const (
	KindUnknown SimpleKind = iota
	KindVoid
	KindBool
	KindChar
	KindWChar
	KindChar8
	KindChar16
	KindChar32
	KindInt
	KindFloat
	KindDouble
	KindAuto
	KindDecltypeAuto
	KindNullptr
)

// SimpleFlags modify a fundamental type
type SimpleFlags uint8

const (
	FlagSigned SimpleFlags = 1 << iota
	FlagUnsigned
	FlagShort
	FlagLong
	FlagLongLong
)

// SimpleType is a fundamental type, or auto
type SimpleType struct {
	DeclBase
	Kind  SimpleKind
	Flags SimpleFlags

	// Constraint is the type-constraint of a constrained placeholder such as
	// "SmallType auto"; it is a concept-id expression.
	Constraint *Expression
}

// SubType returns SubTypeSimple
func (*SimpleType) SubType() SubType { return SubTypeSimple }
func (*SimpleType) typeNode()        {}

// PointerType is a pointer, or a pointer to member when MemberOf is set
type PointerType struct {
	DeclBase
	Pointee  Type
	MemberOf Type
}

// SubType returns SubTypePointer
func (*PointerType) SubType() SubType { return SubTypePointer }
func (*PointerType) typeNode()        {}

// ReferenceType is an lvalue or rvalue reference
type ReferenceType struct {
	DeclBase
	Referent Type
	RValue   bool
}

// SubType returns SubTypeReference
func (*ReferenceType) SubType() SubType { return SubTypeReference }
func (*ReferenceType) typeNode()        {}

// ConstType adds cv-qualification to a type
type ConstType struct {
	DeclBase
	Inner    Type
	Const    bool
	Volatile bool
}

// SubType returns SubTypeConst
func (*ConstType) SubType() SubType { return SubTypeConst }
func (*ConstType) typeNode()        {}

// ArrayType is an array with an optional bound
type ArrayType struct {
	DeclBase
	Element Type
	Size    *Expression
}

// SubType returns SubTypeArray
func (*ArrayType) SubType() SubType { return SubTypeArray }
func (*ArrayType) typeNode()        {}

// FunctionTypeFlags are qualifiers of a function signature
type FunctionTypeFlags uint8

const (
	FuncConst FunctionTypeFlags = 1 << iota
	FuncVolatile
	FuncLValueRef
	FuncRValueRef
	FuncNoexcept
	FuncTrailingReturn
)

// FunctionType is a function signature
type FunctionType struct {
	DeclBase
	Return    Type
	Params    []*Instance
	Variadic  bool
	Flags     FunctionTypeFlags
	Noexcept  *Expression // operand of noexcept(expr)
	Prototype *Scope      // scope holding the parameters
}

// SubType returns SubTypeFunctionType
func (*FunctionType) SubType() SubType { return SubTypeFunctionType }
func (*FunctionType) typeNode()        {}

// StructKind is the class-key of a StructType
type StructKind int

const (
	KindStruct StructKind = iota
	KindClass
	KindUnion
)

func (k StructKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindUnion:
		return "union"
	default:
		return "struct"
	}
}

// BaseSpecifier is one entry of a class base list
type BaseSpecifier struct {
	Type    Type
	Access  Visibility
	Virtual bool
	Pack    bool
}

// StructType is a class, struct or union
type StructType struct {
	DeclBase
	Kind       StructKind
	Members    *Scope
	Bases      []BaseSpecifier
	Final      bool
	Incomplete bool

	// Specialization holds the template arguments of an explicit or partial
	// specialization, with Primary pointing at the primary template.
	Specialization  []*TemplateArg
	Primary         *StructType
	Specializations []*StructType
}

// SubType returns SubTypeStruct
func (*StructType) SubType() SubType { return SubTypeStruct }
func (*StructType) typeNode()        {}

// EnumType is an enumeration
type EnumType struct {
	DeclBase
	Scoped     bool
	Underlying Type
	Values     []*Instance
	Members    *Scope
	Incomplete bool
}

// SubType returns SubTypeEnum
func (*EnumType) SubType() SubType { return SubTypeEnum }
func (*EnumType) typeNode()        {}

// TypedefType is a typedef or an alias-declaration
type TypedefType struct {
	DeclBase
	Aliased     Type
	UsingSyntax bool
}

// SubType returns SubTypeTypedef
func (*TypedefType) SubType() SubType { return SubTypeTypedef }
func (*TypedefType) typeNode()        {}

// TemplateParameterType is a type template parameter
type TemplateParameterType struct {
	DeclBase
	Index      int
	Pack       bool
	Default    Type
	Constraint *Expression // concept-id of a constrained parameter
	Params     *Scope      // parameters of a template template parameter
	Implicit   bool        // synthesized from a constrained auto parameter
}

// SubType returns SubTypeTemplateParameter
func (*TemplateParameterType) SubType() SubType { return SubTypeTemplateParameter }
func (*TemplateParameterType) typeNode()        {}

// TBDType is a dependent or unresolved type name such as typename T::value_type
type TBDType struct {
	DeclBase
	Typename bool
}

// SubType returns SubTypeTBD
func (*TBDType) SubType() SubType { return SubTypeTBD }
func (*TBDType) typeNode()        {}

// DecltypeType is decltype(expr)
type DecltypeType struct {
	DeclBase
	Expr *Expression
}

// SubType returns SubTypeDecltype
func (*DecltypeType) SubType() SubType { return SubTypeDecltype }
func (*DecltypeType) typeNode()        {}

// PackType is a pack expansion of a type pattern, T...
type PackType struct {
	DeclBase
	Pattern Type
}

// SubType returns SubTypePack
func (*PackType) SubType() SubType { return SubTypePack }
func (*PackType) typeNode()        {}

// TemplateIDType names a specialization of a class or alias template, Name<Args>
type TemplateIDType struct {
	DeclBase
	Template Declaration
	Args     []*TemplateArg
}

// SubType returns SubTypeTemplateID
func (*TemplateIDType) SubType() SubType { return SubTypeTemplateID }
func (*TemplateIDType) typeNode()        {}

// Unqualified strips references and cv-qualifiers
func Unqualified(t Type) Type {
	for {
		switch v := t.(type) {
		case *ConstType:
			t = v.Inner
		case *ReferenceType:
			t = v.Referent
		default:
			return t
		}
	}
}

// Resolve follows typedefs to the aliased type
func Resolve(t Type) Type {
	for i := 0; i < 64; i++ {
		td, ok := t.(*TypedefType)
		if !ok || td.Aliased == nil {
			return t
		}
		t = td.Aliased
	}
	return t
}

// IsDependent reports whether t mentions a template parameter
func IsDependent(t Type) bool {
	return isDependent(t, 0)
}

func isDependent(t Type, depth int) bool {
	if t == nil || depth > 32 {
		return false
	}
	switch v := t.(type) {
	case *TemplateParameterType, *TBDType, *DecltypeType:
		return true
	case *PackType:
		return true
	case *PointerType:
		return isDependent(v.Pointee, depth+1)
	case *ReferenceType:
		return isDependent(v.Referent, depth+1)
	case *ConstType:
		return isDependent(v.Inner, depth+1)
	case *ArrayType:
		return isDependent(v.Element, depth+1)
	case *FunctionType:
		if isDependent(v.Return, depth+1) {
			return true
		}
		for _, p := range v.Params {
			if isDependent(p.Type, depth+1) {
				return true
			}
		}
	case *TemplateIDType:
		for _, a := range v.Args {
			if a.Type != nil && isDependent(a.Type, depth+1) {
				return true
			}
			if a.Expr != nil && a.Expr.IsDependent() {
				return true
			}
		}
	case *SimpleType:
		return v.Constraint != nil
	}
	return false
}
