package ast

// Interner shares structurally identical composite types within one parse session, so
// that pointer equality of interned types implies type equality.
type Interner struct {
	simple    map[simpleKey]*SimpleType
	pointers  map[Type]*PointerType
	refs      map[refKey]*ReferenceType
	cvs       map[cvKey]*ConstType
	arrays    map[arrayKey]*ArrayType
	hits      int
	allocated int
}

type simpleKey struct {
	kind  SimpleKind
	flags SimpleFlags
}

type refKey struct {
	t      Type
	rvalue bool
}

type cvKey struct {
	t    Type
	c, v bool
}

type arrayKey struct {
	t    Type
	size string
}

// NewInterner creates an empty interner
func NewInterner() *Interner {
	return &Interner{
		simple:   make(map[simpleKey]*SimpleType),
		pointers: make(map[Type]*PointerType),
		refs:     make(map[refKey]*ReferenceType),
		cvs:      make(map[cvKey]*ConstType),
		arrays:   make(map[arrayKey]*ArrayType),
	}
}

// Simple returns the fundamental type for kind and flags
func (in *Interner) Simple(kind SimpleKind, flags SimpleFlags) *SimpleType {
	key := simpleKey{kind, flags}
	if t, ok := in.simple[key]; ok {
		in.hits++
		return t
	}
	t := &SimpleType{Kind: kind, Flags: flags}
	in.simple[key] = t
	in.allocated++
	return t
}

// Pointer returns the pointer to t
func (in *Interner) Pointer(t Type) *PointerType {
	if p, ok := in.pointers[t]; ok {
		in.hits++
		return p
	}
	p := &PointerType{Pointee: t}
	in.pointers[t] = p
	in.allocated++
	return p
}

// Reference returns the lvalue or rvalue reference to t
func (in *Interner) Reference(t Type, rvalue bool) *ReferenceType {
	key := refKey{t, rvalue}
	if r, ok := in.refs[key]; ok {
		in.hits++
		return r
	}
	r := &ReferenceType{Referent: t, RValue: rvalue}
	in.refs[key] = r
	in.allocated++
	return r
}

// CV returns t with the given cv-qualifiers added; qualifiers already present on t are merged
func (in *Interner) CV(t Type, isConst, isVolatile bool) Type {
	if !isConst && !isVolatile {
		return t
	}
	if inner, ok := t.(*ConstType); ok {
		return in.CV(inner.Inner, isConst || inner.Const, isVolatile || inner.Volatile)
	}
	key := cvKey{t, isConst, isVolatile}
	if c, ok := in.cvs[key]; ok {
		in.hits++
		return c
	}
	c := &ConstType{Inner: t, Const: isConst, Volatile: isVolatile}
	in.cvs[key] = c
	in.allocated++
	return c
}

// Array returns an array of element. Arrays whose bound is not a literal are not shared.
func (in *Interner) Array(element Type, size *Expression) *ArrayType {
	if size != nil && size.Kind != ExprInteger {
		in.allocated++
		return &ArrayType{Element: element, Size: size}
	}
	key := arrayKey{t: element}
	if size != nil {
		key.size = size.Text
	}
	if a, ok := in.arrays[key]; ok {
		in.hits++
		return a
	}
	a := &ArrayType{Element: element, Size: size}
	in.arrays[key] = a
	in.allocated++
	return a
}

// Stats returns how many lookups were served from the table and how many types were created
func (in *Interner) Stats() (hits, allocated int) {
	return in.hits, in.allocated
}
