package ast

import (
	"strconv"
	"strings"
)

const maxEvalDepth = 64

// Evaluate folds e to an integer constant. Booleans evaluate to 0 or 1. The second
// result is false when e is not a constant expression, for instance when it still
// depends on a template parameter.
func (e *Expression) Evaluate() (int64, bool) {
	return evaluate(e, 0)
}

// EvaluateBool folds e to a boolean constant
func (e *Expression) EvaluateBool() (value, ok bool) {
	v, ok := evaluate(e, 0)
	return v != 0, ok
}

func evaluate(e *Expression, depth int) (int64, bool) {
	if e == nil || depth > maxEvalDepth {
		return 0, false
	}
	switch e.Kind {
	case ExprInteger:
		return ParseInteger(e.Text)
	case ExprChar:
		return ParseChar(e.Text)
	case ExprBool:
		if e.Text == "true" {
			return 1, true
		}
		return 0, true
	case ExprNullptr:
		return 0, true
	case ExprVariable:
		return evaluateVariable(e, depth)
	case ExprUnary:
		x, ok := evaluate(e.X, depth+1)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case "+":
			return x, true
		case "-":
			return -x, true
		case "!":
			return boolInt(x == 0), true
		case "~":
			return ^x, true
		}
	case ExprBinary:
		return evaluateBinary(e, depth)
	case ExprConditional:
		c, ok := evaluate(e.X, depth+1)
		if !ok {
			return 0, false
		}
		if c != 0 {
			return evaluate(e.Y, depth+1)
		}
		return evaluate(e.Z, depth+1)
	case ExprSizeof:
		if e.Type != nil {
			size, _, ok := layout(e.Type, 0)
			return size, ok
		}
	case ExprAlignof:
		if e.Type != nil {
			_, align, ok := layout(e.Type, 0)
			return align, ok
		}
	case ExprCast, ExprConstruct:
		var x *Expression
		if e.X != nil {
			x = e.X
		} else if len(e.Args) == 1 {
			x = e.Args[0]
		} else if len(e.Args) == 0 && e.Kind == ExprConstruct {
			return 0, true
		}
		v, ok := evaluate(x, depth+1)
		if !ok {
			return 0, false
		}
		if st, isSimple := Resolve(e.Type).(*SimpleType); isSimple && st.Kind == KindBool {
			return boolInt(v != 0), true
		}
		return v, true
	}
	return 0, false
}

func evaluateVariable(e *Expression, depth int) (int64, bool) {
	switch d := e.Decl.(type) {
	case *Concept:
		return evaluateConcept(d, e.TemplateArgs, depth)
	case *Instance:
		if d.Initializer != nil && d.Scope != nil && d.Scope.Kind != ScopeTemplate {
			return evaluate(d.Initializer, depth+1)
		}
		if enum, ok := d.Type.(*EnumType); ok {
			return enumeratorValue(enum, d, depth)
		}
	}
	return 0, false
}

// evaluateConcept checks a concept-id by substituting its arguments into the constraint
func evaluateConcept(c *Concept, args []*TemplateArg, depth int) (int64, bool) {
	if c.Template == nil {
		return evaluate(c.Initializer, depth+1)
	}
	subst, err := BindTemplateArgs(c.Template, args)
	if err != nil {
		return 0, false
	}
	global := c.Scope
	if global != nil {
		global = global.Global()
	}
	init := SubstituteExpr(c.Initializer, subst, c.Scope, global)
	return evaluate(init, depth+1)
}

func enumeratorValue(enum *EnumType, target *Instance, depth int) (int64, bool) {
	next := int64(0)
	for _, v := range enum.Values {
		value := next
		if v.Initializer != nil {
			x, ok := evaluate(v.Initializer, depth+1)
			if !ok {
				return 0, false
			}
			value = x
		}
		if v == target {
			return value, true
		}
		next = value + 1
	}
	return 0, false
}

func evaluateBinary(e *Expression, depth int) (int64, bool) {
	x, okx := evaluate(e.X, depth+1)
	switch e.Op {
	case "&&":
		if okx && x == 0 {
			return 0, true
		}
		y, oky := evaluate(e.Y, depth+1)
		if oky && y == 0 {
			return 0, true
		}
		return boolInt(x != 0 && y != 0), okx && oky
	case "||":
		if okx && x != 0 {
			return 1, true
		}
		y, oky := evaluate(e.Y, depth+1)
		if oky && y != 0 {
			return 1, true
		}
		return boolInt(x != 0 || y != 0), okx && oky
	}
	y, oky := evaluate(e.Y, depth+1)
	if !okx || !oky {
		return 0, false
	}
	switch e.Op {
	case "+":
		return x + y, true
	case "-":
		return x - y, true
	case "*":
		return x * y, true
	case "/":
		if y == 0 {
			return 0, false
		}
		return x / y, true
	case "%":
		if y == 0 {
			return 0, false
		}
		return x % y, true
	case "<<":
		return x << uint64(y), true
	case ">>":
		return x >> uint64(y), true
	case "&":
		return x & y, true
	case "|":
		return x | y, true
	case "^":
		return x ^ y, true
	case "==":
		return boolInt(x == y), true
	case "!=":
		return boolInt(x != y), true
	case "<":
		return boolInt(x < y), true
	case ">":
		return boolInt(x > y), true
	case "<=":
		return boolInt(x <= y), true
	case ">=":
		return boolInt(x >= y), true
	case ",":
		return y, true
	}
	return 0, false
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// ParseInteger parses a C integer literal, accepting digit separators and suffixes
func ParseInteger(text string) (int64, bool) {
	s := strings.ReplaceAll(text, "'", "")
	s = strings.TrimRight(s, "uUlLzZ")
	if s == "" {
		return 0, false
	}
	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		base, s = 2, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, false
	}
	return int64(v), true
}

// ParseChar returns the value of a character literal, encoding prefix allowed
func ParseChar(text string) (int64, bool) {
	i := strings.IndexByte(text, '\'')
	j := strings.LastIndexByte(text, '\'')
	if i < 0 || j <= i+1 {
		return 0, false
	}
	body := text[i+1 : j]
	if body[0] != '\\' {
		r := []rune(body)
		return int64(r[0]), true
	}
	if len(body) < 2 {
		return 0, false
	}
	switch body[1] {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case 'a':
		return 7, true
	case 'b':
		return 8, true
	case 'f':
		return 12, true
	case 'v':
		return 11, true
	case 'x':
		v, err := strconv.ParseUint(body[2:], 16, 64)
		return int64(v), err == nil
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v, err := strconv.ParseUint(body[1:], 8, 64)
		return int64(v), err == nil
	default:
		return int64(body[1]), true
	}
}

// SizeOf returns the size in bytes of t under an LP64 data model
func SizeOf(t Type) (int64, bool) {
	size, _, ok := layout(t, 0)
	return size, ok
}

// layout computes size and alignment under an LP64 data model
func layout(t Type, depth int) (size, align int64, ok bool) {
	if depth > 32 {
		return 0, 0, false
	}
	switch v := Resolve(t).(type) {
	case *SimpleType:
		n := simpleSize(v)
		return n, n, n > 0
	case *PointerType:
		return 8, 8, true
	case *ReferenceType:
		return layout(v.Referent, depth+1)
	case *ConstType:
		return layout(v.Inner, depth+1)
	case *ArrayType:
		n, ok := evaluate(v.Size, 0)
		if !ok {
			return 0, 0, false
		}
		es, ea, ok := layout(v.Element, depth+1)
		return es * n, ea, ok
	case *EnumType:
		if v.Underlying != nil {
			return layout(v.Underlying, depth+1)
		}
		return 4, 4, true
	case *StructType:
		return structLayout(v, depth)
	}
	return 0, 0, false
}

func simpleSize(t *SimpleType) int64 {
	switch t.Kind {
	case KindBool, KindChar, KindChar8:
		return 1
	case KindChar16:
		return 2
	case KindChar32, KindWChar, KindFloat:
		return 4
	case KindInt:
		switch {
		case t.Flags&FlagShort != 0:
			return 2
		case t.Flags&(FlagLong|FlagLongLong) != 0:
			return 8
		}
		return 4
	case KindDouble:
		if t.Flags&FlagLong != 0 {
			return 16
		}
		return 8
	case KindNullptr:
		return 8
	}
	return 0
}

func structLayout(st *StructType, depth int) (size, align int64, ok bool) {
	if st.Incomplete || st.Members == nil {
		return 0, 0, false
	}
	align = 1
	for _, d := range st.Members.Declarations() {
		inst, isInst := d.(*Instance)
		if !isInst || inst.Storage.Has(StorageStatic) {
			continue
		}
		fs, fa, ok := layout(inst.Type, depth+1)
		if !ok {
			return 0, 0, false
		}
		if fa > align {
			align = fa
		}
		if st.Kind == KindUnion {
			if fs > size {
				size = fs
			}
			continue
		}
		size = (size + fa - 1) / fa * fa
		size += fs
	}
	if size == 0 {
		return 1, 1, true
	}
	size = (size + align - 1) / align * align
	return size, align, true
}
