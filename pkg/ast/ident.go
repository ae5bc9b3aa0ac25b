package ast

import "strings"

// NameComponent is one step of a possibly qualified name, with optional template arguments
type NameComponent struct {
	Name     string
	Args     []*TemplateArg
	HasArgs  bool
	Template bool // written with the template disambiguator
}

// Identifier is a possibly qualified name such as ::a::b<int>::c
type Identifier struct {
	Names  []NameComponent
	Global bool // leading ::
}

// NewIdentifier creates an unqualified identifier
func NewIdentifier(name string) *Identifier {
	return &Identifier{Names: []NameComponent{{Name: name}}}
}

// ParseIdentifier splits a qualified path on :: without interpreting template arguments
func ParseIdentifier(path string) *Identifier {
	id := &Identifier{}
	if strings.HasPrefix(path, "::") {
		id.Global = true
		path = path[2:]
	}
	for _, part := range strings.Split(path, "::") {
		id.Names = append(id.Names, NameComponent{Name: strings.TrimSpace(part)})
	}
	return id
}

// Name returns the last simple name
func (id *Identifier) Name() string {
	if id == nil || len(id.Names) == 0 {
		return ""
	}
	return id.Names[len(id.Names)-1].Name
}

// Last returns the last component
func (id *Identifier) Last() *NameComponent {
	if len(id.Names) == 0 {
		return nil
	}
	return &id.Names[len(id.Names)-1]
}

// IsScoped reports whether the identifier has a qualifier
func (id *Identifier) IsScoped() bool {
	return id.Global || len(id.Names) > 1
}

// Qualifier returns the identifier without its last component
func (id *Identifier) Qualifier() *Identifier {
	if len(id.Names) <= 1 {
		return &Identifier{Global: id.Global}
	}
	return &Identifier{Names: id.Names[:len(id.Names)-1], Global: id.Global}
}

// String renders the identifier as written, template arguments included
func (id *Identifier) String() string {
	if id == nil {
		return ""
	}
	var sb strings.Builder
	if id.Global {
		sb.WriteString("::")
	}
	for i, n := range id.Names {
		if i > 0 {
			sb.WriteString("::")
		}
		if n.Template {
			sb.WriteString("template ")
		}
		sb.WriteString(n.Name)
		if n.HasArgs {
			sb.WriteString(formatTemplateArgs(n.Args, nil))
		}
	}
	return sb.String()
}

// TemplateArg is one template argument: a type or an expression, possibly a pack
// expansion. A template parameter pack is bound to a TemplateArg holding its Elems.
type TemplateArg struct {
	Type  Type
	Expr  *Expression
	Pack  bool
	Elems []*TemplateArg
}

// String renders the argument relative to the global scope
func (a *TemplateArg) String() string {
	return a.format(nil)
}

func (a *TemplateArg) format(scope *Scope) string {
	var s string
	switch {
	case a.Elems != nil:
		parts := make([]string, len(a.Elems))
		for i, e := range a.Elems {
			parts[i] = e.format(scope)
		}
		return strings.Join(parts, ", ")
	case a.Type != nil:
		s = FormatType(a.Type, "", scope)
	case a.Expr != nil:
		s = FormatExpr(a.Expr, scope)
	}
	if a.Pack {
		s += "..."
	}
	return s
}

func formatTemplateArgs(args []*TemplateArg, scope *Scope) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.format(scope)
	}
	s := "<" + strings.Join(parts, ", ")
	if strings.HasSuffix(s, ">") {
		s += " "
	}
	return s + ">"
}
