package instcache

import (
	"log/slog"

	"cppparser/pkg/ast"
)

// Collect instantiates every template-id named outside of templates in tree and checks
// every concept-id used in an initializer. The cache holding the results is returned.
func Collect(tree *ast.ScopeTree, logger *slog.Logger) *Cache {
	c := New(tree.Global, logger)
	c.walkScope(tree.Global)
	return c
}

func (c *Cache) walkScope(scope *ast.Scope) {
	for _, d := range scope.Declarations() {
		c.walkDecl(d)
	}
}

func (c *Cache) walkDecl(d ast.Declaration) {
	// template patterns are dependent
	if d.Base().Template != nil {
		return
	}
	switch v := d.(type) {
	case *ast.Namespace:
		if v.Alias == nil {
			c.walkScope(v.Members)
		}
	case *ast.StructType:
		if v.Members != nil {
			for _, base := range v.Bases {
				c.walkType(base.Type)
			}
			c.walkScope(v.Members)
		}
	case *ast.FunctionGroup:
		for _, fn := range v.Functions {
			c.walkDecl(fn)
		}
	case *ast.Function:
		c.walkType(v.Type)
	case *ast.Instance:
		c.walkType(v.Type)
		c.walkExpr(v.Initializer)
	case *ast.TypedefType:
		c.walkType(v.Aliased)
	}
}

func (c *Cache) walkType(t ast.Type) {
	switch v := t.(type) {
	case *ast.PointerType:
		c.walkType(v.Pointee)
	case *ast.ReferenceType:
		c.walkType(v.Referent)
	case *ast.ConstType:
		c.walkType(v.Inner)
	case *ast.ArrayType:
		c.walkType(v.Element)
	case *ast.FunctionType:
		c.walkType(v.Return)
		for _, param := range v.Params {
			c.walkType(param.Type)
		}
	case *ast.TemplateIDType:
		for _, arg := range v.Args {
			c.walkArg(arg)
		}
		if v.Template != nil && v.Template.Base().Template != nil {
			c.Instantiate(v.Template, v.Args)
		}
	}
}

func (c *Cache) walkArg(arg *ast.TemplateArg) {
	if arg == nil {
		return
	}
	c.walkType(arg.Type)
	c.walkExpr(arg.Expr)
	for _, elem := range arg.Elems {
		c.walkArg(elem)
	}
}

func (c *Cache) walkExpr(e *ast.Expression) {
	if e == nil {
		return
	}
	if concept, ok := e.Decl.(*ast.Concept); ok && e.HasTemplate {
		c.Satisfies(concept, e.TemplateArgs)
	}
	c.walkExpr(e.X)
	c.walkExpr(e.Y)
	c.walkExpr(e.Z)
	for _, arg := range e.Args {
		c.walkExpr(arg)
	}
}
