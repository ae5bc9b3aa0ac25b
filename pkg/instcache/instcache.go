// Package instcache memoizes template instantiations and concept checks of a scope
// tree. Entries are keyed by the template declaration and the rendered argument list,
// hashed with xxh3.
package instcache

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"cppparser/pkg/ast"

	"github.com/zeebo/xxh3"
)

// Instantiation is one template applied to one argument list
type Instantiation struct {
	Name     string // e.g. ::Array<int, 4>
	Hash     uint64
	Template ast.Declaration
	Args     []*ast.TemplateArg
	Result   ast.Declaration
	Err      error
	Uses     int
}

// Stats counts cache traffic
type Stats struct {
	Hits    int
	Misses  int
	Entries int
}

// Cache holds the instantiations made against one global scope. It is safe for
// concurrent use; instantiations are made one at a time under the cache lock, since
// they intern new types into the tree's interner.
type Cache struct {
	global *ast.Scope
	logger *slog.Logger

	mu        sync.Mutex
	entries   map[uint64][]*Instantiation
	satisfied map[*Instantiation]satisfaction
	stats     Stats
}

type satisfaction struct {
	value bool
	known bool
}

// New creates an empty cache for the declarations of global
func New(global *ast.Scope, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		global:    global,
		logger:    logger,
		entries:   make(map[uint64][]*Instantiation),
		satisfied: make(map[*Instantiation]satisfaction),
	}
}

// Name renders a template-id as the cache sees it
func Name(tmpl ast.Declaration, args []*ast.TemplateArg) string {
	var b strings.Builder
	b.WriteString(tmpl.Base().QualifiedName())
	b.WriteString("<")
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.String())
	}
	b.WriteString(">")
	return b.String()
}

// lookup returns the entry of tmpl<args>, instantiating it when missing. c.mu must be
// held.
func (c *Cache) lookup(tmpl ast.Declaration, args []*ast.TemplateArg) *Instantiation {
	name := Name(tmpl, args)
	hash := xxh3.HashString(name)

	for _, e := range c.entries[hash] {
		// distinct templates may share a qualified name across trees
		if e.Template == tmpl && e.Name == name {
			e.Uses++
			c.stats.Hits++
			return e
		}
	}
	e := &Instantiation{Name: name, Hash: hash, Template: tmpl, Args: args, Uses: 1}
	e.Result, e.Err = ast.Instantiate(tmpl, args, c.global)
	if e.Err != nil {
		c.logger.Debug("instcache.failed", "name", e.Name, "error", e.Err)
	}
	c.entries[hash] = append(c.entries[hash], e)
	c.stats.Misses++
	c.stats.Entries++
	return e
}

// Instantiate returns tmpl with args substituted for its parameters. The result of the
// first call is reused for every later call with equal arguments.
func (c *Cache) Instantiate(tmpl ast.Declaration, args []*ast.TemplateArg) (ast.Declaration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.lookup(tmpl, args)
	return e.Result, e.Err
}

// Satisfies evaluates the concept-id concept<args>. known is false when the constraint
// could not be evaluated.
func (c *Cache) Satisfies(concept *ast.Concept, args []*ast.TemplateArg) (value, known bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.lookup(concept, args)
	if s, ok := c.satisfied[e]; ok {
		return s.value, s.known
	}

	var s satisfaction
	if inst, isConcept := e.Result.(*ast.Concept); e.Err == nil && isConcept {
		s.value, s.known = inst.Initializer.EvaluateBool()
	}
	c.satisfied[e] = s
	return s.value, s.known
}

// Stats returns the traffic counters
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Instantiations returns the entries sorted by name. Their Uses counts keep changing
// while the cache is in use.
func (c *Cache) Instantiations() []*Instantiation {
	c.mu.Lock()
	var out []*Instantiation
	for _, bucket := range c.entries {
		out = append(out, bucket...)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
