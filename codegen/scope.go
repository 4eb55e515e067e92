package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/mhbemani/minic/ast"
	"github.com/mhbemani/minic/errors"
	mtypes "github.com/mhbemani/minic/types"
)

// slot is the stack storage behind a variable. count is the element count
// of an array variable, or -1 when it is not known at compile time. sized is
// set once an array holds a value; its count is fixed from then on.
type slot struct {
	ptr   *ir.InstAlloca
	typ   ast.VarType
	count int
	sized bool
}

func (g *Generator) pushScope() {
	g.names = append(g.names, make(map[string]*slot))
}

func (g *Generator) popScope() {
	g.names = g.names[:len(g.names)-1]
}

func (g *Generator) top() map[string]*slot {
	return g.names[len(g.names)-1]
}

func (g *Generator) find(name string) (*slot, bool) {
	for i := len(g.names) - 1; i >= 0; i-- {
		if s, ok := g.names[i][name]; ok {
			return s, true
		}
	}
	return nil, false
}

func (g *Generator) lookup(name string, at mtypes.Span) *slot {
	s, ok := g.find(name)
	if !ok {
		panic(errors.NewCodegenError(errors.Undeclared, at, "%s", name))
	}
	return s
}

// temp allocates a slot in the entry block, so it dominates every use.
func (g *Generator) temp(t ast.VarType, name string) *ir.InstAlloca {
	a := g.entry.NewAlloca(llvmType(t))
	a.SetName(g.uniqueName(name))
	return a
}

// declare binds name in the innermost scope. Names are never shadowed, so
// a name visible from any enclosing scope is a redeclaration.
func (g *Generator) declare(name string, t ast.VarType, at mtypes.Span) *slot {
	if _, ok := g.find(name); ok {
		panic(errors.NewCodegenError(errors.Redeclared, at, "%s is already declared", name))
	}

	s := &slot{
		ptr:   g.temp(t, name),
		typ:   t,
		count: -1,
	}
	g.top()[name] = s
	g.symbols.Variables[name] = t.String()
	plog.Debugf("declared %s %s as %%%s", t, name, s.ptr.Name())

	return s
}

// uniqueName returns base, or base with a numeric suffix if base is taken
// by another local of the function.
func (g *Generator) uniqueName(base string) string {
	n := g.localNames[base]
	g.localNames[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s.%d", base, n)
}
