// Package codegen lowers a minic program to an LLVM IR module with a single
// main function.
package codegen

import (
	"runtime"

	"github.com/coreos/pkg/capnslog"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/value"
	"github.com/mhbemani/minic/ast"
	"github.com/mhbemani/minic/errors"
	mtypes "github.com/mhbemani/minic/types"
	"github.com/ztrue/tracerr"
)

var plog = capnslog.NewPackageLogger("github.com/mhbemani/minic", "codegen")

type Generator struct {
	m     *ir.Module
	fn    *ir.Func
	entry *ir.Block
	body  *ir.Block
	b     *ir.Block
	rt    libc

	names      []map[string]*slot
	localNames map[string]int

	strings     map[string]value.Value
	globalNames map[string]bool
	symbols     Symbols

	errSlot  *ir.InstAlloca
	handlers []*ir.Block
	uncaught *ir.Block
}

func New() *Generator {
	return &Generator{}
}

func (g *Generator) reset() {
	g.m = ir.NewModule()
	g.rt = addLibc(g.m)
	g.fn = g.m.NewFunc("main", Int32)

	g.names = []map[string]*slot{{}}
	g.localNames = map[string]int{}
	g.strings = map[string]value.Value{}
	g.globalNames = map[string]bool{}
	g.symbols = Symbols{Variables: map[string]string{}}
	g.handlers = nil
	g.uncaught = nil

	g.entry = g.newBlock("entry")
	g.body = g.newBlock("body")
	g.b = g.body
	g.errSlot = g.temp(ast.Error, "err")
}

func (g *Generator) newBlock(name string) *ir.Block {
	return g.fn.NewBlock(g.uniqueName(name))
}

// Generate lowers p into a fresh module. The generator can be reused.
func (g *Generator) Generate(p *ast.Program) (m *ir.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(runtime.Error); ok {
				panic(r)
			}
			cerr, ok := r.(errors.CodegenError)
			if !ok {
				panic(r)
			}
			m = nil
			err = tracerr.Wrap(cerr)
		}
	}()

	g.reset()
	for _, s := range p.Statements {
		g.stmt(s)
	}
	g.finish()

	return g.m, nil
}

// Dump renders the module of the last successful Generate call.
func (g *Generator) Dump() string {
	if g.m == nil {
		return ""
	}
	return g.m.String()
}

func (g *Generator) finish() {
	if g.b.Term == nil {
		g.b.NewRet(i32(0))
	}
	g.entry.NewBr(g.body)

	registerSymbols(g.symbols, g.m)

	for _, b := range g.fn.Blocks {
		if b.Term == nil {
			panic(errors.NewCodegenError(errors.Internal, mtypes.Span{}, "block %s has no terminator", b.Name()))
		}
	}
}

func (g *Generator) block(stmts []ast.Stmt) {
	g.pushScope()
	for _, s := range stmts {
		g.stmt(s)
	}
	g.popScope()
}

// branchTo ends the current block with a jump to target unless something
// already terminated it.
func (g *Generator) branchTo(target *ir.Block) {
	if g.b.Term == nil {
		g.b.NewBr(target)
	}
}

func (g *Generator) stmt(s ast.Stmt) {
	switch v := s.(type) {
	case ast.VarDecl:
		g.varDecl(v)
	case ast.MultiVarDecl:
		for _, d := range v.Decls {
			g.varDecl(d)
		}
	case ast.Assign:
		target := g.lookup(v.Name, v.Pos)
		val := g.expr(v.Value)
		g.b.NewStore(g.coerce(val, target.typ, v.Pos), target.ptr)
		if target.typ == ast.Array {
			g.resize(target, val.count, v.Pos)
		}
	case ast.CompoundAssign:
		target := g.lookup(v.Name, v.Pos)
		cur := typedValue{v: g.b.NewLoad(llvmType(target.typ), target.ptr), typ: target.typ, count: target.count}
		val := g.binaryValues(v.Op, cur, g.expr(v.Value), v.Pos)
		g.b.NewStore(g.coerce(val, target.typ, v.Pos), target.ptr)
	case ast.Block:
		g.block(v)
	case ast.IfElse:
		g.ifElse(v)
	case ast.Loop:
		if v.Kind == ast.Foreach {
			g.foreach(v)
		} else {
			g.forLoop(v)
		}
	case ast.Print:
		g.print(g.expr(v.Expr), v.Pos)
	case ast.TryCatch:
		g.tryCatch(v)
	case ast.Match:
		g.match(v)
	case ast.Raise:
		g.raise(v)
	default:
		panic(errors.NewCodegenError(errors.Unsupported, mtypes.Span{}, "statement %T", s))
	}
}

func (g *Generator) zero(t ast.VarType) value.Value {
	switch t {
	case ast.Int:
		return i32(0)
	case ast.Bool:
		return constant.False
	case ast.Float:
		return constant.NewFloat(Float32, 0)
	case ast.Char:
		return constant.NewInt(Byte, 0)
	case ast.String:
		return g.str("")
	}
	return constant.NewNull(IntArray)
}

func (g *Generator) varDecl(v ast.VarDecl) {
	var val value.Value
	count := 0
	if v.Value != nil {
		init := g.expr(v.Value)
		val = g.coerce(init, v.Type, v.Pos)
		count = init.count
	} else {
		val = g.zero(v.Type)
	}

	s := g.declare(v.Name, v.Type, v.Pos)
	if v.Type == ast.Array {
		s.count = count
		s.sized = v.Value != nil
	}
	g.b.NewStore(val, s.ptr)
}

// resize records that an array of count elements was stored in s. Only an
// array declared without a value takes the size of its first assignment.
func (g *Generator) resize(s *slot, count int, at mtypes.Span) {
	if s.sized && s.count != count {
		panic(errors.NewCodegenError(errors.ArrayShape, at, "cannot assign an array of %d elements to one of %d", count, s.count))
	}
	s.count = count
	s.sized = true
}

func (g *Generator) condition(e ast.Expr, at mtypes.Span) value.Value {
	c := g.expr(e)
	if c.typ != ast.Bool {
		panic(errors.NewCodegenError(errors.TypeMismatch, at, "condition is %s, not bool", c.typ))
	}
	return c.v
}

func (g *Generator) ifElse(v ast.IfElse) {
	cond := g.condition(v.Cond, v.Pos)

	then := g.newBlock("if.then")
	end := g.newBlock("if.end")
	otherwise := end
	if v.Else != nil {
		otherwise = g.newBlock("if.else")
	}
	g.b.NewCondBr(cond, then, otherwise)

	g.b = then
	g.block(v.Then)
	g.branchTo(end)

	if v.Else != nil {
		g.b = otherwise
		g.stmt(v.Else)
		g.branchTo(end)
	}

	g.b = end
}

func (g *Generator) forLoop(v ast.Loop) {
	g.pushScope()
	defer g.popScope()

	if v.Init != nil {
		g.stmt(v.Init)
	}

	cond := g.newBlock("for.cond")
	body := g.newBlock("for.body")
	step := g.newBlock("for.step")
	end := g.newBlock("for.end")

	g.b.NewBr(cond)
	g.b = cond
	if v.Cond == nil {
		g.b.NewBr(body)
	} else {
		g.b.NewCondBr(g.condition(v.Cond, v.Pos), body, end)
	}

	g.b = body
	g.block(v.Body)
	g.branchTo(step)

	g.b = step
	if v.Update != nil {
		g.stmt(v.Update)
	}
	g.b.NewBr(cond)

	g.b = end
}

func (g *Generator) foreach(v ast.Loop) {
	coll := g.expr(v.Collection)
	g.requireArray(coll, v.Pos)

	g.pushScope()
	defer g.popScope()

	elem := g.declare(v.VarName, ast.Int, v.Pos)
	g.forRange(i32(0), i32(int64(coll.count)), func(i value.Value) {
		g.b.NewStore(g.loadElement(coll.v, i), elem.ptr)
		g.block(v.Body)
	})
}

func (g *Generator) match(v ast.Match) {
	x := g.expr(v.Expr)

	end := g.newBlock("match.end")
	dflt := end
	var arms []*ir.Block
	for _, c := range v.Cases {
		if c.Value == nil {
			dflt = g.newBlock("match.default")
			arms = append(arms, dflt)
			continue
		}
		arms = append(arms, g.newBlock("match.case"))
	}

	labels := map[string]bool{}
	for _, c := range v.Cases {
		if c.Value == nil {
			continue
		}
		label := ast.ExprString(c.Value)
		if labels[label] {
			panic(errors.NewCodegenError(errors.DuplicateCase, v.Pos, "case %s appears twice", label))
		}
		labels[label] = true
	}

	switch x.typ {
	case ast.Int, ast.Char, ast.Bool:
		var cases []*ir.Case
		for i, c := range v.Cases {
			if c.Value == nil {
				continue
			}
			lit := g.expr(c.Value)
			if lit.typ != x.typ {
				panic(errors.NewCodegenError(errors.TypeMismatch, v.Pos, "case %s is %s, matching on %s", ast.ExprString(c.Value), lit.typ, x.typ))
			}
			k, ok := lit.v.(constant.Constant)
			if !ok {
				panic(errors.NewCodegenError(errors.Unsupported, v.Pos, "case %s is not a literal", ast.ExprString(c.Value)))
			}
			cases = append(cases, ir.NewCase(k, arms[i]))
		}
		g.b.NewSwitch(x.v, dflt, cases...)
	case ast.String:
		for i, c := range v.Cases {
			if c.Value == nil {
				continue
			}
			if _, ok := c.Value.(ast.StrLit); !ok {
				panic(errors.NewCodegenError(errors.TypeMismatch, v.Pos, "case %s is not a string", ast.ExprString(c.Value)))
			}
			cmp := g.b.NewCall(g.rt.strcmp, x.v, g.expr(c.Value).v)
			next := g.newBlock("match.next")
			g.b.NewCondBr(g.b.NewICmp(enum.IPredEQ, cmp, i32(0)), arms[i], next)
			g.b = next
		}
		g.b.NewBr(dflt)
	default:
		panic(errors.NewCodegenError(errors.Unsupported, v.Pos, "match on %s", x.typ))
	}

	for i, c := range v.Cases {
		g.b = arms[i]
		g.block(c.Body)
		g.branchTo(end)
	}

	g.b = end
}

func (g *Generator) print(val typedValue, at mtypes.Span) {
	switch val.typ {
	case ast.Int:
		g.printf("%d\n", val.v)
	case ast.Bool:
		g.printf("%d\n", g.b.NewZExt(val.v, Int32))
	case ast.Char:
		g.printf("%c\n", g.b.NewZExt(val.v, Int32))
	case ast.Float:
		g.printf("%f\n", g.b.NewFPExt(val.v, Float64))
	case ast.String, ast.Error:
		g.printf("%s\n", val.v)
	case ast.Array:
		g.requireArray(val, at)

		format := "["
		var elems []value.Value
		for i := 0; i < val.count; i++ {
			if i > 0 {
				format += ", "
			}
			format += "%d"
			elems = append(elems, g.loadElement(val.v, i32(int64(i))))
		}
		g.printf(format+"]\n", elems...)
	}
}
