package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
	"github.com/mhbemani/minic/ast"
)

// Errors travel through an explicit channel rather than by unwinding: the
// payload is stored in the function's error slot and control jumps to the
// innermost catch block, or to a block that reports the error and exits
// with status 1 when no try is active.

func (g *Generator) handler() *ir.Block {
	if n := len(g.handlers); n > 0 {
		return g.handlers[n-1]
	}

	if g.uncaught == nil {
		cur := g.b
		g.uncaught = g.newBlock("uncaught")
		g.b = g.uncaught
		g.printf("error: %s\n", g.b.NewLoad(CString, g.errSlot))
		g.b.NewRet(i32(1))
		g.b = cur
	}
	return g.uncaught
}

// throw ends the current block by handing payload to the active handler.
func (g *Generator) throw(payload value.Value) {
	g.b.NewStore(payload, g.errSlot)
	g.b.NewBr(g.handler())
}

// failIf raises msg when cond holds and continues in a fresh block otherwise.
func (g *Generator) failIf(cond value.Value, msg string) {
	fail := g.newBlock("fail")
	ok := g.newBlock("ok")
	g.b.NewCondBr(cond, fail, ok)

	g.b = fail
	g.throw(g.str(msg))

	g.b = ok
}

func (g *Generator) raise(v ast.Raise) {
	payload := g.expr(v.Value)
	if payload.typ != ast.String && payload.typ != ast.Error {
		panic(mismatch(v.Pos, "error payload is %s, not string", payload.typ))
	}
	g.throw(payload.v)

	// code after a raise is unreachable but still has to live in a block
	g.b = g.newBlock("after.raise")
}

func (g *Generator) tryCatch(v ast.TryCatch) {
	catch := g.newBlock("catch")
	end := g.newBlock("try.end")

	g.handlers = append(g.handlers, catch)
	g.block(v.Try)
	g.handlers = g.handlers[:len(g.handlers)-1]
	g.branchTo(end)

	g.b = catch
	g.pushScope()
	errVar := g.declare(v.ErrorVar, ast.Error, v.Pos)
	g.b.NewStore(g.b.NewLoad(CString, g.errSlot), errVar.ptr)
	for _, s := range v.Catch {
		g.stmt(s)
	}
	g.popScope()
	g.branchTo(end)

	g.b = end
}
