package codegen

import (
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/mhbemani/minic/ast"
)

// libc holds the C library functions generated code calls into.
type libc struct {
	printf *ir.Func
	malloc *ir.Func
	strlen *ir.Func
	memcpy *ir.Func
	strcmp *ir.Func
}

func addLibc(m *ir.Module) libc {
	printf := m.NewFunc("printf", Int32, ir.NewParam("format", CString))
	printf.Sig.Variadic = true

	return libc{
		printf: printf,
		malloc: m.NewFunc("malloc", CString, ir.NewParam("size", Int64)),
		strlen: m.NewFunc("strlen", Int64, ir.NewParam("s", CString)),
		memcpy: m.NewFunc("memcpy", CString, ir.NewParam("dst", CString), ir.NewParam("src", CString), ir.NewParam("n", Int64)),
		strcmp: m.NewFunc("strcmp", Int32, ir.NewParam("a", CString), ir.NewParam("b", CString)),
	}
}

func hash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return strconv.FormatUint(uint64(h.Sum32()), 10)
}

// str returns a pointer to the first byte of a NUL terminated copy of s.
// Each distinct string is emitted as a single global.
func (g *Generator) str(s string) value.Value {
	rawdata, ok := g.strings[s]
	if !ok {
		name := "_str_" + hash(s)
		for n := 1; g.globalNames[name]; n++ {
			name = fmt.Sprintf("_str_%s.%d", hash(s), n)
		}
		g.globalNames[name] = true

		def := g.m.NewGlobalDef(name, constant.NewCharArrayFromString(s+"\x00"))
		def.Immutable = true
		rawdata = def
		g.strings[s] = rawdata
	}

	return g.b.NewBitCast(rawdata, CString)
}

func (g *Generator) printf(format string, args ...value.Value) {
	g.b.NewCall(g.rt.printf, append([]value.Value{g.str(format)}, args...)...)
}

// mallocInts allocates room for n 32 bit integers.
func (g *Generator) mallocInts(n value.Value) value.Value {
	var size value.Value
	if c, ok := n.(*constant.Int); ok {
		size = i64(c.X.Int64() * 4)
	} else {
		size = g.b.NewMul(g.b.NewSExt(n, Int64), i64(4))
	}
	raw := g.b.NewCall(g.rt.malloc, size)
	return g.b.NewBitCast(raw, IntArray)
}

func (g *Generator) elementPtr(arr, idx value.Value) value.Value {
	return g.b.NewGetElementPtr(Int32, arr, idx)
}

func (g *Generator) loadElement(arr, idx value.Value) value.Value {
	return g.b.NewLoad(Int32, g.elementPtr(arr, idx))
}

// concat allocates a new string holding a followed by b.
func (g *Generator) concat(a, b value.Value) value.Value {
	la := g.b.NewCall(g.rt.strlen, a)
	lb := g.b.NewCall(g.rt.strlen, b)
	total := g.b.NewAdd(g.b.NewAdd(la, lb), i64(1))

	dst := g.b.NewCall(g.rt.malloc, total)
	g.b.NewCall(g.rt.memcpy, dst, a, la)
	tail := g.b.NewGetElementPtr(types.I8, dst, la)
	g.b.NewCall(g.rt.memcpy, tail, b, g.b.NewAdd(lb, i64(1)))

	return dst
}

// forRange emits a loop running body for every i in [from, n). The index
// value handed to body is valid anywhere inside the loop.
func (g *Generator) forRange(from, n value.Value, body func(i value.Value)) {
	idx := g.temp(ast.Int, "idx")
	g.b.NewStore(from, idx)

	cond := g.newBlock("range.cond")
	loop := g.newBlock("range.body")
	end := g.newBlock("range.end")

	g.b.NewBr(cond)
	g.b = cond
	i := g.b.NewLoad(Int32, idx)
	g.b.NewCondBr(g.b.NewICmp(enum.IPredSLT, i, n), loop, end)

	g.b = loop
	body(i)
	if g.b.Term == nil {
		g.b.NewStore(g.b.NewAdd(i, i32(1)), idx)
		g.b.NewBr(cond)
	}

	g.b = end
}
