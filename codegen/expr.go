package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/mhbemani/minic/ast"
	"github.com/mhbemani/minic/errors"
	mtypes "github.com/mhbemani/minic/types"
)

// typedValue is an IR value with the source type it was computed as. count
// carries the element count of arrays, -1 when unknown.
type typedValue struct {
	v     value.Value
	typ   ast.VarType
	count int
}

func scalar(v value.Value, t ast.VarType) typedValue {
	return typedValue{v: v, typ: t, count: -1}
}

func mismatch(at mtypes.Span, msg string, fmts ...interface{}) errors.CodegenError {
	return errors.NewCodegenError(errors.TypeMismatch, at, msg, fmts...)
}

// posOf returns the source span of e, if the node carries one.
func posOf(e ast.Expr) mtypes.Span {
	switch v := e.(type) {
	case ast.VarRef:
		return v.Pos
	case ast.BinaryOp:
		return v.Pos
	case ast.UnaryOp:
		return v.Pos
	case ast.Concat:
		return v.Pos
	case ast.ArrayLit:
		return v.Pos
	case ast.Ternary:
		return v.Pos
	case ast.MethodCall:
		return v.Pos
	}
	return mtypes.Span{}
}

// coerce converts val to type to. The only implicit conversion is int to
// float.
func (g *Generator) coerce(val typedValue, to ast.VarType, at mtypes.Span) value.Value {
	switch {
	case val.typ == to:
		return val.v
	case val.typ == ast.Int && to == ast.Float:
		return g.b.NewSIToFP(val.v, Float32)
	}
	panic(mismatch(at, "cannot use %s as %s", val.typ, to))
}

func (g *Generator) requireArray(val typedValue, at mtypes.Span) {
	if val.typ != ast.Array {
		panic(mismatch(at, "expected an array, got %s", val.typ))
	}
	if val.count < 0 {
		panic(errors.NewCodegenError(errors.ArrayShape, at, "array size is not known at compile time"))
	}
}

func (g *Generator) expr(e ast.Expr) typedValue {
	switch v := e.(type) {
	case ast.IntLit:
		return scalar(i32(v.Value), ast.Int)
	case ast.FloatLit:
		return scalar(constant.NewFloat(Float32, v.Value), ast.Float)
	case ast.StrLit:
		return scalar(g.str(v.Value), ast.String)
	case ast.BoolLit:
		return scalar(constant.NewBool(v.Value), ast.Bool)
	case ast.CharLit:
		return scalar(constant.NewInt(Byte, int64(v.Value)), ast.Char)
	case ast.VarRef:
		s := g.lookup(v.Name, v.Pos)
		return typedValue{v: g.b.NewLoad(llvmType(s.typ), s.ptr), typ: s.typ, count: s.count}
	case ast.BinaryOp:
		return g.binary(v)
	case ast.UnaryOp:
		return g.unary(v)
	case ast.Concat:
		l, r := g.expr(v.Left), g.expr(v.Right)
		if l.typ != ast.String || r.typ != ast.String {
			panic(mismatch(v.Pos, "cannot concatenate %s and %s", l.typ, r.typ))
		}
		return scalar(g.concat(l.v, r.v), ast.String)
	case ast.ArrayLit:
		return g.arrayLit(v)
	case ast.Ternary:
		return g.ternary(v)
	case ast.MethodCall:
		recv := g.expr(v.Receiver)
		if v.Method != "toString" {
			panic(errors.NewCodegenError(errors.Unsupported, v.Pos, "method %s", v.Method))
		}
		if recv.typ != ast.Error && recv.typ != ast.String {
			panic(mismatch(v.Pos, "%s has no toString method", recv.typ))
		}
		return scalar(recv.v, ast.String)
	}

	panic(errors.NewCodegenError(errors.Unsupported, posOf(e), "expression %T", e))
}

func (g *Generator) arrayLit(v ast.ArrayLit) typedValue {
	var elems []value.Value
	for _, el := range v.Elements {
		val := g.expr(el)
		if val.typ != ast.Int {
			panic(mismatch(v.Pos, "array elements must be int, got %s", val.typ))
		}
		elems = append(elems, val.v)
	}

	arr := g.mallocInts(i32(int64(len(elems))))
	for i, el := range elems {
		g.b.NewStore(el, g.elementPtr(arr, i32(int64(i))))
	}

	return typedValue{v: arr, typ: ast.Array, count: len(elems)}
}

func (g *Generator) ternary(v ast.Ternary) typedValue {
	cond := g.condition(v.Cond, v.Pos)

	then := g.newBlock("cond.true")
	otherwise := g.newBlock("cond.false")
	end := g.newBlock("cond.end")
	g.b.NewCondBr(cond, then, otherwise)

	g.b = then
	t := g.expr(v.True)
	thenEnd := g.b

	g.b = otherwise
	f := g.expr(v.False)
	elseEnd := g.b

	typ := t.typ
	switch {
	case t.typ == f.typ:
	case t.typ.IsNumeric() && f.typ.IsNumeric() && (t.typ == ast.Float || f.typ == ast.Float):
		typ = ast.Float
	default:
		panic(mismatch(v.Pos, "branches are %s and %s", t.typ, f.typ))
	}

	g.b = thenEnd
	tv := g.coerce(t, typ, v.Pos)
	g.b.NewBr(end)
	g.b = elseEnd
	fv := g.coerce(f, typ, v.Pos)
	g.b.NewBr(end)

	g.b = end
	phi := g.b.NewPhi(ir.NewIncoming(tv, thenEnd), ir.NewIncoming(fv, elseEnd))

	count := t.count
	if t.count != f.count {
		count = -1
	}
	return typedValue{v: phi, typ: typ, count: count}
}

func (g *Generator) binary(v ast.BinaryOp) typedValue {
	switch v.Op {
	case ast.ABS:
		return g.abs(g.expr(v.Left), v.Pos)
	case ast.INDEX:
		return g.index(g.expr(v.Left), g.expr(v.Right), v.Pos)
	}
	if v.Op.IsArrayOp() {
		return g.arrayOp(v.Op, g.expr(v.Left), g.expr(v.Right), v.Pos)
	}

	return g.binaryValues(v.Op, g.expr(v.Left), g.expr(v.Right), v.Pos)
}

var (
	intPreds = map[ast.BinOp]enum.IPred{
		ast.EQ: enum.IPredEQ, ast.NE: enum.IPredNE,
		ast.LT: enum.IPredSLT, ast.LE: enum.IPredSLE,
		ast.GT: enum.IPredSGT, ast.GE: enum.IPredSGE,
	}
	floatPreds = map[ast.BinOp]enum.FPred{
		ast.EQ: enum.FPredOEQ, ast.NE: enum.FPredONE,
		ast.LT: enum.FPredOLT, ast.LE: enum.FPredOLE,
		ast.GT: enum.FPredOGT, ast.GE: enum.FPredOGE,
	}
)

// binaryValues applies a scalar operator to two evaluated operands.
func (g *Generator) binaryValues(op ast.BinOp, l, r typedValue, at mtypes.Span) typedValue {
	switch {
	case op.IsLogical():
		if l.typ != ast.Bool || r.typ != ast.Bool {
			panic(mismatch(at, "%s needs bool operands, got %s and %s", op, l.typ, r.typ))
		}
		if op == ast.AND {
			return scalar(g.b.NewAnd(l.v, r.v), ast.Bool)
		}
		return scalar(g.b.NewOr(l.v, r.v), ast.Bool)

	case l.typ == ast.String && r.typ == ast.String:
		switch op {
		case ast.ADD:
			return scalar(g.concat(l.v, r.v), ast.String)
		case ast.EQ, ast.NE:
			cmp := g.b.NewCall(g.rt.strcmp, l.v, r.v)
			return scalar(g.b.NewICmp(intPreds[op], cmp, i32(0)), ast.Bool)
		}

	case op == ast.POW:
		return g.pow(l, r, at)

	case l.typ == ast.Float || r.typ == ast.Float:
		if !l.typ.IsNumeric() || !r.typ.IsNumeric() || l.typ == ast.Char || r.typ == ast.Char {
			break
		}
		x, y := g.coerce(l, ast.Float, at), g.coerce(r, ast.Float, at)
		if op.IsComparison() {
			return scalar(g.b.NewFCmp(floatPreds[op], x, y), ast.Bool)
		}
		switch op {
		case ast.ADD:
			return scalar(g.b.NewFAdd(x, y), ast.Float)
		case ast.SUB:
			return scalar(g.b.NewFSub(x, y), ast.Float)
		case ast.MUL:
			return scalar(g.b.NewFMul(x, y), ast.Float)
		case ast.DIV:
			return scalar(g.b.NewFDiv(x, y), ast.Float)
		case ast.MOD:
			return scalar(g.b.NewFRem(x, y), ast.Float)
		}

	case l.typ == r.typ && (l.typ == ast.Int || l.typ == ast.Char):
		if op.IsComparison() {
			return scalar(g.b.NewICmp(intPreds[op], l.v, r.v), ast.Bool)
		}
		if res, ok := g.intArith(op, l.v, r.v); ok {
			return scalar(res, l.typ)
		}

	case l.typ == ast.Bool && r.typ == ast.Bool && (op == ast.EQ || op == ast.NE):
		return scalar(g.b.NewICmp(intPreds[op], l.v, r.v), ast.Bool)
	}

	panic(mismatch(at, "operator %s is not defined on %s and %s", op, l.typ, r.typ))
}

// intArith emits integer arithmetic. Division and modulo by zero raise an
// error instead of trapping.
func (g *Generator) intArith(op ast.BinOp, x, y value.Value) (value.Value, bool) {
	switch op {
	case ast.ADD:
		return g.b.NewAdd(x, y), true
	case ast.SUB:
		return g.b.NewSub(x, y), true
	case ast.MUL:
		return g.b.NewMul(x, y), true
	case ast.DIV, ast.MOD:
		zero := constant.NewInt(y.Type().(*types.IntType), 0)
		g.failIf(g.b.NewICmp(enum.IPredEQ, y, zero), "division by zero")
		if op == ast.DIV {
			return g.b.NewSDiv(x, y), true
		}
		return g.b.NewSRem(x, y), true
	}
	return nil, false
}

// pow multiplies an accumulator exponent times; a negative exponent yields 1.
func (g *Generator) pow(base, exp typedValue, at mtypes.Span) typedValue {
	if exp.typ != ast.Int || (base.typ != ast.Int && base.typ != ast.Float) {
		panic(mismatch(at, "pow is not defined on %s and %s", base.typ, exp.typ))
	}

	acc := g.temp(base.typ, "pow.acc")
	if base.typ == ast.Float {
		g.b.NewStore(constant.NewFloat(Float32, 1), acc)
	} else {
		g.b.NewStore(i32(1), acc)
	}

	g.forRange(i32(0), exp.v, func(value.Value) {
		cur := g.b.NewLoad(llvmType(base.typ), acc)
		if base.typ == ast.Float {
			g.b.NewStore(g.b.NewFMul(cur, base.v), acc)
		} else {
			g.b.NewStore(g.b.NewMul(cur, base.v), acc)
		}
	})

	return scalar(g.b.NewLoad(llvmType(base.typ), acc), base.typ)
}

func (g *Generator) abs(x typedValue, at mtypes.Span) typedValue {
	switch x.typ {
	case ast.Int:
		neg := g.b.NewICmp(enum.IPredSLT, x.v, i32(0))
		return scalar(g.b.NewSelect(neg, g.b.NewSub(i32(0), x.v), x.v), ast.Int)
	case ast.Float:
		zero := constant.NewFloat(Float32, 0)
		neg := g.b.NewFCmp(enum.FPredOLT, x.v, zero)
		return scalar(g.b.NewSelect(neg, g.b.NewFSub(zero, x.v), x.v), ast.Float)
	}
	panic(mismatch(at, "abs is not defined on %s", x.typ))
}

func (g *Generator) index(arr, idx typedValue, at mtypes.Span) typedValue {
	g.requireArray(arr, at)
	if idx.typ != ast.Int {
		panic(mismatch(at, "array index is %s, not int", idx.typ))
	}

	// unsigned comparison also rejects negative indices
	g.failIf(g.b.NewICmp(enum.IPredUGE, idx.v, i32(int64(arr.count))), "index out of range")

	return scalar(g.loadElement(arr.v, idx.v), ast.Int)
}

// arrayOp applies op elementwise into a new array. An int right operand is
// used for every element.
func (g *Generator) arrayOp(op ast.BinOp, l, r typedValue, at mtypes.Span) typedValue {
	g.requireArray(l, at)

	broadcast := false
	switch r.typ {
	case ast.Int:
		broadcast = true
	case ast.Array:
		g.requireArray(r, at)
		if r.count != l.count {
			panic(errors.NewCodegenError(errors.ArrayShape, at, "%s of arrays with %d and %d elements", op, l.count, r.count))
		}
	default:
		panic(mismatch(at, "%s needs an array or int right operand, got %s", op, r.typ))
	}

	n := i32(int64(l.count))
	out := g.mallocInts(n)
	g.forRange(i32(0), n, func(i value.Value) {
		x := g.loadElement(l.v, i)
		y := r.v
		if !broadcast {
			y = g.loadElement(r.v, i)
		}
		res, _ := g.intArith(op.Scalar(), x, y)
		g.b.NewStore(res, g.elementPtr(out, i))
	})

	return typedValue{v: out, typ: ast.Array, count: l.count}
}

func (g *Generator) unary(v ast.UnaryOp) typedValue {
	x := g.expr(v.Operand)

	switch v.Op {
	case ast.NEG:
		switch x.typ {
		case ast.Int:
			return scalar(g.b.NewSub(i32(0), x.v), ast.Int)
		case ast.Char:
			return scalar(g.b.NewSub(constant.NewInt(Byte, 0), x.v), ast.Char)
		case ast.Float:
			return scalar(g.b.NewFSub(constant.NewFloat(Float32, 0), x.v), ast.Float)
		}
	case ast.NOT:
		if x.typ == ast.Bool {
			return scalar(g.b.NewXor(x.v, constant.True), ast.Bool)
		}
	case ast.LENGTH:
		switch x.typ {
		case ast.Array:
			g.requireArray(x, v.Pos)
			return scalar(i32(int64(x.count)), ast.Int)
		case ast.String:
			n := g.b.NewCall(g.rt.strlen, x.v)
			return scalar(g.b.NewTrunc(n, Int32), ast.Int)
		}
	case ast.MIN, ast.MAX:
		g.requireArray(x, v.Pos)
		return g.extreme(v.Op, x, v.Pos)
	}

	panic(mismatch(v.Pos, "%s is not defined on %s", v.Op, x.typ))
}

// extreme finds the smallest (MIN) or largest (MAX) element of arr.
func (g *Generator) extreme(op ast.UnOp, arr typedValue, at mtypes.Span) typedValue {
	if arr.count == 0 {
		panic(errors.NewCodegenError(errors.ArrayShape, at, "%s of an empty array", op))
	}

	pred := enum.IPredSLT
	if op == ast.MAX {
		pred = enum.IPredSGT
	}

	best := g.temp(ast.Int, op.String())
	g.b.NewStore(g.loadElement(arr.v, i32(0)), best)
	g.forRange(i32(1), i32(int64(arr.count)), func(i value.Value) {
		el := g.loadElement(arr.v, i)
		cur := g.b.NewLoad(Int32, best)
		g.b.NewStore(g.b.NewSelect(g.b.NewICmp(pred, el, cur), el, cur), best)
	})

	return scalar(g.b.NewLoad(Int32, best), ast.Int)
}
