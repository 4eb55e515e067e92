package optimizer

import (
	"fmt"
	"strings"

	"github.com/mhbemani/minic/ast"
)

// interp runs the subset of the language the optimizer tests need, so that a
// program can be compared with its optimized form by what it prints.
type interp struct {
	vars  map[string]interface{}
	types map[string]ast.VarType
	out   strings.Builder
}

func run(p *ast.Program) string {
	in := &interp{vars: map[string]interface{}{}, types: map[string]ast.VarType{}}
	in.block(p.Statements)
	return in.out.String()
}

func zero(t ast.VarType) interface{} {
	switch t {
	case ast.Bool:
		return false
	case ast.String:
		return ""
	case ast.Float:
		return 0.0
	case ast.Char:
		return byte(0)
	case ast.Array:
		return []int64{}
	}
	return int64(0)
}

// set stores val in name, widening ints stored in float variables.
func (in *interp) set(name string, val interface{}) {
	if i, ok := val.(int64); ok && in.types[name] == ast.Float {
		val = float64(i)
	}
	in.vars[name] = val
}

func (in *interp) block(b []ast.Stmt) {
	for _, s := range b {
		in.stmt(s)
	}
}

func (in *interp) stmt(s ast.Stmt) {
	switch v := s.(type) {
	case ast.VarDecl:
		in.types[v.Name] = v.Type
		if v.Value == nil {
			in.vars[v.Name] = zero(v.Type)
			return
		}
		in.set(v.Name, in.expr(v.Value))
	case ast.MultiVarDecl:
		for _, d := range v.Decls {
			in.stmt(d)
		}
	case ast.Assign:
		in.set(v.Name, in.expr(v.Value))
	case ast.CompoundAssign:
		in.set(v.Name, arith(v.Op, in.vars[v.Name], in.expr(v.Value)))
	case ast.Block:
		in.block(v)
	case ast.IfElse:
		if in.expr(v.Cond).(bool) {
			in.block(v.Then)
		} else if v.Else != nil {
			in.stmt(v.Else)
		}
	case ast.Loop:
		if v.Kind == ast.Foreach {
			for _, el := range in.expr(v.Collection).([]int64) {
				in.vars[v.VarName] = el
				in.block(v.Body)
			}
			return
		}
		if v.Init != nil {
			in.stmt(v.Init)
		}
		for v.Cond == nil || in.expr(v.Cond).(bool) {
			in.block(v.Body)
			if v.Update != nil {
				in.stmt(v.Update)
			}
		}
	case ast.Print:
		in.print(in.expr(v.Expr))
	default:
		panic(fmt.Sprintf("interp: unhandled statement %T", s))
	}
}

func (in *interp) print(v interface{}) {
	switch x := v.(type) {
	case bool:
		if x {
			in.out.WriteString("1\n")
		} else {
			in.out.WriteString("0\n")
		}
	case float64:
		fmt.Fprintf(&in.out, "%f\n", x)
	case byte:
		fmt.Fprintf(&in.out, "%c\n", x)
	case []int64:
		var elems []string
		for _, el := range x {
			elems = append(elems, fmt.Sprint(el))
		}
		fmt.Fprintf(&in.out, "[%s]\n", strings.Join(elems, ", "))
	default:
		fmt.Fprintf(&in.out, "%v\n", x)
	}
}

func float(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func floatArith(op ast.BinOp, a, b float64) interface{} {
	switch op {
	case ast.ADD:
		return float64(float32(a + b))
	case ast.SUB:
		return float64(float32(a - b))
	case ast.MUL:
		return float64(float32(a * b))
	case ast.DIV:
		return float64(float32(a / b))
	case ast.LT:
		return a < b
	case ast.LE:
		return a <= b
	case ast.GT:
		return a > b
	case ast.GE:
		return a >= b
	case ast.EQ:
		return a == b
	case ast.NE:
		return a != b
	}
	panic(fmt.Sprintf("interp: unhandled float operator %s", op))
}

func arith(op ast.BinOp, l, r interface{}) interface{} {
	_, lf := l.(float64)
	_, rf := r.(float64)
	if lf || rf {
		a, _ := float(l)
		b, _ := float(r)
		return floatArith(op, a, b)
	}

	a, b := l.(int64), r.(int64)
	switch op {
	case ast.ADD:
		return int64(int32(a + b))
	case ast.SUB:
		return int64(int32(a - b))
	case ast.MUL:
		return int64(int32(a * b))
	case ast.DIV:
		return a / b
	case ast.MOD:
		return a % b
	case ast.LT:
		return a < b
	case ast.LE:
		return a <= b
	case ast.GT:
		return a > b
	case ast.GE:
		return a >= b
	case ast.EQ:
		return a == b
	case ast.NE:
		return a != b
	case ast.POW:
		acc := int64(1)
		for i := int64(0); i < b; i++ {
			acc = int64(int32(acc * a))
		}
		return acc
	}
	panic(fmt.Sprintf("interp: unhandled operator %s", op))
}

func (in *interp) expr(e ast.Expr) interface{} {
	switch v := e.(type) {
	case ast.IntLit:
		return v.Value
	case ast.BoolLit:
		return v.Value
	case ast.StrLit:
		return v.Value
	case ast.CharLit:
		return v.Value
	case ast.FloatLit:
		return v.Value
	case ast.VarRef:
		val, ok := in.vars[v.Name]
		if !ok {
			panic("interp: undeclared " + v.Name)
		}
		return val
	case ast.ArrayLit:
		out := make([]int64, len(v.Elements))
		for i, el := range v.Elements {
			out[i] = in.expr(el).(int64)
		}
		return out
	case ast.Concat:
		return in.expr(v.Left).(string) + in.expr(v.Right).(string)
	case ast.Ternary:
		if in.expr(v.Cond).(bool) {
			return in.expr(v.True)
		}
		return in.expr(v.False)
	case ast.UnaryOp:
		operand := in.expr(v.Operand)
		switch v.Op {
		case ast.NEG:
			return -operand.(int64)
		case ast.NOT:
			return !operand.(bool)
		case ast.LENGTH:
			return int64(len(operand.([]int64)))
		}
	case ast.BinaryOp:
		switch v.Op {
		case ast.AND:
			return in.expr(v.Left).(bool) && in.expr(v.Right).(bool)
		case ast.OR:
			return in.expr(v.Left).(bool) || in.expr(v.Right).(bool)
		case ast.INDEX:
			return in.expr(v.Left).([]int64)[in.expr(v.Right).(int64)]
		}
		return arith(v.Op, in.expr(v.Left), in.expr(v.Right))
	}
	panic(fmt.Sprintf("interp: unhandled expression %T", e))
}
