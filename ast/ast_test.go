package ast

import "testing"

func TestExprString(t *testing.T) {
	tests := []struct {
		expr     Expr
		expected string
	}{
		{IntLit{Value: -3}, "-3"},
		{FloatLit{Value: 2}, "2.0"},
		{CharLit{Value: '\n'}, `'\n'`},
		{BinaryOp{Op: ADD, Left: VarRef{Name: "a"}, Right: BinaryOp{Op: MUL, Left: IntLit{Value: 2}, Right: VarRef{Name: "b"}}}, "a + (2 * b)"},
		{BinaryOp{Op: ABS, Left: VarRef{Name: "x"}}, "abs(x)"},
		{BinaryOp{Op: INDEX, Left: VarRef{Name: "xs"}, Right: IntLit{Value: 0}}, "xs[0]"},
		{BinaryOp{Op: MUL_ARRAY, Left: VarRef{Name: "xs"}, Right: IntLit{Value: 2}}, "multiply(xs, 2)"},
		{UnaryOp{Op: LENGTH, Operand: ArrayLit{Elements: []Expr{IntLit{Value: 1}}}}, "length([1])"},
		{Concat{Left: StrLit{Value: "a"}, Right: VarRef{Name: "s"}}, `concat("a", s)`},
	}

	for _, tt := range tests {
		if got := ExprString(tt.expr); got != tt.expected {
			t.Fatalf("expected %q, got %q", tt.expected, got)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Block{
		Print{Expr: ArrayLit{Elements: []Expr{IntLit{Value: 1}, IntLit{Value: 2}}}},
	}
	cp := Clone(orig).(Block)
	cp[0] = Print{Expr: IntLit{Value: 9}}

	if _, ok := orig[0].(Print).Expr.(ArrayLit); !ok {
		t.Fatalf("changing the clone changed the original")
	}

	lit := orig[0].(Print).Expr.(ArrayLit)
	cl := CloneExpr(lit).(ArrayLit)
	cl.Elements[0] = IntLit{Value: 7}
	if lit.Elements[0].(IntLit).Value != 1 {
		t.Fatalf("clone shares its element slice")
	}
}

func TestSubstitute(t *testing.T) {
	body := Block{
		Print{Expr: BinaryOp{Op: MUL, Left: VarRef{Name: "i"}, Right: VarRef{Name: "j"}}},
		Assign{Name: "sum", Value: BinaryOp{Op: ADD, Left: VarRef{Name: "sum"}, Right: VarRef{Name: "i"}}},
	}

	out := Substitute(body, "i", IntLit{Value: 4}).(Block)
	if got := StmtString(out[0], 0); got != "print(4 * j);" {
		t.Fatalf("wrong substitution %q", got)
	}
	if got := StmtString(out[1], 0); got != "sum = sum + 4;" {
		t.Fatalf("wrong substitution %q", got)
	}
	if got := StmtString(body[0], 0); got != "print(i * j);" {
		t.Fatalf("substitution modified its input: %q", got)
	}
}

func TestInspect(t *testing.T) {
	prog := Block{
		IfElse{
			Cond: BoolLit{Value: true},
			Then: Block{Print{Expr: IntLit{Value: 1}}},
			Else: Block{Loop{Kind: For, Body: Block{Raise{Value: StrLit{Value: "x"}}}}},
		},
	}

	var raises int
	Inspect(prog, func(s Stmt) bool {
		if _, ok := s.(Raise); ok {
			raises++
		}
		return true
	})
	if raises != 1 {
		t.Fatalf("expected to find 1 raise, found %d", raises)
	}

	var visited int
	Inspect(prog, func(s Stmt) bool {
		visited++
		_, isIf := s.(IfElse)
		return !isIf
	})
	if visited != 2 {
		t.Fatalf("returning false should stop the descent; visited %d", visited)
	}
}
