package ast

import "fmt"

// RewriteExpr rebuilds e bottom up, passing every rebuilt node through f.
// The result shares nothing with e.
func RewriteExpr(e Expr, f func(Expr) Expr) Expr {
	switch v := e.(type) {
	case nil:
		return nil
	case IntLit, FloatLit, StrLit, BoolLit, CharLit, VarRef:
		return f(v)
	case BinaryOp:
		v.Left = RewriteExpr(v.Left, f)
		v.Right = RewriteExpr(v.Right, f)
		return f(v)
	case UnaryOp:
		v.Operand = RewriteExpr(v.Operand, f)
		return f(v)
	case Concat:
		v.Left = RewriteExpr(v.Left, f)
		v.Right = RewriteExpr(v.Right, f)
		return f(v)
	case ArrayLit:
		elems := make([]Expr, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = RewriteExpr(el, f)
		}
		v.Elements = elems
		return f(v)
	case Ternary:
		v.Cond = RewriteExpr(v.Cond, f)
		v.True = RewriteExpr(v.True, f)
		v.False = RewriteExpr(v.False, f)
		return f(v)
	case MethodCall:
		v.Receiver = RewriteExpr(v.Receiver, f)
		return f(v)
	}

	panic(fmt.Sprintf("unhandled expression %T", e))
}

func rewriteBlock(b Block, f func(Expr) Expr) Block {
	if b == nil {
		return nil
	}
	out := make(Block, len(b))
	for i, s := range b {
		out[i] = RewriteStmt(s, f)
	}
	return out
}

// RewriteStmt rebuilds s applying f to every expression it contains.
func RewriteStmt(s Stmt, f func(Expr) Expr) Stmt {
	switch v := s.(type) {
	case nil:
		return nil
	case VarDecl:
		v.Value = RewriteExpr(v.Value, f)
		return v
	case MultiVarDecl:
		decls := make([]VarDecl, len(v.Decls))
		for i, d := range v.Decls {
			decls[i] = RewriteStmt(d, f).(VarDecl)
		}
		v.Decls = decls
		return v
	case Assign:
		v.Value = RewriteExpr(v.Value, f)
		return v
	case CompoundAssign:
		v.Value = RewriteExpr(v.Value, f)
		return v
	case Block:
		return rewriteBlock(v, f)
	case IfElse:
		v.Cond = RewriteExpr(v.Cond, f)
		v.Then = rewriteBlock(v.Then, f)
		v.Else = RewriteStmt(v.Else, f)
		return v
	case Loop:
		v.Init = RewriteStmt(v.Init, f)
		v.Cond = RewriteExpr(v.Cond, f)
		v.Update = RewriteStmt(v.Update, f)
		v.Collection = RewriteExpr(v.Collection, f)
		v.Body = rewriteBlock(v.Body, f)
		return v
	case Print:
		v.Expr = RewriteExpr(v.Expr, f)
		return v
	case TryCatch:
		v.Try = rewriteBlock(v.Try, f)
		v.Catch = rewriteBlock(v.Catch, f)
		return v
	case Match:
		v.Expr = RewriteExpr(v.Expr, f)
		cases := make([]MatchCase, len(v.Cases))
		for i, c := range v.Cases {
			cases[i] = MatchCase{
				Value: RewriteExpr(c.Value, f),
				Body:  rewriteBlock(c.Body, f),
			}
		}
		v.Cases = cases
		return v
	case Raise:
		v.Value = RewriteExpr(v.Value, f)
		return v
	}

	panic(fmt.Sprintf("unhandled statement %T", s))
}

func identity(e Expr) Expr { return e }

// Clone returns a deep copy of s.
func Clone(s Stmt) Stmt {
	return RewriteStmt(s, identity)
}

func CloneExpr(e Expr) Expr {
	return RewriteExpr(e, identity)
}

// Substitute returns a copy of s in which every reference to name is
// replaced by a copy of with. It does not look at declarations, so callers
// must rule out shadowing first.
func Substitute(s Stmt, name string, with Expr) Stmt {
	return RewriteStmt(s, func(e Expr) Expr {
		if ref, ok := e.(VarRef); ok && ref.Name == name {
			return CloneExpr(with)
		}
		return e
	})
}

// Inspect calls f for s and, while f returns true, for every statement
// nested in it.
func Inspect(s Stmt, f func(Stmt) bool) {
	if s == nil || !f(s) {
		return
	}

	switch v := s.(type) {
	case MultiVarDecl:
		for _, d := range v.Decls {
			Inspect(d, f)
		}
	case Block:
		for _, st := range v {
			Inspect(st, f)
		}
	case IfElse:
		Inspect(v.Then, f)
		Inspect(v.Else, f)
	case Loop:
		Inspect(v.Init, f)
		Inspect(v.Update, f)
		Inspect(v.Body, f)
	case TryCatch:
		Inspect(v.Try, f)
		Inspect(v.Catch, f)
	case Match:
		for _, c := range v.Cases {
			Inspect(c.Body, f)
		}
	}
}
