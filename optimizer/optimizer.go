// Package optimizer rewrites a parsed program before code generation. It
// folds if statements whose condition is known at compile time and unrolls
// short counted for loops.
package optimizer

import (
	"fmt"
	"math"
	"strings"

	"github.com/coreos/pkg/capnslog"
	"github.com/mhbemani/minic/ast"
)

var plog = capnslog.NewPackageLogger("github.com/mhbemani/minic", "optimizer")

const DefaultUnrollLimit = 10

type Options struct {
	// UnrollLimit is the largest iteration count that is unrolled. Zero
	// means DefaultUnrollLimit; a negative limit turns unrolling off.
	UnrollLimit int
}

type ChangeKind int

const (
	FoldBranch ChangeKind = iota
	UnrollLoop
)

func (k ChangeKind) String() string {
	if k == UnrollLoop {
		return "unroll"
	}
	return "fold"
}

// Change records one rewrite: the statement that was replaced and the
// statements now standing in its place.
type Change struct {
	Kind      ChangeKind
	Original  ast.Stmt
	Rewritten []ast.Stmt
}

func (c Change) String() string {
	var out []string
	for _, s := range c.Rewritten {
		out = append(out, ast.StmtString(s, 0))
	}
	return fmt.Sprintf("%s: %s => {%s}", c.Kind, ast.StmtString(c.Original, 0), strings.Join(out, " "))
}

type Optimizer struct {
	opts    Options
	changes []Change
	// scopes holds the variables visible at the statement being optimized.
	scopes []map[string]ast.VarType
}

func New(opts Options) *Optimizer {
	if opts.UnrollLimit == 0 {
		opts.UnrollLimit = DefaultUnrollLimit
	}
	return &Optimizer{opts: opts}
}

// Optimize rewrites p in place and returns it.
func (o *Optimizer) Optimize(p *ast.Program) *ast.Program {
	o.changes = nil
	o.scopes = nil
	p.Statements = o.block(p.Statements)
	plog.Debugf("%d rewrite(s)", len(o.changes))
	return p
}

// Changes lists the rewrites made by the last Optimize call, innermost first.
func (o *Optimizer) Changes() []Change {
	return o.changes
}

func (o *Optimizer) record(kind ChangeKind, orig ast.Stmt, rewritten []ast.Stmt) {
	c := Change{Kind: kind, Original: orig, Rewritten: rewritten}
	o.changes = append(o.changes, c)
	plog.Debugf("%s", c)
}

func (o *Optimizer) block(stmts []ast.Stmt) []ast.Stmt {
	o.push()
	defer o.pop()

	out := make([]ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, o.stmt(s)...)
		switch v := s.(type) {
		case ast.VarDecl:
			o.bind(v.Name, v.Type)
		case ast.MultiVarDecl:
			for _, d := range v.Decls {
				o.bind(d.Name, d.Type)
			}
		}
	}
	return out
}

func (o *Optimizer) push() {
	o.scopes = append(o.scopes, map[string]ast.VarType{})
}

func (o *Optimizer) pop() {
	o.scopes = o.scopes[:len(o.scopes)-1]
}

func (o *Optimizer) bind(name string, t ast.VarType) {
	o.scopes[len(o.scopes)-1][name] = t
}

// typeOf reports the type of the visible variable called name.
func (o *Optimizer) typeOf(name string) (ast.VarType, bool) {
	for i := len(o.scopes) - 1; i >= 0; i-- {
		if t, ok := o.scopes[i][name]; ok {
			return t, true
		}
	}
	return 0, false
}

// declares reports whether any statement of b, not counting nested blocks,
// declares a variable.
func declares(b []ast.Stmt) bool {
	for _, s := range b {
		switch s.(type) {
		case ast.VarDecl, ast.MultiVarDecl:
			return true
		}
	}
	return false
}

// splice returns the statements that replace a branch or loop iteration.
// Statements are inlined into the enclosing list unless they declare a
// variable, in which case they keep their own block and scope.
func splice(b []ast.Stmt) []ast.Stmt {
	if declares(b) {
		return []ast.Stmt{ast.Block(b)}
	}
	return b
}

// stmt optimizes s, returning the statements that replace it.
func (o *Optimizer) stmt(s ast.Stmt) []ast.Stmt {
	switch v := s.(type) {
	case ast.IfElse:
		return o.ifElse(v)
	case ast.Loop:
		orig := ast.Clone(v)
		o.push()
		switch {
		case v.Kind == ast.Foreach:
			o.bind(v.VarName, ast.Int)
		case v.Init != nil:
			if d, ok := v.Init.(ast.VarDecl); ok {
				o.bind(d.Name, d.Type)
			}
		}
		v.Body = o.block(v.Body)
		o.pop()
		if v.Kind == ast.For && o.opts.UnrollLimit > 0 {
			if unrolled, ok := o.unroll(v); ok {
				o.record(UnrollLoop, orig, unrolled)
				return unrolled
			}
		}
		return []ast.Stmt{v}
	case ast.Block:
		return []ast.Stmt{ast.Block(o.block(v))}
	case ast.TryCatch:
		v.Try = o.block(v.Try)
		o.push()
		o.bind(v.ErrorVar, ast.Error)
		v.Catch = o.block(v.Catch)
		o.pop()
		return []ast.Stmt{v}
	case ast.Match:
		cases := make([]ast.MatchCase, len(v.Cases))
		for i, c := range v.Cases {
			cases[i] = ast.MatchCase{Value: c.Value, Body: o.block(c.Body)}
		}
		v.Cases = cases
		return []ast.Stmt{v}
	}
	return []ast.Stmt{s}
}

func (o *Optimizer) ifElse(v ast.IfElse) []ast.Stmt {
	if taken, ok := Condition(v.Cond); ok {
		var branch []ast.Stmt
		switch {
		case taken:
			branch = v.Then
		case v.Else == nil:
		default:
			if b, isBlock := v.Else.(ast.Block); isBlock {
				branch = b
			} else {
				// else if: examined again below
				branch = []ast.Stmt{v.Else}
			}
		}

		out := splice(o.block(branch))
		o.record(FoldBranch, ast.Clone(v), out)
		return out
	}

	v.Then = o.block(v.Then)
	switch e := v.Else.(type) {
	case ast.Block:
		v.Else = ast.Block(o.block(e))
	case ast.IfElse:
		res := o.ifElse(e)
		switch {
		case len(res) == 0:
			v.Else = nil
		case len(res) == 1:
			if ie, ok := res[0].(ast.IfElse); ok {
				v.Else = ie
				break
			}
			v.Else = ast.Block(res)
		default:
			v.Else = ast.Block(res)
		}
	}
	return []ast.Stmt{v}
}

// Condition evaluates e if it is decidable without running the program: a
// boolean literal, a comparison of two integer literals, or && and || over
// such conditions.
func Condition(e ast.Expr) (value bool, ok bool) {
	switch v := e.(type) {
	case ast.BoolLit:
		return v.Value, true
	case ast.BinaryOp:
		if v.Op.IsLogical() {
			l, lok := Condition(v.Left)
			r, rok := Condition(v.Right)
			if !lok || !rok {
				return false, false
			}
			if v.Op == ast.AND {
				return l && r, true
			}
			return l || r, true
		}

		l, lok := v.Left.(ast.IntLit)
		r, rok := v.Right.(ast.IntLit)
		if !lok || !rok {
			return false, false
		}
		switch v.Op {
		case ast.LT:
			return l.Value < r.Value, true
		case ast.LE:
			return l.Value <= r.Value, true
		case ast.GT:
			return l.Value > r.Value, true
		case ast.GE:
			return l.Value >= r.Value, true
		case ast.EQ:
			return l.Value == r.Value, true
		case ast.NE:
			return l.Value != r.Value, true
		}
	}
	return false, false
}

// bounds describes a counted loop: name runs from start while name op limit
// holds, moving by step.
type bounds struct {
	name     string
	start    int64
	limit    int64
	step     int64
	op       ast.BinOp
	assigned bool
}

func intLit(e ast.Expr) (int64, bool) {
	lit, ok := e.(ast.IntLit)
	return lit.Value, ok
}

func loopBounds(l ast.Loop) (b bounds, ok bool) {
	switch init := l.Init.(type) {
	case ast.VarDecl:
		if init.Type != ast.Int {
			return b, false
		}
		b.name = init.Name
		b.start, ok = intLit(init.Value)
	case ast.Assign:
		b.name = init.Name
		b.assigned = true
		b.start, ok = intLit(init.Value)
	}
	if !ok {
		return b, false
	}

	cond, ok := l.Cond.(ast.BinaryOp)
	if !ok {
		return b, false
	}
	switch cond.Op {
	case ast.LT, ast.LE, ast.GT, ast.GE:
	default:
		return b, false
	}
	if ref, isRef := cond.Left.(ast.VarRef); !isRef || ref.Name != b.name {
		return b, false
	}
	b.op = cond.Op
	if b.limit, ok = intLit(cond.Right); !ok {
		return b, false
	}

	var op ast.BinOp
	var amount int64
	switch upd := l.Update.(type) {
	case ast.CompoundAssign:
		if upd.Name != b.name {
			return b, false
		}
		op = upd.Op
		amount, ok = intLit(upd.Value)
	case ast.Assign:
		bin, isBin := upd.Value.(ast.BinaryOp)
		if upd.Name != b.name || !isBin {
			return b, false
		}
		if ref, isRef := bin.Left.(ast.VarRef); !isRef || ref.Name != b.name {
			return b, false
		}
		op = bin.Op
		amount, ok = intLit(bin.Right)
	default:
		return b, false
	}
	if !ok {
		return b, false
	}

	switch op {
	case ast.ADD:
		b.step = amount
	case ast.SUB:
		b.step = -amount
	default:
		return b, false
	}
	return b, true
}

// iterations counts how often the loop body runs, or reports false if the
// loop never terminates.
func (b bounds) iterations() (int64, bool) {
	switch b.op {
	case ast.LT, ast.LE:
		if b.step <= 0 {
			return 0, false
		}
		dist := b.limit - b.start
		if b.op == ast.LE {
			dist++
		}
		if dist <= 0 {
			return 0, true
		}
		return (dist + b.step - 1) / b.step, true
	case ast.GT, ast.GE:
		if b.step >= 0 {
			return 0, false
		}
		dist := b.start - b.limit
		if b.op == ast.GE {
			dist++
		}
		if dist <= 0 {
			return 0, true
		}
		return (dist - b.step - 1) / -b.step, true
	}
	return 0, false
}

// touches reports whether body writes name or binds a new variable called
// name; in both cases references can no longer be replaced by a constant.
func touches(body ast.Block, name string) bool {
	found := false
	ast.Inspect(body, func(s ast.Stmt) bool {
		switch v := s.(type) {
		case ast.VarDecl:
			found = found || v.Name == name
		case ast.Assign:
			found = found || v.Name == name
		case ast.CompoundAssign:
			found = found || v.Name == name
		case ast.Loop:
			found = found || (v.Kind == ast.Foreach && v.VarName == name)
		case ast.TryCatch:
			found = found || v.ErrorVar == name
		}
		return !found
	})
	return found
}

func (o *Optimizer) unroll(l ast.Loop) ([]ast.Stmt, bool) {
	b, ok := loopBounds(l)
	if !ok {
		return nil, false
	}
	// an assigned induction variable must be a declared int, a declared one
	// must not clash with a visible name
	t, visible := o.typeOf(b.name)
	if b.assigned && (!visible || t != ast.Int) {
		plog.Debugf("not unrolling loop over %s: not a declared int", b.name)
		return nil, false
	}
	if !b.assigned && visible {
		plog.Debugf("not unrolling loop over %s: the declaration clashes", b.name)
		return nil, false
	}
	n, ok := b.iterations()
	if !ok || n > int64(o.opts.UnrollLimit) {
		plog.Debugf("not unrolling loop over %s: %d iteration(s), limit %d", b.name, n, o.opts.UnrollLimit)
		return nil, false
	}
	exit := b.start + n*b.step
	if exit < math.MinInt32 || exit > math.MaxInt32 {
		return nil, false
	}
	if touches(l.Body, b.name) {
		plog.Debugf("not unrolling loop over %s: the body rebinds it", b.name)
		return nil, false
	}

	out := []ast.Stmt{}
	for i := int64(0); i < n; i++ {
		body := ast.Substitute(l.Body, b.name, ast.IntLit{Value: b.start + i*b.step}).(ast.Block)
		out = append(out, splice(body)...)
	}
	if b.assigned {
		out = append(out, ast.Assign{Name: b.name, Value: ast.IntLit{Value: exit}, Pos: l.Pos})
	}
	return out, true
}
