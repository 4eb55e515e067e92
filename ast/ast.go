// Package ast holds the syntax tree of a minic program.
//
// Expressions and statements are closed sums: Expr and Stmt are satisfied
// only by the node types declared in nodes.adt, whose marker methods are
// generated into ast_gen.go by the adtGen tool.
package ast

import "github.com/mhbemani/minic/types"

//go:generate sh -c "cd ../tool && go run . ../ast/nodes.adt ../ast/ast_gen.go ast"

type VarType int

const (
	Int VarType = iota
	String
	Bool
	Float
	Char
	Array
	// Error is the type of a catch variable; it cannot be declared.
	Error
)

func (t VarType) String() string {
	switch t {
	case Int:
		return "int"
	case String:
		return "string"
	case Bool:
		return "bool"
	case Float:
		return "float"
	case Char:
		return "char"
	case Array:
		return "array"
	case Error:
		return "error"
	}
	return "unknown"
}

// IsNumeric reports whether arithmetic is defined on t.
func (t VarType) IsNumeric() bool {
	return t == Int || t == Float || t == Char
}

type BinOp int

const (
	ADD BinOp = iota
	SUB
	MUL
	DIV
	MOD
	EQ
	NE
	LT
	LE
	GT
	GE
	AND
	OR
	POW
	ABS
	INDEX
	ADD_ARRAY
	SUB_ARRAY
	MUL_ARRAY
	DIV_ARRAY
)

func (o BinOp) String() string {
	switch o {
	case ADD:
		return "+"
	case SUB:
		return "-"
	case MUL:
		return "*"
	case DIV:
		return "/"
	case MOD:
		return "%"
	case EQ:
		return "=="
	case NE:
		return "!="
	case LT:
		return "<"
	case LE:
		return "<="
	case GT:
		return ">"
	case GE:
		return ">="
	case AND:
		return "&&"
	case OR:
		return "||"
	case POW:
		return "pow"
	case ABS:
		return "abs"
	case INDEX:
		return "index"
	case ADD_ARRAY:
		return "add"
	case SUB_ARRAY:
		return "subtract"
	case MUL_ARRAY:
		return "multiply"
	case DIV_ARRAY:
		return "divide"
	}
	return "?"
}

// IsComparison reports whether o yields a bool from two operands.
func (o BinOp) IsComparison() bool {
	switch o {
	case EQ, NE, LT, LE, GT, GE:
		return true
	}
	return false
}

func (o BinOp) IsLogical() bool {
	return o == AND || o == OR
}

func (o BinOp) IsArrayOp() bool {
	switch o {
	case ADD_ARRAY, SUB_ARRAY, MUL_ARRAY, DIV_ARRAY:
		return true
	}
	return false
}

// Scalar maps an elementwise array operator to the operator applied per element.
func (o BinOp) Scalar() BinOp {
	switch o {
	case ADD_ARRAY:
		return ADD
	case SUB_ARRAY:
		return SUB
	case MUL_ARRAY:
		return MUL
	case DIV_ARRAY:
		return DIV
	}
	return o
}

type UnOp int

const (
	NEG UnOp = iota
	NOT
	LENGTH
	MIN
	MAX
)

func (o UnOp) String() string {
	switch o {
	case NEG:
		return "-"
	case NOT:
		return "!"
	case LENGTH:
		return "length"
	case MIN:
		return "min"
	case MAX:
		return "max"
	}
	return "?"
}

type Expr interface {
	is_Expr()
}

type Stmt interface {
	is_Stmt()
}

type IntLit struct {
	Value int64
}

type FloatLit struct {
	Value float64
}

type StrLit struct {
	Value string
}

type BoolLit struct {
	Value bool
}

type CharLit struct {
	Value byte
}

type VarRef struct {
	Name string
	Pos  types.Span
}

// BinaryOp covers arithmetic, comparisons and the call-style builtins that
// take two operands. Right is nil only for ABS.
type BinaryOp struct {
	Op    BinOp
	Left  Expr
	Right Expr
	Pos   types.Span
}

type UnaryOp struct {
	Op      UnOp
	Operand Expr
	Pos     types.Span
}

type Concat struct {
	Left  Expr
	Right Expr
	Pos   types.Span
}

type ArrayLit struct {
	Elements []Expr
	Pos      types.Span
}

type Ternary struct {
	Cond  Expr
	True  Expr
	False Expr
	Pos   types.Span
}

// MethodCall is the receiver.method() sugar, e.g. e.toString().
type MethodCall struct {
	Receiver Expr
	Method   string
	Pos      types.Span
}

type VarDecl struct {
	Type  VarType
	Name  string
	Value Expr
	Pos   types.Span
}

type MultiVarDecl struct {
	Decls []VarDecl
}

type Assign struct {
	Name  string
	Value Expr
	Pos   types.Span
}

type CompoundAssign struct {
	Name  string
	Op    BinOp
	Value Expr
	Pos   types.Span
}

type Block []Stmt

// IfElse.Else is nil, an IfElse (else if) or a Block.
type IfElse struct {
	Cond Expr
	Then Block
	Else Stmt
	Pos  types.Span
}

type LoopKind int

const (
	For LoopKind = iota
	Foreach
)

// Loop is either a three clause for loop (Init, Cond and Update, each
// optional) or a foreach binding VarName to every element of Collection.
type Loop struct {
	Kind       LoopKind
	Init       Stmt
	Cond       Expr
	Update     Stmt
	VarName    string
	Collection Expr
	Body       Block
	Pos        types.Span
}

type Print struct {
	Expr Expr
	Pos  types.Span
}

type TryCatch struct {
	Try      Block
	Catch    Block
	ErrorVar string
	Pos      types.Span
}

// MatchCase with a nil Value is the default arm.
type MatchCase struct {
	Value Expr
	Body  Block
}

type Match struct {
	Expr  Expr
	Cases []MatchCase
	Pos   types.Span
}

// Raise signals a failure carrying Value to the innermost catch.
type Raise struct {
	Value Expr
	Pos   types.Span
}

type Program struct {
	Statements []Stmt
}
