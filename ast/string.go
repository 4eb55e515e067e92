package ast

import (
	"fmt"
	"strconv"
	"strings"
)

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

var charNames = map[byte]string{
	'\n': `\n`,
	'\t': `\t`,
	0:    `\0`,
	'\\': `\\`,
	'\'': `\'`,
}

// infix reports whether e needs parentheses when it is the right operand of
// an infix operator.
func infix(e Expr) bool {
	switch v := e.(type) {
	case BinaryOp:
		switch v.Op {
		case ABS, POW, INDEX, ADD_ARRAY, SUB_ARRAY, MUL_ARRAY, DIV_ARRAY:
			return false
		}
		return true
	case Ternary:
		return true
	}
	return false
}

func paren(e Expr, wrap bool) string {
	if wrap {
		return "(" + ExprString(e) + ")"
	}
	return ExprString(e)
}

// ExprString renders e as source text that parses back to the same tree.
func ExprString(e Expr) string {
	switch v := e.(type) {
	case nil:
		return ""
	case IntLit:
		return strconv.FormatInt(v.Value, 10)
	case FloatLit:
		return formatFloat(v.Value)
	case StrLit:
		return `"` + v.Value + `"`
	case BoolLit:
		return strconv.FormatBool(v.Value)
	case CharLit:
		if name, ok := charNames[v.Value]; ok {
			return "'" + name + "'"
		}
		return "'" + string(rune(v.Value)) + "'"
	case VarRef:
		return v.Name
	case BinaryOp:
		switch v.Op {
		case ABS:
			return fmt.Sprintf("abs(%s)", ExprString(v.Left))
		case INDEX:
			return fmt.Sprintf("%s[%s]", paren(v.Left, infix(v.Left)), ExprString(v.Right))
		case POW, ADD_ARRAY, SUB_ARRAY, MUL_ARRAY, DIV_ARRAY:
			return fmt.Sprintf("%s(%s, %s)", v.Op, ExprString(v.Left), ExprString(v.Right))
		}
		_, leftTernary := v.Left.(Ternary)
		return fmt.Sprintf("%s %s %s", paren(v.Left, leftTernary), v.Op, paren(v.Right, infix(v.Right)))
	case UnaryOp:
		switch v.Op {
		case NEG, NOT:
			return v.Op.String() + paren(v.Operand, infix(v.Operand))
		}
		return fmt.Sprintf("%s(%s)", v.Op, ExprString(v.Operand))
	case Concat:
		return fmt.Sprintf("concat(%s, %s)", ExprString(v.Left), ExprString(v.Right))
	case ArrayLit:
		var elems []string
		for _, el := range v.Elements {
			elems = append(elems, ExprString(el))
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case Ternary:
		return fmt.Sprintf("%s ? %s : %s", paren(v.Cond, infix(v.Cond)), paren(v.True, infix(v.True)), ExprString(v.False))
	case MethodCall:
		return fmt.Sprintf("%s.%s()", ExprString(v.Receiver), v.Method)
	}

	panic(fmt.Sprintf("unhandled expression %T", e))
}

// simpleStmt renders the statements allowed in a for header, without the
// trailing semicolon.
func simpleStmt(s Stmt) string {
	if s == nil {
		return ""
	}
	return strings.TrimSuffix(StmtString(s, 0), ";")
}

func blockString(b Block, indent int) string {
	if len(b) == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, s := range b {
		sb.WriteString(StmtString(s, indent+1))
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Repeat("\t", indent))
	sb.WriteString("}")
	return sb.String()
}

// StmtString renders s at the given indentation depth.
func StmtString(s Stmt, indent int) string {
	tabs := strings.Repeat("\t", indent)

	switch v := s.(type) {
	case VarDecl:
		if v.Value == nil {
			return fmt.Sprintf("%s%s %s;", tabs, v.Type, v.Name)
		}
		return fmt.Sprintf("%s%s %s = %s;", tabs, v.Type, v.Name, ExprString(v.Value))
	case MultiVarDecl:
		if len(v.Decls) == 0 {
			return tabs + ";"
		}
		var names, values []string
		for _, d := range v.Decls {
			names = append(names, d.Name)
			if d.Value != nil {
				values = append(values, ExprString(d.Value))
			}
		}
		out := fmt.Sprintf("%s%s %s", tabs, v.Decls[0].Type, strings.Join(names, ", "))
		if len(values) > 0 {
			out += " = " + strings.Join(values, ", ")
		}
		return out + ";"
	case Assign:
		return fmt.Sprintf("%s%s = %s;", tabs, v.Name, ExprString(v.Value))
	case CompoundAssign:
		return fmt.Sprintf("%s%s %s= %s;", tabs, v.Name, v.Op, ExprString(v.Value))
	case Block:
		return tabs + blockString(v, indent)
	case IfElse:
		out := fmt.Sprintf("%sif (%s) %s", tabs, ExprString(v.Cond), blockString(v.Then, indent))
		switch e := v.Else.(type) {
		case nil:
		case IfElse:
			out += " else " + strings.TrimPrefix(StmtString(e, indent), tabs)
		case Block:
			out += " else " + blockString(e, indent)
		default:
			out += " else " + blockString(Block{e}, indent)
		}
		return out
	case Loop:
		if v.Kind == Foreach {
			return fmt.Sprintf("%sforeach (%s in %s) %s", tabs, v.VarName, ExprString(v.Collection), blockString(v.Body, indent))
		}
		return fmt.Sprintf("%sfor (%s; %s; %s) %s", tabs, simpleStmt(v.Init), ExprString(v.Cond), simpleStmt(v.Update), blockString(v.Body, indent))
	case Print:
		return fmt.Sprintf("%sprint(%s);", tabs, ExprString(v.Expr))
	case TryCatch:
		return fmt.Sprintf("%stry %s catch (error %s) %s", tabs, blockString(v.Try, indent), v.ErrorVar, blockString(v.Catch, indent))
	case Match:
		var sb strings.Builder
		fmt.Fprintf(&sb, "%smatch (%s) {\n", tabs, ExprString(v.Expr))
		for _, c := range v.Cases {
			label := "_"
			if c.Value != nil {
				label = ExprString(c.Value)
			}
			fmt.Fprintf(&sb, "%s\t%s -> %s\n", tabs, label, blockString(c.Body, indent+1))
		}
		sb.WriteString(tabs + "}")
		return sb.String()
	case Raise:
		return fmt.Sprintf("%serror(%s);", tabs, ExprString(v.Value))
	}

	panic(fmt.Sprintf("unhandled statement %T", s))
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, s := range p.Statements {
		sb.WriteString(StmtString(s, 0))
		sb.WriteString("\n")
	}
	return sb.String()
}
