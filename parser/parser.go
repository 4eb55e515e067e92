package parser

import (
	"runtime"
	"strconv"
	"strings"

	"github.com/mhbemani/minic/ast"
	"github.com/mhbemani/minic/errors"
	"github.com/mhbemani/minic/lexer"
	"github.com/mhbemani/minic/types"
	"github.com/ztrue/tracerr"
)

// Parser is a recursive descent parser over a two token window. It stops at
// the first error.
type Parser struct {
	l    *lexer.Lexer
	cur  types.Token
	next types.Token
	last types.Token
}

func NewParser(l *lexer.Lexer) *Parser {
	return &Parser{l: l}
}

// ParseString parses src, naming it filename in diagnostics.
func ParseString(filename, src string) (*ast.Program, error) {
	return NewParser(lexer.NewLexerString(src, filename)).Parse()
}

func (p *Parser) Parse() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(runtime.Error); ok {
				panic(r)
			}
			rerr, ok := r.(error)
			if !ok {
				panic(r)
			}
			prog = nil
			err = tracerr.Wrap(rerr)
		}
	}()

	p.next = p.l.Lex()
	p.advance()

	prog = &ast.Program{}
	for !p.is(types.EOF) {
		prog.Statements = append(prog.Statements, p.parseStatement())
	}

	return prog, nil
}

// advance shifts the window by one token. An ILLEGAL token becomes an error
// as soon as it is the current token.
func (p *Parser) advance() {
	p.last = p.cur
	p.cur = p.next
	if p.cur.Kind != types.EOF {
		p.next = p.l.Lex()
	}

	if p.cur.Kind == types.ILLEGAL {
		panic(errors.LexError{
			Message:  p.cur.Lexeme,
			Location: p.cur.Location,
		})
	}
}

func (p *Parser) is(k ...types.TokenKind) bool {
	for _, kind := range k {
		if p.cur.Kind == kind {
			return true
		}
	}
	return false
}

func (p *Parser) expect(k ...types.TokenKind) types.Token {
	tok := p.cur
	if !p.is(k...) {
		if len(k) == 1 {
			panic(errors.ExpectedKindGotKind{
				Expected: k[0],
				Got:      tok,
				Location: tok.Location,
			})
		}
		panic(errors.ExpectedOneOfKindGotKind{
			Expected: k,
			Got:      tok,
			Location: tok.Location,
		})
	}
	p.advance()
	return tok
}

func (p *Parser) unexpected(context string) {
	panic(errors.UnexpectedToken{
		Context:  context,
		Got:      p.cur,
		Location: p.cur.Location,
	})
}

// spanFrom covers everything from from up to the last consumed token.
func (p *Parser) spanFrom(from types.Position) types.Span {
	return types.Span{From: from, To: p.last.Location.To}
}

func (p *Parser) parseStatement() ast.Stmt {
	if p.cur.Kind.IsTypeKeyword() {
		return p.parseVarDecl(true)
	}

	switch p.cur.Kind {
	case types.IDENT:
		return p.parseAssignment(true)
	case types.IF:
		return p.parseIf()
	case types.PRINT:
		return p.parsePrint()
	case types.FOR:
		return p.parseFor()
	case types.FOREACH:
		return p.parseForeach()
	case types.TRY:
		return p.parseTryCatch()
	case types.MATCH:
		return p.parseMatch()
	case types.ERROR:
		return p.parseRaise()
	case types.LBRACE:
		return p.parseBlock()
	}

	p.unexpected("statement")
	return nil
}

var declTypes = map[types.TokenKind]ast.VarType{
	types.INT:    ast.Int,
	types.STRING: ast.String,
	types.BOOL:   ast.Bool,
	types.FLOAT:  ast.Float,
	types.CHAR:   ast.Char,
	types.ARRAY:  ast.Array,
}

// parseVarDecl parses TYPE IDENT (',' IDENT)* ('=' expr (',' expr)*)? and,
// if terminated is set, the closing semicolon.
func (p *Parser) parseVarDecl(terminated bool) ast.Stmt {
	typTok := p.cur
	typ, ok := declTypes[typTok.Kind]
	if !ok {
		p.unexpected("declaration")
	}
	p.advance()

	names := []types.Token{p.expect(types.IDENT)}
	for p.is(types.COMMA) {
		p.advance()
		names = append(names, p.expect(types.IDENT))
	}

	var values []ast.Expr
	if p.is(types.ASSIGN) {
		p.advance()
		values = append(values, p.parseExpr())
		for p.is(types.COMMA) {
			p.advance()
			values = append(values, p.parseExpr())
		}
	}
	if terminated {
		p.expect(types.SEMICOLON)
	}

	span := p.spanFrom(typTok.Location.From)
	if len(values) != 0 && len(values) != len(names) {
		panic(errors.DeclarationMismatch{
			Names:    len(names),
			Values:   len(values),
			Location: span,
		})
	}

	decls := make([]ast.VarDecl, len(names))
	for i, name := range names {
		decls[i] = ast.VarDecl{
			Type: typ,
			Name: name.Lexeme,
			Pos:  span,
		}
		if len(values) > 0 {
			decls[i].Value = values[i]
		}
	}

	if len(decls) == 1 {
		return decls[0]
	}
	return ast.MultiVarDecl{Decls: decls}
}

var compoundOps = map[types.TokenKind]ast.BinOp{
	types.PLUS_ASSIGN:    ast.ADD,
	types.MINUS_ASSIGN:   ast.SUB,
	types.STAR_ASSIGN:    ast.MUL,
	types.SLASH_ASSIGN:   ast.DIV,
	types.PERCENT_ASSIGN: ast.MOD,
}

func (p *Parser) parseAssignment(terminated bool) ast.Stmt {
	name := p.expect(types.IDENT)
	from := name.Location.From

	var stmt ast.Stmt
	switch {
	case p.is(types.ASSIGN):
		p.advance()
		value := p.parseExpr()
		stmt = ast.Assign{Name: name.Lexeme, Value: value, Pos: p.spanFrom(from)}
	case p.is(types.INC, types.DEC):
		op := ast.ADD
		if p.is(types.DEC) {
			op = ast.SUB
		}
		p.advance()
		stmt = ast.CompoundAssign{Name: name.Lexeme, Op: op, Value: ast.IntLit{Value: 1}, Pos: p.spanFrom(from)}
	default:
		op, ok := compoundOps[p.cur.Kind]
		if !ok {
			panic(errors.ExpectedOneOfKindGotKind{
				Expected: []types.TokenKind{types.ASSIGN, types.PLUS_ASSIGN, types.MINUS_ASSIGN, types.STAR_ASSIGN, types.SLASH_ASSIGN, types.PERCENT_ASSIGN, types.INC, types.DEC},
				Got:      p.cur,
				Location: p.cur.Location,
			})
		}
		p.advance()
		value := p.parseExpr()
		stmt = ast.CompoundAssign{Name: name.Lexeme, Op: op, Value: value, Pos: p.spanFrom(from)}
	}

	if terminated {
		p.expect(types.SEMICOLON)
	}
	return stmt
}

// parseBlock parses a brace delimited statement list.
func (p *Parser) parseBlock() ast.Block {
	p.expect(types.LBRACE)

	statements := ast.Block{}
	for !p.is(types.RBRACE) {
		statements = append(statements, p.parseStatement())
	}
	p.expect(types.RBRACE)

	return statements
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.expect(types.IF)
	p.expect(types.LPAREN)
	cond := p.parseExpr()
	p.expect(types.RPAREN)
	span := p.spanFrom(start.Location.From)

	then := p.parseBlock()

	var elseStmt ast.Stmt
	if p.is(types.ELSE) {
		p.advance()
		if p.is(types.IF) {
			elseStmt = p.parseIf()
		} else {
			elseStmt = p.parseBlock()
		}
	}

	return ast.IfElse{
		Cond: cond,
		Then: then,
		Else: elseStmt,
		Pos:  span,
	}
}

func (p *Parser) parsePrint() ast.Stmt {
	start := p.expect(types.PRINT)
	p.expect(types.LPAREN)
	expr := p.parseExpr()
	p.expect(types.RPAREN)
	p.expect(types.SEMICOLON)

	return ast.Print{Expr: expr, Pos: p.spanFrom(start.Location.From)}
}

func (p *Parser) parseFor() ast.Stmt {
	start := p.expect(types.FOR)
	p.expect(types.LPAREN)

	var init ast.Stmt
	switch {
	case p.cur.Kind.IsTypeKeyword():
		init = p.parseVarDecl(true)
	case p.is(types.IDENT):
		init = p.parseAssignment(true)
	default:
		p.expect(types.SEMICOLON)
	}

	var cond ast.Expr
	if !p.is(types.SEMICOLON) {
		cond = p.parseExpr()
	}
	p.expect(types.SEMICOLON)

	var update ast.Stmt
	if !p.is(types.RPAREN) {
		update = p.parseAssignment(false)
	}
	p.expect(types.RPAREN)
	span := p.spanFrom(start.Location.From)

	return ast.Loop{
		Kind:   ast.For,
		Init:   init,
		Cond:   cond,
		Update: update,
		Body:   p.parseBlock(),
		Pos:    span,
	}
}

func (p *Parser) parseForeach() ast.Stmt {
	start := p.expect(types.FOREACH)
	p.expect(types.LPAREN)
	if p.is(types.INT) {
		// foreach (int x in xs): elements are always integers
		p.advance()
	}
	name := p.expect(types.IDENT)
	p.expect(types.IN)
	collection := p.parseExpr()
	p.expect(types.RPAREN)
	span := p.spanFrom(start.Location.From)

	return ast.Loop{
		Kind:       ast.Foreach,
		VarName:    name.Lexeme,
		Collection: collection,
		Body:       p.parseBlock(),
		Pos:        span,
	}
}

func (p *Parser) parseTryCatch() ast.Stmt {
	start := p.expect(types.TRY)
	try := p.parseBlock()
	p.expect(types.CATCH)
	p.expect(types.LPAREN)
	p.expect(types.ERROR)
	name := p.expect(types.IDENT)
	p.expect(types.RPAREN)
	span := p.spanFrom(start.Location.From)

	return ast.TryCatch{
		Try:      try,
		Catch:    p.parseBlock(),
		ErrorVar: name.Lexeme,
		Pos:      span,
	}
}

func (p *Parser) parseMatch() ast.Stmt {
	start := p.expect(types.MATCH)
	p.expect(types.LPAREN)
	expr := p.parseExpr()
	p.expect(types.RPAREN)
	span := p.spanFrom(start.Location.From)
	p.expect(types.LBRACE)

	var cases []ast.MatchCase
	seenDefault := false
	for !p.is(types.RBRACE) {
		var value ast.Expr
		switch {
		case p.is(types.IDENT) && p.cur.Lexeme == "_":
			if seenDefault {
				p.unexpected("match (second default arm)")
			}
			seenDefault = true
			p.advance()
		case p.is(types.INT_LIT, types.SIGNED_INT_LIT, types.FLOAT_LIT, types.STRING_LIT, types.CHAR_LIT, types.BOOL_LIT):
			value = p.parseLiteral()
		default:
			p.unexpected("match arm")
		}
		p.expect(types.ARROW)
		cases = append(cases, ast.MatchCase{Value: value, Body: p.parseBlock()})
	}
	p.expect(types.RBRACE)

	return ast.Match{Expr: expr, Cases: cases, Pos: span}
}

func (p *Parser) parseRaise() ast.Stmt {
	start := p.expect(types.ERROR)
	p.expect(types.LPAREN)
	value := p.parseExpr()
	p.expect(types.RPAREN)
	p.expect(types.SEMICOLON)

	return ast.Raise{Value: value, Pos: p.spanFrom(start.Location.From)}
}

var binOps = map[types.TokenKind]ast.BinOp{
	types.PLUS:    ast.ADD,
	types.MINUS:   ast.SUB,
	types.STAR:    ast.MUL,
	types.SLASH:   ast.DIV,
	types.PERCENT: ast.MOD,
	types.EQ:      ast.EQ,
	types.NE:      ast.NE,
	types.LT:      ast.LT,
	types.LE:      ast.LE,
	types.GT:      ast.GT,
	types.GE:      ast.GE,
	types.AND:     ast.AND,
	types.OR:      ast.OR,
}

func stringish(e ast.Expr) bool {
	switch e.(type) {
	case ast.StrLit, ast.Concat:
		return true
	}
	return false
}

// combine builds left op right. A + with a string literal operand is a
// concatenation; other string additions are left to the code generator,
// which knows the types of variables.
func combine(op ast.BinOp, left, right ast.Expr, span types.Span) ast.Expr {
	if op == ast.ADD && (stringish(left) || stringish(right)) {
		return ast.Concat{Left: left, Right: right, Pos: span}
	}
	return ast.BinaryOp{Op: op, Left: left, Right: right, Pos: span}
}

// parseExpr folds every binary operator strictly left to right; there is no
// precedence. A signed literal right after an operand is read as the sign
// operator followed by the literal, so i+1 and i-1 mean what they look like.
func (p *Parser) parseExpr() ast.Expr {
	from := p.cur.Location.From
	left := p.parsePrimary()

	for {
		if op, ok := binOps[p.cur.Kind]; ok {
			p.advance()
			right := p.parsePrimary()
			left = combine(op, left, right, p.spanFrom(from))
			continue
		}

		if p.is(types.SIGNED_INT_LIT) || (p.is(types.FLOAT_LIT) && strings.IndexAny(p.cur.Lexeme, "+-") == 0) {
			op := ast.ADD
			if p.cur.Lexeme[0] == '-' {
				op = ast.SUB
			}
			tok := p.cur
			tok.Lexeme = tok.Lexeme[1:]
			if tok.Kind == types.SIGNED_INT_LIT {
				tok.Kind = types.INT_LIT
			}
			p.advance()
			left = combine(op, left, p.literal(tok), p.spanFrom(from))
			continue
		}

		break
	}

	if p.is(types.QUESTION) {
		p.advance()
		t := p.parseExpr()
		p.expect(types.COLON)
		f := p.parseExpr()
		return ast.Ternary{Cond: left, True: t, False: f, Pos: p.spanFrom(from)}
	}

	return left
}

func (p *Parser) parseLiteral() ast.Expr {
	tok := p.cur
	p.advance()
	return p.literal(tok)
}

// literal converts an already consumed literal token.
func (p *Parser) literal(tok types.Token) ast.Expr {
	switch tok.Kind {
	case types.INT_LIT, types.SIGNED_INT_LIT:
		v, err := strconv.ParseInt(tok.Lexeme, 10, 32)
		if err != nil {
			panic(errors.InvalidLiteral{Lexeme: tok.Lexeme, Reason: "does not fit in int", Location: tok.Location})
		}
		return ast.IntLit{Value: v}
	case types.FLOAT_LIT:
		v, err := strconv.ParseFloat(tok.Lexeme, 32)
		if err != nil {
			panic(errors.InvalidLiteral{Lexeme: tok.Lexeme, Reason: "does not fit in float", Location: tok.Location})
		}
		return ast.FloatLit{Value: v}
	case types.STRING_LIT:
		return ast.StrLit{Value: tok.Lexeme}
	case types.CHAR_LIT:
		return ast.CharLit{Value: tok.Lexeme[0]}
	case types.BOOL_LIT:
		return ast.BoolLit{Value: tok.Lexeme == "true"}
	}

	panic(errors.UnexpectedToken{Context: "literal", Got: tok, Location: tok.Location})
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur
	from := tok.Location.From

	switch tok.Kind {
	case types.INT_LIT, types.SIGNED_INT_LIT, types.FLOAT_LIT, types.STRING_LIT, types.CHAR_LIT, types.BOOL_LIT:
		return p.parseLiteral()
	case types.IDENT:
		p.advance()
		ref := ast.VarRef{Name: tok.Lexeme, Pos: tok.Location}

		if p.is(types.PERIOD) {
			p.advance()
			method := p.expect(types.IDENT)
			p.expect(types.LPAREN)
			p.expect(types.RPAREN)
			return ast.MethodCall{Receiver: ref, Method: method.Lexeme, Pos: p.spanFrom(from)}
		}
		if p.is(types.LBRACK) {
			p.advance()
			idx := p.parseExpr()
			p.expect(types.RBRACK)
			return ast.BinaryOp{Op: ast.INDEX, Left: ref, Right: idx, Pos: p.spanFrom(from)}
		}
		return ref
	case types.LBRACK:
		p.advance()
		elems := []ast.Expr{}
		if !p.is(types.RBRACK) {
			elems = append(elems, p.parseExpr())
			for p.is(types.COMMA) {
				p.advance()
				elems = append(elems, p.parseExpr())
			}
		}
		p.expect(types.RBRACK)
		return ast.ArrayLit{Elements: elems, Pos: p.spanFrom(from)}
	case types.LPAREN:
		p.advance()
		e := p.parseExpr()
		p.expect(types.RPAREN)
		return e
	case types.MINUS, types.NOT:
		op := ast.NEG
		if tok.Kind == types.NOT {
			op = ast.NOT
		}
		p.advance()
		operand := p.parsePrimary()
		return ast.UnaryOp{Op: op, Operand: operand, Pos: p.spanFrom(from)}
	}

	if _, ok := builtins[tok.Kind]; ok {
		return p.parseBuiltin()
	}

	p.unexpected("expression")
	return nil
}

type builtin struct {
	arity int
	build func(args []ast.Expr, span types.Span) ast.Expr
}

func binary(op ast.BinOp) builtin {
	return builtin{2, func(args []ast.Expr, span types.Span) ast.Expr {
		return ast.BinaryOp{Op: op, Left: args[0], Right: args[1], Pos: span}
	}}
}

func unary(op ast.UnOp) builtin {
	return builtin{1, func(args []ast.Expr, span types.Span) ast.Expr {
		return ast.UnaryOp{Op: op, Operand: args[0], Pos: span}
	}}
}

var builtins = map[types.TokenKind]builtin{
	types.CONCAT: {2, func(args []ast.Expr, span types.Span) ast.Expr {
		return ast.Concat{Left: args[0], Right: args[1], Pos: span}
	}},
	types.ABS: {1, func(args []ast.Expr, span types.Span) ast.Expr {
		return ast.BinaryOp{Op: ast.ABS, Left: args[0], Pos: span}
	}},
	types.POW:      binary(ast.POW),
	types.INDEX:    binary(ast.INDEX),
	types.ADD:      binary(ast.ADD_ARRAY),
	types.SUBTRACT: binary(ast.SUB_ARRAY),
	types.MULTIPLY: binary(ast.MUL_ARRAY),
	types.DIVIDE:   binary(ast.DIV_ARRAY),
	types.LENGTH:   unary(ast.LENGTH),
	types.MIN:      unary(ast.MIN),
	types.MAX:      unary(ast.MAX),
}

// parseBuiltin parses NAME '(' args ')' and checks the argument count.
func (p *Parser) parseBuiltin() ast.Expr {
	name := p.cur
	b := builtins[name.Kind]
	p.advance()
	p.expect(types.LPAREN)

	var args []ast.Expr
	if !p.is(types.RPAREN) {
		args = append(args, p.parseExpr())
		for p.is(types.COMMA) {
			p.advance()
			args = append(args, p.parseExpr())
		}
	}
	p.expect(types.RPAREN)

	span := p.spanFrom(name.Location.From)
	if len(args) != b.arity {
		panic(errors.ArityMismatch{
			Builtin:  name.Kind.String(),
			Expected: b.arity,
			Got:      len(args),
			Location: span,
		})
	}

	return b.build(args, span)
}
