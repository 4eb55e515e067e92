package types

import (
	"fmt"
)

type Position struct {
	Line     int
	Column   int
	Filename string
}

type Span struct {
	From Position
	To   Position
}

type TokenKind int

const (
	EOF TokenKind = iota
	ILLEGAL

	IDENT
	INT_LIT
	SIGNED_INT_LIT
	FLOAT_LIT
	STRING_LIT
	CHAR_LIT
	BOOL_LIT

	// type keywords
	INT
	STRING
	BOOL
	FLOAT
	CHAR
	ARRAY

	IF
	ELSE
	PRINT
	FOR
	FOREACH
	IN
	TRY
	CATCH
	ERROR
	MATCH

	// builtin keywords
	CONCAT
	POW
	ABS
	LENGTH
	MIN
	MAX
	INDEX
	MULTIPLY
	ADD
	SUBTRACT
	DIVIDE

	ASSIGN
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQ
	NE
	LT
	LE
	GT
	GE
	AND
	OR
	NOT
	PLUS_ASSIGN
	MINUS_ASSIGN
	STAR_ASSIGN
	SLASH_ASSIGN
	PERCENT_ASSIGN
	INC
	DEC
	ARROW

	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACK
	RBRACK
	COMMA
	SEMICOLON
	PERIOD
	COLON
	QUESTION
)

var kindNames = map[TokenKind]string{
	EOF:            "EOF",
	ILLEGAL:        "ILLEGAL",
	IDENT:          "IDENT",
	INT_LIT:        "INT_LIT",
	SIGNED_INT_LIT: "SIGNED_INT_LIT",
	FLOAT_LIT:      "FLOAT_LIT",
	STRING_LIT:     "STRING_LIT",
	CHAR_LIT:       "CHAR_LIT",
	BOOL_LIT:       "BOOL_LIT",
	INT:            "int",
	STRING:         "string",
	BOOL:           "bool",
	FLOAT:          "float",
	CHAR:           "char",
	ARRAY:          "array",
	IF:             "if",
	ELSE:           "else",
	PRINT:          "print",
	FOR:            "for",
	FOREACH:        "foreach",
	IN:             "in",
	TRY:            "try",
	CATCH:          "catch",
	ERROR:          "error",
	MATCH:          "match",
	CONCAT:         "concat",
	POW:            "pow",
	ABS:            "abs",
	LENGTH:         "length",
	MIN:            "min",
	MAX:            "max",
	INDEX:          "index",
	MULTIPLY:       "multiply",
	ADD:            "add",
	SUBTRACT:       "subtract",
	DIVIDE:         "divide",
	ASSIGN:         "=",
	PLUS:           "+",
	MINUS:          "-",
	STAR:           "*",
	SLASH:          "/",
	PERCENT:        "%",
	EQ:             "==",
	NE:             "!=",
	LT:             "<",
	LE:             "<=",
	GT:             ">",
	GE:             ">=",
	AND:            "&&",
	OR:             "||",
	NOT:            "!",
	PLUS_ASSIGN:    "+=",
	MINUS_ASSIGN:   "-=",
	STAR_ASSIGN:    "*=",
	SLASH_ASSIGN:   "/=",
	PERCENT_ASSIGN: "%=",
	INC:            "++",
	DEC:            "--",
	ARROW:          "->",
	LPAREN:         "(",
	RPAREN:         ")",
	LBRACE:         "{",
	RBRACE:         "}",
	LBRACK:         "[",
	RBRACK:         "]",
	COMMA:          ",",
	SEMICOLON:      ";",
	PERIOD:         ".",
	COLON:          ":",
	QUESTION:       "?",
}

func (t TokenKind) String() string {
	if s, ok := kindNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TokenKind(%d)", int(t))
}

// Keywords maps reserved words to their token kinds. true and false are
// literals, not keywords, and are handled by the lexer directly.
var Keywords = map[string]TokenKind{
	"int":      INT,
	"string":   STRING,
	"bool":     BOOL,
	"float":    FLOAT,
	"char":     CHAR,
	"array":    ARRAY,
	"if":       IF,
	"else":     ELSE,
	"print":    PRINT,
	"for":      FOR,
	"foreach":  FOREACH,
	"in":       IN,
	"concat":   CONCAT,
	"pow":      POW,
	"abs":      ABS,
	"length":   LENGTH,
	"min":      MIN,
	"max":      MAX,
	"index":    INDEX,
	"multiply": MULTIPLY,
	"add":      ADD,
	"subtract": SUBTRACT,
	"divide":   DIVIDE,
	"try":      TRY,
	"catch":    CATCH,
	"error":    ERROR,
	"match":    MATCH,
}

// IsTypeKeyword reports whether t starts a variable declaration.
func (t TokenKind) IsTypeKeyword() bool {
	switch t {
	case INT, STRING, BOOL, FLOAT, CHAR, ARRAY:
		return true
	}
	return false
}

func (p Position) String() string {
	if p.Filename == "" {
		p.Filename = "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%d:%d", s.From, s.To.Line, s.To.Column)
}

func SingleCharSpan(p Position) Span {
	return Span{p, p}
}

type Token struct {
	Kind     TokenKind
	Lexeme   string
	Location Span
}

func (t Token) String() string {
	switch t.Kind {
	case IDENT, INT_LIT, SIGNED_INT_LIT, FLOAT_LIT, BOOL_LIT, CHAR_LIT:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Lexeme)
	case STRING_LIT:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Lexeme)
	case ILLEGAL:
		return fmt.Sprintf("ILLEGAL: %s", t.Lexeme)
	}
	return t.Kind.String()
}
