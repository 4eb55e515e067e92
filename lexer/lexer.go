package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/mhbemani/minic/types"
)

type Lexer struct {
	pos    types.Position
	prev   types.Position
	reader *bufio.Reader
	peeked *types.Token
	err    error
}

func NewLexer(reader io.Reader, filename string) *Lexer {
	return &Lexer{
		pos:    types.Position{Line: 1, Column: 0, Filename: filename},
		reader: bufio.NewReader(reader),
	}
}

func NewLexerString(src, filename string) *Lexer {
	return NewLexer(strings.NewReader(src), filename)
}

func (l *Lexer) newline() {
	l.pos.Line++
	l.pos.Column = 0
}

// next consumes one rune. The position afterwards is the position of that rune.
func (l *Lexer) next() (rune, bool) {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		if err != io.EOF {
			l.err = err
		}
		return 0, false
	}

	l.prev = l.pos
	if r == '\n' {
		l.newline()
	} else {
		l.pos.Column++
	}
	return r, true
}

// backup undoes the last next. Only one level is supported.
func (l *Lexer) backup() {
	if err := l.reader.UnreadRune(); err != nil {
		panic(err)
	}

	l.pos = l.prev
}

func (l *Lexer) peekByte(n int) (byte, bool) {
	byt, err := l.reader.Peek(n + 1)
	if len(byt) <= n {
		if err != nil && err != io.EOF {
			l.err = err
		}
		return 0, false
	}
	return byt[n], true
}

func (l *Lexer) token(kind types.TokenKind, lit string, from types.Position) types.Token {
	return types.Token{
		Kind:     kind,
		Lexeme:   lit,
		Location: types.Span{From: from, To: l.pos},
	}
}

func (l *Lexer) illegal(from types.Position, msg string, fmts ...interface{}) types.Token {
	return l.token(types.ILLEGAL, fmt.Sprintf(msg, fmts...), from)
}

func firstChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func otherChar(r rune) bool {
	return firstChar(r) || isDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isDigitByte(b byte, ok bool) bool {
	return ok && b >= '0' && b <= '9'
}

func isASCIIIdent(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func (l *Lexer) lexIdent(first rune, from types.Position) types.Token {
	var lit strings.Builder
	lit.WriteRune(first)

	for {
		r, ok := l.next()
		if !ok {
			break
		}
		if !otherChar(r) {
			l.backup()
			break
		}
		lit.WriteRune(r)
	}

	word := lit.String()
	switch word {
	case "true", "false":
		return l.token(types.BOOL_LIT, word, from)
	}
	if kind, ok := types.Keywords[word]; ok {
		return l.token(kind, word, from)
	}
	return l.token(types.IDENT, word, from)
}

// lexNumber is called with the first digit, or the sign in front of it,
// already consumed.
func (l *Lexer) lexNumber(first rune, from types.Position) types.Token {
	var lit strings.Builder
	lit.WriteRune(first)
	signed := first == '+' || first == '-'
	float := false

	for {
		b, ok := l.peekByte(0)
		if isDigitByte(b, ok) {
			l.next()
			lit.WriteByte(b)
			continue
		}
		if ok && b == '.' && !float && isDigitByte(l.peekByte(1)) {
			l.next()
			float = true
			lit.WriteByte(b)
			continue
		}
		break
	}

	if b, ok := l.peekByte(0); ok && isASCIIIdent(b) {
		// 12abc is neither a number nor an identifier
		for {
			b, ok := l.peekByte(0)
			if !ok || !isASCIIIdent(b) {
				break
			}
			l.next()
			lit.WriteByte(b)
		}
		return l.illegal(from, "malformed number %q", lit.String())
	}

	switch {
	case float:
		return l.token(types.FLOAT_LIT, lit.String(), from)
	case signed:
		return l.token(types.SIGNED_INT_LIT, lit.String(), from)
	}
	return l.token(types.INT_LIT, lit.String(), from)
}

// lexString is called with the opening quote consumed. Strings are raw and
// may span several lines.
func (l *Lexer) lexString(from types.Position) types.Token {
	var lit strings.Builder

	for {
		r, ok := l.next()
		if !ok {
			return l.illegal(from, "unterminated string")
		}
		if r == '"' {
			return l.token(types.STRING_LIT, lit.String(), from)
		}
		lit.WriteRune(r)
	}
}

var charEscapes = map[rune]rune{
	'n':  '\n',
	't':  '\t',
	'0':  0,
	'\\': '\\',
	'\'': '\'',
}

func (l *Lexer) lexChar(from types.Position) types.Token {
	r, ok := l.next()
	if !ok || r == '\n' {
		return l.illegal(from, "unterminated character literal")
	}
	if r == '\'' {
		return l.illegal(from, "empty character literal")
	}
	if r == '\\' {
		e, ok := l.next()
		if !ok {
			return l.illegal(from, "unterminated character literal")
		}
		escaped, known := charEscapes[e]
		if !known {
			return l.illegal(from, "unknown escape sequence '\\%c'", e)
		}
		r = escaped
	}
	if r > 0x7f {
		return l.illegal(from, "character literal %q does not fit in a byte", r)
	}

	closing, ok := l.next()
	if !ok || closing != '\'' {
		return l.illegal(from, "unterminated character literal")
	}
	return l.token(types.CHAR_LIT, string(r), from)
}

// skipTrivia drops whitespace and comments. It returns an ILLEGAL token when
// a block comment is never closed.
func (l *Lexer) skipTrivia() (types.Token, bool) {
	for {
		b, ok := l.peekByte(0)
		if !ok {
			return types.Token{}, true
		}

		switch {
		case isSpaceByte(b):
			l.next()
			continue
		case b == '/':
			nb, ok := l.peekByte(1)
			if ok && nb == '/' {
				for {
					r, ok := l.next()
					if !ok || r == '\n' {
						break
					}
				}
				continue
			}
			if ok && nb == '*' {
				l.next()
				from := l.pos
				l.next()
				closed := false
				for !closed {
					r, ok := l.next()
					if !ok {
						return l.illegal(from, "unterminated comment"), false
					}
					if r == '*' {
						if b, ok := l.peekByte(0); ok && b == '/' {
							l.next()
							closed = true
						}
					}
				}
				continue
			}
		}

		return types.Token{}, true
	}
}

var twoChars = map[string]types.TokenKind{
	"==": types.EQ,
	"!=": types.NE,
	"<=": types.LE,
	">=": types.GE,
	"&&": types.AND,
	"||": types.OR,
	"+=": types.PLUS_ASSIGN,
	"-=": types.MINUS_ASSIGN,
	"*=": types.STAR_ASSIGN,
	"/=": types.SLASH_ASSIGN,
	"%=": types.PERCENT_ASSIGN,
	"++": types.INC,
	"--": types.DEC,
	"->": types.ARROW,
}

var oneChar = map[rune]types.TokenKind{
	'=': types.ASSIGN,
	'+': types.PLUS,
	'-': types.MINUS,
	'*': types.STAR,
	'/': types.SLASH,
	'%': types.PERCENT,
	'<': types.LT,
	'>': types.GT,
	'!': types.NOT,
	'(': types.LPAREN,
	')': types.RPAREN,
	'{': types.LBRACE,
	'}': types.RBRACE,
	'[': types.LBRACK,
	']': types.RBRACK,
	',': types.COMMA,
	';': types.SEMICOLON,
	'.': types.PERIOD,
	':': types.COLON,
	'?': types.QUESTION,
}

func (l *Lexer) Peek() types.Token {
	if l.peeked != nil {
		return *l.peeked
	}

	tok := l.Lex()
	l.peeked = &tok

	return tok
}

func (l *Lexer) PeekIs(k ...types.TokenKind) bool {
	token := l.Peek()
	for _, kind := range k {
		if token.Kind == kind {
			return true
		}
	}

	return false
}

func (l *Lexer) Lex() types.Token {
	if l.peeked != nil {
		defer func() { l.peeked = nil }()
		return *l.peeked
	}

	if tok, ok := l.skipTrivia(); !ok {
		return tok
	}

	r, ok := l.next()
	if !ok {
		at := l.pos
		at.Column++
		if l.err != nil {
			err := l.err
			l.err = nil
			return types.Token{Kind: types.ILLEGAL, Lexeme: err.Error(), Location: types.SingleCharSpan(at)}
		}
		return types.Token{Kind: types.EOF, Location: types.SingleCharSpan(at)}
	}
	from := l.pos

	switch {
	case firstChar(r):
		return l.lexIdent(r, from)
	case isDigit(r):
		return l.lexNumber(r, from)
	case (r == '+' || r == '-') && isDigitByte(l.peekByte(0)):
		return l.lexNumber(r, from)
	case r == '"':
		return l.lexString(from)
	case r == '\'':
		return l.lexChar(from)
	}

	if nb, ok := l.peekByte(0); ok {
		op := string(r) + string(rune(nb))
		if kind, ok := twoChars[op]; ok {
			l.next()
			return l.token(kind, op, from)
		}
	}
	if kind, ok := oneChar[r]; ok {
		return l.token(kind, string(r), from)
	}

	return l.illegal(from, "unexpected character %q", r)
}

// Tokenize lexes the whole input. The returned slice always ends with EOF.
func (l *Lexer) Tokenize() []types.Token {
	var ret []types.Token
	for {
		t := l.Lex()
		ret = append(ret, t)
		if t.Kind == types.EOF {
			return ret
		}
	}
}
