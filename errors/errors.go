package errors

import (
	"fmt"
	"strings"

	"github.com/mhbemani/minic/types"
)

type ExpectedKindGotKind struct {
	Expected types.TokenKind
	Got      types.Token
	Location types.Span
}

func (e ExpectedKindGotKind) Error() string {
	return fmt.Sprintf("got %s, expected %s. %s", e.Got, e.Expected, e.Location)
}

type ExpectedOneOfKindGotKind struct {
	Expected []types.TokenKind
	Got      types.Token
	Location types.Span
}

func (e ExpectedOneOfKindGotKind) Error() string {
	var names []string
	for _, k := range e.Expected {
		names = append(names, k.String())
	}
	return fmt.Sprintf("got %s, expected one of [%s]. %s", e.Got, strings.Join(names, " "), e.Location)
}

// UnexpectedToken is raised when a token cannot start the construct being parsed.
type UnexpectedToken struct {
	Context  string
	Got      types.Token
	Location types.Span
}

func (e UnexpectedToken) Error() string {
	return fmt.Sprintf("unexpected %s in %s. %s", e.Got, e.Context, e.Location)
}

// LexError surfaces an ILLEGAL token once the parser consumes it.
type LexError struct {
	Message  string
	Location types.Span
}

func (e LexError) Error() string {
	return fmt.Sprintf("%s. %s", e.Message, e.Location)
}

type ArityMismatch struct {
	Builtin  string
	Expected int
	Got      int
	Location types.Span
}

func (e ArityMismatch) Error() string {
	return fmt.Sprintf("%s expects %d argument(s), got %d. %s", e.Builtin, e.Expected, e.Got, e.Location)
}

// DeclarationMismatch is raised when a multi-variable declaration has a
// different number of names and initializers.
type DeclarationMismatch struct {
	Names    int
	Values   int
	Location types.Span
}

func (e DeclarationMismatch) Error() string {
	return fmt.Sprintf("declaration of %d variable(s) with %d value(s). %s", e.Names, e.Values, e.Location)
}

type InvalidLiteral struct {
	Lexeme   string
	Reason   string
	Location types.Span
}

func (e InvalidLiteral) Error() string {
	return fmt.Sprintf("invalid literal %q: %s. %s", e.Lexeme, e.Reason, e.Location)
}

// CodegenKind classifies code generation failures.
type CodegenKind int

const (
	Unsupported CodegenKind = iota
	Undeclared
	Redeclared
	TypeMismatch
	ArrayShape
	DuplicateCase
	Internal
)

func (k CodegenKind) String() string {
	switch k {
	case Undeclared:
		return "undeclared variable"
	case Redeclared:
		return "redeclaration"
	case TypeMismatch:
		return "type mismatch"
	case ArrayShape:
		return "array shape"
	case DuplicateCase:
		return "duplicate case"
	case Internal:
		return "internal error"
	}
	return "unsupported"
}

type CodegenError struct {
	Kind     CodegenKind
	Message  string
	Location types.Span
}

func (e CodegenError) Error() string {
	if e.Location.From.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s. %s", e.Kind, e.Message, e.Location)
}

func NewCodegenError(kind CodegenKind, at types.Span, msg string, fmts ...interface{}) CodegenError {
	return CodegenError{
		Kind:     kind,
		Message:  fmt.Sprintf(msg, fmts...),
		Location: at,
	}
}
