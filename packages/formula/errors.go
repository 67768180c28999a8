package formula

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure by the pipeline stage that detected it
type ErrorKind uint8

const (
	ErrorKindLexical    ErrorKind = 1 // #LEX! - unrecognized character
	ErrorKindSyntax     ErrorKind = 2 // #SYNTAX! - malformed operators, parens or function calls
	ErrorKindStructural ErrorKind = 3 // #STRUCT! - prefix sequence does not form a tree
	ErrorKindDomain     ErrorKind = 4 // #NUM! - division by zero, negative sqrt/fact, overflow
	ErrorKindReference  ErrorKind = 5 // #REF! - reference cycle or reference chain too deep
)

// ErrorKindCodes maps error kinds to their short display codes
var ErrorKindCodes = map[ErrorKind]string{
	ErrorKindLexical:    "#LEX!",
	ErrorKindSyntax:     "#SYNTAX!",
	ErrorKindStructural: "#STRUCT!",
	ErrorKindDomain:     "#NUM!",
	ErrorKindReference:  "#REF!",
}

func (k ErrorKind) String() string {
	if code, ok := ErrorKindCodes[k]; ok {
		return code
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// InvalidFormulaStatus is the status message surfaced to the user whenever
// a cell fails to evaluate, whatever the underlying cause
const InvalidFormulaStatus = "Error: Invalid formula"

// FormulaError is returned by every stage of the pipeline. Pos is a byte
// offset into the text the failing stage was given, or -1 when the
// failure has no meaningful position (domain and reference errors).
type FormulaError struct {
	Kind    ErrorKind
	Message string
	Pos     int
}

func (e *FormulaError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s %s at position %d", e.Kind, e.Message, e.Pos)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Message)
}

// NewFormulaError creates an error without a position
func NewFormulaError(kind ErrorKind, message string) *FormulaError {
	return &FormulaError{Kind: kind, Message: message, Pos: -1}
}

func newPositionedError(kind ErrorKind, pos int, format string, args ...any) *FormulaError {
	return &FormulaError{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func newError(kind ErrorKind, format string, args ...any) *FormulaError {
	return NewFormulaError(kind, fmt.Sprintf(format, args...))
}

// KindOf reports the kind of the first FormulaError in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var fe *FormulaError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// IsKind checks whether err carries a FormulaError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
