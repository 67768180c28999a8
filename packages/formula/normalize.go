package formula

import "strings"

// NormalizeUnary strips whitespace and rewrites every unary minus into the
// negate marker '~' so the converter can treat it as a strict prefix
// operator. unary plus has no effect and is dropped.
//
// a sign is unary when nothing has been emitted yet, or when the previous
// emitted character is an operator, an opening parenthesis or an argument
// separator. '*', '/' and '%' in that position are malformed.
func NormalizeUnary(formula string) (string, error) {
	var b strings.Builder
	b.Grow(len(formula))

	var last byte // 0 until something has been emitted
	for i := 0; i < len(formula); i++ {
		c := formula[i]
		if isWhitespace(c) {
			continue
		}
		if c == charNegate {
			// reserved for the marker, never valid in user input
			return "", newPositionedError(ErrorKindLexical, i, "unexpected character %q", rune(c))
		}

		if isOperatorChar(c) && isUnaryContext(last) {
			switch c {
			case charPlus:
				continue
			case charMinus:
				b.WriteByte(charNegate)
				last = charNegate
				continue
			default:
				if last == 0 {
					return "", newPositionedError(ErrorKindSyntax, i, "formula cannot start with operator %q", rune(c))
				}
				return "", newPositionedError(ErrorKindSyntax, i, "operator %q follows %q without an operand", rune(c), rune(last))
			}
		}

		b.WriteByte(c)
		last = c
	}

	return b.String(), nil
}

func isUnaryContext(last byte) bool {
	return last == 0 || isOperatorChar(last) || last == charLParen || last == charComma
}
