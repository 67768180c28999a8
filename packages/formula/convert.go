package formula

// ToPrefix linearizes an infix token stream into prefix order with the
// shunting-yard algorithm run over the reversed stream.
//
// reading right to left swaps the roles of the parentheses: ')' opens a
// group and '(' closes it. an operator pops the stack while the top binds
// strictly tighter, which makes equal-priority operators come out left
// associative once the output is reversed, so 8-5-1 is (8-5)-1. unary
// operators also pop unary operators of equal priority so that adjacent
// prefix operators keep their order: -sqrt(4) is -(sqrt(4)).
func ToPrefix(tokens []Token) ([]Token, error) {
	output := make([]Token, 0, len(tokens))
	stack := make([]Token, 0, len(tokens)/2+1)

	for i := len(tokens) - 1; i >= 0; i-- {
		tok := tokens[i]

		switch tok.Type {
		case TokenNumber:
			output = append(output, tok)

		case TokenRightParen:
			// group marker
			stack = append(stack, tok)

		case TokenLeftParen:
			found := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.Type == TokenRightParen {
					found = true
					break
				}
				output = append(output, top)
			}
			if !found {
				return nil, newPositionedError(ErrorKindSyntax, tok.Pos, "unbalanced parentheses: unmatched '('")
			}

		case TokenOperator, TokenFunction:
			op, ok := LookupOperator(tok.Value)
			if !ok {
				return nil, newPositionedError(ErrorKindSyntax, tok.Pos, "unknown function %q", tok.Value)
			}
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.Type == TokenRightParen || !outranks(top.Value, op) {
					break
				}
				output = append(output, top)
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, tok)

		case TokenComma:
			return nil, newPositionedError(ErrorKindSyntax, tok.Pos, "unexpected ',' outside a function call")

		case TokenCell:
			return nil, newPositionedError(ErrorKindReference, tok.Pos, "unresolved cell reference %s", tok.Value)

		default:
			return nil, newPositionedError(ErrorKindSyntax, tok.Pos, "unexpected token %q", tok.Value)
		}
	}

	// drain
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.Type == TokenRightParen {
			return nil, newPositionedError(ErrorKindSyntax, top.Pos, "unbalanced parentheses: unmatched ')'")
		}
		output = append(output, top)
	}

	// reverse to get true prefix order
	for i, j := 0, len(output)-1; i < j; i, j = i+1, j-1 {
		output[i], output[j] = output[j], output[i]
	}
	return output, nil
}

// outranks reports whether the stacked operator must be emitted before op
// is pushed
func outranks(stacked string, op Operator) bool {
	p := Precedence(stacked)
	if op.Arity == 1 {
		return p >= op.Priority
	}
	return p > op.Priority
}
