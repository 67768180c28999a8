package formula

import "strings"

// PreprocessFunctions rewrites named function calls so the precedence
// engine can parse the function name as an operator:
//
//	pow(a,b)  ->  (a)pow(b)
//	sqrt(a)   ->  sqrt(a)
//
// arguments are split on top-level commas only and rewritten recursively,
// so calls may nest. cell labels are left untouched.
func PreprocessFunctions(formula string) (string, error) {
	return PreprocessFunctionsWithDepth(formula, DefaultMaxDepth)
}

// PreprocessFunctionsWithDepth is PreprocessFunctions with an explicit
// limit on call nesting
func PreprocessFunctionsWithDepth(formula string, maxDepth int) (string, error) {
	p := &preprocessor{input: formula, maxDepth: maxDepth}
	return p.rewrite(0, len(formula), 0)
}

type preprocessor struct {
	input    string
	maxDepth int
}

// span is a half-open byte range of the input
type span struct {
	start int
	end   int
}

func (p *preprocessor) rewrite(start, end, depth int) (string, error) {
	if depth > p.maxDepth {
		return "", newPositionedError(ErrorKindStructural, start, "function calls nested deeper than %d", p.maxDepth)
	}

	var b strings.Builder
	i := start
	for i < end {
		c := p.input[i]
		if !isLetter(c) {
			b.WriteByte(c)
			i++
			continue
		}

		wordStart := i
		for i < end && isLetter(p.input[i]) {
			i++
		}
		word := p.input[wordStart:i]

		// cell labels pass through for the resolver or the converter to deal with
		if isUpperWord(word) && i < end && isDigit(p.input[i]) {
			for i < end && isDigit(p.input[i]) {
				i++
			}
			b.WriteString(p.input[wordStart:i])
			continue
		}

		fn, ok := LookupFunction(word)
		if !ok {
			return "", newPositionedError(ErrorKindSyntax, wordStart, "unknown function %q", word)
		}
		if i >= end || p.input[i] != charLParen {
			return "", newPositionedError(ErrorKindSyntax, i, "function %q must be followed by '('", word)
		}

		closeIdx, args, err := p.splitArguments(i, end)
		if err != nil {
			return "", err
		}
		if len(args) != fn.Arity {
			return "", newPositionedError(ErrorKindSyntax, wordStart,
				"function %q takes %d argument(s), got %d", word, fn.Arity, len(args))
		}

		rewritten := make([]string, len(args))
		for k, arg := range args {
			if arg.start == arg.end {
				return "", newPositionedError(ErrorKindSyntax, arg.start, "empty argument to %q", word)
			}
			r, err := p.rewrite(arg.start, arg.end, depth+1)
			if err != nil {
				return "", err
			}
			rewritten[k] = r
		}

		if fn.Arity == 2 {
			b.WriteByte(charLParen)
			b.WriteString(rewritten[0])
			b.WriteByte(charRParen)
			b.WriteString(fn.Symbol)
			b.WriteByte(charLParen)
			b.WriteString(rewritten[1])
			b.WriteByte(charRParen)
		} else {
			b.WriteString(fn.Symbol)
			b.WriteByte(charLParen)
			b.WriteString(rewritten[0])
			b.WriteByte(charRParen)
		}
		i = closeIdx + 1
	}

	return b.String(), nil
}

// splitArguments finds the parenthesis closing the one at open and the
// argument spans between them. returns the index of the closing parenthesis.
func (p *preprocessor) splitArguments(open, end int) (int, []span, error) {
	depth := 0
	argStart := open + 1
	var args []span

	for j := open; j < end; j++ {
		switch p.input[j] {
		case charLParen:
			depth++
		case charRParen:
			depth--
			if depth == 0 {
				args = append(args, span{start: argStart, end: j})
				return j, args, nil
			}
		case charComma:
			if depth == 1 {
				args = append(args, span{start: argStart, end: j})
				argStart = j + 1
			}
		}
	}

	return 0, nil, newPositionedError(ErrorKindSyntax, open, "function call is missing ')'")
}
