package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/efp"

	"github.com/vogtb/go-cellcalc/packages/formula"
)

// ErrUnsupportedFormula is returned for Excel formulas that use anything
// outside the cell formula grammar: ranges, text, comparisons, other sheets
// or functions without a counterpart
var ErrUnsupportedFormula = errors.New("unsupported excel formula")

// excelFunctions maps Excel function names onto the formula grammar
var excelFunctions = map[string]struct {
	name  string
	arity int // -1 means two or more, folded pairwise
}{
	"POWER": {"pow", 2},
	"SQRT":  {"sqrt", 1},
	"EXP":   {"e", 1},
	"FACT":  {"fact", 1},
	"MAX":   {"max", -1},
	"MIN":   {"min", -1},
	"MOD":   {"", 2},
}

// TranslateExcelFormula rewrites an Excel formula ("=POWER($A$1,2)+B2%")
// into the cell formula grammar ("pow(A1,2)+(B2/100)"). a leading '=' is
// optional.
func TranslateExcelFormula(excel string) (string, error) {
	src := strings.TrimPrefix(strings.TrimSpace(excel), "=")
	if src == "" {
		return "", nil
	}

	ps := efp.ExcelParser()
	tokens := ps.Parse(src)
	if len(tokens) == 0 {
		return "", fmt.Errorf("%w: %q could not be parsed", ErrUnsupportedFormula, excel)
	}

	t := &excelTranslator{tokens: tokens}
	out, err := t.sequence()
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnsupportedFormula, excel, err)
	}
	if t.pos < len(t.tokens) {
		return "", fmt.Errorf("%w: %q: unexpected %q", ErrUnsupportedFormula, excel, t.tokens[t.pos].TValue)
	}
	return out, nil
}

type excelTranslator struct {
	tokens []efp.Token
	pos    int
}

func isStop(tok efp.Token) bool {
	return tok.TSubType == efp.TokenSubTypeStop &&
		(tok.TType == efp.TokenTypeFunction || tok.TType == efp.TokenTypeSubexpression)
}

// sequence translates tokens up to the next argument separator or closing
// token, which is left for the caller
func (t *excelTranslator) sequence() (string, error) {
	var pieces []string

	for t.pos < len(t.tokens) {
		tok := t.tokens[t.pos]
		if tok.TType == efp.TokenTypeArgument || isStop(tok) {
			break
		}
		t.pos++

		switch tok.TType {
		case efp.TokenTypeWhitespace, efp.TokenTypeNoop:
			continue

		case efp.TokenTypeOperand:
			operand, err := translateOperand(tok)
			if err != nil {
				return "", err
			}
			pieces = append(pieces, operand)

		case efp.TokenTypeFunction:
			call, err := t.function(tok.TValue)
			if err != nil {
				return "", err
			}
			pieces = append(pieces, call)

		case efp.TokenTypeSubexpression:
			inner, err := t.sequence()
			if err != nil {
				return "", err
			}
			if err := t.expectStop(efp.TokenTypeSubexpression); err != nil {
				return "", err
			}
			pieces = append(pieces, "("+inner+")")

		case efp.TokenTypeOperatorPrefix:
			pieces = append(pieces, tok.TValue)

		case efp.TokenTypeOperatorInfix:
			switch tok.TValue {
			case "+", "-", "*", "/":
				pieces = append(pieces, tok.TValue)
			default:
				return "", fmt.Errorf("operator %q", tok.TValue)
			}

		case efp.TokenTypeOperatorPostfix:
			if tok.TValue != "%" || len(pieces) == 0 {
				return "", fmt.Errorf("postfix operator %q", tok.TValue)
			}
			last := len(pieces) - 1
			pieces[last] = "(" + pieces[last] + "/100)"

		default:
			return "", fmt.Errorf("token %q", tok.TValue)
		}
	}

	return strings.Join(pieces, ""), nil
}

func (t *excelTranslator) expectStop(ttype string) error {
	if t.pos >= len(t.tokens) {
		return errors.New("missing ')'")
	}
	tok := t.tokens[t.pos]
	if tok.TType != ttype || tok.TSubType != efp.TokenSubTypeStop {
		return fmt.Errorf("unexpected %q", tok.TValue)
	}
	t.pos++
	return nil
}

func (t *excelTranslator) function(name string) (string, error) {
	var args []string
	for {
		arg, err := t.sequence()
		if err != nil {
			return "", err
		}
		if t.pos >= len(t.tokens) {
			return "", fmt.Errorf("%s is missing ')'", name)
		}
		args = append(args, arg)

		tok := t.tokens[t.pos]
		t.pos++
		if tok.TType == efp.TokenTypeArgument {
			continue
		}
		if tok.TType != efp.TokenTypeFunction {
			return "", fmt.Errorf("unexpected %q in %s", tok.TValue, name)
		}
		break
	}

	upper := strings.ToUpper(name)
	fn, ok := excelFunctions[upper]
	if !ok {
		return "", fmt.Errorf("function %s", name)
	}
	for _, arg := range args {
		if arg == "" {
			return "", fmt.Errorf("empty argument to %s", name)
		}
	}

	switch {
	case upper == "MOD":
		if len(args) != 2 {
			return "", fmt.Errorf("MOD takes 2 arguments, got %d", len(args))
		}
		return "((" + args[0] + ")%(" + args[1] + "))", nil
	case fn.arity == -1:
		acc := args[0]
		for _, arg := range args[1:] {
			acc = fn.name + "(" + acc + "," + arg + ")"
		}
		if len(args) == 1 {
			acc = "(" + acc + ")"
		}
		return acc, nil
	case len(args) != fn.arity:
		return "", fmt.Errorf("%s takes %d argument(s), got %d", upper, fn.arity, len(args))
	default:
		return fn.name + "(" + strings.Join(args, ",") + ")", nil
	}
}

func translateOperand(tok efp.Token) (string, error) {
	switch tok.TSubType {
	case efp.TokenSubTypeNumber:
		v, err := strconv.ParseFloat(tok.TValue, 64)
		if err != nil {
			return "", fmt.Errorf("number %q", tok.TValue)
		}
		return formula.FormatNumber(v), nil

	case efp.TokenSubTypeRange:
		ref := strings.ToUpper(strings.ReplaceAll(tok.TValue, "$", ""))
		coord, err := formula.ParseCoordinate(ref)
		if err != nil {
			return "", fmt.Errorf("reference %q", tok.TValue)
		}
		return coord.String(), nil
	}

	return "", fmt.Errorf("operand %q", tok.TValue)
}
