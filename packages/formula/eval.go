package formula

import (
	"math"
)

// maxFactorial is the largest argument whose factorial fits in a float64
const maxFactorial = 170

// Evaluate reduces an expression tree to a number. results that would be
// NaN or infinite are reported as domain errors.
func Evaluate(e Expr) (float64, error) {
	if e == nil {
		return 0, NewFormulaError(ErrorKindStructural, "nothing to evaluate")
	}
	return e.Eval()
}

func (n *NumberLiteral) Eval() (float64, error) {
	return n.Value, nil
}

func (n *BinaryOp) Eval() (float64, error) {
	left, err := n.Left.Eval()
	if err != nil {
		return 0, err
	}
	right, err := n.Right.Eval()
	if err != nil {
		return 0, err
	}

	var result float64
	switch n.Op {
	case BinOpAdd:
		result = left + right
	case BinOpSubtract:
		result = left - right
	case BinOpMultiply:
		result = left * right
	case BinOpDivide:
		if right == 0 {
			return 0, NewFormulaError(ErrorKindDomain, "division by zero")
		}
		result = left / right
	case BinOpModulo:
		if right == 0 {
			return 0, NewFormulaError(ErrorKindDomain, "modulo by zero")
		}
		result = math.Mod(left, right)
	case BinOpPower:
		result = math.Pow(left, right)
	case BinOpMax:
		result = math.Max(left, right)
	case BinOpMin:
		result = math.Min(left, right)
	default:
		return 0, newError(ErrorKindStructural, "unknown binary operator %s", n.Op)
	}

	return checkFinite(n.Op.String(), result)
}

func (n *UnaryOp) Eval() (float64, error) {
	x, err := n.Operand.Eval()
	if err != nil {
		return 0, err
	}

	var result float64
	switch n.Op {
	case UnaryOpNegate:
		return -x, nil
	case UnaryOpSqrt:
		if x < 0 {
			return 0, newError(ErrorKindDomain, "square root of negative number %s", FormatNumber(x))
		}
		result = math.Sqrt(x)
	case UnaryOpExp:
		result = math.Exp(x)
	case UnaryOpFactorial:
		return factorial(x)
	default:
		return 0, newError(ErrorKindStructural, "unknown unary operator %s", n.Op)
	}

	return checkFinite(n.Op.String(), result)
}

// factorial accepts non-negative integral values only
func factorial(x float64) (float64, error) {
	if x < 0 {
		return 0, newError(ErrorKindDomain, "factorial of negative number %s", FormatNumber(x))
	}
	if x != math.Trunc(x) {
		return 0, newError(ErrorKindDomain, "factorial of non-integer %s", FormatNumber(x))
	}
	if x > maxFactorial {
		return 0, newError(ErrorKindDomain, "factorial of %s overflows", FormatNumber(x))
	}

	result := 1.0
	for i := 2.0; i <= x; i++ {
		result *= i
	}
	return result, nil
}

func checkFinite(op string, v float64) (float64, error) {
	if math.IsNaN(v) {
		return 0, newError(ErrorKindDomain, "%s produced an undefined result", op)
	}
	if math.IsInf(v, 0) {
		return 0, newError(ErrorKindDomain, "%s overflowed", op)
	}
	return v, nil
}
