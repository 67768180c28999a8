package formula

import (
	"fmt"
)

// DefaultMaxDepth bounds expression nesting so that deeply nested input is
// reported as an error instead of exhausting the stack. a left associative
// chain nests once per operator, so a flat sum of n terms is n-1 deep.
const DefaultMaxDepth = 4096

// BinaryOperator represents binary operators in AST nodes. named binary
// functions are binary operators too.
type BinaryOperator int

const (
	BinOpAdd BinaryOperator = iota
	BinOpSubtract
	BinOpMultiply
	BinOpDivide
	BinOpModulo
	BinOpPower
	BinOpMax
	BinOpMin
)

var binaryOperatorSymbols = [...]string{
	BinOpAdd:      "+",
	BinOpSubtract: "-",
	BinOpMultiply: "*",
	BinOpDivide:   "/",
	BinOpModulo:   "%",
	BinOpPower:    "pow",
	BinOpMax:      "max",
	BinOpMin:      "min",
}

func (op BinaryOperator) String() string {
	if int(op) >= 0 && int(op) < len(binaryOperatorSymbols) {
		return binaryOperatorSymbols[op]
	}
	return fmt.Sprintf("BinaryOperator(%d)", int(op))
}

// UnaryOperator represents unary operators and unary named functions
type UnaryOperator int

const (
	UnaryOpNegate UnaryOperator = iota
	UnaryOpSqrt
	UnaryOpExp
	UnaryOpFactorial
)

var unaryOperatorSymbols = [...]string{
	UnaryOpNegate:    "~",
	UnaryOpSqrt:      "sqrt",
	UnaryOpExp:       "e",
	UnaryOpFactorial: "fact",
}

func (op UnaryOperator) String() string {
	if int(op) >= 0 && int(op) < len(unaryOperatorSymbols) {
		return unaryOperatorSymbols[op]
	}
	return fmt.Sprintf("UnaryOperator(%d)", int(op))
}

// Expr is an expression tree node. the set of implementations is closed:
// *NumberLiteral, *BinaryOp and *UnaryOp.
type Expr interface {
	Eval() (float64, error)
	String() string
	expr()
}

// NumberLiteral represents a numeric literal
type NumberLiteral struct {
	Value float64
}

// BinaryOp represents a binary operation. each node owns its children.
type BinaryOp struct {
	Op    BinaryOperator
	Left  Expr
	Right Expr
}

// UnaryOp represents a unary operation
type UnaryOp struct {
	Op      UnaryOperator
	Operand Expr
}

func (*NumberLiteral) expr() {}
func (*BinaryOp) expr()      {}
func (*UnaryOp) expr()       {}

// String renders the tree as an s-expression, e.g. (- (- 8 5) 1)
func (n *NumberLiteral) String() string {
	return FormatNumber(n.Value)
}

func (n *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Op, n.Left, n.Right)
}

func (n *UnaryOp) String() string {
	return fmt.Sprintf("(%s %s)", n.Op, n.Operand)
}

// Builder constructs expression trees from prefix token sequences
type Builder struct {
	tokens   []Token
	maxDepth int
}

// NewBuilder creates a builder with the given nesting limit. a limit of
// zero or less means DefaultMaxDepth.
func NewBuilder(maxDepth int) *Builder {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Builder{maxDepth: maxDepth}
}

// BuildAST builds a tree from a prefix token sequence with the default
// nesting limit
func BuildAST(prefix []Token) (Expr, error) {
	return NewBuilder(DefaultMaxDepth).Build(prefix)
}

// Build consumes the whole prefix sequence. leftover tokens mean the
// sequence held more than one expression and are an error.
func (b *Builder) Build(prefix []Token) (Expr, error) {
	b.tokens = prefix
	defer func() { b.tokens = nil }()

	if len(prefix) == 0 {
		return nil, NewFormulaError(ErrorKindStructural, "empty expression")
	}

	root, next, err := b.build(0, 0)
	if err != nil {
		return nil, err
	}
	if next != len(prefix) {
		return nil, newPositionedError(ErrorKindStructural, prefix[next].Pos,
			"unexpected %q after complete expression", prefix[next].Value)
	}
	return root, nil
}

// build returns the node rooted at index i and the index just past it
func (b *Builder) build(i, depth int) (Expr, int, error) {
	if depth > b.maxDepth {
		return nil, 0, newError(ErrorKindStructural, "expression nested deeper than %d", b.maxDepth)
	}
	if i >= len(b.tokens) {
		return nil, 0, NewFormulaError(ErrorKindStructural, "unexpected end of expression: operator is missing an operand")
	}

	tok := b.tokens[i]
	switch tok.Type {
	case TokenNumber:
		return &NumberLiteral{Value: tok.Number}, i + 1, nil

	case TokenOperator, TokenFunction:
		op, ok := LookupOperator(tok.Value)
		if !ok {
			return nil, 0, newPositionedError(ErrorKindStructural, tok.Pos, "unknown operator %q", tok.Value)
		}

		if op.Arity == 1 {
			operand, next, err := b.build(i+1, depth+1)
			if err != nil {
				return nil, 0, err
			}
			return &UnaryOp{Op: op.unary, Operand: operand}, next, nil
		}

		left, next, err := b.build(i+1, depth+1)
		if err != nil {
			return nil, 0, err
		}
		right, final, err := b.build(next, depth+1)
		if err != nil {
			return nil, 0, err
		}
		return &BinaryOp{Op: op.binary, Left: left, Right: right}, final, nil
	}

	return nil, 0, newPositionedError(ErrorKindStructural, tok.Pos, "unexpected token %q in expression", tok.Value)
}
