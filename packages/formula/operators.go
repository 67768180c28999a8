package formula

// Operator describes an operator or named function as seen by the
// infix->prefix converter and the AST builder. named functions are
// operators too: binary ones sit between their two parenthesized
// arguments after preprocessing, unary ones prefix their argument.
type Operator struct {
	Symbol   string
	Arity    int // 1 or 2
	Priority int // higher binds tighter
	Named    bool
	binary   BinaryOperator
	unary    UnaryOperator
}

// priority levels
const (
	PriorityAdditive       = 1
	PriorityMultiplicative = 2
	PriorityBinaryFunction = 3
	PriorityUnary          = 4
)

// Operators is the static precedence table keyed by symbol
var Operators = map[string]Operator{
	"+":    {Symbol: "+", Arity: 2, Priority: PriorityAdditive, binary: BinOpAdd},
	"-":    {Symbol: "-", Arity: 2, Priority: PriorityAdditive, binary: BinOpSubtract},
	"*":    {Symbol: "*", Arity: 2, Priority: PriorityMultiplicative, binary: BinOpMultiply},
	"/":    {Symbol: "/", Arity: 2, Priority: PriorityMultiplicative, binary: BinOpDivide},
	"%":    {Symbol: "%", Arity: 2, Priority: PriorityMultiplicative, binary: BinOpModulo},
	"pow":  {Symbol: "pow", Arity: 2, Priority: PriorityBinaryFunction, Named: true, binary: BinOpPower},
	"max":  {Symbol: "max", Arity: 2, Priority: PriorityBinaryFunction, Named: true, binary: BinOpMax},
	"min":  {Symbol: "min", Arity: 2, Priority: PriorityBinaryFunction, Named: true, binary: BinOpMin},
	"~":    {Symbol: "~", Arity: 1, Priority: PriorityUnary, unary: UnaryOpNegate},
	"sqrt": {Symbol: "sqrt", Arity: 1, Priority: PriorityUnary, Named: true, unary: UnaryOpSqrt},
	"fact": {Symbol: "fact", Arity: 1, Priority: PriorityUnary, Named: true, unary: UnaryOpFactorial},
	"e":    {Symbol: "e", Arity: 1, Priority: PriorityUnary, Named: true, unary: UnaryOpExp},
}

// LookupOperator returns the table entry for an operator or function symbol
func LookupOperator(symbol string) (Operator, bool) {
	op, ok := Operators[symbol]
	return op, ok
}

// LookupFunction returns the table entry for a named function only
func LookupFunction(name string) (Operator, bool) {
	op, ok := Operators[name]
	if !ok || !op.Named {
		return Operator{}, false
	}
	return op, true
}

// Precedence returns the priority of a symbol, 0 for anything unknown
func Precedence(symbol string) int {
	return Operators[symbol].Priority
}
