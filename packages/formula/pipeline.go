package formula

// Trace records the intermediate form of a formula after each pipeline
// stage. stages that were not reached are left empty.
type Trace struct {
	Input        string
	Normalized   string
	Preprocessed string
	Tokens       []Token
	Prefix       []Token
	Tree         Expr
	Value        float64
}

// Parse runs a reference-free formula through normalization,
// preprocessing, tokenizing, prefix conversion and tree building
func Parse(formula string) (Expr, error) {
	return ParseWithDepth(formula, DefaultMaxDepth)
}

// ParseWithDepth is Parse with an explicit nesting limit
func ParseWithDepth(formula string, maxDepth int) (Expr, error) {
	var trace Trace
	if err := parse(formula, maxDepth, &trace); err != nil {
		return nil, err
	}
	return trace.Tree, nil
}

// Eval parses and evaluates a formula that contains no cell references
func Eval(formula string) (float64, error) {
	tree, err := Parse(formula)
	if err != nil {
		return 0, err
	}
	return Evaluate(tree)
}

// Inspect runs the full pipeline and returns every intermediate stage.
// on failure the trace holds the stages completed before the error.
func Inspect(formula string, maxDepth int) (*Trace, error) {
	trace := &Trace{}
	if err := parse(formula, maxDepth, trace); err != nil {
		return trace, err
	}
	v, err := Evaluate(trace.Tree)
	if err != nil {
		return trace, err
	}
	trace.Value = v
	return trace, nil
}

func parse(formula string, maxDepth int, trace *Trace) error {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	trace.Input = formula

	normalized, err := NormalizeUnary(formula)
	if err != nil {
		return err
	}
	trace.Normalized = normalized

	preprocessed, err := PreprocessFunctionsWithDepth(normalized, maxDepth)
	if err != nil {
		return err
	}
	trace.Preprocessed = preprocessed

	tokens, err := Tokenize(preprocessed)
	if err != nil {
		return err
	}
	trace.Tokens = tokens

	prefix, err := ToPrefix(tokens)
	if err != nil {
		return err
	}
	trace.Prefix = prefix

	tree, err := NewBuilder(maxDepth).Build(prefix)
	if err != nil {
		return err
	}
	trace.Tree = tree
	return nil
}
