package formula

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// testGrid is a map-backed Grid
type testGrid struct {
	text   map[Coordinate]string
	values map[Coordinate]float64
	writes int
}

func newTestGrid() *testGrid {
	return &testGrid{
		text:   make(map[Coordinate]string),
		values: make(map[Coordinate]float64),
	}
}

func (g *testGrid) CellText(row, col int) string {
	return g.text[Coordinate{Row: row, Col: col}]
}

func (g *testGrid) SetCellValue(row, col int, value float64) {
	g.values[Coordinate{Row: row, Col: col}] = value
	g.writes++
}

func (g *testGrid) ClearCellValue(row, col int) {
	delete(g.values, Coordinate{Row: row, Col: col})
}

type CalcTestCase struct {
	t       *testing.T
	name    string
	grid    *testGrid
	opts    []Option
	calc    *Calculator
	lastVal float64
	lastErr error
}

func NewCalcTestCase(t *testing.T, name string, opts ...Option) *CalcTestCase {
	return &CalcTestCase{
		t:    t,
		name: name,
		grid: newTestGrid(),
		opts: opts,
	}
}

func (tc *CalcTestCase) coord(label string) Coordinate {
	tc.t.Helper()
	c, err := ParseCoordinate(label)
	if err != nil {
		tc.t.Fatalf("%s: bad label %q: %v", tc.name, label, err)
	}
	return c
}

func (tc *CalcTestCase) calculator() *Calculator {
	if tc.calc == nil {
		tc.calc = NewCalculator(tc.grid, tc.opts...)
	}
	return tc.calc
}

func (tc *CalcTestCase) Set(label, text string) *CalcTestCase {
	tc.grid.text[tc.coord(label)] = text
	return tc
}

func (tc *CalcTestCase) SetValue(label string, value float64) *CalcTestCase {
	tc.grid.values[tc.coord(label)] = value
	return tc
}

func (tc *CalcTestCase) Eval(label string) *CalcTestCase {
	c := tc.coord(label)
	tc.lastVal, tc.lastErr = tc.calculator().EvaluateCell(c.Row, c.Col)
	return tc
}

func (tc *CalcTestCase) EvalFormula(text string) *CalcTestCase {
	tc.lastVal, tc.lastErr = tc.calculator().EvaluateFormula(text)
	return tc
}

func (tc *CalcTestCase) AssertValue(expected float64) *CalcTestCase {
	tc.t.Helper()
	if tc.lastErr != nil {
		tc.t.Errorf("%s: expected %v, got error %v", tc.name, expected, tc.lastErr)
		return tc
	}
	if math.Abs(tc.lastVal-expected) > 1e-9 {
		tc.t.Errorf("%s: expected %v, got %v", tc.name, expected, tc.lastVal)
	}
	return tc
}

func (tc *CalcTestCase) AssertError(kind ErrorKind) *CalcTestCase {
	tc.t.Helper()
	if tc.lastErr == nil {
		tc.t.Errorf("%s: expected %s error, got value %v", tc.name, kind, tc.lastVal)
		return tc
	}
	if !IsKind(tc.lastErr, kind) {
		tc.t.Errorf("%s: expected %s error, got %v", tc.name, kind, tc.lastErr)
	}
	if tc.lastVal != FailureValue {
		tc.t.Errorf("%s: expected failure value %v, got %v", tc.name, FailureValue, tc.lastVal)
	}
	return tc
}

func (tc *CalcTestCase) AssertErrorContains(substr string) *CalcTestCase {
	tc.t.Helper()
	if tc.lastErr == nil || !strings.Contains(tc.lastErr.Error(), substr) {
		tc.t.Errorf("%s: expected error containing %q, got %v", tc.name, substr, tc.lastErr)
	}
	return tc
}

func (tc *CalcTestCase) AssertCellValue(label string, expected float64) *CalcTestCase {
	tc.t.Helper()
	got, ok := tc.grid.values[tc.coord(label)]
	if !ok {
		tc.t.Errorf("%s: expected %s to hold %v, it holds nothing", tc.name, label, expected)
		return tc
	}
	if math.Abs(got-expected) > 1e-9 {
		tc.t.Errorf("%s: expected %s to hold %v, got %v", tc.name, label, expected, got)
	}
	return tc
}

func (tc *CalcTestCase) AssertCellEmpty(label string) *CalcTestCase {
	tc.t.Helper()
	if got, ok := tc.grid.values[tc.coord(label)]; ok {
		tc.t.Errorf("%s: expected %s to hold nothing, got %v", tc.name, label, got)
	}
	return tc
}

func (tc *CalcTestCase) AssertStatus(expected string) *CalcTestCase {
	tc.t.Helper()
	if got := tc.calculator().Status(); got != expected {
		tc.t.Errorf("%s: expected status %q, got %q", tc.name, expected, got)
	}
	return tc
}

func TestCalculatorReferences(t *testing.T) {
	NewCalcTestCase(t, "simple references").
		Set("A1", "1").
		Set("B2", "3").
		Set("C1", "A1+B2").
		Eval("C1").
		AssertValue(4).
		AssertCellValue("A1", 1).
		AssertCellValue("B2", 3).
		AssertCellValue("C1", 4).
		AssertStatus("")

	NewCalcTestCase(t, "end to end").
		Set("A1", "16/8").
		Set("B2", "8-5-1").
		Set("C3", "pow(-2, A1 - 3) * (42 + B2)").
		Eval("C3").
		AssertValue(-22).
		AssertCellValue("A1", 2).
		AssertCellValue("B2", 2)

	NewCalcTestCase(t, "negative referenced value").
		Set("A1", "-3").
		Set("B1", "2-A1").
		Set("C1", "A1*A1").
		Eval("B1").
		AssertValue(5).
		Eval("C1").
		AssertValue(9)

	NewCalcTestCase(t, "chained references").
		Set("A1", "1").
		Set("A2", "A1+1").
		Set("A3", "A2*10").
		Set("A4", "max(A3,A2)-sqrt(A3-A2-2)").
		Eval("A4").
		AssertValue(16).
		AssertCellValue("A2", 2).
		AssertCellValue("A3", 20)

	NewCalcTestCase(t, "double-letter column").
		Set("AA1", "5").
		Set("A1", "AA1*2").
		Eval("A1").
		AssertValue(10)

	NewCalcTestCase(t, "fractional reference").
		Set("A1", "1/3").
		Set("B1", "A1*3").
		Eval("B1").
		AssertValue(1)
}

func TestCalculatorBlankAndLiteralCells(t *testing.T) {
	NewCalcTestCase(t, "empty cell").
		Eval("A1").
		AssertValue(0).
		AssertCellEmpty("A1")

	NewCalcTestCase(t, "blank reference reads as zero").
		Set("B1", "A1+5").
		Eval("B1").
		AssertValue(5).
		AssertCellEmpty("A1")

	NewCalcTestCase(t, "whitespace only").
		Set("A1", "   ").
		Eval("A1").
		AssertValue(0).
		AssertCellEmpty("A1")

	NewCalcTestCase(t, "literal").
		Set("A1", "42").
		Eval("A1").
		AssertValue(42).
		AssertCellValue("A1", 42)

	NewCalcTestCase(t, "leading equals sign").
		Set("A1", "=1+2").
		Eval("A1").
		AssertValue(3)
}

func TestCalculatorFailures(t *testing.T) {
	NewCalcTestCase(t, "division by zero clears the cell").
		Set("A1", "1/0").
		SetValue("A1", 99).
		Eval("A1").
		AssertError(ErrorKindDomain).
		AssertCellEmpty("A1").
		AssertStatus(InvalidFormulaStatus)

	NewCalcTestCase(t, "status clears after success").
		Set("A1", "16/*8").
		Set("A2", "1").
		Eval("A1").
		AssertError(ErrorKindSyntax).
		AssertStatus(InvalidFormulaStatus).
		Eval("A2").
		AssertValue(1).
		AssertStatus("")

	NewCalcTestCase(t, "error in referenced cell propagates").
		Set("A1", "sqrt(-1)").
		Set("B1", "A1+1").
		SetValue("B1", 7).
		Eval("B1").
		AssertError(ErrorKindDomain).
		AssertErrorContains("cell A1").
		AssertCellEmpty("A1").
		AssertCellEmpty("B1")

	NewCalcTestCase(t, "lexical error").
		Set("A1", "1 $ 2").
		Eval("A1").
		AssertError(ErrorKindLexical)

	NewCalcTestCase(t, "unknown function").
		Set("A1", "SUM(1,2)").
		Eval("A1").
		AssertError(ErrorKindSyntax)

	NewCalcTestCase(t, "unbalanced").
		Set("A1", "(1+2").
		Eval("A1").
		AssertError(ErrorKindSyntax)

	NewCalcTestCase(t, "truncated expression").
		Set("A1", "1+").
		Eval("A1").
		AssertError(ErrorKindStructural)
}

func TestCalculatorCycles(t *testing.T) {
	NewCalcTestCase(t, "self reference").
		Set("A1", "A1+1").
		Eval("A1").
		AssertError(ErrorKindReference).
		AssertErrorContains("A1 -> A1")

	NewCalcTestCase(t, "mutual reference").
		Set("A1", "B1+1").
		Set("B1", "A1*2").
		Eval("A1").
		AssertError(ErrorKindReference).
		AssertErrorContains("A1 -> B1 -> A1").
		AssertStatus(InvalidFormulaStatus)

	NewCalcTestCase(t, "cycle without detection hits the depth limit",
		WithCycleDetection(false), WithMaxReferenceDepth(10)).
		Set("A1", "B1").
		Set("B1", "A1").
		Eval("A1").
		AssertError(ErrorKindReference).
		AssertErrorContains("deeper than 10")

	NewCalcTestCase(t, "same cell twice is not a cycle").
		Set("A1", "2").
		Set("B1", "A1*A1+A1").
		Eval("B1").
		AssertValue(6)
}

func TestCalculatorReferenceDepth(t *testing.T) {
	chain := func(tc *CalcTestCase, n int) *CalcTestCase {
		tc.Set("A1", "1")
		for i := 2; i <= n; i++ {
			tc.Set(fmt.Sprintf("A%d", i), fmt.Sprintf("A%d+1", i-1))
		}
		return tc
	}

	chain(NewCalcTestCase(t, "chain within default depth"), 60).
		Eval("A60").
		AssertValue(60)

	chain(NewCalcTestCase(t, "chain past default depth"), 70).
		Eval("A70").
		AssertError(ErrorKindReference)

	chain(NewCalcTestCase(t, "chain with raised depth", WithMaxReferenceDepth(100)), 70).
		Eval("A70").
		AssertValue(70)
}

func TestCalculatorNestingDepth(t *testing.T) {
	NewCalcTestCase(t, "nesting limit", WithMaxNestingDepth(3)).
		Set("A1", "sqrt(sqrt(sqrt(sqrt(sqrt(1)))))").
		Eval("A1").
		AssertError(ErrorKindStructural)
}

func TestCalculatorNoCaching(t *testing.T) {
	tc := NewCalcTestCase(t, "re-evaluates referenced text").
		Set("A1", "1").
		Set("B1", "A1*10").
		Eval("B1").
		AssertValue(10)

	tc.Set("A1", "2").
		Eval("B1").
		AssertValue(20).
		AssertCellValue("A1", 2)
}

func TestCalculatorEvaluateFormula(t *testing.T) {
	tc := NewCalcTestCase(t, "ad-hoc formula").
		Set("A1", "4").
		EvalFormula("sqrt(A1)+1").
		AssertValue(3).
		AssertCellValue("A1", 4)
	if tc.grid.writes != 1 {
		t.Errorf("expected only the referenced cell to be written, got %d writes", tc.grid.writes)
	}

	NewCalcTestCase(t, "ad-hoc failure").
		EvalFormula("1/0").
		AssertError(ErrorKindDomain).
		AssertStatus(InvalidFormulaStatus)
}

func TestCalculatorLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	NewCalcTestCase(t, "logs stages", WithLogger(logger)).
		Set("A1", "8-5-1").
		Set("A2", "1/0").
		Eval("A1").
		AssertValue(2).
		Eval("A2").
		AssertError(ErrorKindDomain)

	out := buf.String()
	for _, want := range []string{`"prefix":"- - 8 5 1"`, `"message":"cell evaluated"`, `"level":"warn"`, `"cell":"A2"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %s, got:\n%s", want, out)
		}
	}
}
