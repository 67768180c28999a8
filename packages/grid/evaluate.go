package grid

import (
	"github.com/vogtb/go-cellcalc/packages/formula"
)

// Result is the outcome of evaluating one cell
type Result struct {
	Cell  Cell
	Value float64
	Err   error
}

// EvaluateAll evaluates every cell holding text, in row-major order, and
// returns one result per cell. a failing cell does not stop the others.
func EvaluateAll(s *Sheet, calc *formula.Calculator) []Result {
	var results []Result
	for _, cell := range s.Cells() {
		if cell.Text == "" {
			continue
		}
		value, err := calc.EvaluateCell(cell.Row, cell.Col)
		cell.Value, cell.HasValue = s.CellValue(cell.Row, cell.Col)
		results = append(results, Result{Cell: cell, Value: value, Err: err})
	}
	return results
}

// Failed returns the results that carry an error
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
