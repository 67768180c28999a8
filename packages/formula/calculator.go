package formula

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// FailureValue is returned by EvaluateCell whenever evaluation fails
const FailureValue = -1.0

// DefaultMaxReferenceDepth bounds how many references may be followed from
// the cell being evaluated
const DefaultMaxReferenceDepth = 64

// Grid is the only view of the cell grid the calculator needs. rows are
// zero-based and columns one-based, matching Coordinate.
type Grid interface {
	CellText(row, col int) string
	SetCellValue(row, col int, value float64)
	ClearCellValue(row, col int)
}

// Option configures a Calculator
type Option func(*Calculator)

// WithLogger sets the logger used for stage and failure diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Calculator) {
		c.logger = logger
	}
}

// WithMaxReferenceDepth limits the length of a reference chain
func WithMaxReferenceDepth(depth int) Option {
	return func(c *Calculator) {
		if depth > 0 {
			c.maxReferenceDepth = depth
		}
	}
}

// WithMaxNestingDepth limits expression and function call nesting
func WithMaxNestingDepth(depth int) Option {
	return func(c *Calculator) {
		if depth > 0 {
			c.maxNestingDepth = depth
		}
	}
}

// WithCycleDetection toggles reporting of reference cycles as soon as a
// cell is reached again. when disabled a cycle still fails once it hits
// the reference depth limit.
func WithCycleDetection(enabled bool) Option {
	return func(c *Calculator) {
		c.detectCycles = enabled
	}
}

// Calculator evaluates cell formulas against a grid. every reference is
// re-evaluated from the referenced cell's text; nothing is cached between
// calls. a Calculator is not safe for concurrent use.
type Calculator struct {
	grid              Grid
	logger            zerolog.Logger
	maxReferenceDepth int
	maxNestingDepth   int
	detectCycles      bool
	stack             *evaluationStack
	status            string
}

// NewCalculator creates a calculator reading from and writing to grid
func NewCalculator(grid Grid, opts ...Option) *Calculator {
	c := &Calculator{
		grid:              grid,
		logger:            zerolog.Nop(),
		maxReferenceDepth: DefaultMaxReferenceDepth,
		maxNestingDepth:   DefaultMaxDepth,
		detectCycles:      true,
		stack:             newEvaluationStack(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns the message from the last evaluation, empty after a
// successful one
func (c *Calculator) Status() string {
	return c.status
}

// EvaluateCell evaluates the cell at (row, col), writes the result back and
// returns it. every cell reached through a reference is evaluated and
// written back as well. on failure the target's value is cleared, Status
// reports InvalidFormulaStatus and FailureValue is returned with the error.
func (c *Calculator) EvaluateCell(row, col int) (float64, error) {
	c.stack.reset()
	coord := Coordinate{Row: row, Col: col}

	value, err := c.evaluateCell(coord)
	if err != nil {
		c.grid.ClearCellValue(row, col)
		c.fail(coord.String(), err)
		return FailureValue, err
	}

	c.status = ""
	return value, nil
}

// EvaluateFormula evaluates text as if it were the content of a cell, but
// writes nothing for the text itself. referenced cells are still written back.
func (c *Calculator) EvaluateFormula(text string) (float64, error) {
	c.stack.reset()

	value, err := c.evaluateText(text)
	if err != nil {
		c.fail(text, err)
		return FailureValue, err
	}

	c.status = ""
	return value, nil
}

func (c *Calculator) fail(subject string, err error) {
	c.status = InvalidFormulaStatus
	c.logger.Warn().Err(err).Str("cell", subject).Msg("formula evaluation failed")
}

func (c *Calculator) evaluateCell(coord Coordinate) (float64, error) {
	if c.stack.depth() > c.maxReferenceDepth {
		return 0, newError(ErrorKindReference, "reference chain deeper than %d at %s", c.maxReferenceDepth, coord)
	}
	if c.detectCycles && c.stack.isProcessing(coord) {
		return 0, newError(ErrorKindReference, "circular reference: %s", c.stack.path(coord))
	}

	c.stack.push(coord)
	defer c.stack.pop()

	text := c.grid.CellText(coord.Row, coord.Col)
	value, err := c.evaluateText(text)
	if err != nil {
		return 0, err
	}
	if isBlank(text) {
		// empty cells read as zero and keep their empty display
		return 0, nil
	}

	c.grid.SetCellValue(coord.Row, coord.Col, value)
	c.logger.Debug().Str("cell", coord.String()).Float64("value", value).Msg("cell evaluated")
	return value, nil
}

func (c *Calculator) evaluateText(text string) (float64, error) {
	if isBlank(text) {
		return 0, nil
	}
	text = strings.TrimPrefix(strings.TrimSpace(text), "=")

	resolved, err := ResolveReferences(text, c.resolve)
	if err != nil {
		return 0, err
	}

	var trace Trace
	if err := parse(resolved, c.maxNestingDepth, &trace); err != nil {
		return 0, err
	}
	c.logger.Debug().
		Str("formula", text).
		Str("resolved", resolved).
		Str("prefix", joinTokens(trace.Prefix)).
		Str("tree", trace.Tree.String()).
		Msg("formula parsed")

	return Evaluate(trace.Tree)
}

func (c *Calculator) resolve(coord Coordinate) (float64, error) {
	value, err := c.evaluateCell(coord)
	if err != nil {
		return 0, fmt.Errorf("cell %s: %w", coord, err)
	}
	return value, nil
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

func joinTokens(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.Value
	}
	return strings.Join(parts, " ")
}

// evaluationStack tracks the chain of cells currently being evaluated
type evaluationStack struct {
	items      []Coordinate
	processing map[Coordinate]struct{}
}

func newEvaluationStack() *evaluationStack {
	return &evaluationStack{
		items:      make([]Coordinate, 0),
		processing: make(map[Coordinate]struct{}),
	}
}

func (s *evaluationStack) push(coord Coordinate) {
	s.items = append(s.items, coord)
	s.processing[coord] = struct{}{}
}

func (s *evaluationStack) pop() {
	if len(s.items) == 0 {
		return
	}
	coord := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	// a cell appears at most once unless cycle detection is off
	for _, other := range s.items {
		if other == coord {
			return
		}
	}
	delete(s.processing, coord)
}

func (s *evaluationStack) isProcessing(coord Coordinate) bool {
	_, exists := s.processing[coord]
	return exists
}

func (s *evaluationStack) depth() int {
	return len(s.items)
}

// path renders the chain from the first visit of coord back to coord
func (s *evaluationStack) path(coord Coordinate) string {
	start := 0
	for i, item := range s.items {
		if item == coord {
			start = i
			break
		}
	}
	parts := make([]string, 0, len(s.items)-start+1)
	for _, item := range s.items[start:] {
		parts = append(parts, item.String())
	}
	parts = append(parts, coord.String())
	return strings.Join(parts, " -> ")
}

func (s *evaluationStack) reset() {
	s.items = s.items[:0]
	s.processing = make(map[Coordinate]struct{})
}
