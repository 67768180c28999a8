package grid

import (
	"fmt"
	"sort"

	"github.com/vogtb/go-cellcalc/packages/formula"
)

// ChunkKey indexes chunks within a Sheet
type ChunkKey struct {
	ChunkRow int
	ChunkCol int
}

const (
	ChunkRows = 64                    // rows per chunk
	ChunkCols = 64                    // columns per chunk
	ChunkSize = ChunkRows * ChunkCols // 4096 cells per chunk
)

// Chunk is a ChunkRows x ChunkCols block of cells in structure-of-arrays
// layout. TextIDs and the occupancy bitmap always exist; computed values
// are allocated the first time a cell in the chunk is evaluated.
type Chunk struct {
	TextIDs    []uint32
	Occupied   []uint64 // cells holding text
	TextCount  int
	Values     []float64 // lazy
	Computed   []uint64  // lazy, cells holding a computed value
	ValueCount int
}

// Sheet is a sparse grid of cells. each cell has raw text, as typed by the
// user, and optionally a computed value written back by the calculator.
// rows are zero-based; column 0 is the row header column and label column
// A is column 1.
//
// Sheet implements formula.Grid. it is not safe for concurrent use.
type Sheet struct {
	chunks map[ChunkKey]*Chunk
	texts  *TextTable
	cells  int
}

// Cell is a snapshot of one non-empty cell
type Cell struct {
	Row      int
	Col      int
	Text     string
	Value    float64
	HasValue bool
}

// Label returns the cell's spreadsheet label, e.g. "B3"
func (c Cell) Label() string {
	return formula.Coordinate{Row: c.Row, Col: c.Col}.String()
}

// NewSheet creates an empty sheet
func NewSheet() *Sheet {
	return &Sheet{
		chunks: make(map[ChunkKey]*Chunk),
		texts:  NewTextTable(),
	}
}

func locate(row, col int) (ChunkKey, int) {
	key := ChunkKey{ChunkRow: row / ChunkRows, ChunkCol: col / ChunkCols}
	// column-first indexing
	idx := (col%ChunkCols)*ChunkRows + row%ChunkRows
	return key, idx
}

func valid(row, col int) bool {
	return row >= 0 && col >= 0
}

func bit(bitmap []uint64, idx int) bool {
	return bitmap != nil && bitmap[idx/64]&(1<<(idx%64)) != 0
}

func setBit(bitmap []uint64, idx int, on bool) {
	if on {
		bitmap[idx/64] |= 1 << (idx % 64)
	} else {
		bitmap[idx/64] &^= 1 << (idx % 64)
	}
}

func (s *Sheet) chunk(key ChunkKey, create bool) *Chunk {
	c, ok := s.chunks[key]
	if !ok && create {
		c = &Chunk{
			TextIDs:  make([]uint32, ChunkSize),
			Occupied: make([]uint64, ChunkSize/64),
		}
		s.chunks[key] = c
	}
	return c
}

// drop removes the chunk once it holds nothing
func (s *Sheet) drop(key ChunkKey, c *Chunk) {
	if c.TextCount == 0 && c.ValueCount == 0 {
		delete(s.chunks, key)
	}
}

// SetCellText stores raw text for a cell. empty text removes the text but
// leaves any computed value alone.
func (s *Sheet) SetCellText(row, col int, text string) {
	if !valid(row, col) {
		return
	}
	key, idx := locate(row, col)

	if text == "" {
		c := s.chunk(key, false)
		if c == nil || !bit(c.Occupied, idx) {
			return
		}
		s.texts.Release(c.TextIDs[idx])
		c.TextIDs[idx] = 0
		setBit(c.Occupied, idx, false)
		c.TextCount--
		s.cells--
		s.drop(key, c)
		return
	}

	c := s.chunk(key, true)
	if bit(c.Occupied, idx) {
		s.texts.Release(c.TextIDs[idx])
	} else {
		setBit(c.Occupied, idx, true)
		c.TextCount++
		s.cells++
	}
	c.TextIDs[idx] = s.texts.Intern(text)
}

// CellText returns the raw text of a cell, "" when it has none
func (s *Sheet) CellText(row, col int) string {
	if !valid(row, col) {
		return ""
	}
	key, idx := locate(row, col)
	c := s.chunk(key, false)
	if c == nil || !bit(c.Occupied, idx) {
		return ""
	}
	text, _ := s.texts.Text(c.TextIDs[idx])
	return text
}

// SetCellValue stores a computed value for a cell
func (s *Sheet) SetCellValue(row, col int, value float64) {
	if !valid(row, col) {
		return
	}
	key, idx := locate(row, col)
	c := s.chunk(key, true)
	if c.Values == nil {
		c.Values = make([]float64, ChunkSize)
		c.Computed = make([]uint64, ChunkSize/64)
	}
	if !bit(c.Computed, idx) {
		setBit(c.Computed, idx, true)
		c.ValueCount++
	}
	c.Values[idx] = value
}

// ClearCellValue forgets the computed value of a cell
func (s *Sheet) ClearCellValue(row, col int) {
	if !valid(row, col) {
		return
	}
	key, idx := locate(row, col)
	c := s.chunk(key, false)
	if c == nil || !bit(c.Computed, idx) {
		return
	}
	setBit(c.Computed, idx, false)
	c.Values[idx] = 0
	c.ValueCount--
	s.drop(key, c)
}

// CellValue returns the computed value of a cell, if any
func (s *Sheet) CellValue(row, col int) (float64, bool) {
	if !valid(row, col) {
		return 0, false
	}
	key, idx := locate(row, col)
	c := s.chunk(key, false)
	if c == nil || !bit(c.Computed, idx) {
		return 0, false
	}
	return c.Values[idx], true
}

// RemoveCell clears both the text and the computed value of a cell
func (s *Sheet) RemoveCell(row, col int) {
	s.ClearCellValue(row, col)
	s.SetCellText(row, col, "")
}

// Set stores text at a label such as "B3"
func (s *Sheet) Set(label, text string) error {
	coord, err := formula.ParseCoordinate(label)
	if err != nil {
		return fmt.Errorf("set %s: %w", label, err)
	}
	s.SetCellText(coord.Row, coord.Col, text)
	return nil
}

// Get returns the cell at a label such as "B3"
func (s *Sheet) Get(label string) (Cell, error) {
	coord, err := formula.ParseCoordinate(label)
	if err != nil {
		return Cell{}, fmt.Errorf("get %s: %w", label, err)
	}
	value, ok := s.CellValue(coord.Row, coord.Col)
	return Cell{
		Row:      coord.Row,
		Col:      coord.Col,
		Text:     s.CellText(coord.Row, coord.Col),
		Value:    value,
		HasValue: ok,
	}, nil
}

// Cells returns every cell holding text or a value, in row-major order
func (s *Sheet) Cells() []Cell {
	var cells []Cell
	for key, c := range s.chunks {
		for idx := 0; idx < ChunkSize; idx++ {
			hasText := bit(c.Occupied, idx)
			hasValue := bit(c.Computed, idx)
			if !hasText && !hasValue {
				continue
			}

			cell := Cell{
				Row: key.ChunkRow*ChunkRows + idx%ChunkRows,
				Col: key.ChunkCol*ChunkCols + idx/ChunkRows,
			}
			if hasText {
				cell.Text, _ = s.texts.Text(c.TextIDs[idx])
			}
			if hasValue {
				cell.Value = c.Values[idx]
				cell.HasValue = true
			}
			cells = append(cells, cell)
		}
	}

	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
	return cells
}

// Bounds returns one past the largest row and column in use
func (s *Sheet) Bounds() (rows, cols int) {
	for _, cell := range s.Cells() {
		if cell.Row+1 > rows {
			rows = cell.Row + 1
		}
		if cell.Col+1 > cols {
			cols = cell.Col + 1
		}
	}
	return rows, cols
}

// Len returns the number of cells holding text
func (s *Sheet) Len() int {
	return s.cells
}

// DistinctTexts returns the number of distinct cell texts stored
func (s *Sheet) DistinctTexts() int {
	return s.texts.Len()
}
