package grid

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultSheetName is the worksheet written by WriteXLSX
const DefaultSheetName = "Sheet1"

// LoadXLSX reads one worksheet of an Excel workbook. an empty name selects
// the active worksheet. cells holding an Excel formula are translated into
// the cell formula grammar; the first formula that cannot be translated
// fails the load.
func LoadXLSX(r io.Reader, name string) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if name == "" {
		name = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("worksheet %q not found", name)
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read worksheet %q: %w", name, err)
	}

	s := NewSheet()
	for i, row := range rows {
		for j, value := range row {
			if value != "" {
				s.SetCellText(i, j+1, value)
			}
		}
	}

	// formulas replace cached values. a formula without a cached value is
	// only found by walking the used range.
	lastCol, lastRow := usedRange(f, name, rows)
	for row := 1; row <= lastRow; row++ {
		for col := 1; col <= lastCol; col++ {
			addr, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return nil, err
			}
			excelFormula, err := f.GetCellFormula(name, addr)
			if err != nil {
				return nil, fmt.Errorf("read %s!%s: %w", name, addr, err)
			}
			if excelFormula == "" {
				continue
			}
			text, err := TranslateExcelFormula(excelFormula)
			if err != nil {
				return nil, fmt.Errorf("%s!%s: %w", name, addr, err)
			}
			s.SetCellText(row-1, col, text)
		}
	}

	return s, nil
}

// usedRange returns the last column and row of the worksheet, taken from
// its dimension when recorded and from the returned rows otherwise
func usedRange(f *excelize.File, name string, rows [][]string) (int, int) {
	lastCol, lastRow := 0, len(rows)
	for _, row := range rows {
		if len(row) > lastCol {
			lastCol = len(row)
		}
	}

	dim, err := f.GetSheetDimension(name)
	if err != nil || dim == "" {
		return lastCol, lastRow
	}
	ref := dim
	if i := strings.IndexByte(dim, ':'); i >= 0 {
		ref = dim[i+1:]
	}
	col, row, err := excelize.CellNameToCoordinates(ref)
	if err != nil {
		return lastCol, lastRow
	}
	return max(col, lastCol), max(row, lastRow)
}

// WriteXLSX writes the sheet as a single-worksheet workbook. computed
// values are written as numbers, cells without one keep their raw text.
// the header column is not written.
func WriteXLSX(w io.Writer, s *Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for _, cell := range s.Cells() {
		if cell.Col < 1 {
			continue
		}
		addr, err := excelize.CoordinatesToCellName(cell.Col, cell.Row+1)
		if err != nil {
			return err
		}

		var value any = cell.Text
		if cell.HasValue {
			value = cell.Value
		}
		if err := f.SetCellValue(DefaultSheetName, addr, value); err != nil {
			return fmt.Errorf("write %s: %w", addr, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
