package grid

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/vogtb/go-cellcalc/packages/formula"
)

// LoadCSV reads a sheet from CSV. field j of record i becomes the text of
// cell (i, j+1), so the first field lands in column A. charset names the
// input encoding as understood by browsers ("utf-8", "windows-1252",
// "shift_jis", ...); empty means UTF-8. a byte order mark overrides it.
func LoadCSV(r io.Reader, charset string) (*Sheet, error) {
	dec, err := decoder(charset)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(dec)))
	cr.FieldsPerRecord = -1

	s := NewSheet()
	for row := 0; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		for j, field := range record {
			if strings.TrimSpace(field) == "" {
				continue
			}
			s.SetCellText(row, j+1, field)
		}
	}
	return s, nil
}

func decoder(charset string) (transform.Transformer, error) {
	if charset == "" {
		return unicode.UTF8.NewDecoder(), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", charset, err)
	}
	if enc == encoding.Nop {
		return transform.Nop, nil
	}
	return enc.NewDecoder(), nil
}

// WriteCSV writes the sheet as CSV, one record per row from row 0 and one
// field per column from column A. a cell with a computed value is written
// as that value with the given display precision, otherwise its raw text.
func WriteCSV(w io.Writer, s *Sheet, precision int32) error {
	rows, cols := s.Bounds()
	cw := csv.NewWriter(w)

	for row := 0; row < rows; row++ {
		record := make([]string, 0, cols)
		for col := 1; col < cols; col++ {
			record = append(record, DisplayText(s, row, col, precision))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// DisplayText is what a cell shows: its computed value if it has one,
// otherwise its raw text
func DisplayText(s *Sheet, row, col int, precision int32) string {
	if v, ok := s.CellValue(row, col); ok {
		return formula.FormatValue(v, precision)
	}
	return s.CellText(row, col)
}
