package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vogtb/go-cellcalc/packages/config"
	"github.com/vogtb/go-cellcalc/packages/grid"
)

// loadSheet reads a grid file, picking the format by extension.
// anything that is not .xlsx is read as CSV.
func loadSheet(path string, cfg config.Import) (*grid.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sheet *grid.Sheet
	if isXLSX(path) {
		sheet, err = grid.LoadXLSX(f, cfg.Sheet)
	} else {
		sheet, err = grid.LoadCSV(f, cfg.Encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return sheet, nil
}

// saveSheet writes a grid file, picking the format by extension
func saveSheet(path string, sheet *grid.Sheet, precision int32) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if isXLSX(path) {
		err = grid.WriteXLSX(f, sheet)
	} else {
		err = grid.WriteCSV(f, sheet, precision)
	}
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func isXLSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}
