package workbook

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// File is a fully loaded spreadsheet. Every sheet is read into memory as a
// rectangular grid of raw cell values so callers never touch the underlying
// file handle again.
type File struct {
	path   string
	sheets []string
	grids  map[string][][]string
}

// Open reads every sheet of the workbook at path. Cell values are loaded raw,
// without number formatting applied, so numeric cells parse cleanly.
func Open(path string) (*File, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("workbook: open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	grids := make(map[string][][]string, len(sheets))
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("workbook: read sheet %q: %w", sheet, err)
		}
		grids[sheet] = rectangular(rows)
	}

	return &File{path: path, sheets: sheets, grids: grids}, nil
}

// Path returns the path the workbook was opened from.
func (f *File) Path() string { return f.path }

// Name returns the workbook file name without directories.
func (f *File) Name() string { return filepath.Base(f.path) }

// SheetNames returns sheet names in workbook order.
func (f *File) SheetNames() []string {
	out := make([]string, len(f.sheets))
	copy(out, f.sheets)
	return out
}

// HasSheet reports whether the workbook contains the named sheet.
func (f *File) HasSheet(name string) bool {
	_, ok := f.grids[name]
	return ok
}

// Grid returns the full grid for the named sheet.
func (f *File) Grid(sheet string) ([][]string, bool) {
	grid, ok := f.grids[sheet]
	return grid, ok
}

// GridSkip returns the named sheet's grid with the first skip rows dropped.
// Sheets shorter than skip yield an empty grid.
func (f *File) GridSkip(sheet string, skip int) ([][]string, bool) {
	grid, ok := f.grids[sheet]
	if !ok {
		return nil, false
	}
	if skip >= len(grid) {
		return [][]string{}, true
	}
	return grid[skip:], true
}

// rectangular pads every row to the sheet's widest row so column indexes are
// valid on every row.
func rectangular(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}
