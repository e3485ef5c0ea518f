package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeBalance maps a balance grid (header row first) onto the canonical
// seven-column layout. Grids narrower than the canonical layout are rejected.
func NormalizeBalance(grid [][]string) (*BalanceTable, error) {
	width := gridWidth(grid)
	if width < len(balanceColumns) {
		return nil, fmt.Errorf("%w: got %d columns, want at least %d", ErrBalanceShape, width, len(balanceColumns))
	}

	extraCount := width - len(balanceColumns)
	rows := make([]BalanceRow, 0, max(len(grid)-1, 0))
	for _, cells := range grid[1:] {
		row := BalanceRow{
			Level:   cells[0],
			Code:    strings.TrimSpace(cells[1]),
			Name:    cells[2],
			Opening: parseNumber(cells[3]),
			Debit:   parseNumber(cells[4]),
			Credit:  parseNumber(cells[5]),
			Closing: parseNumber(cells[6]),
		}
		if extraCount > 0 {
			row.Extras = append([]string(nil), cells[7:width]...)
		}
		rows = append(rows, row)
	}
	return &BalanceTable{Rows: rows, ExtraCount: extraCount}, nil
}

// parseNumber converts a raw cell to a float, treating blanks and text as
// zero the way the downstream aggregations expect.
func parseNumber(cell string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0
	}
	return v
}

func gridWidth(grid [][]string) int {
	if len(grid) == 0 {
		return 0
	}
	return len(grid[0])
}
