package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeCover shapes the cover sheet grid (header row first) into a table
// with positional column labels.
func NormalizeCover(grid [][]string) *CoverTable {
	width := gridWidth(grid)
	columns := make([]string, width)
	for i := range columns {
		columns[i] = fmt.Sprintf("Column_%d", i)
	}
	var rows [][]string
	if len(grid) > 1 {
		rows = grid[1:]
	}
	return &CoverTable{Columns: columns, Rows: rows}
}

// Difference extracts the bank reconciliation difference: the second-column
// value of the first row whose first column mentions "Diferencia". The second
// result is false when no such row exists or the value is not numeric.
func (c *CoverTable) Difference() (float64, bool) {
	if c == nil || len(c.Columns) < 2 {
		return 0, false
	}
	for _, row := range c.Rows {
		if len(row) < 2 {
			continue
		}
		if !strings.Contains(strings.ToUpper(row[0]), "DIFERENCIA") {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}
