package sheets

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ArielSanroj/cfobot/internal/months"
)

// statementScanRows is how many leading data rows are checked for month
// names on single-header statements.
const statementScanRows = 3

// NormalizeStatement shapes the income statement grid. headerRows selects the
// layout: 2 for the exported month-over-"Total" banded header, 1 for flat
// sheets that carry month names in their leading data rows. Monthly totals
// are exposed under "Total <MONTH>" labels.
func NormalizeStatement(grid [][]string, headerRows int, current string, resolver *months.Resolver) (*Statement, error) {
	var stmt *Statement
	var err error
	switch headerRows {
	case 2:
		stmt, err = normalizeBandedStatement(grid, resolver)
	case 1:
		stmt, err = normalizeFlatStatement(grid, resolver)
	default:
		return nil, fmt.Errorf("sheets: statement header rows must be 1 or 2, got %d", headerRows)
	}
	if err != nil {
		return nil, err
	}
	if len(stmt.TotalColumns) == 0 {
		return nil, ErrNoTotalColumns
	}
	stmt.CurrentCol = pickStatementCurrent(stmt.TotalColumns, current, resolver)
	return stmt, nil
}

// normalizeBandedStatement handles the two-row header: the outer row carries
// month bands (forward-filled across merged cells), the inner row the column
// roles. Only "Total" columns under a resolvable month band are kept.
func normalizeBandedStatement(grid [][]string, resolver *months.Resolver) (*Statement, error) {
	if len(grid) < 2 {
		return nil, fmt.Errorf("%w: statement sheet has no header rows", ErrNoTotalColumns)
	}
	width := gridWidth(grid)
	outer := forwardFill(trimRow(grid[0], width))
	inner := trimRow(grid[1], width)
	data := grid[2:]

	descCol := 0
	for i, label := range inner {
		if strings.Contains(strings.ToUpper(label), "DESCRIP") {
			descCol = i
			break
		}
	}

	rows := make([]StatementRow, len(data))
	for r, cells := range data {
		desc := ""
		if descCol < len(cells) {
			desc = strings.TrimSpace(cells[descCol])
		}
		rows[r] = StatementRow{Description: desc, Totals: make(map[string]float64)}
	}

	var totalColumns []string
	for i := 0; i < width; i++ {
		if !strings.HasPrefix(strings.ToUpper(inner[i]), "TOTAL") {
			continue
		}
		month, ok := resolver.Resolve(outer[i])
		if !ok {
			continue
		}
		label := "Total " + month
		if !containsLabel(totalColumns, label) {
			totalColumns = append(totalColumns, label)
		}
		for r := range rows {
			rows[r].Totals[label] = parseNumber(data[r][i])
		}
	}

	return &Statement{Rows: rows, TotalColumns: totalColumns}, nil
}

// normalizeFlatStatement handles single-header sheets. Month columns are
// found by scanning the leading data rows; their values start two rows below
// that, so each total series is shifted up by two rows and zero-padded.
func normalizeFlatStatement(grid [][]string, resolver *months.Resolver) (*Statement, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: statement sheet is empty", ErrNoTotalColumns)
	}
	width := gridWidth(grid)
	labels := trimRow(grid[0], width)
	data := grid[1:]

	descCol := 0
	for i, label := range labels {
		if label == "Descripcion" {
			descCol = i
			break
		}
	}

	rows := make([]StatementRow, len(data))
	for r, cells := range data {
		desc := ""
		if width > 0 {
			desc = strings.TrimSpace(cells[descCol])
		}
		rows[r] = StatementRow{Description: desc, Totals: make(map[string]float64)}
	}

	var totalColumns []string
	for i := 0; i < width; i++ {
		var month string
		for r := 0; r < len(data) && r < statementScanRows; r++ {
			m, ok := resolver.Resolve(data[r][i])
			if !ok {
				continue
			}
			if _, inOrder := resolver.Index(m); inOrder {
				month = m
				break
			}
		}
		if month == "" {
			continue
		}
		label := "Total " + month
		if !containsLabel(totalColumns, label) {
			totalColumns = append(totalColumns, label)
		}
		for r := range rows {
			v := 0.0
			if r+2 < len(data) {
				v = parseNumber(data[r+2][i])
			}
			rows[r].Totals[label] = v
		}
	}

	return &Statement{Rows: rows, TotalColumns: totalColumns}, nil
}

// pickStatementCurrent prefers the exact report-month column and otherwise
// falls back to the chronologically last total column.
func pickStatementCurrent(totalColumns []string, current string, resolver *months.Resolver) string {
	preferred := "Total " + current
	for _, label := range totalColumns {
		if label == preferred {
			return label
		}
	}
	sorted := append([]string(nil), totalColumns...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return statementSortKey(sorted[i], resolver) < statementSortKey(sorted[j], resolver)
	})
	return sorted[len(sorted)-1]
}

func statementSortKey(label string, resolver *months.Resolver) int {
	month := strings.ReplaceAll(label, "Total ", "")
	if idx, ok := resolver.Index(month); ok {
		return idx
	}
	return math.MaxInt
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func trimRow(row []string, width int) []string {
	out := make([]string, width)
	for i := 0; i < width && i < len(row); i++ {
		out[i] = strings.TrimSpace(row[i])
	}
	return out
}

// forwardFill copies each non-empty cell into the empty cells that follow it,
// mirroring how merged header bands span their columns.
func forwardFill(row []string) []string {
	out := make([]string, len(row))
	last := ""
	for i, cell := range row {
		if cell != "" {
			last = cell
		}
		out[i] = last
	}
	return out
}
