package sheets

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ArielSanroj/cfobot/internal/months"
)

// ledgerScanRows is how many leading data rows are checked for month names
// when the header row carries none.
const ledgerScanRows = 3

type monthColumn struct {
	index int
	label string
}

// NormalizeLedger shapes the expense ledger grid (header row first): the
// first column is the account code, the second the account name and the last
// the notes column. Month columns are discovered from the header, falling
// back to the first data rows, and their cells are coerced to numbers.
func NormalizeLedger(grid [][]string, current string, resolver *months.Resolver) (*LedgerTable, error) {
	width := gridWidth(grid)
	if width < 3 {
		return nil, fmt.Errorf("%w: got %d columns, want at least 3", ErrLedgerShape, width)
	}
	header := grid[0]
	data := grid[1:]

	labels := make([]string, width)
	for i, cell := range header {
		labels[i] = strings.TrimSpace(cell)
	}

	collected := collectMonthColumns(labels, data, resolver)
	if len(collected) == 0 {
		return nil, ErrNoMonthColumns
	}

	// Chronological order by the label's resolved month; labels that do not
	// resolve keep their original column order at the end.
	sort.SliceStable(collected, func(i, j int) bool {
		return ledgerSortKey(collected[i].label, resolver) < ledgerSortKey(collected[j].label, resolver)
	})

	rows := make([]LedgerRow, len(data))
	for r, cells := range data {
		name := cells[1]
		display := name
		if strings.TrimSpace(name) == "" {
			display = strings.TrimSpace(cells[0])
		}
		rows[r] = LedgerRow{
			Code:        strings.TrimSpace(cells[0]),
			Name:        name,
			DisplayName: display,
			Note:        cells[width-1],
			Values:      make(map[string]float64, len(collected)),
		}
		for _, col := range collected {
			rows[r].Values[col.label] = parseNumber(cells[col.index])
		}
	}

	monthColumns := make([]string, len(collected))
	for i, col := range collected {
		monthColumns[i] = col.label
	}

	table := &LedgerTable{Rows: rows, MonthColumns: monthColumns}
	table.CurrentCol = pickLedgerCurrent(table, collected, labels, data, current, resolver)
	return table, nil
}

// collectMonthColumns finds month columns by header label, falling back to
// the leading data rows when no header resolves. Empty fallback labels take
// the resolved month name; duplicates get a numeric suffix so keys stay
// unique.
func collectMonthColumns(labels []string, data [][]string, resolver *months.Resolver) []monthColumn {
	var collected []monthColumn
	for i, label := range labels {
		if _, ok := resolver.Resolve(label); ok {
			collected = append(collected, monthColumn{index: i, label: label})
		}
	}
	if len(collected) == 0 {
		for i := range labels {
			for r := 0; r < len(data) && r < ledgerScanRows; r++ {
				month, ok := resolver.Resolve(data[r][i])
				if !ok {
					continue
				}
				label := labels[i]
				if label == "" {
					label = month
				}
				collected = append(collected, monthColumn{index: i, label: label})
				break
			}
		}
	}

	used := make(map[string]int, len(collected))
	for i := range collected {
		used[collected[i].label]++
		if n := used[collected[i].label]; n > 1 {
			collected[i].label = fmt.Sprintf("%s_%d", collected[i].label, n)
		}
	}
	return collected
}

// pickLedgerCurrent chooses the column holding the report month: a month
// column whose label resolves to it, then any column whose leading data cells
// mention it, then the chronologically last month column.
func pickLedgerCurrent(table *LedgerTable, collected []monthColumn, labels []string, data [][]string, current string, resolver *months.Resolver) string {
	for _, col := range collected {
		if month, ok := resolver.Resolve(col.label); ok && month == current {
			return col.label
		}
	}

	byIndex := make(map[int]string, len(collected))
	for _, col := range collected {
		byIndex[col.index] = col.label
	}
	for i := range labels {
		for r := 0; r < len(data) && r < ledgerScanRows; r++ {
			if !strings.Contains(strings.ToUpper(data[r][i]), current) {
				continue
			}
			if label, ok := byIndex[i]; ok {
				return label
			}
			// A match outside the month columns still needs usable values.
			label := labels[i]
			if label == "" {
				label = fmt.Sprintf("Column_%d", i)
			}
			for rr := range table.Rows {
				table.Rows[rr].Values[label] = parseNumber(data[rr][i])
			}
			return label
		}
	}

	return table.MonthColumns[len(table.MonthColumns)-1]
}

func ledgerSortKey(label string, resolver *months.Resolver) int {
	if month, ok := resolver.Resolve(label); ok {
		if idx, ok := resolver.Index(month); ok {
			return idx
		}
	}
	return math.MaxInt
}
