package sheets

import (
	"fmt"
	"strings"

	"github.com/ArielSanroj/cfobot/internal/months"
	"github.com/ArielSanroj/cfobot/internal/workbook"
)

// Load resolves the report month and normalizes every required sheet of the
// workbook into a ReportingContext.
func Load(wb *workbook.File, resolver *months.Resolver) (*ReportingContext, error) {
	rawCover, _ := wb.Grid(CoverSheet)
	month, err := resolver.Detect(wb.Name(), wb.SheetNames(), rawCover)
	if err != nil {
		return nil, err
	}

	balanceSheet := ""
	for _, name := range wb.SheetNames() {
		if !strings.HasPrefix(name, BalancePrefix) {
			continue
		}
		if resolved, ok := resolver.Resolve(name); ok && resolved == month {
			balanceSheet = name
			break
		}
	}
	if balanceSheet == "" {
		return nil, fmt.Errorf("%w: month %q, available sheets: %s",
			ErrNoBalanceSheet, month, strings.Join(wb.SheetNames(), ", "))
	}

	required := []string{LedgerSheet, StatementSheet, CoverSheet, balanceSheet}
	var missing []string
	for _, name := range required {
		if !wb.HasSheet(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s, available sheets: %s",
			ErrMissingSheets, strings.Join(missing, ", "), strings.Join(wb.SheetNames(), ", "))
	}

	balanceGrid, _ := wb.GridSkip(balanceSheet, balanceSkipRows)
	ledgerGrid, _ := wb.GridSkip(LedgerSheet, ledgerSkipRows)
	statementGrid, _ := wb.GridSkip(StatementSheet, statementSkipRows)
	coverGrid, _ := wb.GridSkip(CoverSheet, coverSkipRows)

	balance, err := NormalizeBalance(balanceGrid)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", balanceSheet, err)
	}
	ledger, err := NormalizeLedger(ledgerGrid, month, resolver)
	if err != nil {
		return nil, err
	}
	statement, err := NormalizeStatement(statementGrid, 2, month, resolver)
	if err != nil {
		return nil, err
	}
	cover := NormalizeCover(coverGrid)

	return &ReportingContext{
		Month:        month,
		LedgerCol:    ledger.CurrentCol,
		StatementCol: statement.CurrentCol,
		Months:       append([]string(nil), ledger.MonthColumns...),
		Balance:      balance,
		Ledger:       ledger,
		Statement:    statement,
		Cover:        cover,
		BalanceSheet: balanceSheet,
		SheetNames:   wb.SheetNames(),
		SourceName:   wb.Name(),
	}, nil
}

// Consolidate stacks the class-level rows of every monthly balance sheet in
// the workbook, tagged with their month, in month order.
func Consolidate(wb *workbook.File, resolver *months.Resolver) (*ConsolidatedBalance, error) {
	consolidated := &ConsolidatedBalance{}
	processed := 0
	for _, month := range resolver.Order() {
		sheet := BalancePrefix + month
		grid, ok := wb.GridSkip(sheet, balanceSkipRows)
		if !ok || len(grid) < 2 {
			continue
		}
		table, err := NormalizeBalance(grid)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		processed++
		if table.ExtraCount > consolidated.ExtraCount {
			consolidated.ExtraCount = table.ExtraCount
		}
		for _, row := range table.Rows {
			if row.Level != "Clase" {
				continue
			}
			consolidated.Rows = append(consolidated.Rows, ConsolidatedRow{BalanceRow: row, Month: month})
		}
	}
	if processed == 0 {
		return nil, ErrNoBalanceRows
	}
	return consolidated, nil
}
