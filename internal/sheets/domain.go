package sheets

import "errors"

// Sheet names and layout offsets fixed by the upstream accounting export.
// Skip counts are the number of leading rows above each sheet's header row.
const (
	BalancePrefix  = "BALANCE "
	LedgerSheet    = "INFORME-ERI"
	StatementSheet = "ESTADO RESULTADO"
	CoverSheet     = "CARATULA"

	balanceSkipRows   = 4
	ledgerSkipRows    = 1
	statementSkipRows = 2
	coverSkipRows     = 5
)

var (
	// ErrMissingSheets is returned when the workbook lacks required sheets.
	ErrMissingSheets = errors.New("sheets: required sheets missing")
	// ErrNoBalanceSheet is returned when no balance sheet matches the report month.
	ErrNoBalanceSheet = errors.New("sheets: balance sheet for report month not found")
	// ErrBalanceShape is returned when a balance sheet carries fewer columns
	// than the canonical layout.
	ErrBalanceShape = errors.New("sheets: balance sheet narrower than canonical layout")
	// ErrLedgerShape is returned when the ledger sheet is too narrow to carry
	// the code, name and notes columns.
	ErrLedgerShape = errors.New("sheets: ledger sheet narrower than canonical layout")
	// ErrNoMonthColumns is returned when no ledger column resolves to a month.
	ErrNoMonthColumns = errors.New("sheets: no month columns found in ledger sheet")
	// ErrNoTotalColumns is returned when the income statement has no usable
	// monthly total columns.
	ErrNoTotalColumns = errors.New("sheets: no total columns detected in income statement sheet")
	// ErrNoBalanceRows is returned when consolidation finds no balance sheet
	// with data rows.
	ErrNoBalanceRows = errors.New("sheets: no balance sheets were processed")
)

// balanceColumns is the canonical balance sheet layout, in column order.
var balanceColumns = []string{
	"Nivel",
	"Código cuenta contable",
	"Nombre cuenta contable",
	"Saldo inicial",
	"Movimiento débito",
	"Movimiento crédito",
	"Saldo final",
}

// BalanceColumns returns the canonical balance column headers.
func BalanceColumns() []string {
	out := make([]string, len(balanceColumns))
	copy(out, balanceColumns)
	return out
}

// BalanceRow is one account line of a monthly balance sheet. Money columns
// are coerced to numbers; unparseable cells become zero. Columns beyond the
// canonical seven are kept verbatim in Extras.
type BalanceRow struct {
	Level   string
	Code    string
	Name    string
	Opening float64
	Debit   float64
	Credit  float64
	Closing float64
	Extras  []string
}

// BalanceTable is a normalized monthly balance sheet.
type BalanceTable struct {
	Rows       []BalanceRow
	ExtraCount int
}

// ConsolidatedRow is a class-level balance line tagged with its month.
type ConsolidatedRow struct {
	BalanceRow
	Month string
}

// ConsolidatedBalance holds the class-level rows of every monthly balance
// sheet found in the workbook, in month order.
type ConsolidatedBalance struct {
	Rows       []ConsolidatedRow
	ExtraCount int
}

// LedgerRow is one account line of the monthly expense ledger. Values is
// keyed by the ledger's month column labels.
type LedgerRow struct {
	Code        string
	Name        string
	DisplayName string
	Note        string
	Values      map[string]float64
}

// LedgerTable is the normalized expense ledger. MonthColumns lists the month
// column labels in chronological order; CurrentCol names the column holding
// the report month.
type LedgerTable struct {
	Rows         []LedgerRow
	MonthColumns []string
	CurrentCol   string
}

// Column returns the ledger values for a month column label, in row order.
func (t *LedgerTable) Column(label string) []float64 {
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.Values[label]
	}
	return out
}

// StatementRow is one line of the income statement with its monthly totals,
// keyed by "Total <MONTH>" labels.
type StatementRow struct {
	Description string
	Totals      map[string]float64
}

// Statement is the normalized income statement. TotalColumns lists the total
// column labels in discovery order; CurrentCol names the column for the
// report month.
type Statement struct {
	Rows         []StatementRow
	TotalColumns []string
	CurrentCol   string
}

// CoverTable is the cover sheet with positional column labels, used for the
// bank reconciliation difference.
type CoverTable struct {
	Columns []string
	Rows    [][]string
}

// ReportingContext bundles every normalized table of one report workbook.
type ReportingContext struct {
	Month        string
	LedgerCol    string
	StatementCol string
	Months       []string
	Balance      *BalanceTable
	Ledger       *LedgerTable
	Statement    *Statement
	Cover        *CoverTable
	BalanceSheet string
	SheetNames   []string
	SourceName   string
}
