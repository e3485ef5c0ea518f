package budget

import (
	"math"
	"regexp"
	"testing"

	"github.com/ArielSanroj/cfobot/internal/sheets"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6
}

func ledgerRow(code, name string, values map[string]float64) sheets.LedgerRow {
	return sheets.LedgerRow{Code: code, Name: name, DisplayName: name, Values: values}
}

func testContext(months []string, current string, rows []sheets.LedgerRow, stmt []sheets.StatementRow, stmtCol string) *sheets.ReportingContext {
	return &sheets.ReportingContext{
		Month:        "FEBRERO",
		LedgerCol:    current,
		StatementCol: stmtCol,
		Months:       months,
		Ledger:       &sheets.LedgerTable{Rows: rows, MonthColumns: months, CurrentCol: current},
		Statement:    &sheets.Statement{Rows: stmt, TotalColumns: []string{stmtCol}, CurrentCol: stmtCol},
	}
}

func TestComputeCategorizesAndExecutes(t *testing.T) {
	months := []string{"ENERO", "FEBRERO"}
	rows := []sheets.LedgerRow{
		ledgerRow("510101", "SUELDOS ADMINISTRACION", map[string]float64{"ENERO": 10, "FEBRERO": 50000000}),
		ledgerRow("610101", "COSTO DE VENTA", map[string]float64{"ENERO": 5, "FEBRERO": 30000000}),
	}
	stmt := []sheets.StatementRow{
		{Description: "INGRESOS ORDINARIOS", Totals: map[string]float64{"Total FEBRERO": 120000000}},
	}
	ctx := testContext(months, "FEBRERO", rows, stmt, "Total FEBRERO")

	res := Compute(ctx, Config{MonthlyIncome: 100000000, MonthlyExpenses: 125000000})

	if !approx(res.Income, 120000000) {
		t.Fatalf("income = %v, want 120000000", res.Income)
	}
	if !approx(res.Categories.Admin, 50000000) {
		t.Fatalf("admin expenses = %v, want 50000000", res.Categories.Admin)
	}
	if !approx(res.Categories.Sales, 30000000) {
		t.Fatalf("sales costs = %v, want 30000000", res.Categories.Sales)
	}
	if !approx(res.Categories.Salaries, 50000000) {
		t.Fatalf("salaries = %v, want 50000000", res.Categories.Salaries)
	}
	if !approx(res.TotalExpenses, 80000000) {
		t.Fatalf("total expenses = %v, want 80000000", res.TotalExpenses)
	}

	if len(res.Summary) != 6 {
		t.Fatalf("summary rows = %d, want 6", len(res.Summary))
	}
	first := res.Summary[0]
	if first.Category != "Ingresos" || !approx(first.Executed, 120.0) {
		t.Fatalf("income row = %+v, want Ingresos executed at 120.0", first)
	}
	second := res.Summary[1]
	if second.Category != "Gastos Totales" || !approx(second.Executed, 64.0) {
		t.Fatalf("expense row = %+v, want Gastos Totales executed at 64.0", second)
	}
	categoriesOnly := res.Summary[2:]
	wantCategories := []string{"Gastos Administrativos", "Gastos Otros", "Costos de Venta", "Costos de Producción"}
	for i, row := range categoriesOnly {
		if row.Category != wantCategories[i] {
			t.Fatalf("summary[%d].Category = %q, want %q", i+2, row.Category, wantCategories[i])
		}
		if row.Budget != 0 || row.Executed != 0 {
			t.Fatalf("summary[%d] = %+v, want zero budget and execution", i+2, row)
		}
	}
}

func TestComputeZeroBudgetYieldsZeroExecution(t *testing.T) {
	rows := []sheets.LedgerRow{
		ledgerRow("510101", "SUELDOS", map[string]float64{"ENERO": 100}),
	}
	stmt := []sheets.StatementRow{
		{Description: "INGRESOS ORDINARIOS", Totals: map[string]float64{"Total ENERO": 500}},
	}
	ctx := testContext([]string{"ENERO"}, "ENERO", rows, stmt, "Total ENERO")

	res := Compute(ctx, Config{})

	if res.Summary[0].Executed != 0 || res.Summary[1].Executed != 0 {
		t.Fatalf("executed pcts = %v / %v, want 0 for zero budgets",
			res.Summary[0].Executed, res.Summary[1].Executed)
	}
}

func TestComputeIncomeTakesFirstMatchAbsolute(t *testing.T) {
	stmt := []sheets.StatementRow{
		{Description: "Detalle ingresos ordinarios", Totals: map[string]float64{"Total ENERO": -120}},
		{Description: "INGRESOS ORDINARIOS NETOS", Totals: map[string]float64{"Total ENERO": 999}},
	}
	ctx := testContext([]string{"ENERO"}, "ENERO", nil, stmt, "Total ENERO")

	res := Compute(ctx, Config{MonthlyIncome: 100})

	if !approx(res.Income, 120) {
		t.Fatalf("income = %v, want abs of first matching row (120)", res.Income)
	}
}

func TestCategorizeTakesAbsoluteOfSum(t *testing.T) {
	rows := []sheets.LedgerRow{
		ledgerRow("530505", "GASTOS FINANCIEROS", map[string]float64{"ENERO": -20}),
		ledgerRow("530510", "COMISIONES", map[string]float64{"ENERO": 5}),
	}
	ctx := testContext([]string{"ENERO"}, "ENERO", rows, nil, "Total ENERO")

	res := Compute(ctx, Config{})

	if !approx(res.Categories.Other, 15) {
		t.Fatalf("other expenses = %v, want abs of summed values (15)", res.Categories.Other)
	}
}

func TestCategorizeSeveranceSubcategory(t *testing.T) {
	rows := []sheets.LedgerRow{
		ledgerRow("510130", "CESANTIAS CONSOLIDADAS", map[string]float64{"ENERO": 40}),
		ledgerRow("510101", "SUELDOS", map[string]float64{"ENERO": 60}),
	}
	ctx := testContext([]string{"ENERO"}, "ENERO", rows, nil, "Total ENERO")

	res := Compute(ctx, Config{})

	if !approx(res.Categories.Severance, 40) {
		t.Fatalf("severance = %v, want 40", res.Categories.Severance)
	}
	if !approx(res.Categories.Salaries, 60) {
		t.Fatalf("salaries = %v, want 60", res.Categories.Salaries)
	}
	if !approx(res.Categories.Admin, 100) {
		t.Fatalf("admin expenses = %v, want 100", res.Categories.Admin)
	}
}

func TestDistributionDeltas(t *testing.T) {
	months := []string{"ENERO DE 2025", "FEBRERO DE 2025"}
	rows := []sheets.LedgerRow{
		ledgerRow("510120", "ARRIENDO", map[string]float64{"ENERO DE 2025": 40, "FEBRERO DE 2025": 50}),
		ledgerRow("530505", "GASTOS FINANCIEROS", map[string]float64{"ENERO DE 2025": 0, "FEBRERO DE 2025": 30}),
		ledgerRow("999999", "FUERA DE CATEGORIA", map[string]float64{"ENERO DE 2025": 777, "FEBRERO DE 2025": 777}),
	}
	ctx := testContext(months, "FEBRERO DE 2025", rows, nil, "Total FEBRERO")

	res := Compute(ctx, Config{})

	dist := res.Distribution
	if dist == nil {
		t.Fatal("distribution is nil, want rows")
	}
	if len(dist.Rows) != 2 {
		t.Fatalf("distribution rows = %d, want 2 (uncategorized accounts excluded)", len(dist.Rows))
	}
	if dist.PreviousCol != "ENERO DE 2025" || dist.PreviousLabel != "ENERO" {
		t.Fatalf("previous column = %q label %q, want ENERO DE 2025 / ENERO", dist.PreviousCol, dist.PreviousLabel)
	}

	rent := dist.Rows[0]
	if rent.DisplayName != "ARRIENDO" {
		t.Fatalf("rows[0] = %q, want ARRIENDO (ledger order preserved)", rent.DisplayName)
	}
	if !approx(rent.Average, 45) {
		t.Fatalf("average = %v, want 45", rent.Average)
	}
	if !approx(rent.DiffVsPrev, 25) {
		t.Fatalf("diff vs previous = %v, want 25", rent.DiffVsPrev)
	}
	if !approx(rent.DiffVsAvg, (50-45)/45.0*100) {
		t.Fatalf("diff vs average = %v, want %v", rent.DiffVsAvg, (50-45)/45.0*100)
	}
	if !approx(rent.ShareOfTotal, 62.5) {
		t.Fatalf("share of total = %v, want 62.5", rent.ShareOfTotal)
	}

	fin := dist.Rows[1]
	if !approx(fin.DiffVsPrev, 0) {
		t.Fatalf("diff vs zero previous = %v, want 0", fin.DiffVsPrev)
	}
	if !approx(fin.DiffVsAvg, 100) {
		t.Fatalf("diff vs average = %v, want 100", fin.DiffVsAvg)
	}
	if !approx(fin.ShareOfTotal, 37.5) {
		t.Fatalf("share of total = %v, want 37.5", fin.ShareOfTotal)
	}
}

func TestDistributionFirstMonthHasNoPrevious(t *testing.T) {
	rows := []sheets.LedgerRow{
		ledgerRow("510120", "ARRIENDO", map[string]float64{"ENERO": 40, "FEBRERO": 50}),
	}
	ctx := testContext([]string{"ENERO", "FEBRERO"}, "ENERO", rows, nil, "Total ENERO")

	res := Compute(ctx, Config{})

	dist := res.Distribution
	if dist == nil {
		t.Fatal("distribution is nil, want rows")
	}
	if dist.PreviousCol != "ENERO" {
		t.Fatalf("previous column = %q, want current month when it is the first", dist.PreviousCol)
	}
	if !approx(dist.Rows[0].DiffVsPrev, 0) {
		t.Fatalf("diff vs previous = %v, want 0 when previous is the current month", dist.Rows[0].DiffVsPrev)
	}
}

func TestDistributionNilWithoutExpenses(t *testing.T) {
	ctx := testContext([]string{"ENERO"}, "ENERO", nil, nil, "Total ENERO")

	res := Compute(ctx, Config{MonthlyIncome: 100, MonthlyExpenses: 100})

	if res.Distribution != nil {
		t.Fatalf("distribution = %+v, want nil when no expenses were categorized", res.Distribution)
	}
	if res.TotalExpenses != 0 {
		t.Fatalf("total expenses = %v, want 0", res.TotalExpenses)
	}
}

func TestComputeWithInjectedRules(t *testing.T) {
	rules := &Rules{
		Admin:             regexp.MustCompile(`^40[0-9]{2,}`),
		Other:             regexp.MustCompile(`^41[0-9]{2,}`),
		Sales:             regexp.MustCompile(`^42[0-9]{2,}`),
		Production:        regexp.MustCompile(`^43[0-9]{2,}`),
		SalaryKeywords:    []string{"NOMINA"},
		SeveranceKeywords: []string{"LIQUIDACION"},
		IncomeDescription: "VENTAS NETAS",
	}
	rows := []sheets.LedgerRow{
		ledgerRow("4001", "NOMINA PLANTA", map[string]float64{"FEBRERO": 70}),
		ledgerRow("4201", "FLETES", map[string]float64{"FEBRERO": 30}),
		ledgerRow("510101", "SUELDOS ADMINISTRACION", map[string]float64{"FEBRERO": 999}),
	}
	stmt := []sheets.StatementRow{
		{Description: "VENTAS NETAS", Totals: map[string]float64{"Total FEBRERO": 200}},
		{Description: "INGRESOS ORDINARIOS", Totals: map[string]float64{"Total FEBRERO": 999}},
	}
	ctx := testContext([]string{"FEBRERO"}, "FEBRERO", rows, stmt, "Total FEBRERO")

	res := Compute(ctx, Config{MonthlyIncome: 400, Rules: rules})

	if !approx(res.Income, 200) {
		t.Fatalf("income = %v, want the injected revenue line", res.Income)
	}
	if !approx(res.Categories.Admin, 70) || !approx(res.Categories.Salaries, 70) {
		t.Fatalf("admin/salaries = %v/%v, want 70/70 via injected scheme", res.Categories.Admin, res.Categories.Salaries)
	}
	if !approx(res.Categories.Sales, 30) {
		t.Fatalf("sales = %v, want 30 via injected scheme", res.Categories.Sales)
	}
	if !approx(res.TotalExpenses, 100) {
		t.Fatalf("total expenses = %v, want only the injected buckets", res.TotalExpenses)
	}
	if !approx(res.Summary[0].Executed, 50) {
		t.Fatalf("income executed = %v, want 50", res.Summary[0].Executed)
	}
	for _, row := range res.Distribution.Rows {
		if row.DisplayName == "SUELDOS ADMINISTRACION" {
			t.Fatal("distribution includes an account outside the injected scheme")
		}
	}
}
