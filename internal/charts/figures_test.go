package charts

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ArielSanroj/cfobot/internal/budget"
	"github.com/ArielSanroj/cfobot/internal/kpi"
	"github.com/ArielSanroj/cfobot/internal/sheets"
)

func spendingContext() *sheets.ReportingContext {
	months := []string{"ENERO DE 2025", "FEBRERO DE 2025"}
	return &sheets.ReportingContext{
		Month:     "FEBRERO",
		LedgerCol: "FEBRERO DE 2025",
		Months:    months,
		Ledger: &sheets.LedgerTable{
			Rows: []sheets.LedgerRow{
				{Code: "510101", DisplayName: "SUELDOS", Values: map[string]float64{"ENERO DE 2025": 10000000, "FEBRERO DE 2025": 50000000}},
				{Code: "610101", DisplayName: "COSTO DE VENTA", Values: map[string]float64{"ENERO DE 2025": 5000000, "FEBRERO DE 2025": -30000000}},
				{Code: "110505", DisplayName: "CAJA", Values: map[string]float64{"ENERO DE 2025": 999, "FEBRERO DE 2025": 999}},
			},
			MonthColumns: months,
			CurrentCol:   "FEBRERO DE 2025",
		},
	}
}

func TestMonthlySpendingFigure(t *testing.T) {
	fig, err := MonthlySpending(spendingContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fig.Name != "monthly_spending" {
		t.Fatalf("name = %q, want monthly_spending", fig.Name)
	}
	out := string(fig.SVG)
	if !strings.Contains(out, "Gastos Mensuales - Enero a FEBRERO 2025") {
		t.Fatalf("title missing, got %q", fig.Title)
	}
	// month labels are shortened to their first word
	if !strings.Contains(out, ">FEBRERO<") {
		t.Fatal("short month label missing")
	}
	// February total is abs(50000000 - 30000000), uncategorized accounts excluded
	if !strings.Contains(out, "$20,000,000") {
		t.Fatal("february total label missing")
	}
	if !strings.Contains(out, "$15,000,000") {
		t.Fatal("january total label missing")
	}
}

func TestExpenseTrendFigure(t *testing.T) {
	fig, err := ExpenseTrend(spendingContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fig.Name != "tendencia_gastos" {
		t.Fatalf("name = %q, want tendencia_gastos", fig.Name)
	}
	if !strings.Contains(string(fig.SVG), "Tendencia de Gastos - Enero a FEBRERO 2025") {
		t.Fatal("title missing")
	}
}

func TestKPIDashboardFigure(t *testing.T) {
	res := &kpi.Result{
		Month: "FEBRERO",
		Names: kpi.MetricNames(),
		Metrics: map[string]float64{
			kpi.MetricCurrentRatio:      2.0,
			kpi.MetricQuickRatio:        1.4,
			kpi.MetricGrossMargin:       75.0,
			kpi.MetricNetMargin:         12.5,
			kpi.MetricROE:               5.0,
			kpi.MetricDebtEquity:        0.67,
			kpi.MetricInventoryTurnover: 0.25,
			kpi.MetricEBITDA:            18000000,
		},
	}

	fig, err := KPIDashboard(res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(fig.SVG)
	if !strings.Contains(out, "KPIs Financieros - FEBRERO 2025") {
		t.Fatal("title missing")
	}
	for _, want := range []string{"Current Ratio", "Rotación Inventarios", "0.67", "2.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q", want)
		}
	}
}

func TestDistributionPieFoldsTail(t *testing.T) {
	dist := &budget.Distribution{CurrentCol: "FEBRERO", Months: []string{"ENERO", "FEBRERO"}}
	shares := []float64{20, 15, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	for i, share := range shares {
		dist.Rows = append(dist.Rows, budget.DistributionRow{
			DisplayName:  fmt.Sprintf("CUENTA %02d", i+1),
			Values:       map[string]float64{"FEBRERO": 1000},
			ShareOfTotal: share,
		})
	}
	res := &budget.Result{Month: "FEBRERO", Distribution: dist}

	fig, err := DistributionPie(res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(fig.SVG)
	if !strings.Contains(out, "Distribución de Gastos - FEBRERO 2025") {
		t.Fatal("title missing")
	}
	if !strings.Contains(out, "Otros") {
		t.Fatal("tail slice missing")
	}
	if strings.Contains(out, "CUENTA 11") || strings.Contains(out, "CUENTA 12") {
		t.Fatal("tail accounts rendered individually")
	}
	// legend keeps the raw share of the month's total
	if !strings.Contains(out, "CUENTA 01: 20.0%") || !strings.Contains(out, "Otros: 3.0%") {
		t.Fatal("legend shares missing")
	}
	if !strings.Contains(out, "Total Gastos: $12,000 COP") {
		t.Fatal("footer total missing")
	}
}

func TestDistributionPieNilWithoutDistribution(t *testing.T) {
	fig, err := DistributionPie(&budget.Result{Month: "FEBRERO"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fig != nil {
		t.Fatal("figure rendered without a distribution")
	}
}

func TestCategoryPieFiltersZeroCategories(t *testing.T) {
	res := &budget.Result{
		Month: "FEBRERO",
		Categories: budget.Categories{
			Admin: 50000000,
			Sales: 30000000,
		},
	}

	fig, err := CategoryPie(res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(fig.SVG)
	if !strings.Contains(out, "Administrativos") || !strings.Contains(out, "Costos de Venta") {
		t.Fatal("positive categories missing")
	}
	if strings.Contains(out, "Otros Gastos") || strings.Contains(out, "Producción") {
		t.Fatal("zero categories rendered")
	}
	if !strings.Contains(out, "Total Gastos: $80,000,000 COP") {
		t.Fatal("footer total missing")
	}
}

func TestCategoryPieNilWhenAllZero(t *testing.T) {
	fig, err := CategoryPie(&budget.Result{Month: "FEBRERO"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fig != nil {
		t.Fatal("figure rendered with zero categories")
	}
}
