package sheets

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ArielSanroj/cfobot/internal/months"
	"github.com/ArielSanroj/cfobot/internal/workbook"
)

func decemberClock() time.Time {
	return time.Date(2025, time.December, 10, 9, 0, 0, 0, time.UTC)
}

func writeReportFixture(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "CARATULA"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	cells := map[string]map[string]interface{}{
		"CARATULA": {
			"A6": "Concepto", "B6": "Valor",
			"A7": "Saldo en bancos", "B7": 900,
			"A8": "Diferencia conciliación", "B8": 1234.5,
		},
		"BALANCE ENERO": {
			"A5": "Nivel", "B5": "Código cuenta contable", "C5": "Nombre cuenta contable",
			"D5": "Saldo inicial", "E5": "Movimiento débito", "F5": "Movimiento crédito", "G5": "Saldo final",
			"A6": "Clase", "B6": 1, "C6": "ACTIVO", "D6": 0, "E6": 0, "F6": 0, "G6": 300000000,
			"A7": "Grupo", "B7": 11, "C7": "DISPONIBLE", "D7": 0, "E7": 0, "F7": 0, "G7": 40000000,
		},
		"BALANCE FEBRERO": {
			"A5": "Nivel", "B5": "Código cuenta contable", "C5": "Nombre cuenta contable",
			"D5": "Saldo inicial", "E5": "Movimiento débito", "F5": "Movimiento crédito", "G5": "Saldo final",
			"A6": "Clase", "B6": 1, "C6": "ACTIVO", "D6": 0, "E6": 0, "F6": 0, "G6": 400000000,
			"A7": "Clase", "B7": 2, "C7": "PASIVO", "D7": 0, "E7": 0, "F7": 0, "G7": -200000000,
			"A8": "Grupo", "B8": 11, "C8": "DISPONIBLE", "D8": 0, "E8": 0, "F8": 0, "G8": 50000000,
		},
		"INFORME-ERI": {
			"A2": "Codigo", "B2": "Nombre", "C2": "ENERO", "D2": "FEBRERO", "E2": "Observaciones",
			"A3": 510101, "B3": "SUELDOS ADMINISTRACION", "C3": 10, "D3": 50000000, "E3": "",
			"A4": 610101, "B4": "COSTO DE VENTA", "C4": 5, "D4": 30000000, "E4": "",
		},
		"ESTADO RESULTADO": {
			"B3": "ENERO", "D3": "FEBRERO",
			"A4": "DESCRIPCION", "B4": "Parcial", "C4": "Total", "D4": "Parcial", "E4": "Total",
			"A5": "INGRESOS ORDINARIOS", "B5": 1, "C5": 100000000, "D5": 2, "E5": 120000000,
			"A6": "COSTO DE VENTA", "B6": 3, "C6": -25000000, "D6": 4, "E6": -30000000,
		},
	}
	for sheet, values := range cells {
		if sheet != "CARATULA" {
			if _, err := f.NewSheet(sheet); err != nil {
				t.Fatalf("new sheet %s: %v", sheet, err)
			}
		}
		for ref, value := range values {
			if err := f.SetCellValue(sheet, ref, value); err != nil {
				t.Fatalf("set %s!%s: %v", sheet, ref, err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestLoadAssemblesContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "INFORME DE FEBRERO APRU- 2025 .xlsx")
	writeReportFixture(t, path)

	wb, err := workbook.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	resolver := months.NewResolver(months.WithNow(decemberClock))

	ctx, err := Load(wb, resolver)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ctx.Month != months.Febrero {
		t.Fatalf("month: got %q", ctx.Month)
	}
	if ctx.BalanceSheet != "BALANCE FEBRERO" {
		t.Fatalf("balance sheet: got %q", ctx.BalanceSheet)
	}
	if ctx.LedgerCol != "FEBRERO" {
		t.Fatalf("ledger column: got %q", ctx.LedgerCol)
	}
	if ctx.StatementCol != "Total FEBRERO" {
		t.Fatalf("statement column: got %q", ctx.StatementCol)
	}
	if len(ctx.Months) != 2 || ctx.Months[0] != "ENERO" || ctx.Months[1] != "FEBRERO" {
		t.Fatalf("months: got %v", ctx.Months)
	}
	if len(ctx.Balance.Rows) != 3 {
		t.Fatalf("balance rows: got %d", len(ctx.Balance.Rows))
	}
	if got := ctx.Ledger.Rows[0].Values["FEBRERO"]; got != 50000000 {
		t.Fatalf("ledger value: got %v", got)
	}
	if got := ctx.Statement.Rows[0].Totals["Total FEBRERO"]; got != 120000000 {
		t.Fatalf("statement value: got %v", got)
	}
	diff, ok := ctx.Cover.Difference()
	if !ok || diff != 1234.5 {
		t.Fatalf("difference: got %v ok=%v", diff, ok)
	}
}

func TestLoadMissingBalanceSheet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "INFORME DE MARZO APRU- 2025 .xlsx")
	writeReportFixture(t, path)

	wb, err := workbook.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	resolver := months.NewResolver(months.WithNow(decemberClock))

	_, err = Load(wb, resolver)
	if !errors.Is(err, ErrNoBalanceSheet) {
		t.Fatalf("expected ErrNoBalanceSheet, got %v", err)
	}
}

func TestConsolidateStacksClassRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "INFORME DE FEBRERO APRU- 2025 .xlsx")
	writeReportFixture(t, path)

	wb, err := workbook.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	resolver := months.NewResolver(months.WithNow(decemberClock))

	consolidated, err := Consolidate(wb, resolver)
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if len(consolidated.Rows) != 3 {
		t.Fatalf("class rows: got %d", len(consolidated.Rows))
	}
	if consolidated.Rows[0].Month != months.Enero || consolidated.Rows[1].Month != months.Febrero {
		t.Fatalf("month order: got %v then %v", consolidated.Rows[0].Month, consolidated.Rows[1].Month)
	}
	for _, row := range consolidated.Rows {
		if row.Level != "Clase" {
			t.Fatalf("non-class row leaked: %+v", row)
		}
	}
}

func TestConsolidateNoBalanceSheets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reporte.xlsx")

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "CARATULA"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.Close()

	wb, err := workbook.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err = Consolidate(wb, months.NewResolver())
	if !errors.Is(err, ErrNoBalanceRows) {
		t.Fatalf("expected ErrNoBalanceRows, got %v", err)
	}
}
