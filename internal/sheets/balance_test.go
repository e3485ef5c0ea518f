package sheets

import (
	"errors"
	"testing"
)

func TestNormalizeBalanceCanonicalLayout(t *testing.T) {
	grid := [][]string{
		{"NIVEL", "CUENTA", "NOMBRE", "SALDO INI", "DEBITO", "CREDITO", "SALDO FIN", "EXTRA"},
		{"Clase", "1", "ACTIVO", "10", "1", "2", "400000000", ""},
		{"Grupo", "11", "DISPONIBLE", "5", "1", "2", "50000000", "nota"},
	}
	table, err := NormalizeBalance(grid)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if table.ExtraCount != 1 {
		t.Fatalf("extra count: got %d", table.ExtraCount)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows: got %d", len(table.Rows))
	}
	first := table.Rows[0]
	if first.Level != "Clase" || first.Code != "1" || first.Name != "ACTIVO" {
		t.Fatalf("identity columns: %+v", first)
	}
	if first.Closing != 400000000 {
		t.Fatalf("closing: got %v", first.Closing)
	}
	if table.Rows[1].Extras[0] != "nota" {
		t.Fatalf("extras: got %v", table.Rows[1].Extras)
	}
}

func TestNormalizeBalanceCoercesText(t *testing.T) {
	grid := [][]string{
		{"a", "b", "c", "d", "e", "f", "g"},
		{"Clase", "1", "ACTIVO", "n/a", "", "  7 ", "texto"},
	}
	table, err := NormalizeBalance(grid)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	row := table.Rows[0]
	if row.Opening != 0 || row.Debit != 0 || row.Closing != 0 {
		t.Fatalf("text cells should coerce to zero: %+v", row)
	}
	if row.Credit != 7 {
		t.Fatalf("padded numeric: got %v", row.Credit)
	}
}

func TestNormalizeBalanceRejectsNarrowGrid(t *testing.T) {
	grid := [][]string{
		{"a", "b", "c", "d", "e", "f"},
		{"Clase", "1", "ACTIVO", "0", "0", "0"},
	}
	_, err := NormalizeBalance(grid)
	if !errors.Is(err, ErrBalanceShape) {
		t.Fatalf("expected ErrBalanceShape, got %v", err)
	}
}
