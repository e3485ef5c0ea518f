package charts

import (
	"strings"
	"testing"
)

func TestLineRequiresSeries(t *testing.T) {
	if _, err := Line(0, 0, nil, nil, LineOpts{}); err == nil {
		t.Fatal("expected error for empty series")
	}
	if _, err := Line(0, 0, []float64{1}, []string{"A", "B"}, LineOpts{}); err == nil {
		t.Fatal("expected error for mismatched labels")
	}
}

func TestLineRendersPathAndDots(t *testing.T) {
	svg, err := Line(0, 0, []float64{10, 30, 20}, []string{"ENERO", "FEBRERO", "MARZO"}, LineOpts{
		Title:    "Tendencia de Gastos",
		ShowDots: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(svg)
	if !strings.Contains(out, "<path") {
		t.Fatal("output missing line path")
	}
	if got := strings.Count(out, "<circle"); got != 3 {
		t.Fatalf("dot count = %d, want 3", got)
	}
	if !strings.Contains(out, "Tendencia de Gastos") {
		t.Fatal("output missing title")
	}
}

func TestLineSinglePoint(t *testing.T) {
	svg, err := Line(0, 0, []float64{5}, []string{"ENERO"}, LineOpts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(svg), "ENERO") {
		t.Fatal("output missing label")
	}
}
