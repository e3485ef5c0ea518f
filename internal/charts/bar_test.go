package charts

import (
	"strings"
	"testing"
)

func TestBarsRequiresSeries(t *testing.T) {
	if _, err := Bars(0, 0, nil, nil, BarOpts{}); err == nil {
		t.Fatal("expected error for empty series")
	}
	if _, err := Bars(0, 0, []float64{1, 2}, []string{"A"}, BarOpts{}); err == nil {
		t.Fatal("expected error for mismatched labels")
	}
}

func TestBarsRendersSeriesAndLabels(t *testing.T) {
	svg, err := Bars(0, 0, []float64{10, 25, 5}, []string{"ENERO", "FEBRERO", "MARZO"}, BarOpts{
		Title:          "Gastos Mensuales",
		XLabel:         "Mes",
		YLabel:         "Gastos Totales (COP)",
		ValueFormatter: FormatValue,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(svg)
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Fatal("output is not an svg document")
	}
	for _, label := range []string{"ENERO", "FEBRERO", "MARZO", "Gastos Mensuales", "Mes", "Gastos Totales (COP)"} {
		if !strings.Contains(out, label) {
			t.Fatalf("output missing %q", label)
		}
	}
	if !strings.Contains(out, "25.00") {
		t.Fatal("output missing bar value label")
	}
	// background plus one rect per bar
	if got := strings.Count(out, "<rect"); got != 4 {
		t.Fatalf("rect count = %d, want 4", got)
	}
}

func TestBarsHandlesNegativeValues(t *testing.T) {
	svg, err := Bars(0, 0, []float64{40, -15}, []string{"A", "B"}, BarOpts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(svg), "aria-label=\"B\"") {
		t.Fatal("negative bar not rendered")
	}
}

func TestBarsConstantSeries(t *testing.T) {
	if _, err := Bars(0, 0, []float64{0, 0}, []string{"A", "B"}, BarOpts{}); err != nil {
		t.Fatalf("constant zero series failed: %v", err)
	}
}
