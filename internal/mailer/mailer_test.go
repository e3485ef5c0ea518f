package mailer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ArielSanroj/cfobot/internal/analysis"
	"github.com/ArielSanroj/cfobot/internal/budget"
	"github.com/ArielSanroj/cfobot/internal/checks"
	"github.com/ArielSanroj/cfobot/internal/insights"
	"github.com/ArielSanroj/cfobot/internal/kpi"
	_ "github.com/ArielSanroj/cfobot/internal/testing/guard"
)

func sampleReport() *analysis.Report {
	return &analysis.Report{
		Month: "Febrero",
		Budget: &budget.Result{
			Month:         "Febrero",
			Income:        120000000,
			TotalExpenses: 80000000,
			Summary: []budget.SummaryRow{
				{Category: "Ingresos", Actual: 120000000, Budget: 100000000, Executed: 120},
				{Category: "Gastos Totales", Actual: 80000000, Budget: 125000000, Executed: 64},
			},
		},
		KPIs: &kpi.Result{
			Month: "Febrero",
			Names: []string{kpi.MetricCurrentRatio, kpi.MetricEBITDA},
			Metrics: map[string]float64{
				kpi.MetricCurrentRatio: 2.0,
				kpi.MetricEBITDA:       15000000,
			},
		},
		Warnings:    []checks.Warning{{Message: "Ecuación contable desbalanceada"}},
		GeneratedAt: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestComposerSummary(t *testing.T) {
	c, err := NewComposer()
	require.NoError(t, err)

	msg, err := c.Summary(sampleReport())
	require.NoError(t, err)
	require.Equal(t, "Resumen Financiero - Febrero 2025", msg.Subject)
	require.Contains(t, msg.HTML, "$120,000,000 COP")
	require.Contains(t, msg.HTML, "120.0%")
	require.Contains(t, msg.HTML, "Current Ratio")
	require.Contains(t, msg.HTML, "Ecuación contable desbalanceada")
	require.Contains(t, msg.HTML, "14/03/2025 09:30")
}

func TestComposerInsights(t *testing.T) {
	c, err := NewComposer()
	require.NoError(t, err)

	ins := &insights.Insights{
		ExecutiveSummary: "Mes sólido con liquidez estable.",
		KeyInsights:      []string{"Ingresos por encima del presupuesto"},
		RiskAssessment:   "Riesgo bajo.",
		Recommendations:  []string{"Mantener control de gastos"},
		TrendAnalysis:    "Tendencia estable.",
		BudgetAnalysis:   "Ejecución saludable.",
		KPIAnalysis:      "Ratios dentro de rango.",
	}
	msg, err := c.Insights(sampleReport(), ins)
	require.NoError(t, err)
	require.Equal(t, "Informe Ejecutivo con IA - Febrero 2025", msg.Subject)
	require.Contains(t, msg.HTML, "Mes sólido con liquidez estable.")
	require.Contains(t, msg.HTML, "Ingresos por encima del presupuesto")
	require.Contains(t, msg.HTML, "Mantener control de gastos")

	_, err = c.Insights(sampleReport(), nil)
	require.Error(t, err)
}

func TestComposerFailure(t *testing.T) {
	c, err := NewComposer()
	require.NoError(t, err)

	msg, err := c.Failure("reportes/INFORME DE FEBRERO.xlsx", "sheets: required sheet missing", time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, "Error en el análisis financiero", msg.Subject)
	require.Contains(t, msg.HTML, "INFORME DE FEBRERO.xlsx")
	require.Contains(t, msg.HTML, "required sheet missing")
}

func TestEncodeMessageHeaders(t *testing.T) {
	raw := string(encode("cfo@acme.co", Message{
		To:      []string{"junta@acme.co", "gerencia@acme.co"},
		Subject: "Resumen Financiero - Febrero 2025",
		HTML:    "<html><body>ok</body></html>",
	}))
	require.True(t, strings.HasPrefix(raw, "From: cfo@acme.co\r\n"))
	require.Contains(t, raw, "To: junta@acme.co, gerencia@acme.co\r\n")
	require.Contains(t, raw, "Content-Type: text/html; charset=\"utf-8\"\r\n")
	require.Contains(t, raw, "\r\n\r\n<html>")
}

func TestSendRequiresRecipientsAndSender(t *testing.T) {
	m := New(Config{Host: "localhost", Port: 2525, From: "cfo@acme.co"})
	err := m.Send(context.Background(), Message{Subject: "x", HTML: "y"})
	require.ErrorIs(t, err, ErrNoRecipients)

	unconfigured := New(Config{Host: "localhost", Port: 2525})
	err = unconfigured.Send(context.Background(), Message{To: []string{"a@b.co"}, Subject: "x", HTML: "y"})
	require.ErrorIs(t, err, ErrNotConfigured)
}
