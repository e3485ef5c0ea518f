package boardreport

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ArielSanroj/cfobot/internal/analysis"
	"github.com/ArielSanroj/cfobot/internal/charts"
	"github.com/ArielSanroj/cfobot/internal/insights"
	"github.com/ArielSanroj/cfobot/internal/kpi"
)

// FigureProvider renders the charts embedded in the document.
type FigureProvider interface {
	Figures(ctx context.Context, report *analysis.Report) ([]charts.Figure, error)
}

// Builder assembles the document view model prior to rendering.
type Builder struct {
	figures FigureProvider
	now     func() time.Time
}

// NewBuilder constructs a Builder. The figure provider may be nil; the
// document then carries no charts.
func NewBuilder(figures FigureProvider) *Builder {
	return &Builder{figures: figures, now: time.Now}
}

// WithNow overrides the builder clock for testing.
func (b *Builder) WithNow(fn func() time.Time) {
	if fn != nil {
		b.now = fn
	}
}

// Build assembles the standard board document from a completed report.
func (b *Builder) Build(ctx context.Context, report *analysis.Report) (Document, error) {
	m, err := newMetrics(report)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		Variant:     VariantStandard,
		Month:       report.Month,
		Title:       fmt.Sprintf("Informe para Junta Directiva - %s 2025", report.Month),
		GeneratedAt: b.now().UTC(),
	}
	doc.Sections = []Section{
		financialSummary("Resumen Financiero Ejecutivo", report.Month, m),
		budgetExecution(m),
		kpiTable(report),
		expenseBreakdown(report),
		reconciliation(report),
	}
	if warn := warningsSection(report); warn != nil {
		doc.Sections = append(doc.Sections, *warn)
	}
	doc.Sections = append(doc.Sections, recommendations(m))
	doc.Footer = []string{
		fmt.Sprintf("Informe generado automáticamente el %s 2025", report.Month),
		"Sistema CFO Bot v1.0",
	}

	b.attachFigures(ctx, report, &doc)
	return doc, nil
}

// BuildAI assembles the insights-enriched executive document.
func (b *Builder) BuildAI(ctx context.Context, report *analysis.Report, ins *insights.Insights) (Document, error) {
	if ins == nil {
		return Document{}, ErrInsightsRequired
	}
	m, err := newMetrics(report)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		Variant:     VariantAI,
		Month:       report.Month,
		Title:       fmt.Sprintf("Informe Ejecutivo con IA - %s 2025", report.Month),
		GeneratedAt: b.now().UTC(),
	}
	doc.Sections = []Section{
		{Title: "Resumen Ejecutivo con Análisis de IA", Paragraphs: []string{ins.ExecutiveSummary}},
		{Title: "Insights Clave de IA", Bullets: append([]string(nil), ins.KeyInsights...)},
		financialSummary("Análisis Financiero Detallado", report.Month, m),
		{Title: "Análisis Presupuestario con IA", Paragraphs: []string{ins.BudgetAnalysis}},
		{Title: "Análisis de KPIs con IA", Paragraphs: []string{ins.KPIAnalysis}},
		{Title: "Análisis de Tendencias con IA", Paragraphs: []string{ins.TrendAnalysis}},
		{Title: "Evaluación de Riesgos con IA", Paragraphs: []string{ins.RiskAssessment}},
		{Title: "Recomendaciones Estratégicas con IA", Numbered: append([]string(nil), ins.Recommendations...)},
		kpiTable(report),
	}
	doc.Footer = []string{
		fmt.Sprintf("Informe generado con IA el %s 2025", report.Month),
		"Sistema CFO Bot v2.0 con Ollama",
	}

	b.attachFigures(ctx, report, &doc)
	return doc, nil
}

func (b *Builder) attachFigures(ctx context.Context, report *analysis.Report, doc *Document) {
	if b.figures == nil {
		return
	}
	figures, err := b.figures.Figures(ctx, report)
	if err != nil {
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("Figuras no disponibles: %v", err))
		return
	}
	doc.Figures = figures
}

// metrics carries the handful of values every section formats.
type metrics struct {
	income           float64
	expenses         float64
	incomeExecuted   float64
	expensesExecuted float64
	ebitda           float64
	netMargin        float64
	currentRatio     float64
}

func newMetrics(report *analysis.Report) (metrics, error) {
	if report == nil || report.Budget == nil || report.KPIs == nil || len(report.Budget.Summary) < 2 {
		return metrics{}, ErrIncompleteReport
	}
	summary := report.Budget.Summary
	return metrics{
		income:           summary[0].Actual,
		expenses:         summary[1].Actual,
		incomeExecuted:   summary[0].Executed,
		expensesExecuted: summary[1].Executed,
		ebitda:           report.KPIs.Value(kpi.MetricEBITDA),
		netMargin:        report.KPIs.Value(kpi.MetricNetMargin),
		currentRatio:     report.KPIs.Value(kpi.MetricCurrentRatio),
	}, nil
}

var moneyPrinter = message.NewPrinter(language.English)

func money(v float64) string {
	return moneyPrinter.Sprintf("$%.0f", v)
}

func financialSummary(title, month string, m metrics) Section {
	return Section{
		Title: title,
		Paragraphs: []string{
			fmt.Sprintf("Durante el mes de %s 2025, la empresa presentó los siguientes resultados:", month),
		},
		Bullets: []string{
			fmt.Sprintf("Ingresos Totales: %s COP", money(m.income)),
			fmt.Sprintf("Gastos Totales: %s COP", money(m.expenses)),
			fmt.Sprintf("EBITDA: %s COP", money(m.ebitda)),
			fmt.Sprintf("Margen Neto: %.2f%%", m.netMargin),
			fmt.Sprintf("Ratio de Liquidez (Current Ratio): %.2f", m.currentRatio),
		},
	}
}

func budgetExecution(m metrics) Section {
	return Section{
		Title:      "Análisis de Ejecución Presupuestaria",
		Paragraphs: []string{"La ejecución presupuestaria del mes muestra:"},
		Bullets: []string{
			fmt.Sprintf("Ingresos: %.1f%% del presupuesto mensual", m.incomeExecuted),
			fmt.Sprintf("Gastos: %.1f%% del presupuesto mensual", m.expensesExecuted),
		},
	}
}

func kpiTable(report *analysis.Report) Section {
	rows := make([]KPIRow, 0, len(report.KPIs.Names))
	for _, name := range report.KPIs.Names {
		rows = append(rows, KPIRow{Name: name, Value: fmt.Sprintf("%.2f", report.KPIs.Value(name))})
	}
	return Section{Title: "Indicadores Financieros Clave (KPIs)", Table: rows}
}

func expenseBreakdown(report *analysis.Report) Section {
	cats := report.Budget.Categories
	return Section{
		Title: "Desglose de Gastos por Categoría",
		Bullets: []string{
			fmt.Sprintf("Gastos Administrativos: %s COP", money(cats.Admin)),
			fmt.Sprintf("Gastos Otros: %s COP", money(cats.Other)),
			fmt.Sprintf("Costos de Venta: %s COP", money(cats.Sales)),
			fmt.Sprintf("Costos de Producción: %s COP", money(cats.Production)),
		},
	}
}

func reconciliation(report *analysis.Report) Section {
	text := "No se pudo determinar la diferencia de conciliación bancaria."
	if report.Reconciliation != nil {
		text = fmt.Sprintf(
			"Se identificó una diferencia de %s COP en la conciliación bancaria, posiblemente relacionada con consignaciones no acreditadas al cierre del mes.",
			money(*report.Reconciliation),
		)
	}
	return Section{Title: "Conciliación Bancaria", Paragraphs: []string{text}}
}

func warningsSection(report *analysis.Report) *Section {
	if len(report.Warnings) == 0 {
		return nil
	}
	bullets := make([]string, 0, len(report.Warnings))
	for _, w := range report.Warnings {
		bullets = append(bullets, w.Message)
	}
	return &Section{Title: "Advertencias de Validación", Bullets: bullets}
}

func recommendations(m metrics) Section {
	var recs []string
	if m.currentRatio < 1.5 {
		recs = append(recs, fmt.Sprintf(
			"URGENTE: Mejorar la liquidez inmediata. El Current Ratio de %.2f está por debajo del mínimo recomendado de 1.5. Considerar estrategias de recaudo o financiamiento a corto plazo.",
			m.currentRatio,
		))
	} else {
		recs = append(recs, fmt.Sprintf(
			"La liquidez se mantiene en niveles adecuados (Current Ratio: %.2f).",
			m.currentRatio,
		))
	}
	if m.netMargin < 5 {
		recs = append(recs, fmt.Sprintf(
			"Revisar la estructura de costos. El margen neto de %.2f%% está por debajo de los estándares de la industria. Analizar costos de venta y gastos operativos.",
			m.netMargin,
		))
	}
	if m.expensesExecuted > 100 {
		recs = append(recs, fmt.Sprintf(
			"Control de gastos: Se superó el presupuesto en %.1f%%. Implementar controles más estrictos en la aprobación de gastos.",
			m.expensesExecuted-100,
		))
	}
	if m.incomeExecuted < 80 {
		recs = append(recs, fmt.Sprintf(
			"Revisar estrategias de ventas. Los ingresos representan solo %.1f%% del presupuesto. Evaluar canales de venta y estrategias comerciales.",
			m.incomeExecuted,
		))
	}
	recs = append(recs,
		"Monitorear mensualmente los KPIs financieros para detectar tendencias tempranas.",
		"Implementar un sistema de alertas automáticas para desviaciones presupuestarias significativas.",
		"Revisar trimestralmente la estructura de costos para optimizar la rentabilidad.",
	)
	return Section{Title: "Recomendaciones Estratégicas", Bullets: recs}
}
