package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ArielSanroj/cfobot/internal/analysis"
	"github.com/ArielSanroj/cfobot/internal/insights"
	"github.com/ArielSanroj/cfobot/internal/kpi"
	"github.com/ArielSanroj/cfobot/web"
)

// Composer renders the email bodies from the embedded templates.
type Composer struct {
	tpl *template.Template
}

// NewComposer parses the email templates.
func NewComposer() (*Composer, error) {
	tpl, err := template.ParseFS(web.Templates, "templates/email/*.html")
	if err != nil {
		return nil, fmt.Errorf("mailer: parse templates: %w", err)
	}
	return &Composer{tpl: tpl}, nil
}

type kpiRow struct {
	Name  string
	Value string
}

// summaryData is the view model shared by the summary and insights bodies.
type summaryData struct {
	Month            string
	Income           string
	Expenses         string
	EBITDA           string
	IncomeExecuted   string
	ExpensesExecuted string
	KPIs             []kpiRow
	Warnings         []string
	GeneratedAt      string
	Insights         *insights.Insights
}

var moneyPrinter = message.NewPrinter(language.English)

func newSummaryData(report *analysis.Report) summaryData {
	data := summaryData{
		Month:       report.Month,
		GeneratedAt: report.GeneratedAt.Format("02/01/2006 15:04"),
	}
	if s := report.Budget.Summary; len(s) > 1 {
		data.Income = moneyPrinter.Sprintf("$%.0f", s[0].Actual)
		data.Expenses = moneyPrinter.Sprintf("$%.0f", s[1].Actual)
		data.IncomeExecuted = fmt.Sprintf("%.1f%%", s[0].Executed)
		data.ExpensesExecuted = fmt.Sprintf("%.1f%%", s[1].Executed)
	}
	if report.KPIs != nil {
		data.EBITDA = moneyPrinter.Sprintf("$%.0f", report.KPIs.Value(kpi.MetricEBITDA))
		for _, name := range report.KPIs.Names {
			data.KPIs = append(data.KPIs, kpiRow{Name: name, Value: fmt.Sprintf("%.2f", report.KPIs.Value(name))})
		}
	}
	for _, w := range report.Warnings {
		data.Warnings = append(data.Warnings, w.Message)
	}
	return data
}

// Summary composes the standard monthly summary email.
func (c *Composer) Summary(report *analysis.Report) (Message, error) {
	if report == nil || report.Budget == nil {
		return Message{}, fmt.Errorf("mailer: report payload incomplete")
	}
	body, err := c.render("summary.html", newSummaryData(report))
	if err != nil {
		return Message{}, err
	}
	return Message{
		Subject: fmt.Sprintf("Resumen Financiero - %s 2025", report.Month),
		HTML:    body,
	}, nil
}

// Insights composes the insights-enriched summary email.
func (c *Composer) Insights(report *analysis.Report, ins *insights.Insights) (Message, error) {
	if report == nil || report.Budget == nil {
		return Message{}, fmt.Errorf("mailer: report payload incomplete")
	}
	if ins == nil {
		return Message{}, fmt.Errorf("mailer: insights required")
	}
	data := newSummaryData(report)
	data.Insights = ins
	body, err := c.render("insights.html", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Subject: fmt.Sprintf("Informe Ejecutivo con IA - %s 2025", report.Month),
		HTML:    body,
	}, nil
}

// Failure composes the processing failure notice.
func (c *Composer) Failure(sourceFile, errMsg string, at time.Time) (Message, error) {
	body, err := c.render("failure.html", map[string]string{
		"SourceFile": sourceFile,
		"Error":      errMsg,
		"At":         at.Format("02/01/2006 15:04"),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		Subject: "Error en el análisis financiero",
		HTML:    body,
	}, nil
}

func (c *Composer) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := c.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("mailer: render %s: %w", name, err)
	}
	return buf.String(), nil
}
