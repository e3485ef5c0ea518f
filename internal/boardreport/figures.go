package boardreport

import (
	"context"

	"github.com/ArielSanroj/cfobot/internal/analysis"
	"github.com/ArielSanroj/cfobot/internal/charts"
	"github.com/ArielSanroj/cfobot/internal/months"
	"github.com/ArielSanroj/cfobot/internal/sheets"
	"github.com/ArielSanroj/cfobot/internal/workbook"
)

// WorkbookFigures renders document charts by reloading the run's source
// workbook for the multi-month trend and reusing the report payload for the
// rest.
type WorkbookFigures struct {
	resolver *months.Resolver
}

// NewWorkbookFigures constructs the provider.
func NewWorkbookFigures() *WorkbookFigures {
	return &WorkbookFigures{resolver: months.NewResolver()}
}

// Figures renders the expense trend, KPI dashboard and category pie.
func (p *WorkbookFigures) Figures(ctx context.Context, report *analysis.Report) ([]charts.Figure, error) {
	wb, err := workbook.Open(report.SourceFile)
	if err != nil {
		return nil, err
	}
	rctx, err := sheets.Load(wb, p.resolver)
	if err != nil {
		return nil, err
	}

	trend, err := charts.ExpenseTrend(rctx)
	if err != nil {
		return nil, err
	}
	out := []charts.Figure{*trend}

	if report.KPIs != nil {
		dashboard, err := charts.KPIDashboard(report.KPIs)
		if err != nil {
			return nil, err
		}
		out = append(out, *dashboard)
	}
	if report.Budget != nil {
		pie, err := charts.CategoryPie(report.Budget)
		if err != nil {
			return nil, err
		}
		if pie != nil {
			out = append(out, *pie)
		}
	}
	return out, nil
}
