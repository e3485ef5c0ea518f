package charts

import (
	"fmt"
	"html/template"
	"regexp"
	"sort"
	"strings"

	"github.com/ArielSanroj/cfobot/internal/budget"
	"github.com/ArielSanroj/cfobot/internal/kpi"
	"github.com/ArielSanroj/cfobot/internal/sheets"
)

// Artifact names of the report figures.
const (
	FigureMonthlySpending = "monthly_spending"
	FigureKPIDashboard    = "kpi_dashboard"
	FigureDistribution    = "distribucion_gastos_pie"
	FigureCategories      = "categorias_gastos_pie"
	FigureExpenseTrend    = "tendencia_gastos"
)

// expensePattern selects every categorized expense account code.
var expensePattern = regexp.MustCompile(`^(51|53|61|72|73)[0-9]{4,}`)

// categoryColors is the fixed palette of the category pie.
var categoryColors = []string{"#FF9999", "#66B2FF", "#99FF99", "#FFCC99", "#FF99CC"}

// Figure is a rendered report chart, named after its artifact prefix.
type Figure struct {
	Name  string
	Title string
	SVG   template.HTML
}

// MonthlySpending renders total expenses per covered month as a bar chart.
func MonthlySpending(ctx *sheets.ReportingContext) (*Figure, error) {
	totals := monthlyTotals(ctx)
	title := fmt.Sprintf("Gastos Mensuales - Enero a %s 2025", ctx.Month)
	svg, err := Bars(DefaultWidth, DefaultHeight, totals, shortLabels(ctx.Months), BarOpts{
		Title:          title,
		Description:    "Gastos totales por mes en COP",
		XLabel:         "Mes",
		YLabel:         "Gastos Totales (COP)",
		BarColor:       "#87ceeb",
		EdgeColor:      "#000080",
		ValueFormatter: FormatMoney,
	})
	if err != nil {
		return nil, err
	}
	return &Figure{Name: FigureMonthlySpending, Title: title, SVG: svg}, nil
}

// ExpenseTrend renders the same monthly totals as a line, for embedding in
// the board report.
func ExpenseTrend(ctx *sheets.ReportingContext) (*Figure, error) {
	totals := monthlyTotals(ctx)
	title := fmt.Sprintf("Tendencia de Gastos - Enero a %s 2025", ctx.Month)
	svg, err := Line(DefaultWidth, DefaultHeight, totals, shortLabels(ctx.Months), LineOpts{
		Title:       title,
		Description: "Evolución mensual de los gastos totales en COP",
		ShowDots:    true,
	})
	if err != nil {
		return nil, err
	}
	return &Figure{Name: FigureExpenseTrend, Title: title, SVG: svg}, nil
}

// KPIDashboard renders every KPI value as a bar chart.
func KPIDashboard(res *kpi.Result) (*Figure, error) {
	series := make([]float64, len(res.Names))
	for i, name := range res.Names {
		series[i] = res.Metrics[name]
	}
	title := fmt.Sprintf("KPIs Financieros - %s 2025", res.Month)
	svg, err := Bars(DefaultWidth, DefaultHeight, series, res.Names, BarOpts{
		Title:          title,
		Description:    "Indicadores financieros del mes",
		XLabel:         "KPI",
		YLabel:         "Valor",
		BarColor:       "#008080",
		EdgeColor:      "#006400",
		ValueFormatter: FormatValue,
	})
	if err != nil {
		return nil, err
	}
	return &Figure{Name: FigureKPIDashboard, Title: title, SVG: svg}, nil
}

// DistributionPie renders the ten largest expense accounts by share of the
// month's total, folding the rest into an "Otros" slice. Nil without a
// distribution.
func DistributionPie(res *budget.Result) (*Figure, error) {
	dist := res.Distribution
	if dist == nil {
		return nil, nil
	}

	rows := make([]budget.DistributionRow, len(dist.Rows))
	copy(rows, dist.Rows)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ShareOfTotal > rows[j].ShareOfTotal })

	var (
		values []float64
		labels []string
		legend []string
		spent  float64
	)
	for _, row := range dist.Rows {
		spent += row.Values[dist.CurrentCol]
	}
	top := rows
	if len(top) > 10 {
		top = rows[:10]
	}
	for _, row := range top {
		values = append(values, row.ShareOfTotal)
		labels = append(labels, row.DisplayName)
		legend = append(legend, fmt.Sprintf("%.1f%%", row.ShareOfTotal))
	}
	remaining := 0.0
	for _, row := range rows[len(top):] {
		remaining += row.ShareOfTotal
	}
	if remaining > 0 {
		values = append(values, remaining)
		labels = append(labels, "Otros")
		legend = append(legend, fmt.Sprintf("%.1f%%", remaining))
	}

	title := fmt.Sprintf("Distribución de Gastos - %s 2025", res.Month)
	svg, err := Pie(DefaultWidth, 560, values, labels, PieOpts{
		Title:        title,
		Description:  "Participación de cada cuenta en el gasto del mes",
		LegendTitle:  "Gastos",
		LegendValues: legend,
		Footer:       fmt.Sprintf("Total Gastos: %s COP", FormatMoney(spent)),
	})
	if err != nil {
		return nil, err
	}
	return &Figure{Name: FigureDistribution, Title: title, SVG: svg}, nil
}

// CategoryPie renders the four expense categories with a positive total. Nil
// when every category is zero.
func CategoryPie(res *budget.Result) (*Figure, error) {
	names := []string{"Administrativos", "Otros Gastos", "Costos de Venta", "Costos de Producción"}
	totals := []float64{
		res.Categories.Admin,
		res.Categories.Other,
		res.Categories.Sales,
		res.Categories.Production,
	}

	var (
		values []float64
		labels []string
		spent  float64
	)
	for i, v := range totals {
		if v > 0 {
			values = append(values, v)
			labels = append(labels, names[i])
			spent += v
		}
	}
	if len(values) == 0 {
		return nil, nil
	}

	title := fmt.Sprintf("Distribución por Categorías de Gastos - %s 2025", res.Month)
	svg, err := Pie(DefaultWidth, 560, values, labels, PieOpts{
		Title:       title,
		Description: "Participación de cada categoría en el gasto del mes",
		Colors:      categoryColors,
		Footer:      fmt.Sprintf("Total Gastos: %s COP", FormatMoney(spent)),
	})
	if err != nil {
		return nil, err
	}
	return &Figure{Name: FigureCategories, Title: title, SVG: svg}, nil
}

func monthlyTotals(ctx *sheets.ReportingContext) []float64 {
	totals := make([]float64, len(ctx.Months))
	for i, month := range ctx.Months {
		sum := 0.0
		for _, row := range ctx.Ledger.Rows {
			if expensePattern.MatchString(row.Code) {
				sum += row.Values[month]
			}
		}
		if sum < 0 {
			sum = -sum
		}
		totals[i] = sum
	}
	return totals
}

func shortLabels(months []string) []string {
	out := make([]string, len(months))
	for i, label := range months {
		if fields := strings.Fields(label); len(fields) > 0 {
			out[i] = fields[0]
		} else {
			out[i] = label
		}
	}
	return out
}
