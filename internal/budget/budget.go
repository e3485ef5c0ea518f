package budget

import (
	"math"
	"regexp"
	"strings"

	"github.com/ArielSanroj/cfobot/internal/sheets"
)

// Rules is the account-matching configuration of the categorizer: code
// prefixes per expense bucket, name keywords for the informational
// sub-categories, and the revenue line marker. Treated as immutable once
// constructed.
type Rules struct {
	Admin      *regexp.Regexp
	Other      *regexp.Regexp
	Sales      *regexp.Regexp
	Production *regexp.Regexp

	SalaryKeywords    []string
	SeveranceKeywords []string

	IncomeDescription string
}

// DefaultRules returns the matching rules for the source chart of accounts.
func DefaultRules() *Rules {
	return &Rules{
		Admin:             regexp.MustCompile(`^51[0-9]{4,}`),
		Other:             regexp.MustCompile(`^53[0-9]{4,}`),
		Sales:             regexp.MustCompile(`^61[0-9]{4,}`),
		Production:        regexp.MustCompile(`^(72|73)[0-9]{4,}`),
		SalaryKeywords:    []string{"SUELDO", "SALARIO"},
		SeveranceKeywords: []string{"CESANTIA"},
		IncomeDescription: "INGRESOS ORDINARIOS",
	}
}

// Config carries the monthly budget targets in COP and the optional matching
// rules. A nil Rules uses DefaultRules.
type Config struct {
	MonthlyIncome   float64
	MonthlyExpenses float64
	Rules           *Rules
}

// SummaryRow is one line of the budget execution table.
type SummaryRow struct {
	Category string  `json:"category"`
	Actual   float64 `json:"actual"`
	Budget   float64 `json:"budget"`
	Executed float64 `json:"executed_pct"`
}

// Categories holds the categorized expense totals for the report month.
type Categories struct {
	Admin      float64 `json:"admin"`
	Other      float64 `json:"other"`
	Sales      float64 `json:"sales"`
	Production float64 `json:"production"`
	Salaries   float64 `json:"salaries"`
	Severance  float64 `json:"severance"`
}

// DistributionRow tracks one expense account across the year.
type DistributionRow struct {
	DisplayName  string             `json:"display_name"`
	Values       map[string]float64 `json:"values"`
	Average      float64            `json:"average"`
	DiffVsPrev   float64            `json:"diff_vs_prev_pct"`
	DiffVsAvg    float64            `json:"diff_vs_avg_pct"`
	ShareOfTotal float64            `json:"share_of_total_pct"`
}

// Distribution is the per-account expense breakdown over the covered months.
// PreviousLabel is the first word of the previous month's column label, used
// in table headers.
type Distribution struct {
	Rows          []DistributionRow `json:"rows"`
	Months        []string          `json:"months"`
	CurrentCol    string            `json:"current_col"`
	PreviousCol   string            `json:"previous_col"`
	PreviousLabel string            `json:"previous_label"`
}

// Result is the budget execution analysis for one report month.
type Result struct {
	Month         string        `json:"month"`
	Income        float64       `json:"income"`
	TotalExpenses float64       `json:"total_expenses"`
	Summary       []SummaryRow  `json:"summary"`
	Distribution  *Distribution `json:"distribution,omitempty"`
	Categories    Categories    `json:"categories"`
}

// Compute builds the budget execution analysis: income against its monthly
// target, expenses categorized by account code prefix, and the per-account
// distribution across the covered months.
func Compute(ctx *sheets.ReportingContext, cfg Config) *Result {
	rules := cfg.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	income := currentIncome(ctx, rules)
	categories := categorize(ctx.Ledger, rules)
	total := categories.Admin + categories.Other + categories.Sales + categories.Production

	summary := []SummaryRow{
		{Category: "Ingresos", Actual: income, Budget: cfg.MonthlyIncome, Executed: executedPct(income, cfg.MonthlyIncome)},
		{Category: "Gastos Totales", Actual: total, Budget: cfg.MonthlyExpenses, Executed: executedPct(total, cfg.MonthlyExpenses)},
		{Category: "Gastos Administrativos", Actual: categories.Admin},
		{Category: "Gastos Otros", Actual: categories.Other},
		{Category: "Costos de Venta", Actual: categories.Sales},
		{Category: "Costos de Producción", Actual: categories.Production},
	}

	return &Result{
		Month:         ctx.Month,
		Income:        income,
		TotalExpenses: total,
		Summary:       summary,
		Distribution:  buildDistribution(ctx, rules, total),
		Categories:    categories,
	}
}

// currentIncome reads the report month's revenue from the first income
// statement line mentioning the revenue description.
func currentIncome(ctx *sheets.ReportingContext, rules *Rules) float64 {
	for _, row := range ctx.Statement.Rows {
		if containsFold(row.Description, rules.IncomeDescription) {
			return math.Abs(row.Totals[ctx.StatementCol])
		}
	}
	return 0
}

func categorize(ledger *sheets.LedgerTable, rules *Rules) Categories {
	var c Categories
	for _, row := range ledger.Rows {
		v := row.Values[ledger.CurrentCol]
		switch {
		case rules.Admin.MatchString(row.Code):
			c.Admin += v
			if containsFold(row.DisplayName, rules.SalaryKeywords...) {
				c.Salaries += v
			}
			if containsFold(row.DisplayName, rules.SeveranceKeywords...) {
				c.Severance += v
			}
		case rules.Other.MatchString(row.Code):
			c.Other += v
		case rules.Sales.MatchString(row.Code):
			c.Sales += v
		case rules.Production.MatchString(row.Code):
			c.Production += v
		}
	}
	c.Admin = math.Abs(c.Admin)
	c.Other = math.Abs(c.Other)
	c.Sales = math.Abs(c.Sales)
	c.Production = math.Abs(c.Production)
	c.Salaries = math.Abs(c.Salaries)
	c.Severance = math.Abs(c.Severance)
	return c
}

// buildDistribution lists every categorized account with its monthly values,
// year-to-date average and deltas against the previous month and the
// average. Nil when there are no expenses to distribute.
func buildDistribution(ctx *sheets.ReportingContext, rules *Rules, total float64) *Distribution {
	if total == 0 {
		return nil
	}
	monthNames := ctx.Months
	if len(monthNames) == 0 {
		return nil
	}
	current := ctx.LedgerCol
	currentIdx := indexOf(monthNames, current)
	previousIdx := currentIdx - 1
	if previousIdx < 0 {
		previousIdx = 0
	}
	previous := monthNames[previousIdx]
	previousLabel := ""
	if fields := strings.Fields(previous); len(fields) > 0 {
		previousLabel = fields[0]
	}

	dist := &Distribution{
		Months:        append([]string(nil), monthNames...),
		CurrentCol:    current,
		PreviousCol:   previous,
		PreviousLabel: previousLabel,
	}

	for _, row := range ctx.Ledger.Rows {
		if !matchesAnyCategory(row, rules) {
			continue
		}
		values := make(map[string]float64, len(monthNames))
		sum := 0.0
		for _, m := range monthNames {
			v := math.Abs(row.Values[m])
			values[m] = v
			sum += v
		}
		avg := 0.0
		if len(monthNames) > 0 {
			avg = sum / float64(len(monthNames))
		}
		cur := math.Abs(row.Values[current])
		prev := values[previous]

		dist.Rows = append(dist.Rows, DistributionRow{
			DisplayName:  row.DisplayName,
			Values:       values,
			Average:      avg,
			DiffVsPrev:   pctChange(cur, prev),
			DiffVsAvg:    pctChange(cur, avg),
			ShareOfTotal: cur / total * 100,
		})
	}
	return dist
}

func matchesAnyCategory(row sheets.LedgerRow, rules *Rules) bool {
	return rules.Admin.MatchString(row.Code) ||
		rules.Other.MatchString(row.Code) ||
		rules.Sales.MatchString(row.Code) ||
		rules.Production.MatchString(row.Code)
}

func executedPct(actual, budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	return actual / budget * 100
}

func pctChange(current, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (current - base) / base * 100
}

func indexOf(list []string, value string) int {
	for i, v := range list {
		if v == value {
			return i
		}
	}
	return -1
}

// containsFold reports whether s contains any keyword, ignoring case.
func containsFold(s string, keywords ...string) bool {
	upper := strings.ToUpper(s)
	for _, kw := range keywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
