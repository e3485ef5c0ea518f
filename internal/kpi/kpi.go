package kpi

import (
	"math"
	"strings"

	"github.com/ArielSanroj/cfobot/internal/sheets"
)

// Metric names as they appear in the KPI table, in display order.
const (
	MetricCurrentRatio      = "Current Ratio"
	MetricQuickRatio        = "Quick Ratio"
	MetricGrossMargin       = "Margen Bruto %"
	MetricNetMargin         = "Margen Neto %"
	MetricROE               = "ROE %"
	MetricDebtEquity        = "Deuda/Patrimonio"
	MetricInventoryTurnover = "Rotación Inventarios"
	MetricEBITDA            = "EBITDA"
)

var metricOrder = []string{
	MetricCurrentRatio,
	MetricQuickRatio,
	MetricGrossMargin,
	MetricNetMargin,
	MetricROE,
	MetricDebtEquity,
	MetricInventoryTurnover,
	MetricEBITDA,
}

// MetricNames returns the metric names in display order.
func MetricNames() []string {
	out := make([]string, len(metricOrder))
	copy(out, metricOrder)
	return out
}

// Balance level labels the aggregate filters select on.
const (
	levelClass = "Clase"
	levelGroup = "Grupo"
)

// Rules is the account-matching configuration behind the aggregates: balance
// code sets per level, income statement line markers, and the ledger name
// keywords for the EBITDA add-backs. Treated as immutable once constructed.
type Rules struct {
	AssetClasses       []string
	LiabilityClasses   []string
	EquityClasses      []string
	CurrentAssetGroups []string
	InventoryGroups    []string

	IncomeDescription string
	CostDescription   string
	ProfitDescription string

	DepreciationKeywords []string
	InterestKeywords     []string
}

// DefaultRules returns the matching rules for the source chart of accounts.
func DefaultRules() *Rules {
	return &Rules{
		AssetClasses:         []string{"1"},
		LiabilityClasses:     []string{"2"},
		EquityClasses:        []string{"3"},
		CurrentAssetGroups:   []string{"11", "12", "13", "14"},
		InventoryGroups:      []string{"14"},
		IncomeDescription:    "INGRESOS ORDINARIOS",
		CostDescription:      "COSTO DE VENTA",
		ProfitDescription:    "RESULTADO DEL EJERCICIO",
		DepreciationKeywords: []string{"DEPRECIACION", "AMORTIZACION"},
		InterestKeywords:     []string{"INTERES"},
	}
}

// Balances holds the balance sheet aggregates behind the ratios, in COP.
// Liabilities and equity carry their absolute values.
type Balances struct {
	TotalAssets        float64 `json:"total_assets"`
	CurrentAssets      float64 `json:"current_assets"`
	Inventories        float64 `json:"inventories"`
	CurrentLiabilities float64 `json:"current_liabilities"`
	Equity             float64 `json:"equity"`
}

// Result is the financial KPI set for one report month. Metrics is keyed by
// the Metric* names; Names preserves display order.
type Result struct {
	Month        string             `json:"month"`
	Balances     Balances           `json:"balances"`
	Income       float64            `json:"income"`
	Costs        float64            `json:"costs"`
	NetProfit    float64            `json:"net_profit"`
	Depreciation float64            `json:"depreciation"`
	Interest     float64            `json:"interest"`
	Names        []string           `json:"names"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Value returns a metric by name, zero when absent.
func (r *Result) Value(name string) float64 {
	return r.Metrics[name]
}

// Compute derives liquidity, margin and leverage ratios from the balance
// sheet and income statement, plus EBITDA from the expense ledger add-backs.
// A nil rules uses DefaultRules. Ratios with a non-positive denominator come
// back as zero; every metric is rounded to two decimals.
func Compute(ctx *sheets.ReportingContext, rules *Rules) *Result {
	if rules == nil {
		rules = DefaultRules()
	}
	totalAssets := sumBalance(ctx.Balance, levelClass, rules.AssetClasses...)
	currentAssets := sumBalance(ctx.Balance, levelGroup, rules.CurrentAssetGroups...)
	inventories := sumBalance(ctx.Balance, levelGroup, rules.InventoryGroups...)
	currentLiabilities := math.Abs(sumBalance(ctx.Balance, levelClass, rules.LiabilityClasses...))
	equity := math.Abs(sumBalance(ctx.Balance, levelClass, rules.EquityClasses...))
	if equity == 0 {
		equity = math.Max(totalAssets-currentLiabilities, 0)
	}

	income := math.Abs(maxStatement(ctx, rules.IncomeDescription))
	costs := math.Abs(maxStatement(ctx, rules.CostDescription))
	profit := maxStatement(ctx, rules.ProfitDescription)

	depreciation := math.Abs(sumLedger(ctx.Ledger, rules.DepreciationKeywords))
	interest := math.Abs(sumLedger(ctx.Ledger, rules.InterestKeywords))

	metrics := map[string]float64{
		MetricCurrentRatio:      round2(ratio(currentAssets, currentLiabilities)),
		MetricQuickRatio:        round2(ratio(currentAssets-inventories, currentLiabilities)),
		MetricGrossMargin:       round2(ratio(income-costs, income) * 100),
		MetricNetMargin:         round2(ratio(profit, income) * 100),
		MetricROE:               round2(ratio(profit, equity) * 100),
		MetricDebtEquity:        round2(ratio(currentLiabilities, equity)),
		MetricInventoryTurnover: round2(ratio(costs, inventories)),
		MetricEBITDA:            round2(profit + depreciation + interest),
	}

	return &Result{
		Month: ctx.Month,
		Balances: Balances{
			TotalAssets:        totalAssets,
			CurrentAssets:      currentAssets,
			Inventories:        inventories,
			CurrentLiabilities: currentLiabilities,
			Equity:             equity,
		},
		Income:       income,
		Costs:        costs,
		NetProfit:    profit,
		Depreciation: depreciation,
		Interest:     interest,
		Names:        MetricNames(),
		Metrics:      metrics,
	}
}

func sumBalance(table *sheets.BalanceTable, level string, codes ...string) float64 {
	if table == nil {
		return 0
	}
	sum := 0.0
	for _, row := range table.Rows {
		if row.Level != level {
			continue
		}
		for _, code := range codes {
			if row.Code == code {
				sum += row.Closing
				break
			}
		}
	}
	return sum
}

// maxStatement returns the largest signed total among the statement lines
// whose description mentions the phrase, zero when none match.
func maxStatement(ctx *sheets.ReportingContext, phrase string) float64 {
	if ctx.Statement == nil {
		return 0
	}
	max := 0.0
	found := false
	for _, row := range ctx.Statement.Rows {
		if !strings.Contains(strings.ToUpper(row.Description), phrase) {
			continue
		}
		v := row.Totals[ctx.StatementCol]
		if !found || v > max {
			max = v
			found = true
		}
	}
	return max
}

func sumLedger(ledger *sheets.LedgerTable, keywords []string) float64 {
	if ledger == nil {
		return 0
	}
	sum := 0.0
	for _, row := range ledger.Rows {
		name := strings.ToUpper(row.DisplayName)
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				sum += row.Values[ledger.CurrentCol]
				break
			}
		}
	}
	return sum
}

// ratio divides, returning zero when the denominator is not positive.
func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
