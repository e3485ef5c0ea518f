package checks

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ArielSanroj/cfobot/internal/kpi"
	"github.com/ArielSanroj/cfobot/internal/months"
	"github.com/ArielSanroj/cfobot/internal/sheets"
)

var (
	// ErrUnsafePath is returned when a report path contains traversal segments.
	ErrUnsafePath = errors.New("checks: path traversal detected in report path")
	// ErrNotExcel is returned when a report path is not an Excel file.
	ErrNotExcel = errors.New("checks: report must be an .xls or .xlsx file")
)

// Warning kinds, used to group findings on the run record.
const (
	KindBalance       = "balance"
	KindAccountSigns  = "account-signs"
	KindLiquidity     = "liquidity"
	KindProfitability = "profitability"
	KindLeverage      = "leverage"
	KindOutlier       = "outlier"
)

// DefaultOutlierThreshold is the z-score above which a ledger value is
// flagged.
const DefaultOutlierThreshold = 3.0

// Ratio bounds outside which a warning is raised.
const (
	minCurrentRatio = 1.0
	maxCurrentRatio = 5.0
	maxNetMargin    = 50.0
	maxDebtEquity   = 2.0
)

const (
	levelClass       = "Clase"
	classAssets      = "1"
	classLiabilities = "2"
	classEquity      = "3"
)

// balanceTolerance is the accepted difference, in pesos, between assets and
// liabilities plus equity.
const balanceTolerance = 1.0

var (
	pathCharsPattern      = regexp.MustCompile(`[./\\]`)
	dangerousCharsPattern = regexp.MustCompile(`[<>:"|?*]`)
)

// Warning is one data-quality finding on an analysis run.
type Warning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SanitizeFilenameComponent strips path separators and characters unsafe in
// file names, capping the result at 50 characters. Empty results become
// "unknown".
func SanitizeFilenameComponent(s string) string {
	out := pathCharsPattern.ReplaceAllString(s, "")
	out = dangerousCharsPattern.ReplaceAllString(out, "")
	if runes := []rune(out); len(runes) > 50 {
		out = string(runes[:50])
	}
	if out == "" {
		return "unknown"
	}
	return out
}

// ValidateMonthName resolves a free-form month label to its canonical name.
func ValidateMonthName(r *months.Resolver, name string) (string, error) {
	if month, ok := r.Resolve(name); ok {
		return month, nil
	}
	return "", fmt.Errorf("checks: unknown month %q", name)
}

// ValidateReportPath rejects traversal segments, missing files, directories
// and non-Excel extensions.
func ValidateReportPath(path string) error {
	if strings.Contains(path, "..") {
		return fmt.Errorf("%w: %q", ErrUnsafePath, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("checks: report file not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("checks: %q is a directory, not a report file", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xls" && ext != ".xlsx" {
		return fmt.Errorf("%w: got %q", ErrNotExcel, ext)
	}
	return nil
}

// BalanceEquation checks that assets equal liabilities plus equity within one
// peso. It returns the absolute difference alongside the verdict.
func BalanceEquation(table *sheets.BalanceTable) (float64, bool) {
	if table == nil {
		return 0, false
	}
	assets := sumClass(table, classAssets)
	liabilities := math.Abs(sumClass(table, classLiabilities))
	equity := math.Abs(sumClass(table, classEquity))
	diff := math.Abs(assets - (liabilities + equity))
	return diff, diff < balanceTolerance
}

// DetectOutliers flags values whose z-score exceeds threshold. Fewer than
// three values, or a zero standard deviation, flags nothing.
func DetectOutliers(values []float64, threshold float64) []bool {
	out := make([]bool, len(values))
	if len(values) < 3 {
		return out
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	// sample standard deviation
	std := math.Sqrt(ss / float64(len(values)-1))
	if std == 0 {
		return out
	}
	for i, v := range values {
		out[i] = math.Abs((v-mean)/std) > threshold
	}
	return out
}

// AccountSigns flags class-level balances with unexpected signs: negative
// assets, positive liabilities and negative equity.
func AccountSigns(table *sheets.BalanceTable) []Warning {
	if table == nil {
		return nil
	}
	var out []Warning
	for _, row := range table.Rows {
		if row.Level != levelClass {
			continue
		}
		switch {
		case row.Code == classAssets && row.Closing < 0:
			out = append(out, Warning{Kind: KindAccountSigns,
				Message: fmt.Sprintf("asset account %q closed with a negative balance", row.Name)})
		case row.Code == classLiabilities && row.Closing > 0:
			out = append(out, Warning{Kind: KindAccountSigns,
				Message: fmt.Sprintf("liability account %q closed with a positive balance", row.Name)})
		case row.Code == classEquity && row.Closing < 0:
			out = append(out, Warning{Kind: KindAccountSigns,
				Message: fmt.Sprintf("equity account %q closed with a negative balance", row.Name)})
		}
	}
	return out
}

// RatioWarnings screens the KPI set for values outside reasonable bounds.
func RatioWarnings(metrics map[string]float64) []Warning {
	var out []Warning
	current := metrics[kpi.MetricCurrentRatio]
	if current < minCurrentRatio {
		out = append(out, Warning{Kind: KindLiquidity,
			Message: fmt.Sprintf("Current Ratio %.2f indicates potential liquidity issues", current)})
	} else if current > maxCurrentRatio {
		out = append(out, Warning{Kind: KindLiquidity,
			Message: fmt.Sprintf("Current Ratio %.2f may indicate inefficient asset utilization", current)})
	}
	netMargin := metrics[kpi.MetricNetMargin]
	if netMargin < 0 {
		out = append(out, Warning{Kind: KindProfitability,
			Message: fmt.Sprintf("Negative net margin %.2f%% indicates losses", netMargin)})
	} else if netMargin > maxNetMargin {
		out = append(out, Warning{Kind: KindProfitability,
			Message: fmt.Sprintf("Unusually high net margin %.2f%%, verify calculations", netMargin)})
	}
	debtEquity := metrics[kpi.MetricDebtEquity]
	if debtEquity > maxDebtEquity {
		out = append(out, Warning{Kind: KindLeverage,
			Message: fmt.Sprintf("High debt-to-equity ratio %.2f indicates high leverage", debtEquity)})
	}
	return out
}

// Evaluate runs every data-quality check against a normalized workbook and
// its KPI set, returning the combined findings.
func Evaluate(ctx *sheets.ReportingContext, metrics map[string]float64) []Warning {
	var out []Warning
	if diff, ok := BalanceEquation(ctx.Balance); !ok {
		out = append(out, Warning{Kind: KindBalance,
			Message: fmt.Sprintf("balance equation off by %.2f COP between assets and liabilities plus equity", diff)})
	}
	out = append(out, AccountSigns(ctx.Balance)...)
	out = append(out, RatioWarnings(metrics)...)
	if ctx.Ledger != nil {
		values := ctx.Ledger.Column(ctx.Ledger.CurrentCol)
		for i, flagged := range DetectOutliers(values, DefaultOutlierThreshold) {
			if !flagged {
				continue
			}
			out = append(out, Warning{Kind: KindOutlier,
				Message: fmt.Sprintf("account %q deviates more than %.0f standard deviations from the monthly mean",
					ctx.Ledger.Rows[i].DisplayName, DefaultOutlierThreshold)})
		}
	}
	return out
}

func sumClass(table *sheets.BalanceTable, code string) float64 {
	sum := 0.0
	for _, row := range table.Rows {
		if row.Level == levelClass && row.Code == code {
			sum += row.Closing
		}
	}
	return sum
}
