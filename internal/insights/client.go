package insights

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ArielSanroj/cfobot/internal/analysis"
	"github.com/ArielSanroj/cfobot/internal/kpi"
)

// Config selects the Ollama endpoint and generation parameters.
type Config struct {
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client generates financial narrative through Ollama's OpenAI-compatible
// chat endpoint. Failures degrade to canned insights rather than errors.
type Client struct {
	api    completionAPI
	cfg    Config
	logger *slog.Logger
}

// NewClient builds a client against the configured Ollama base URL.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	oc := openai.DefaultConfig("ollama")
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/v1"
	return &Client{api: openai.NewClientWithConfig(oc), cfg: cfg, logger: logger}
}

// Analyze asks the model for structured insights over a computed report.
func (c *Client) Analyze(ctx context.Context, report *analysis.Report) *Insights {
	if report == nil || report.Budget == nil || report.KPIs == nil {
		return fallbackInsights(monthOf(report))
	}
	prompt := analysisPrompt(formatFinancialData(report))
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.cfg.Temperature,
		TopP:        0.9,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil || len(resp.Choices) == 0 {
		if err != nil && c.logger != nil {
			c.logger.Error("insights analysis", slog.Any("error", err))
		}
		return fallbackInsights(report.Month)
	}
	return parseContent(resp.Choices[0].Message.Content)
}

// EnhancedContent asks the model for a prose executive summary that folds the
// structured insights back in, for the insights-enriched board report.
func (c *Client) EnhancedContent(ctx context.Context, report *analysis.Report, ins *Insights) string {
	if report == nil || report.Budget == nil || report.KPIs == nil || ins == nil {
		return enhancedFallback(monthOf(report), ins)
	}
	prompt := enhancedPrompt(formatFinancialData(report), ins)
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.4,
		MaxTokens:   1000,
	})
	if err != nil || len(resp.Choices) == 0 {
		if err != nil && c.logger != nil {
			c.logger.Error("insights enhanced content", slog.Any("error", err))
		}
		return enhancedFallback(report.Month, ins)
	}
	return resp.Choices[0].Message.Content
}

var moneyPrinter = message.NewPrinter(language.English)

func formatFinancialData(report *analysis.Report) string {
	summary := report.Budget.Summary
	var ingresos, gastos, ejecutadoIngresos, ejecutadoGastos, budgetIngresos, budgetGastos float64
	if len(summary) > 0 {
		ingresos = summary[0].Actual
		ejecutadoIngresos = summary[0].Executed
		budgetIngresos = summary[0].Budget
	}
	if len(summary) > 1 {
		gastos = summary[1].Actual
		ejecutadoGastos = summary[1].Executed
		budgetGastos = summary[1].Budget
	}
	metrics := report.KPIs.Metrics
	cats := report.Budget.Categories

	return fmt.Sprintf(`
FINANCIAL DATA FOR ANALYSIS - %s 2025

INCOME STATEMENT:
- Total Revenue: %s COP
- Total Expenses: %s COP
- EBITDA: %s COP

BUDGET EXECUTION:
- Revenue Execution: %.1f%% of monthly budget
- Expense Execution: %.1f%% of monthly budget
- Monthly Revenue Budget: %s COP
- Monthly Expense Budget: %s COP

FINANCIAL RATIOS:
- Current Ratio: %.2f
- Gross Margin: %.2f%%
- Net Margin: %.2f%%
- ROE: %.2f%%

EXPENSE BREAKDOWN:
- Administrative Expenses: %s COP
- Other Expenses: %s COP
- Sales Costs: %s COP
- Production Costs: %s COP

MONTHLY TREND DATA:
Available months: %s
Current month column: %s
`,
		report.Month,
		money(ingresos), money(gastos), money(metrics[kpi.MetricEBITDA]),
		ejecutadoIngresos, ejecutadoGastos,
		money(budgetIngresos), money(budgetGastos),
		metrics[kpi.MetricCurrentRatio], metrics[kpi.MetricGrossMargin],
		metrics[kpi.MetricNetMargin], metrics[kpi.MetricROE],
		money(cats.Admin), money(cats.Other), money(cats.Sales), money(cats.Production),
		strings.Join(report.Months, ", "), report.MonthColumn,
	)
}

func money(v float64) string {
	return moneyPrinter.Sprintf("$%.0f", v)
}

func analysisPrompt(financialData string) string {
	return fmt.Sprintf(`
You are a senior financial analyst and CFO advisor. Analyze the following financial data and provide comprehensive insights.

%s

Please provide a detailed analysis in the following JSON format:

{
    "executive_summary": "A 2-3 sentence executive summary of the financial performance",
    "key_insights": [
        "Key insight 1 about financial performance",
        "Key insight 2 about trends or patterns",
        "Key insight 3 about budget execution"
    ],
    "risk_assessment": "Assessment of financial risks and concerns",
    "recommendations": [
        "Specific actionable recommendation 1",
        "Specific actionable recommendation 2",
        "Specific actionable recommendation 3"
    ],
    "trend_analysis": "Analysis of trends and patterns in the data",
    "budget_analysis": "Detailed analysis of budget execution performance",
    "kpi_analysis": "Analysis of key performance indicators and ratios"
}

Focus on:
1. Financial health and performance
2. Budget execution efficiency
3. Risk identification and mitigation
4. Actionable recommendations for improvement
5. Trend analysis and forecasting insights
6. Industry benchmarking where applicable

Provide specific, actionable insights based on the data provided.
`, financialData)
}

func enhancedPrompt(financialData string, ins *Insights) string {
	return fmt.Sprintf(`
You are a professional financial report writer. Create an enhanced executive summary for a board report using the following data and AI insights.

FINANCIAL DATA:
%s

AI INSIGHTS:
- Executive Summary: %s
- Key Insights: %s
- Risk Assessment: %s
- Recommendations: %s
- Trend Analysis: %s
- Budget Analysis: %s
- KPI Analysis: %s

Create a professional, executive-level report summary that:
1. Integrates the AI insights naturally
2. Maintains a professional tone
3. Provides actionable recommendations
4. Highlights key financial metrics
5. Addresses risks and opportunities
6. Is suitable for board presentation

Format as a comprehensive executive summary (2-3 paragraphs).
`,
		financialData,
		ins.ExecutiveSummary,
		strings.Join(ins.KeyInsights, ", "),
		ins.RiskAssessment,
		strings.Join(ins.Recommendations, ", "),
		ins.TrendAnalysis,
		ins.BudgetAnalysis,
		ins.KPIAnalysis,
	)
}

func enhancedFallback(month string, ins *Insights) string {
	if ins == nil {
		ins = fallbackInsights(month)
	}
	recommendation := "Continue monitoring financial performance."
	if len(ins.Recommendations) > 0 {
		recommendation = ins.Recommendations[0]
	}
	return fmt.Sprintf(`
Executive Summary - %s 2025

%s

Key Financial Performance:
The company's financial performance for %s 2025 shows significant insights that require attention. %s

Strategic Recommendations:
%s
`, month, ins.ExecutiveSummary, month, ins.BudgetAnalysis, recommendation)
}

func monthOf(report *analysis.Report) string {
	if report == nil {
		return ""
	}
	return report.Month
}
