package boardreport

import (
	"context"

	"github.com/ArielSanroj/cfobot/internal/analysis"
	"github.com/ArielSanroj/cfobot/internal/insights"
)

// InsightsProvider produces the model narrative for the AI variant.
type InsightsProvider interface {
	Analyze(ctx context.Context, report *analysis.Report) *insights.Insights
}

// Service produces rendered board documents from completed reports.
type Service struct {
	builder  *Builder
	renderer *Renderer
	insights InsightsProvider
}

// NewService wires the builder, renderer and optional insights provider.
func NewService(builder *Builder, renderer *Renderer, provider InsightsProvider) *Service {
	return &Service{builder: builder, renderer: renderer, insights: provider}
}

// Generate builds and renders the document for a report. The AI variant
// requires an insights provider.
func (s *Service) Generate(ctx context.Context, report *analysis.Report, variant Variant) (Document, RenderResult, error) {
	var (
		doc Document
		err error
	)
	switch variant {
	case VariantAI:
		if s.insights == nil {
			return Document{}, RenderResult{}, ErrInsightsRequired
		}
		ins := s.insights.Analyze(ctx, report)
		doc, err = s.builder.BuildAI(ctx, report, ins)
	default:
		doc, err = s.builder.Build(ctx, report)
	}
	if err != nil {
		return Document{}, RenderResult{}, err
	}

	result, err := s.renderer.Render(ctx, doc)
	if err != nil {
		return Document{}, RenderResult{}, err
	}
	return doc, result, nil
}
