package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ArielSanroj/cfobot/internal/analysis"
	"github.com/ArielSanroj/cfobot/internal/budget"
	"github.com/ArielSanroj/cfobot/internal/insights"
	"github.com/ArielSanroj/cfobot/internal/kpi"
	"github.com/ArielSanroj/cfobot/internal/mailer"
	"github.com/ArielSanroj/cfobot/internal/sheets"
	_ "github.com/ArielSanroj/cfobot/internal/testing/guard"
)

type stubService struct {
	processErr error
	processed  []uuid.UUID
	report     *analysis.Report
	reportErr  error
	runs       []analysis.Run
	triggered  []string
}

func (s *stubService) Process(ctx context.Context, id uuid.UUID) error {
	s.processed = append(s.processed, id)
	return s.processErr
}

func (s *stubService) GetRun(ctx context.Context, id uuid.UUID) (analysis.Run, error) {
	return analysis.Run{ID: id, SourceFile: "reportes/INFORME DE FEBRERO APRU- 2025 .xlsx"}, nil
}

func (s *stubService) Report(ctx context.Context, id uuid.UUID) (*analysis.Report, error) {
	if s.reportErr != nil {
		return nil, s.reportErr
	}
	return s.report, nil
}

func (s *stubService) TriggerFile(ctx context.Context, path string) (analysis.Run, error) {
	s.triggered = append(s.triggered, path)
	return analysis.Run{ID: uuid.New(), SourceFile: path, Status: analysis.RunPending}, nil
}

func (s *stubService) ListRuns(ctx context.Context, limit int) ([]analysis.Run, error) {
	return s.runs, nil
}

type stubSender struct {
	sent []mailer.Message
	err  error
}

func (s *stubSender) Send(ctx context.Context, msg mailer.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

type stubInsights struct{ called bool }

func (s *stubInsights) Analyze(ctx context.Context, report *analysis.Report) *insights.Insights {
	s.called = true
	return &insights.Insights{ExecutiveSummary: "Resumen generado por el modelo."}
}

type stubQueue struct{ enqueued []uuid.UUID }

func (s *stubQueue) EnqueueAnalyze(ctx context.Context, runID uuid.UUID) error {
	s.enqueued = append(s.enqueued, runID)
	return nil
}

type stubObserver struct{ statuses []string }

func (s *stubObserver) ObserveAnalysis(status string) {
	s.statuses = append(s.statuses, status)
}

func testReport() *analysis.Report {
	return &analysis.Report{
		Month: "Febrero",
		Budget: &budget.Result{
			Summary: []budget.SummaryRow{
				{Category: "Ingresos", Actual: 120000000, Budget: 100000000, Executed: 120},
				{Category: "Gastos Totales", Actual: 80000000, Budget: 125000000, Executed: 64},
			},
		},
		KPIs:        &kpi.Result{Names: []string{kpi.MetricEBITDA}, Metrics: map[string]float64{kpi.MetricEBITDA: 1}},
		GeneratedAt: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func newTestProcessor(t *testing.T, service *stubService, sender *stubSender, provider InsightsProvider, queue Enqueuer, cfg ProcessorConfig) (*Processor, *stubObserver) {
	t.Helper()
	composer, err := mailer.NewComposer()
	require.NoError(t, err)
	observer := &stubObserver{}
	return NewProcessor(service, sender, composer, provider, queue, observer, nil, nil, cfg), observer
}

func TestHandleAnalyzeSuccess(t *testing.T) {
	service := &stubService{}
	p, observer := newTestProcessor(t, service, nil, nil, nil, ProcessorConfig{})

	id := uuid.New()
	task, err := NewAnalyzeTask(AnalyzePayload{RunID: id})
	require.NoError(t, err)

	require.NoError(t, p.HandleAnalyze(context.Background(), task))
	require.Equal(t, []uuid.UUID{id}, service.processed)
	require.Equal(t, []string{"READY"}, observer.statuses)
}

func TestHandleAnalyzePermanentFailureSkipsRetryAndNotifies(t *testing.T) {
	service := &stubService{processErr: sheets.ErrMissingSheets}
	sender := &stubSender{}
	p, observer := newTestProcessor(t, service, sender, nil, nil, ProcessorConfig{Recipients: []string{"junta@acme.co"}})

	task, err := NewAnalyzeTask(AnalyzePayload{RunID: uuid.New()})
	require.NoError(t, err)

	err = p.HandleAnalyze(context.Background(), task)
	require.ErrorContains(t, err, "skip retry")
	require.Equal(t, []string{"FAILED"}, observer.statuses)
	require.Len(t, sender.sent, 1)
	require.Equal(t, []string{"junta@acme.co"}, sender.sent[0].To)
	require.Contains(t, sender.sent[0].HTML, "required sheets missing")
}

func TestHandleAnalyzeTransientFailureRetries(t *testing.T) {
	service := &stubService{processErr: errors.New("pgx: connection refused")}
	p, _ := newTestProcessor(t, service, nil, nil, nil, ProcessorConfig{})

	task, err := NewAnalyzeTask(AnalyzePayload{RunID: uuid.New()})
	require.NoError(t, err)

	err = p.HandleAnalyze(context.Background(), task)
	require.Error(t, err)
	require.NotContains(t, err.Error(), "skip retry")
}

func TestHandleMailSummaryUsesDefaultRecipients(t *testing.T) {
	service := &stubService{report: testReport()}
	sender := &stubSender{}
	p, _ := newTestProcessor(t, service, sender, nil, nil, ProcessorConfig{Recipients: []string{"gerencia@acme.co"}})

	task, err := NewMailTask(MailPayload{RunID: uuid.New()})
	require.NoError(t, err)

	require.NoError(t, p.HandleMail(context.Background(), task))
	require.Len(t, sender.sent, 1)
	require.Equal(t, []string{"gerencia@acme.co"}, sender.sent[0].To)
	require.Equal(t, "Resumen Financiero - Febrero 2025", sender.sent[0].Subject)
}

func TestHandleMailWithInsights(t *testing.T) {
	service := &stubService{report: testReport()}
	sender := &stubSender{}
	provider := &stubInsights{}
	p, _ := newTestProcessor(t, service, sender, provider, nil, ProcessorConfig{Recipients: []string{"x@acme.co"}})

	task, err := NewMailTask(MailPayload{RunID: uuid.New(), WithInsights: true})
	require.NoError(t, err)

	require.NoError(t, p.HandleMail(context.Background(), task))
	require.True(t, provider.called)
	require.Len(t, sender.sent, 1)
	require.Contains(t, sender.sent[0].HTML, "Resumen generado por el modelo.")
}

func TestHandleMailMissingRunSkipsRetry(t *testing.T) {
	service := &stubService{reportErr: analysis.ErrRunNotFound}
	sender := &stubSender{}
	p, _ := newTestProcessor(t, service, sender, nil, nil, ProcessorConfig{})

	task, err := NewMailTask(MailPayload{RunID: uuid.New()})
	require.NoError(t, err)

	err = p.HandleMail(context.Background(), task)
	require.ErrorContains(t, err, "skip retry")
	require.Empty(t, sender.sent)
}

func TestHandleScanTriggersNewWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "INFORME DE FEBRERO APRU- 2025 .xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	service := &stubService{}
	queue := &stubQueue{}
	p, _ := newTestProcessor(t, service, nil, nil, queue, ProcessorConfig{ReportsDir: dir, Pattern: "INFORME DE * APRU- 2025 .xls*"})

	require.NoError(t, p.HandleScan(context.Background(), NewScanTask()))
	require.Equal(t, []string{path}, service.triggered)
	require.Len(t, queue.enqueued, 1)
}

func TestHandleScanSkipsKnownWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "INFORME DE FEBRERO APRU- 2025 .xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	service := &stubService{runs: []analysis.Run{{SourceFile: path}}}
	queue := &stubQueue{}
	p, _ := newTestProcessor(t, service, nil, nil, queue, ProcessorConfig{ReportsDir: dir, Pattern: "INFORME DE * APRU- 2025 .xls*"})

	require.NoError(t, p.HandleScan(context.Background(), NewScanTask()))
	require.Empty(t, service.triggered)
	require.Empty(t, queue.enqueued)
}

func TestHandleScanEmptyInboxIsNoOp(t *testing.T) {
	service := &stubService{}
	p, _ := newTestProcessor(t, service, nil, nil, nil, ProcessorConfig{ReportsDir: t.TempDir(), Pattern: "*.xlsx"})

	require.NoError(t, p.HandleScan(context.Background(), NewScanTask()))
	require.Empty(t, service.triggered)
}
