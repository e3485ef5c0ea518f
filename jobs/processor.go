package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ArielSanroj/cfobot/internal/analysis"
	"github.com/ArielSanroj/cfobot/internal/insights"
	jobmetrics "github.com/ArielSanroj/cfobot/internal/jobs"
	"github.com/ArielSanroj/cfobot/internal/mailer"
	"github.com/ArielSanroj/cfobot/internal/months"
	"github.com/ArielSanroj/cfobot/internal/sheets"
	"github.com/ArielSanroj/cfobot/internal/workbook"
)

// AnalysisService is the slice of the analysis service the processor needs.
type AnalysisService interface {
	Process(ctx context.Context, id uuid.UUID) error
	GetRun(ctx context.Context, id uuid.UUID) (analysis.Run, error)
	Report(ctx context.Context, id uuid.UUID) (*analysis.Report, error)
	TriggerFile(ctx context.Context, path string) (analysis.Run, error)
	ListRuns(ctx context.Context, limit int) ([]analysis.Run, error)
}

// Sender delivers composed emails.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// InsightsProvider generates model narrative for the insights-enriched mail.
type InsightsProvider interface {
	Analyze(ctx context.Context, report *analysis.Report) *insights.Insights
}

// Enqueuer schedules follow-up tasks discovered during a scan.
type Enqueuer interface {
	EnqueueAnalyze(ctx context.Context, runID uuid.UUID) error
}

// AnalysisObserver counts finished analyses by status.
type AnalysisObserver interface {
	ObserveAnalysis(status string)
}

// ProcessorConfig carries the inbox location and default mail recipients.
type ProcessorConfig struct {
	ReportsDir string
	Pattern    string
	Recipients []string
}

// Processor implements the task handlers.
type Processor struct {
	service  AnalysisService
	sender   Sender
	composer *mailer.Composer
	insights InsightsProvider
	queue    Enqueuer
	observer AnalysisObserver
	metrics  *jobmetrics.Metrics
	logger   *slog.Logger
	cfg      ProcessorConfig
	now      func() time.Time
}

// NewProcessor wires the task handlers. Sender, composer, insights, queue and
// observer may be nil; the affected behaviour is skipped.
func NewProcessor(service AnalysisService, sender Sender, composer *mailer.Composer, provider InsightsProvider, queue Enqueuer, observer AnalysisObserver, metrics *jobmetrics.Metrics, logger *slog.Logger, cfg ProcessorConfig) *Processor {
	return &Processor{
		service:  service,
		sender:   sender,
		composer: composer,
		insights: provider,
		queue:    queue,
		observer: observer,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Handlers returns the task registrations for the worker mux.
func (p *Processor) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskAnalyzeReport, Handler: p.HandleAnalyze},
		{Type: TaskSendMail, Handler: p.HandleMail},
		{Type: TaskScanReports, Handler: p.HandleScan},
	}
}

// HandleAnalyze processes one pending run. Malformed workbooks are permanent
// failures and are not retried; a failure notice goes to the default
// recipients either way.
func (p *Processor) HandleAnalyze(ctx context.Context, t *asynq.Task) error {
	var payload AnalyzePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := p.metrics.Track(TaskAnalyzeReport)

	err := p.service.Process(ctx, payload.RunID)
	if err == nil {
		p.observeAnalysis(string(analysis.RunReady))
		return tracker.End(nil)
	}

	p.observeAnalysis(string(analysis.RunFailed))
	p.logError("analyze run", err, slog.String("run_id", payload.RunID.String()))
	p.notifyFailure(ctx, payload.RunID, err)
	if isPermanent(err) {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}
	return tracker.End(err)
}

// HandleMail composes and delivers the summary email of a ready run.
func (p *Processor) HandleMail(ctx context.Context, t *asynq.Task) error {
	var payload MailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if p.sender == nil || p.composer == nil {
		p.logWarn("mail task skipped: mailer not configured")
		return nil
	}
	tracker := p.metrics.Track(TaskSendMail)

	report, err := p.service.Report(ctx, payload.RunID)
	if err != nil {
		if errors.Is(err, analysis.ErrRunNotFound) {
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		return tracker.End(err)
	}

	var msg mailer.Message
	if payload.WithInsights && p.insights != nil {
		ins := p.insights.Analyze(ctx, report)
		msg, err = p.composer.Insights(report, ins)
	} else {
		msg, err = p.composer.Summary(report)
	}
	if err != nil {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}

	msg.To = payload.Recipients
	if len(msg.To) == 0 {
		msg.To = p.cfg.Recipients
	}
	return tracker.End(p.sender.Send(ctx, msg))
}

// HandleScan looks for a new workbook in the reports inbox and enqueues its
// analysis. An inbox without new files is a no-op.
func (p *Processor) HandleScan(ctx context.Context, t *asynq.Task) error {
	tracker := p.metrics.Track(TaskScanReports)

	path, err := workbook.FindLatest(p.cfg.ReportsDir, p.cfg.Pattern)
	if err != nil {
		if errors.Is(err, workbook.ErrNoReport) {
			return tracker.End(nil)
		}
		return tracker.End(err)
	}

	runs, err := p.service.ListRuns(ctx, 1)
	if err != nil {
		return tracker.End(err)
	}
	if len(runs) > 0 && runs[0].SourceFile == path {
		return tracker.End(nil)
	}

	run, err := p.service.TriggerFile(ctx, path)
	if err != nil {
		return tracker.End(err)
	}
	p.logInfo("scan triggered analysis", slog.String("run_id", run.ID.String()), slog.String("source", path))
	if p.queue != nil {
		if err := p.queue.EnqueueAnalyze(ctx, run.ID); err != nil {
			return tracker.End(err)
		}
	}
	return tracker.End(nil)
}

// notifyFailure mails the failure notice to the default recipients.
func (p *Processor) notifyFailure(ctx context.Context, runID uuid.UUID, cause error) {
	if p.sender == nil || p.composer == nil || len(p.cfg.Recipients) == 0 {
		return
	}
	source := runID.String()
	if run, err := p.service.GetRun(ctx, runID); err == nil {
		source = run.SourceFile
	}
	msg, err := p.composer.Failure(source, cause.Error(), p.now().UTC())
	if err != nil {
		p.logError("compose failure notice", err)
		return
	}
	msg.To = p.cfg.Recipients
	if err := p.sender.Send(ctx, msg); err != nil {
		p.logError("send failure notice", err)
	}
}

// isPermanent reports whether the analysis failed on the workbook itself,
// where retrying cannot help.
func isPermanent(err error) bool {
	return errors.Is(err, months.ErrNotDetected) ||
		errors.Is(err, sheets.ErrMissingSheets) ||
		errors.Is(err, sheets.ErrNoBalanceSheet) ||
		errors.Is(err, sheets.ErrBalanceShape) ||
		errors.Is(err, sheets.ErrLedgerShape) ||
		errors.Is(err, sheets.ErrNoMonthColumns) ||
		errors.Is(err, sheets.ErrNoTotalColumns) ||
		errors.Is(err, sheets.ErrNoBalanceRows) ||
		errors.Is(err, analysis.ErrRunNotFound)
}

func (p *Processor) observeAnalysis(status string) {
	if p.observer != nil {
		p.observer.ObserveAnalysis(status)
	}
}

func (p *Processor) logError(msg string, err error, attrs ...any) {
	if p.logger != nil {
		p.logger.Error(msg, append([]any{slog.Any("error", err)}, attrs...)...)
	}
}

func (p *Processor) logWarn(msg string, attrs ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, attrs...)
	}
}

func (p *Processor) logInfo(msg string, attrs ...any) {
	if p.logger != nil {
		p.logger.Info(msg, attrs...)
	}
}
