package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ArielSanroj/cfobot/internal/budget"
	"github.com/ArielSanroj/cfobot/internal/charts"
	"github.com/ArielSanroj/cfobot/internal/checks"
	"github.com/ArielSanroj/cfobot/internal/export"
	"github.com/ArielSanroj/cfobot/internal/kpi"
	"github.com/ArielSanroj/cfobot/internal/months"
	"github.com/ArielSanroj/cfobot/internal/sheets"
	"github.com/ArielSanroj/cfobot/internal/workbook"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeSVG  = "image/svg+xml"
)

// Repository persists runs, artifacts and report payloads.
type Repository interface {
	InsertRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id uuid.UUID) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status RunStatus) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	CompleteRun(ctx context.Context, id uuid.UUID, month string, warnings int) error
	SavePayload(ctx context.Context, id uuid.UUID, report *Report) error
	LoadPayload(ctx context.Context, id uuid.UUID) (*Report, error)
	InsertArtifacts(ctx context.Context, artifacts []Artifact) error
	ListArtifacts(ctx context.Context, runID uuid.UUID) ([]Artifact, error)
	GetArtifact(ctx context.Context, runID uuid.UUID, name string) (Artifact, error)
}

// Config carries the service's file locations and budget baselines.
type Config struct {
	ReportsDir string
	Pattern    string
	OutputDir  string
	Budget     budget.Config
}

// Service coordinates report analyses: run lifecycle, computation and
// artifact generation.
type Service struct {
	repo     Repository
	cache    *Cache
	cfg      Config
	logger   *slog.Logger
	resolver *months.Resolver
	now      func() time.Time
}

// NewService builds the service.
func NewService(repo Repository, cache *Cache, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		resolver: months.NewResolver(),
		now:      time.Now,
	}
}

// WithNow overrides the service clock, month detection included, for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
		s.resolver = months.NewResolver(months.WithNow(fn))
	}
}

// SaveUpload stores an uploaded workbook in the reports directory under a
// sanitized name and returns its path.
func (s *Service) SaveUpload(filename string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".xls" && ext != ".xlsx" {
		return "", checks.ErrNotExcel
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	safe := checks.SanitizeFilenameComponent(base)
	if err := os.MkdirAll(s.cfg.ReportsDir, 0o755); err != nil {
		return "", fmt.Errorf("analysis: reports dir: %w", err)
	}
	path := filepath.Join(s.cfg.ReportsDir, safe+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("analysis: save upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("analysis: save upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("analysis: save upload: %w", err)
	}
	return path, nil
}

// TriggerFile inserts a pending run for the given workbook path.
func (s *Service) TriggerFile(ctx context.Context, path string) (Run, error) {
	if err := checks.ValidateReportPath(path); err != nil {
		return Run{}, err
	}
	now := s.now().UTC()
	run := Run{
		ID:         uuid.New(),
		SourceFile: path,
		Status:     RunPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.InsertRun(ctx, run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// TriggerLatest locates the newest report in the reports directory and
// inserts a pending run for it.
func (s *Service) TriggerLatest(ctx context.Context) (Run, error) {
	path, err := workbook.FindLatest(s.cfg.ReportsDir, s.cfg.Pattern)
	if err != nil {
		return Run{}, err
	}
	return s.TriggerFile(ctx, path)
}

// GetRun returns run metadata by id.
func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	return s.repo.GetRun(ctx, id)
}

// ListRuns returns the most recent runs.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListRuns(ctx, limit)
}

// Report returns the computed payload of a ready run, via the cache.
func (s *Service) Report(ctx context.Context, id uuid.UUID) (*Report, error) {
	key, err := s.cache.BuildKey(ctx, keyReport(id)...)
	if err != nil {
		return nil, err
	}
	var report Report
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
		run, err := s.repo.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		if run.Status != RunReady {
			return nil, ErrRunNotReady
		}
		payload, err := s.repo.LoadPayload(ctx, id)
		if err != nil {
			return nil, err
		}
		if payload == nil {
			return nil, ErrRunNotReady
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListArtifacts returns the artifacts recorded for a run.
func (s *Service) ListArtifacts(ctx context.Context, runID uuid.UUID) ([]Artifact, error) {
	return s.repo.ListArtifacts(ctx, runID)
}

// GetArtifact returns one artifact of a run by file name.
func (s *Service) GetArtifact(ctx context.Context, runID uuid.UUID, name string) (Artifact, error) {
	return s.repo.GetArtifact(ctx, runID, name)
}

// Process performs the analysis for a pending run and persists results,
// artifacts and the final status.
func (s *Service) Process(ctx context.Context, id uuid.UUID) error {
	run, err := s.repo.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, RunRunning); err != nil {
		return err
	}
	report, artifacts, err := s.analyze(ctx, run)
	if err != nil {
		_ = s.repo.MarkFailed(ctx, id, err.Error())
		return err
	}
	if err := s.repo.SavePayload(ctx, id, report); err != nil {
		_ = s.repo.MarkFailed(ctx, id, err.Error())
		return err
	}
	if err := s.repo.InsertArtifacts(ctx, artifacts); err != nil {
		_ = s.repo.MarkFailed(ctx, id, err.Error())
		return err
	}
	if err := s.repo.CompleteRun(ctx, id, report.Month, len(report.Warnings)); err != nil {
		return err
	}
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("cache bump", slog.Any("error", err))
	}
	return nil
}

func (s *Service) analyze(ctx context.Context, run Run) (*Report, []Artifact, error) {
	wb, err := workbook.Open(run.SourceFile)
	if err != nil {
		return nil, nil, err
	}
	rctx, err := sheets.Load(wb, s.resolver)
	if err != nil {
		return nil, nil, err
	}
	consolidated, err := sheets.Consolidate(wb, s.resolver)
	if err != nil {
		return nil, nil, err
	}

	budgetRes := budget.Compute(rctx, s.cfg.Budget)
	kpiRes := kpi.Compute(rctx, nil)
	warnings := checks.Evaluate(rctx, kpiRes.Metrics)

	report := &Report{
		Month:       rctx.Month,
		Months:      rctx.Months,
		MonthColumn: rctx.LedgerCol,
		SourceFile:  run.SourceFile,
		Budget:      budgetRes,
		KPIs:        kpiRes,
		Balances:    monthBalances(consolidated),
		Warnings:    warnings,
		GeneratedAt: s.now().UTC(),
	}
	if diff, ok := rctx.Cover.Difference(); ok {
		report.Reconciliation = &diff
	}

	artifacts, err := s.writeArtifacts(ctx, run.ID, rctx, consolidated, budgetRes, kpiRes)
	if err != nil {
		return nil, nil, err
	}
	return report, artifacts, nil
}

type artifactSpec struct {
	kind        string
	contentType string
	name        string
	write       func(io.Writer) error
}

func (s *Service) writeArtifacts(ctx context.Context, runID uuid.UUID, rctx *sheets.ReportingContext, consolidated *sheets.ConsolidatedBalance, budgetRes *budget.Result, kpiRes *kpi.Result) ([]Artifact, error) {
	month := rctx.Month
	specs := []artifactSpec{
		{
			kind:        ArtifactWorkbook,
			contentType: contentTypeXLSX,
			name:        export.Filename(export.PrefixConsolidated, month, ".xlsx"),
			write:       func(w io.Writer) error { return export.WriteConsolidatedXLSX(w, consolidated) },
		},
		{
			kind:        ArtifactCSV,
			contentType: contentTypeCSV,
			name:        export.Filename(export.PrefixConsolidated, month, ".csv"),
			write:       func(w io.Writer) error { return export.WriteConsolidatedCSV(w, consolidated) },
		},
		{
			kind:        ArtifactWorkbook,
			contentType: contentTypeXLSX,
			name:        export.Filename(export.PrefixBudget, month, ".xlsx"),
			write:       func(w io.Writer) error { return export.WriteBudgetXLSX(w, budgetRes) },
		},
		{
			kind:        ArtifactCSV,
			contentType: contentTypeCSV,
			name:        export.Filename(export.PrefixKPIs, month, ".csv"),
			write:       func(w io.Writer) error { return export.WriteKPICSV(w, kpiRes) },
		},
	}

	figures, err := renderFigures(rctx, budgetRes, kpiRes)
	if err != nil {
		return nil, err
	}
	for _, fig := range figures {
		fig := fig
		specs = append(specs, artifactSpec{
			kind:        ArtifactFigure,
			contentType: contentTypeSVG,
			name:        export.Filename(fig.Name, month, ".svg"),
			write:       func(w io.Writer) error { return export.WriteSVG(w, fig) },
		})
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("analysis: output dir: %w", err)
	}

	artifacts := make([]Artifact, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(s.cfg.OutputDir, spec.name)
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("analysis: create %s: %w", spec.name, err)
			}
			if err := spec.write(f); err != nil {
				_ = f.Close()
				return fmt.Errorf("analysis: write %s: %w", spec.name, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("analysis: close %s: %w", spec.name, err)
			}
			artifacts[i] = Artifact{
				ID:          uuid.New(),
				RunID:       runID,
				Kind:        spec.kind,
				Name:        spec.name,
				Path:        path,
				ContentType: spec.contentType,
				CreatedAt:   s.now().UTC(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func renderFigures(rctx *sheets.ReportingContext, budgetRes *budget.Result, kpiRes *kpi.Result) ([]*charts.Figure, error) {
	out := make([]*charts.Figure, 0, 4)
	spending, err := charts.MonthlySpending(rctx)
	if err != nil {
		return nil, err
	}
	out = append(out, spending)
	dashboard, err := charts.KPIDashboard(kpiRes)
	if err != nil {
		return nil, err
	}
	out = append(out, dashboard)
	distribution, err := charts.DistributionPie(budgetRes)
	if err != nil {
		return nil, err
	}
	if distribution != nil {
		out = append(out, distribution)
	}
	categories, err := charts.CategoryPie(budgetRes)
	if err != nil {
		return nil, err
	}
	if categories != nil {
		out = append(out, categories)
	}
	return out, nil
}

// monthBalances reduces the consolidated rows to one assets/liabilities/
// equity triple per month, in sheet order.
func monthBalances(consolidated *sheets.ConsolidatedBalance) []MonthBalance {
	if consolidated == nil {
		return nil
	}
	var out []MonthBalance
	index := make(map[string]int)
	for _, row := range consolidated.Rows {
		i, ok := index[row.Month]
		if !ok {
			i = len(out)
			index[row.Month] = i
			out = append(out, MonthBalance{Month: row.Month})
		}
		switch row.Code {
		case "1":
			out[i].Assets += row.Closing
		case "2":
			out[i].Liabilities += math.Abs(row.Closing)
		case "3":
			out[i].Equity += math.Abs(row.Closing)
		}
	}
	return out
}
