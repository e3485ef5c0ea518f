package analysishttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ArielSanroj/cfobot/internal/analysis"
	"github.com/ArielSanroj/cfobot/internal/checks"
	"github.com/ArielSanroj/cfobot/internal/insights"
	"github.com/ArielSanroj/cfobot/internal/platform/httpx"
	"github.com/ArielSanroj/cfobot/internal/workbook"
)

const maxUploadBytes = 32 << 20

// AnalysisService defines the run data contract used by the handler.
type AnalysisService interface {
	SaveUpload(filename string, src io.Reader) (string, error)
	TriggerFile(ctx context.Context, path string) (analysis.Run, error)
	TriggerLatest(ctx context.Context) (analysis.Run, error)
	GetRun(ctx context.Context, id uuid.UUID) (analysis.Run, error)
	ListRuns(ctx context.Context, limit int) ([]analysis.Run, error)
	Report(ctx context.Context, id uuid.UUID) (*analysis.Report, error)
	ListArtifacts(ctx context.Context, runID uuid.UUID) ([]analysis.Artifact, error)
	GetArtifact(ctx context.Context, runID uuid.UUID, name string) (analysis.Artifact, error)
}

// InsightsService generates model narrative for a computed report.
type InsightsService interface {
	Analyze(ctx context.Context, report *analysis.Report) *insights.Insights
}

// TaskQueue enqueues background work for a run.
type TaskQueue interface {
	EnqueueAnalyze(ctx context.Context, runID uuid.UUID) error
	EnqueueMail(ctx context.Context, runID uuid.UUID, recipients []string, withInsights bool) error
}

// Handler coordinates the JSON API around report analyses.
type Handler struct {
	logger   *slog.Logger
	service  AnalysisService
	insights InsightsService
	queue    TaskQueue
	board    BoardService
	validate *validator.Validate
}

// NewHandler constructs the analysis HTTP handler.
func NewHandler(logger *slog.Logger, service AnalysisService, insightsSvc InsightsService, queue TaskQueue) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		insights: insightsSvc,
		queue:    queue,
		validate: validator.New(),
	}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/reports", h.uploadReport)
		r.Post("/runs", h.triggerRun)
		r.Get("/runs", h.listRuns)
		r.Route("/runs/{runID}", func(r chi.Router) {
			r.Get("/", h.getRun)
			r.Get("/kpis", h.getKPIs)
			r.Get("/budget", h.getBudget)
			r.Get("/balance", h.getBalance)
			r.Get("/warnings", h.getWarnings)
			r.Get("/artifacts", h.listArtifacts)
			r.Get("/artifacts/{name}", h.downloadArtifact)
			r.Post("/insights", h.generateInsights)
			r.Post("/board", h.renderBoard)
			r.Post("/email", h.sendEmail)
		})
	})
}

func (h *Handler) uploadReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "multipart form expected")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "file field required")
		return
	}
	defer func() { _ = file.Close() }()

	path, err := h.service.SaveUpload(header.Filename, file)
	if err != nil {
		h.respondError(w, "save upload", err)
		return
	}
	run, err := h.service.TriggerFile(r.Context(), path)
	if err != nil {
		h.respondError(w, "trigger run", err)
		return
	}
	h.enqueueAnalyze(r.Context(), run.ID)
	httpx.JSON(w, http.StatusAccepted, run)
}

type triggerRequest struct {
	SourceFile string `json:"source_file" validate:"omitempty,min=1"`
}

func (h *Handler) triggerRun(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
			return
		}
		if err := h.validate.Struct(req); err != nil {
			h.respondValidation(w, err)
			return
		}
	}

	var (
		run analysis.Run
		err error
	)
	if req.SourceFile != "" {
		run, err = h.service.TriggerFile(r.Context(), req.SourceFile)
	} else {
		run, err = h.service.TriggerLatest(r.Context())
	}
	if err != nil {
		h.respondError(w, "trigger run", err)
		return
	}
	h.enqueueAnalyze(r.Context(), run.ID)
	httpx.JSON(w, http.StatusAccepted, run)
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))
	runs, err := h.service.ListRuns(r.Context(), limit)
	if err != nil {
		h.respondError(w, "list runs", err)
		return
	}
	if runs == nil {
		runs = []analysis.Run{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}
	run, err := h.service.GetRun(r.Context(), id)
	if err != nil {
		h.respondError(w, "get run", err)
		return
	}
	artifacts, err := h.service.ListArtifacts(r.Context(), id)
	if err != nil {
		h.respondError(w, "list artifacts", err)
		return
	}
	if artifacts == nil {
		artifacts = []analysis.Artifact{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"run": run, "artifacts": artifacts})
}

func (h *Handler) getKPIs(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, report.KPIs)
}

func (h *Handler) getBudget(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, report.Budget)
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"month":                     report.Month,
		"balances":                  report.Balances,
		"reconciliation_difference": report.Reconciliation,
	})
}

func (h *Handler) getWarnings(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	warnings := report.Warnings
	if warnings == nil {
		warnings = []checks.Warning{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"month": report.Month, "warnings": warnings})
}

func (h *Handler) listArtifacts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}
	artifacts, err := h.service.ListArtifacts(r.Context(), id)
	if err != nil {
		h.respondError(w, "list artifacts", err)
		return
	}
	if artifacts == nil {
		artifacts = []analysis.Artifact{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"artifacts": artifacts})
}

func (h *Handler) downloadArtifact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	artifact, err := h.service.GetArtifact(r.Context(), id, name)
	if err != nil {
		h.respondError(w, "get artifact", err)
		return
	}
	f, err := os.Open(artifact.Path)
	if err != nil {
		if os.IsNotExist(err) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "artifact file missing")
			return
		}
		h.respondError(w, "open artifact", err)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	if _, err := io.Copy(w, f); err != nil {
		h.logError("stream artifact", err)
	}
}

func (h *Handler) generateInsights(w http.ResponseWriter, r *http.Request) {
	if h.insights == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Insights Unavailable", "insights service not configured")
		return
	}
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	ins := h.insights.Analyze(r.Context(), report)
	httpx.JSON(w, http.StatusOK, map[string]any{"month": report.Month, "insights": ins})
}

type emailRequest struct {
	Recipients   []string `json:"recipients" validate:"omitempty,dive,required,email"`
	WithInsights bool     `json:"with_insights"`
}

func (h *Handler) sendEmail(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "task queue not configured")
		return
	}
	id, ok := h.runID(w, r)
	if !ok {
		return
	}
	var req emailRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
			return
		}
		if err := h.validate.Struct(req); err != nil {
			h.respondValidation(w, err)
			return
		}
	}
	if _, err := h.service.GetRun(r.Context(), id); err != nil {
		h.respondError(w, "get run", err)
		return
	}
	if err := h.queue.EnqueueMail(r.Context(), id, req.Recipients, req.WithInsights); err != nil {
		h.respondError(w, "enqueue mail", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"status": "queued"})
}

func (h *Handler) enqueueAnalyze(ctx context.Context, runID uuid.UUID) {
	if h.queue == nil {
		return
	}
	if err := h.queue.EnqueueAnalyze(ctx, runID); err != nil {
		h.logError("enqueue analyze", err)
	}
}

func (h *Handler) runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "run id must be a UUID")
		return uuid.UUID{}, false
	}
	return id, true
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) (*analysis.Report, bool) {
	id, ok := h.runID(w, r)
	if !ok {
		return nil, false
	}
	report, err := h.service.Report(r.Context(), id)
	if err != nil {
		h.respondError(w, "load report", err)
		return nil, false
	}
	return report, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, analysis.ErrRunNotFound),
		errors.Is(err, analysis.ErrArtifactNotFound),
		errors.Is(err, workbook.ErrNoReport):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, analysis.ErrRunNotReady):
		httpx.Problem(w, http.StatusConflict, "Run Not Ready", err.Error())
	case errors.Is(err, checks.ErrUnsafePath), errors.Is(err, checks.ErrNotExcel):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	default:
		h.logError(op, err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) respondValidation(w http.ResponseWriter, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", strings.Join(parts, "; "))
		return
	}
	httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
}

func (h *Handler) logError(op string, err error) {
	if h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
}

func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
