package analysis

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ArielSanroj/cfobot/internal/budget"
	"github.com/ArielSanroj/cfobot/internal/checks"
	"github.com/ArielSanroj/cfobot/internal/kpi"
)

// RunStatus enumerates the analysis lifecycle values.
type RunStatus string

const (
	// RunPending indicates the run is queued.
	RunPending RunStatus = "PENDING"
	// RunRunning indicates the workbook is being processed.
	RunRunning RunStatus = "RUNNING"
	// RunReady indicates results and artifacts are available.
	RunReady RunStatus = "READY"
	// RunFailed indicates processing aborted with an error.
	RunFailed RunStatus = "FAILED"
)

// Run is one analysis of one report workbook.
type Run struct {
	ID           uuid.UUID `json:"id"`
	SourceFile   string    `json:"source_file"`
	Month        string    `json:"month,omitempty"`
	Status       RunStatus `json:"status"`
	WarningCount int       `json:"warning_count"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Artifact is one file produced by a run.
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	Path        string    `json:"-"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Artifact kinds.
const (
	ArtifactWorkbook = "xlsx"
	ArtifactCSV      = "csv"
	ArtifactFigure   = "svg"
	ArtifactPDF      = "pdf"
)

// MonthBalance summarises one consolidated monthly balance at class level.
type MonthBalance struct {
	Month       string  `json:"month"`
	Assets      float64 `json:"assets"`
	Liabilities float64 `json:"liabilities"`
	Equity      float64 `json:"equity"`
}

// Report is the computed payload of a ready run. It is persisted as JSON and
// served by the query endpoints.
type Report struct {
	Month          string           `json:"month"`
	Months         []string         `json:"months"`
	MonthColumn    string           `json:"month_column"`
	SourceFile     string           `json:"source_file"`
	Budget         *budget.Result   `json:"budget"`
	KPIs           *kpi.Result      `json:"kpis"`
	Balances       []MonthBalance   `json:"balances"`
	Reconciliation *float64         `json:"reconciliation_difference,omitempty"`
	Warnings       []checks.Warning `json:"warnings"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

var (
	// ErrRunNotFound occurs when a run id resolves to nothing.
	ErrRunNotFound = errors.New("analysis: run not found")
	// ErrRunNotReady occurs when results are requested before processing finished.
	ErrRunNotReady = errors.New("analysis: run not ready")
	// ErrArtifactNotFound occurs when a run has no artifact by that name.
	ErrArtifactNotFound = errors.New("analysis: artifact not found")
)
