package analysishttp

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ArielSanroj/cfobot/internal/analysis"
	"github.com/ArielSanroj/cfobot/internal/boardreport"
	"github.com/ArielSanroj/cfobot/internal/export"
	"github.com/ArielSanroj/cfobot/internal/platform/httpx"
)

// BoardService renders the board document for a computed report.
type BoardService interface {
	Generate(ctx context.Context, report *analysis.Report, variant boardreport.Variant) (boardreport.Document, boardreport.RenderResult, error)
}

// WithBoard attaches the board document service.
func (h *Handler) WithBoard(board BoardService) *Handler {
	h.board = board
	return h
}

type boardRequest struct {
	Variant string `json:"variant" validate:"omitempty,oneof=standard ai"`
}

// renderBoard produces the board report PDF for a ready run and streams it
// back. The "ai" variant folds model insights into the document.
func (h *Handler) renderBoard(w http.ResponseWriter, r *http.Request) {
	if h.board == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Board Report Unavailable", "board report service not configured")
		return
	}
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	var req boardRequest
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
	variant := boardreport.VariantStandard
	if strings.EqualFold(req.Variant, "ai") {
		variant = boardreport.VariantAI
	}

	doc, result, err := h.board.Generate(r.Context(), report, variant)
	if err != nil {
		h.respondError(w, "render board report", err)
		return
	}

	name := export.Filename(doc.Prefix(), report.Month, ".pdf")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := w.Write(result.PDF); err != nil {
		h.logError("stream board report", err)
	}
}
