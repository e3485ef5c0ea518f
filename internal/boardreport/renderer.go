package boardreport

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/ArielSanroj/cfobot/web"
)

// PDFClient is the slice of the Gotenberg client the renderer needs.
type PDFClient interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Renderer executes the board report template and converts it to PDF.
type Renderer struct {
	tpl    *template.Template
	client PDFClient
}

// NewRenderer parses the embedded template and wires the PDF client.
func NewRenderer(client PDFClient) (*Renderer, error) {
	if client == nil {
		return nil, fmt.Errorf("boardreport: pdf client required")
	}
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
	}
	tpl, err := template.New("board_report.html").Funcs(funcMap).ParseFS(web.Templates, "templates/reports/board_report.html")
	if err != nil {
		return nil, fmt.Errorf("boardreport: parse template: %w", err)
	}
	return &Renderer{tpl: tpl, client: client}, nil
}

// Render produces the document HTML and its PDF conversion.
func (r *Renderer) Render(ctx context.Context, doc Document) (RenderResult, error) {
	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, doc); err != nil {
		return RenderResult{}, fmt.Errorf("boardreport: execute template: %w", err)
	}
	html := buf.String()

	pdf, err := r.client.RenderHTML(ctx, html)
	if err != nil {
		return RenderResult{}, err
	}
	return RenderResult{HTML: html, PDF: pdf, Length: int64(len(pdf))}, nil
}
