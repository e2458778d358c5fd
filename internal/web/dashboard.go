// Package web renders the upload page and the live scan dashboard.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/raaihank/bias-auditor/internal/audit"
	"github.com/raaihank/bias-auditor/internal/bias"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData feeds the upload page
type PageData struct {
	Accept string
	Error  string
	Result *audit.Result
}

// Renderer holds the parsed page templates
type Renderer struct {
	pages         *template.Template
	accept        string
	websocketPath string
}

// NewRenderer parses the embedded templates. extensions populates the file picker filter.
func NewRenderer(extensions []string, websocketPath string) (*Renderer, error) {
	pages, err := template.New("pages").Funcs(template.FuncMap{
		"highlighted": highlighted,
		"safeCSS":     safeColor,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{
		pages:         pages,
		accept:        strings.Join(extensions, ","),
		websocketPath: websocketPath,
	}, nil
}

// RenderIndex writes the upload page with an optional result or error
func (r *Renderer) RenderIndex(w http.ResponseWriter, status int, result *audit.Result, errMsg string) {
	r.render(w, status, "index.html", PageData{Accept: r.accept, Error: errMsg, Result: result})
}

// ServeDashboard serves the live scan dashboard
func (r *Renderer) ServeDashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	r.render(w, http.StatusOK, "dashboard.html", struct{ WebSocketPath string }{r.websocketPath})
}

func (r *Renderer) render(w http.ResponseWriter, status int, name string, data interface{}) {
	// Render into a buffer so template errors do not leave a half-written page
	var buf bytes.Buffer
	if err := r.pages.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// highlighted marks finding text as trusted: the scanner escapes everything but the <mark> tags
func highlighted(text string) template.HTML {
	return template.HTML(text)
}

// safeColor lets the scanner's fixed hex colors through the CSS sanitizer
func safeColor(color string) template.CSS {
	switch color {
	case bias.ColorLow, bias.ColorMedium, bias.ColorHigh:
		return template.CSS(color)
	default:
		return template.CSS(bias.ColorLow)
	}
}
