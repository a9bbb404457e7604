// Package htmlreport renders analysis reports as a standalone HTML page.
package htmlreport

import (
	"embed"
	"html/template"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/panbanda/pyreview/pkg/models"
	"github.com/panbanda/pyreview/pkg/report"
)

//go:embed template.html
var templateFS embed.FS

// Renderer handles HTML report generation.
type Renderer struct {
	tmpl    *template.Template
	version string
	now     func() time.Time
}

// NewRenderer creates a new renderer with the embedded template.
func NewRenderer(version string) (*Renderer, error) {
	printer := message.NewPrinter(language.English)
	funcMap := template.FuncMap{
		// Maintainability index bands as the scorer ranks them
		"miClass": func(score float64) string {
			if score >= 20 {
				return "good"
			}
			if score >= 10 {
				return "warning"
			}
			return "danger"
		},
		"rankClass": func(rank string) string {
			switch strings.ToUpper(rank) {
			case "A", "B":
				return "good"
			case "C":
				return "warning"
			default:
				return "danger"
			}
		},
		"complexityBadge": func(n int) string {
			if n >= report.HighComplexityThreshold {
				return "high"
			}
			return "low"
		},
		"title": cases.Title(language.English).String,
		"truncate": func(s string, n int) string {
			if len(s) > n {
				return s[:n] + "..."
			}
			return s
		},
		"num": func(n int) string {
			return printer.Sprintf("%d", n)
		},
		"score": func(f float64) string {
			return printer.Sprintf("%.1f", f)
		},
	}

	tmplContent, err := templateFS.ReadFile("template.html")
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("report").Funcs(funcMap).Parse(string(tmplContent))
	if err != nil {
		return nil, err
	}

	return &Renderer{tmpl: tmpl, version: version, now: time.Now}, nil
}

// Render writes one page covering every report to w.
func (r *Renderer) Render(w io.Writer, reports ...*models.AnalysisReport) error {
	meta := Metadata{GeneratedAt: r.now().UTC(), Version: r.version}
	return r.tmpl.Execute(w, newRenderData(meta, reports))
}

// RenderToFile generates HTML and writes it to a file.
func (r *Renderer) RenderToFile(outputPath string, reports ...*models.AnalysisReport) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return r.Render(f, reports...)
}
