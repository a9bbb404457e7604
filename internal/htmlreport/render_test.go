package htmlreport

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/pyreview/internal/testutil"
	"github.com/panbanda/pyreview/pkg/models"
	"github.com/panbanda/pyreview/pkg/report"
)

func sampleReport() *models.AnalysisReport {
	return report.Assemble(report.Input{
		FilePath: "src/tower.py",
		Issues: models.Ok([]models.AnalysisIssue{
			{Line: 3, Column: 1, Code: "E302", Message: "expected 2 blank lines, found 1"},
		}),
		Complexity: models.Ok(models.Complexity{
			"src/tower.py": {
				{Name: "main", Kind: models.KindFunction, Complexity: 2, Line: 20, Rank: "A"},
				{Name: "fire", Kind: models.KindMethod, ClassName: "Tower", Complexity: 11, Line: 8, Rank: "C"},
			},
		}),
		Maintainability: models.Ok(models.Maintainability{
			"src/tower.py": {Score: 54.27, Rank: "A"},
		}),
		Formatting: models.FormattingResult{Succeeded: true, Message: "Formatted", OutputPath: "outputs/formatted_tower.py"},
	})
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer("1.2.3")
	require.NoError(t, err)
	r.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 0, 0, time.UTC) }
	return r
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestRenderer(t).Render(&buf, sampleReport()))
	html := buf.String()

	assert.Contains(t, html, "<title>pyreview: tower.py</title>")
	assert.Contains(t, html, "Generated 2026-03-04 05:06 UTC by pyreview 1.2.3")
	assert.Contains(t, html, "<code>E302</code>")
	assert.Contains(t, html, "<code>Tower.fire</code></td><td>Method")
	assert.Contains(t, html, `<span class="badge high">11</span>`)
	assert.Contains(t, html, `<td class="good">54.3</td>`)
	assert.Contains(t, html, "outputs/formatted_tower.py")

	// Highest complexity first
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Tower.fire")), bytes.Index(buf.Bytes(), []byte("<code>main</code>")))
}

func TestRenderUnavailable(t *testing.T) {
	r := report.Assemble(report.Input{
		FilePath:        "app.py",
		Issues:          models.Unavailable[[]models.AnalysisIssue]("flake8 not installed or not found in PATH."),
		Complexity:      models.Unavailable[models.Complexity]("radon not installed or not found in PATH."),
		Maintainability: models.Unavailable[models.Maintainability]("radon not installed or not found in PATH."),
		Formatting:      models.FormattingResult{Message: "Formatting disabled"},
	})

	var buf bytes.Buffer
	require.NoError(t, newTestRenderer(t).Render(&buf, r))
	html := buf.String()

	assert.Contains(t, html, `<p class="unavailable">flake8 not installed or not found in PATH.</p>`)
	assert.Contains(t, html, `<div class="value warning">3</div>Unavailable results`)
	assert.Contains(t, html, report.NoSuggestions)
}

func TestRenderEscapes(t *testing.T) {
	r := sampleReport()
	r.Suggestions = []string{"<script>alert(1)</script>"}

	var buf bytes.Buffer
	require.NoError(t, newTestRenderer(t).Render(&buf, r))
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestRenderTotals(t *testing.T) {
	data := newRenderData(Metadata{}, []*models.AnalysisReport{sampleReport(), sampleReport()})
	assert.Equal(t, Totals{Files: 2, Issues: 2, HighComplexityBlocks: 2}, data.Totals)
	assert.Equal(t, "Tower", data.Files[0].Blocks[0].ClassName)
}

func TestRenderToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.html")
	require.NoError(t, newTestRenderer(t).RenderToFile(path, sampleReport()))
	assert.Contains(t, testutil.ReadFile(t, path), "<!DOCTYPE html>")
}

func TestNumberFormatting(t *testing.T) {
	r := sampleReport()
	r.Source = &models.SourceInfo{Language: models.LangPython, Lines: 12345, Functions: 3}

	var buf bytes.Buffer
	require.NoError(t, newTestRenderer(t).Render(&buf, r))
	assert.Contains(t, buf.String(), "12,345 lines")
}
