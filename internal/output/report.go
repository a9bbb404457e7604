package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/panbanda/pyreview/pkg/models"
	"github.com/panbanda/pyreview/pkg/report"
)

// maxBar caps the width of the complexity bars.
const maxBar = 30

// ReportView renders an AnalysisReport. Structured formats emit the report
// itself; text and markdown show issues, complexity with a bar chart,
// maintainability, formatting and suggestions.
type ReportView struct {
	Report *models.AnalysisReport
	// Saved is where the report was written, if anywhere.
	Saved string
}

// NewReportView wraps r for rendering.
func NewReportView(r *models.AnalysisReport, saved string) *ReportView {
	return &ReportView{Report: r, Saved: saved}
}

func (v *ReportView) RenderData() any {
	return v.Report
}

func (v *ReportView) sections(colored bool) []Renderable {
	r := v.Report
	return []Renderable{
		v.issuesTable(),
		v.complexityTable(colored),
		v.maintainabilityTable(colored),
		&Section{Title: "Formatting", Content: formattingLine(r.Formatting)},
		&Section{Title: "Suggestions", Content: bullets(r.Suggestions)},
	}
}

func (v *ReportView) RenderText(w io.Writer, colored bool) error {
	title := "Review: " + v.Report.SourceFile
	if colored {
		color.New(color.Bold, color.FgCyan).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
	fmt.Fprintln(w, v.headline())
	fmt.Fprintln(w)

	for _, s := range v.sections(colored) {
		if err := s.RenderText(w, colored); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	if v.Saved != "" {
		fmt.Fprintf(w, "Report saved to %s\n", v.Saved)
	}
	return nil
}

func (v *ReportView) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "# Review: %s\n\n%s\n\n", v.Report.SourceFile, v.headline())
	for _, s := range v.sections(false) {
		if err := s.RenderMarkdown(w); err != nil {
			return err
		}
	}
	if v.Saved != "" {
		fmt.Fprintf(w, "_Report saved to `%s`_\n", v.Saved)
	}
	return nil
}

func (v *ReportView) headline() string {
	r := v.Report
	parts := []string{}
	if r.Source != nil {
		parts = append(parts, fmt.Sprintf("%d lines, %d functions, %d classes", r.Source.Lines, r.Source.Functions, r.Source.Classes))
		if !r.Source.Valid() {
			parts = append(parts, fmt.Sprintf("syntax errors on lines %s", joinInts(r.Source.SyntaxErrors)))
		}
	}
	s := r.Summary
	parts = append(parts, fmt.Sprintf("%d issues on %d lines", s.IssueCount, s.AffectedLines))
	if s.BlockCount > 0 {
		parts = append(parts, fmt.Sprintf("complexity mean %.1f, p90 %.0f, max %d", s.MeanComplexity, s.P90Complexity, s.MaxComplexity))
	}
	if s.Maintainability != nil {
		parts = append(parts, fmt.Sprintf("maintainability %.1f", *s.Maintainability))
	}
	return strings.Join(parts, " | ")
}

func (v *ReportView) issuesTable() Renderable {
	issues, ok := v.Report.Issues.Get()
	if !ok {
		return unavailable("Style issues", v.Report.Issues.Reason())
	}
	if len(issues) == 0 {
		return &Section{Title: "Style issues", Content: "No style issues found."}
	}
	rows := make([][]string, len(issues))
	for i, is := range issues {
		rows[i] = []string{strconv.Itoa(is.Line), strconv.Itoa(is.Column), is.Code, is.Message}
	}
	return NewTable("Style issues", []string{"Line", "Col", "Code", "Message"}, rows,
		[]string{"", "", "Total", strconv.Itoa(len(issues))}, issues)
}

func (v *ReportView) complexityTable(colored bool) Renderable {
	if !v.Report.Complexity.OK() {
		return unavailable("Complexity", v.Report.Complexity.Reason())
	}
	blocks := v.Report.Blocks()
	if len(blocks) == 0 {
		return &Section{Title: "Complexity", Content: "No functions, methods or classes found."}
	}
	rows := make([][]string, len(blocks))
	for i, b := range blocks {
		rank := b.Rank
		bar := complexityBar(b.Complexity)
		if colored {
			rank = RankColor(b.Rank, b.Rank)
			if b.Complexity >= report.HighComplexityThreshold {
				bar = color.RedString(bar)
			}
		}
		rows[i] = []string{b.QualifiedName(), string(b.Kind), strconv.Itoa(b.Line), strconv.Itoa(b.Complexity), rank, bar}
	}
	return NewTable("Complexity", []string{"Block", "Kind", "Line", "CC", "Rank", ""}, rows, nil, blocks)
}

func (v *ReportView) maintainabilityTable(colored bool) Renderable {
	mi, ok := v.Report.Maintainability.Get()
	if !ok {
		return unavailable("Maintainability", v.Report.Maintainability.Reason())
	}
	keys := models.SortedKeys(mi)
	rows := make([][]string, len(keys))
	for i, k := range keys {
		rank := mi[k].Rank
		if colored {
			rank = RankColor(rank, rank)
		}
		rows[i] = []string{k, fmt.Sprintf("%.2f", mi[k].Score), rank}
	}
	return NewTable("Maintainability", []string{"File", "Index", "Rank"}, rows, nil, mi)
}

func unavailable(title, reason string) Renderable {
	return &Section{Title: title, Content: "Unavailable: " + reason}
}

func formattingLine(f models.FormattingResult) string {
	if f.Succeeded {
		return f.Message
	}
	return "Not formatted: " + f.Message
}

func complexityBar(cc int) string {
	n := cc
	if n > maxBar {
		n = maxBar
	}
	return strings.Repeat("#", n)
}

func bullets(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(l)
	}
	return b.String()
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
