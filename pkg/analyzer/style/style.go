// Package style runs the style checker and parses its row:col:code:message
// output into issues.
package style

import (
	"context"
	"strconv"
	"strings"

	"github.com/panbanda/pyreview/pkg/analyzer"
	"github.com/panbanda/pyreview/pkg/config"
	"github.com/panbanda/pyreview/pkg/models"
	"github.com/panbanda/pyreview/pkg/toolrun"
)

// Ensure Analyzer implements analyzer.ToolAnalyzer.
var _ analyzer.ToolAnalyzer[[]models.AnalysisIssue] = (*Analyzer)(nil)

// Analyzer runs the style checker.
type Analyzer struct {
	runner toolrun.Runner
	opts   analyzer.Options
}

// New creates a style analyzer. Without options it runs flake8 with the
// four-field format string.
func New(runner toolrun.Runner, opts ...analyzer.Option) *Analyzer {
	return &Analyzer{
		runner: runner,
		opts:   analyzer.NewOptions(config.DefaultConfig().Tools.Style, opts...),
	}
}

// Analyze runs the checker on path. An empty report is a valid, clean
// result; only a tool that cannot run or that fails without printing
// anything on stdout is Unavailable.
func (a *Analyzer) Analyze(ctx context.Context, path string) models.Result[[]models.AnalysisIssue] {
	out, err := a.opts.Run(ctx, a.runner, path)
	if err != nil {
		return models.Unavailable[[]models.AnalysisIssue](a.opts.Reason(err))
	}

	stderr := strings.TrimSpace(out.Stderr)
	if strings.TrimSpace(out.Stdout) == "" && out.ExitCode != 0 && stderr != "" {
		return models.Unavailable[[]models.AnalysisIssue](stderr)
	}

	return models.Ok(ParseIssues(out.Stdout))
}

// ParseIssues parses one issue per line in row:col:code:message form.
// Only the first three colons separate fields, so messages may contain
// colons. Lines of any other shape are skipped. Order is preserved.
func ParseIssues(raw string) []models.AnalysisIssue {
	issues := make([]models.AnalysisIssue, 0)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if issue, ok := parseLine(line); ok {
			issues = append(issues, issue)
		}
	}
	return issues
}

func parseLine(line string) (models.AnalysisIssue, bool) {
	parts := strings.SplitN(line, ":", 4)
	if len(parts) != 4 {
		return models.AnalysisIssue{}, false
	}

	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || row < 0 {
		return models.AnalysisIssue{}, false
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || col < 0 {
		return models.AnalysisIssue{}, false
	}
	code := strings.TrimSpace(parts[2])
	if code == "" {
		return models.AnalysisIssue{}, false
	}

	return models.AnalysisIssue{
		Line:    row,
		Column:  col,
		Code:    code,
		Message: strings.TrimSpace(parts[3]),
	}, true
}
