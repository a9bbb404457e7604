// Package maintainability runs the maintainability index tool and validates
// its JSON report.
package maintainability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/panbanda/pyreview/pkg/analyzer"
	"github.com/panbanda/pyreview/pkg/config"
	"github.com/panbanda/pyreview/pkg/models"
	"github.com/panbanda/pyreview/pkg/toolrun"
)

// Ensure Analyzer implements analyzer.ToolAnalyzer.
var _ analyzer.ToolAnalyzer[models.Maintainability] = (*Analyzer)(nil)

// Analyzer runs `radon mi -j`.
type Analyzer struct {
	runner toolrun.Runner
	opts   analyzer.Options
}

// New creates a maintainability analyzer.
func New(runner toolrun.Runner, opts ...analyzer.Option) *Analyzer {
	return &Analyzer{
		runner: runner,
		opts:   analyzer.NewOptions(config.DefaultConfig().Tools.Maintainability, opts...),
	}
}

// Analyze runs the tool on path and parses its output.
func (a *Analyzer) Analyze(ctx context.Context, path string) models.Result[models.Maintainability] {
	out, err := a.opts.Run(ctx, a.runner, path)
	if err != nil {
		return models.Unavailable[models.Maintainability](a.opts.Reason(err))
	}
	if strings.TrimSpace(out.Stdout) == "" {
		if stderr := strings.TrimSpace(out.Stderr); stderr != "" {
			return models.Unavailable[models.Maintainability](stderr)
		}
	}
	return Parse(out.Stdout)
}

type rawScore struct {
	MI    *float64 `json:"mi"`
	Rank  *string  `json:"rank"`
	Error *string  `json:"error"`
}

// Parse validates the tool's JSON (file path to {"mi", "rank"}). Empty or
// malformed input, a per-file error entry, or a missing field yields an
// Unavailable result.
func Parse(raw string) models.Result[models.Maintainability] {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return models.Unavailable[models.Maintainability]("empty output")
	}

	var files map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &files); err != nil {
		return models.Unavailable[models.Maintainability](fmt.Sprintf("malformed output: %v", err))
	}

	result := make(models.Maintainability, len(files))
	for _, file := range models.SortedKeys(files) {
		score, err := parseScore(files[file])
		if err != nil {
			return models.Unavailable[models.Maintainability](fmt.Sprintf("%s: %v", file, err))
		}
		result[file] = score
	}
	return models.Ok(result)
}

func parseScore(data json.RawMessage) (models.MaintainabilityScore, error) {
	var rs rawScore
	if err := json.Unmarshal(data, &rs); err != nil {
		var msg string
		if json.Unmarshal(data, &msg) == nil {
			return models.MaintainabilityScore{}, errors.New(msg)
		}
		return models.MaintainabilityScore{}, fmt.Errorf("malformed score: %w", err)
	}

	switch {
	case rs.Error != nil:
		return models.MaintainabilityScore{}, errors.New(*rs.Error)
	case rs.MI == nil:
		return models.MaintainabilityScore{}, errors.New("missing mi")
	case math.IsNaN(*rs.MI) || math.IsInf(*rs.MI, 0):
		return models.MaintainabilityScore{}, fmt.Errorf("invalid mi %v", *rs.MI)
	case rs.Rank == nil:
		return models.MaintainabilityScore{}, errors.New("missing rank")
	}

	return models.MaintainabilityScore{Score: *rs.MI, Rank: *rs.Rank}, nil
}
