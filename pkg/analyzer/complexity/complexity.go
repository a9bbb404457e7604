// Package complexity runs the cyclomatic complexity tool and validates its
// JSON report into typed blocks.
package complexity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/panbanda/pyreview/pkg/analyzer"
	"github.com/panbanda/pyreview/pkg/config"
	"github.com/panbanda/pyreview/pkg/models"
	"github.com/panbanda/pyreview/pkg/toolrun"
)

// Ensure Analyzer implements analyzer.ToolAnalyzer.
var _ analyzer.ToolAnalyzer[models.Complexity] = (*Analyzer)(nil)

// Analyzer runs `radon cc -s -j`.
type Analyzer struct {
	runner toolrun.Runner
	opts   analyzer.Options
}

// New creates a complexity analyzer.
func New(runner toolrun.Runner, opts ...analyzer.Option) *Analyzer {
	return &Analyzer{
		runner: runner,
		opts:   analyzer.NewOptions(config.DefaultConfig().Tools.Complexity, opts...),
	}
}

// Analyze runs the tool on path and parses its output.
func (a *Analyzer) Analyze(ctx context.Context, path string) models.Result[models.Complexity] {
	out, err := a.opts.Run(ctx, a.runner, path)
	if err != nil {
		return models.Unavailable[models.Complexity](a.opts.Reason(err))
	}
	if strings.TrimSpace(out.Stdout) == "" {
		if stderr := strings.TrimSpace(out.Stderr); stderr != "" {
			return models.Unavailable[models.Complexity](stderr)
		}
	}
	return Parse(out.Stdout)
}

// rawBlock mirrors one entry of the tool's JSON. Pointers mark required
// fields so a missing value is told apart from a zero.
type rawBlock struct {
	Name       *string `json:"name"`
	Type       *string `json:"type"`
	Complexity *int    `json:"complexity"`
	Lineno     *int    `json:"lineno"`
	Endline    int     `json:"endline"`
	Rank       *string `json:"rank"`
	Classname  string  `json:"classname"`
}

func (rb rawBlock) validate() (models.ComplexityBlock, error) {
	switch {
	case rb.Name == nil || *rb.Name == "":
		return models.ComplexityBlock{}, errors.New("missing name")
	case rb.Type == nil:
		return models.ComplexityBlock{}, errors.New("missing type")
	case rb.Complexity == nil:
		return models.ComplexityBlock{}, errors.New("missing complexity")
	case *rb.Complexity < 1:
		return models.ComplexityBlock{}, fmt.Errorf("complexity %d below 1", *rb.Complexity)
	case rb.Lineno == nil:
		return models.ComplexityBlock{}, errors.New("missing lineno")
	case rb.Rank == nil:
		return models.ComplexityBlock{}, errors.New("missing rank")
	}

	kind, err := models.ParseBlockKind(*rb.Type)
	if err != nil {
		return models.ComplexityBlock{}, err
	}

	return models.ComplexityBlock{
		Name:       *rb.Name,
		Kind:       kind,
		Complexity: *rb.Complexity,
		Line:       *rb.Lineno,
		EndLine:    rb.Endline,
		Rank:       *rb.Rank,
		ClassName:  rb.Classname,
	}, nil
}

// Parse validates the tool's JSON (file path to list of blocks). Empty or
// malformed input, a per-file error entry, or any invalid block yields an
// Unavailable result carrying the reason. Class entries list their methods
// again under "methods"; those duplicates are ignored because methods also
// appear as top-level entries.
func Parse(raw string) models.Result[models.Complexity] {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return models.Unavailable[models.Complexity]("empty output")
	}

	var files map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &files); err != nil {
		return models.Unavailable[models.Complexity](fmt.Sprintf("malformed output: %v", err))
	}

	result := make(models.Complexity, len(files))
	for _, file := range models.SortedKeys(files) {
		blocks, err := parseFile(files[file])
		if err != nil {
			return models.Unavailable[models.Complexity](fmt.Sprintf("%s: %v", file, err))
		}
		result[file] = blocks
	}
	return models.Ok(result)
}

func parseFile(data json.RawMessage) ([]models.ComplexityBlock, error) {
	if msg, ok := errorEntry(data); ok {
		return nil, errors.New(msg)
	}

	var raws []rawBlock
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("malformed block list: %w", err)
	}

	blocks := make([]models.ComplexityBlock, 0, len(raws))
	for i, rb := range raws {
		block, err := rb.validate()
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// errorEntry recognizes the tool's per-file {"error": "..."} object and a
// bare string in place of a block list.
func errorEntry(data json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "", false
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s, true
		}
	case '{':
		var marker struct {
			Error *string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &marker); err == nil && marker.Error != nil {
			return *marker.Error, true
		}
		return "expected a list of blocks", true
	}
	return "", false
}
