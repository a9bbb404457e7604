package models

import (
	"encoding/json"
	"fmt"
)

// AnalysisIssue is one style violation reported by the style checker.
// Line and Column are 1-based. Line 0 marks a file-level issue such as an
// unreadable file.
type AnalysisIssue struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BlockKind classifies a scored code unit.
type BlockKind string

const (
	KindFunction BlockKind = "function"
	KindMethod   BlockKind = "method"
	KindClass    BlockKind = "class"
)

// ParseBlockKind converts the complexity tool's type string to a BlockKind.
func ParseBlockKind(s string) (BlockKind, error) {
	switch BlockKind(s) {
	case KindFunction, KindMethod, KindClass:
		return BlockKind(s), nil
	default:
		return "", fmt.Errorf("unknown block type %q", s)
	}
}

// UnmarshalJSON rejects kinds the complexity tool does not emit.
func (k *BlockKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	kind, err := ParseBlockKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ComplexityBlock is one function, method or class with its cyclomatic
// complexity. Complexity is always at least 1.
type ComplexityBlock struct {
	Name       string    `json:"name"`
	Kind       BlockKind `json:"kind"`
	Complexity int       `json:"complexity"`
	Line       int       `json:"line"`
	EndLine    int       `json:"end_line,omitempty"`
	Rank       string    `json:"rank"`
	ClassName  string    `json:"class_name,omitempty"`
}

// QualifiedName returns Class.method for methods and the plain name otherwise.
func (b ComplexityBlock) QualifiedName() string {
	if b.Kind == KindMethod && b.ClassName != "" {
		return b.ClassName + "." + b.Name
	}
	return b.Name
}

// MaintainabilityScore is the maintainability index (0-100) of one file.
type MaintainabilityScore struct {
	Score float64 `json:"score"`
	Rank  string  `json:"rank"`
}

// FormattingResult describes one formatter run.
type FormattingResult struct {
	Succeeded  bool   `json:"succeeded"`
	Message    string `json:"message"`
	OutputPath string `json:"output_path,omitempty"`
}

// Complexity maps a file identifier to its scored blocks in tool order.
type Complexity = map[string][]ComplexityBlock

// Maintainability maps a file identifier to its maintainability score.
type Maintainability = map[string]MaintainabilityScore

// Summary holds the headline numbers of a report.
type Summary struct {
	IssueCount           int      `json:"issue_count"`
	AffectedLines        int      `json:"affected_lines"`
	BlockCount           int      `json:"block_count"`
	HighComplexityBlocks int      `json:"high_complexity_blocks"`
	MeanComplexity       float64  `json:"mean_complexity"`
	P90Complexity        float64  `json:"p90_complexity"`
	MaxComplexity        int      `json:"max_complexity"`
	Maintainability      *float64 `json:"maintainability,omitempty"`
}

// AnalysisReport aggregates every tool result for one analyzed file.
// A report is assembled once per run and not modified afterwards.
type AnalysisReport struct {
	SourceFile      string                  `json:"source_file"`
	Digest          string                  `json:"digest,omitempty"`
	Source          *SourceInfo             `json:"source,omitempty"`
	Issues          Result[[]AnalysisIssue] `json:"issues"`
	Complexity      Result[Complexity]      `json:"complexity"`
	Maintainability Result[Maintainability] `json:"maintainability"`
	Formatting      FormattingResult        `json:"formatting"`
	Suggestions     []string                `json:"suggestions"`
	Summary         Summary                 `json:"summary"`
}

// Blocks returns every complexity block across all files, in file-key order
// as stored. Unavailable complexity yields nil.
func (r *AnalysisReport) Blocks() []ComplexityBlock {
	cc, ok := r.Complexity.Get()
	if !ok {
		return nil
	}
	var blocks []ComplexityBlock
	for _, key := range SortedKeys(cc) {
		blocks = append(blocks, cc[key]...)
	}
	return blocks
}
