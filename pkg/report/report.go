// Package report assembles tool results into an AnalysisReport.
package report

import (
	"encoding/hex"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/panbanda/pyreview/pkg/models"
)

// Input is everything one analysis run produced.
type Input struct {
	FilePath        string
	Digest          string
	Source          *models.SourceInfo
	Issues          models.Result[[]models.AnalysisIssue]
	Complexity      models.Result[models.Complexity]
	Maintainability models.Result[models.Maintainability]
	Formatting      models.FormattingResult
}

// Assemble builds the report for in. It performs no I/O and copies every
// slice and map it is given, so later changes to in do not leak into the
// report.
func Assemble(in Input) *models.AnalysisReport {
	r := &models.AnalysisReport{
		SourceFile:      filepath.Base(in.FilePath),
		Digest:          in.Digest,
		Source:          cloneSource(in.Source),
		Issues:          cloneIssues(in.Issues),
		Complexity:      cloneComplexity(in.Complexity),
		Maintainability: cloneMaintainability(in.Maintainability),
		Formatting:      in.Formatting,
	}
	r.Suggestions = Suggestions(r.Issues, r.Complexity)
	r.Summary = Summarize(r)
	return r
}

// Digest returns the hex BLAKE3 digest of content.
func Digest(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func cloneSource(s *models.SourceInfo) *models.SourceInfo {
	if s == nil {
		return nil
	}
	c := *s
	c.SyntaxErrors = append([]int(nil), s.SyntaxErrors...)
	return &c
}

func cloneIssues(res models.Result[[]models.AnalysisIssue]) models.Result[[]models.AnalysisIssue] {
	issues, ok := res.Get()
	if !ok {
		return res
	}
	return models.Ok(append(make([]models.AnalysisIssue, 0, len(issues)), issues...))
}

func cloneComplexity(res models.Result[models.Complexity]) models.Result[models.Complexity] {
	cc, ok := res.Get()
	if !ok {
		return res
	}
	c := make(models.Complexity, len(cc))
	for file, blocks := range cc {
		c[file] = append(make([]models.ComplexityBlock, 0, len(blocks)), blocks...)
	}
	return models.Ok(c)
}

func cloneMaintainability(res models.Result[models.Maintainability]) models.Result[models.Maintainability] {
	mi, ok := res.Get()
	if !ok {
		return res
	}
	c := make(models.Maintainability, len(mi))
	for file, score := range mi {
		c[file] = score
	}
	return models.Ok(c)
}
