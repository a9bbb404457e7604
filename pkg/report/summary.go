package report

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/panbanda/pyreview/pkg/models"
	"github.com/panbanda/pyreview/pkg/stats"
)

// Summarize computes the headline numbers of r.
func Summarize(r *models.AnalysisReport) models.Summary {
	var s models.Summary

	if issues, ok := r.Issues.Get(); ok {
		s.IssueCount = len(issues)
		lines := roaring.New()
		for _, issue := range issues {
			if issue.Line > 0 {
				lines.Add(uint32(issue.Line))
			}
		}
		s.AffectedLines = int(lines.GetCardinality())
	}

	blocks := r.Blocks()
	if len(blocks) > 0 {
		values := make([]float64, len(blocks))
		for i, b := range blocks {
			values[i] = float64(b.Complexity)
		}
		s.BlockCount = len(blocks)
		s.HighComplexityBlocks = CountHighComplexity(r.Complexity)
		s.MeanComplexity = stats.Mean(values)
		s.P90Complexity = stats.Percentile(values, 90)
		s.MaxComplexity = int(stats.Max(values))
	}

	if mi, ok := r.Maintainability.Get(); ok {
		if keys := models.SortedKeys(mi); len(keys) > 0 {
			score := mi[keys[0]].Score
			s.Maintainability = &score
		}
	}

	return s
}
