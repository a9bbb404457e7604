package report

import (
	"fmt"

	"github.com/panbanda/pyreview/pkg/models"
)

// HighComplexityThreshold is the cyclomatic complexity at which a block is
// flagged for refactoring.
const HighComplexityThreshold = 8

// NoSuggestions is emitted when no rule fires.
const NoSuggestions = "No immediate suggestions — code looks clean."

// Suggestions derives the human-readable advice for a report. Unavailable
// inputs contribute nothing; they never suppress the other rule.
func Suggestions(issues models.Result[[]models.AnalysisIssue], complexity models.Result[models.Complexity]) []string {
	var out []string

	if list, ok := issues.Get(); ok && len(list) > 0 {
		out = append(out, fmt.Sprintf("Found %d style issues — consider fixing style warnings.", len(list)))
	}

	if high := CountHighComplexity(complexity); high > 0 {
		out = append(out, fmt.Sprintf("%d block(s) with high cyclomatic complexity — consider refactoring.", high))
	}

	if len(out) == 0 {
		out = append(out, NoSuggestions)
	}
	return out
}

// CountHighComplexity counts blocks at or above HighComplexityThreshold.
func CountHighComplexity(complexity models.Result[models.Complexity]) int {
	cc, ok := complexity.Get()
	if !ok {
		return 0
	}
	n := 0
	for _, blocks := range cc {
		for _, b := range blocks {
			if b.Complexity >= HighComplexityThreshold {
				n++
			}
		}
	}
	return n
}
