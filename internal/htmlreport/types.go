package htmlreport

import (
	"sort"
	"time"

	"github.com/panbanda/pyreview/pkg/models"
)

// Metadata describes when and by what a page was generated.
type Metadata struct {
	GeneratedAt time.Time
	Version     string
}

// RenderData is everything the template needs.
type RenderData struct {
	Metadata Metadata
	Files    []FileData
	Totals   Totals
}

// Totals aggregates the headline numbers over every file on the page.
type Totals struct {
	Files                int
	Issues               int
	HighComplexityBlocks int
	Unavailable          int
}

// FileData is one report prepared for display.
type FileData struct {
	Report *models.AnalysisReport
	// Blocks are sorted by descending complexity.
	Blocks          []models.ComplexityBlock
	Issues          []models.AnalysisIssue
	IssuesReason    string
	BlocksReason    string
	Maintainability []MaintainabilityRow
	MIReason        string
}

// MaintainabilityRow is one file's maintainability score.
type MaintainabilityRow struct {
	File  string
	Score float64
	Rank  string
}

func newFileData(r *models.AnalysisReport) FileData {
	fd := FileData{
		Report:       r,
		IssuesReason: r.Issues.Reason(),
		BlocksReason: r.Complexity.Reason(),
		MIReason:     r.Maintainability.Reason(),
	}
	fd.Issues = r.Issues.ValueOr(nil)

	fd.Blocks = append(fd.Blocks, r.Blocks()...)
	sort.SliceStable(fd.Blocks, func(i, j int) bool {
		return fd.Blocks[i].Complexity > fd.Blocks[j].Complexity
	})

	if mi, ok := r.Maintainability.Get(); ok {
		for _, file := range models.SortedKeys(mi) {
			fd.Maintainability = append(fd.Maintainability, MaintainabilityRow{
				File:  file,
				Score: mi[file].Score,
				Rank:  mi[file].Rank,
			})
		}
	}
	return fd
}

func newRenderData(meta Metadata, reports []*models.AnalysisReport) *RenderData {
	data := &RenderData{Metadata: meta}
	for _, r := range reports {
		fd := newFileData(r)
		data.Files = append(data.Files, fd)
		data.Totals.Files++
		data.Totals.Issues += r.Summary.IssueCount
		data.Totals.HighComplexityBlocks += r.Summary.HighComplexityBlocks
		for _, reason := range []string{fd.IssuesReason, fd.BlocksReason, fd.MIReason} {
			if reason != "" {
				data.Totals.Unavailable++
			}
		}
	}
	return data
}
