package main

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyreview/internal/locator"
	"github.com/panbanda/pyreview/internal/output"
	"github.com/panbanda/pyreview/internal/progress"
	"github.com/panbanda/pyreview/internal/scanner"
	"github.com/panbanda/pyreview/internal/service/analysis"
	"github.com/panbanda/pyreview/internal/vcs"
	"github.com/panbanda/pyreview/pkg/config"
	"github.com/panbanda/pyreview/pkg/models"
	"github.com/panbanda/pyreview/pkg/parser"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Review Python files and write one report per file",
		ArgsUsage: "[path...]",
		Flags: append(outputFlags(),
			&cli.BoolFlag{
				Name:  "no-format",
				Usage: "Skip the formatter",
			},
			&cli.BoolFlag{
				Name:  "in-place",
				Usage: "Let the formatter rewrite the analyzed file before copying it",
			},
			&cli.BoolFlag{
				Name:  "parallel",
				Usage: "Run the read-only tools concurrently",
			},
			&cli.BoolFlag{
				Name:  "no-save",
				Usage: "Do not write report files",
			},
			&cli.BoolFlag{
				Name:  "changed",
				Usage: "Only analyze Python files added, modified or untracked in the git worktree",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Files analyzed at once (default 2x CPUs)",
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "Per-tool timeout in seconds (0 disables)",
			},
		),
		Action: runAnalyzeCmd,
	}
}

// applyAnalyzeFlags overrides config values with command-line flags.
func applyAnalyzeFlags(c *cli.Context, cfg *config.Config) error {
	if hasTrailingFlag(c, "no-format") {
		cfg.Formatting.Enabled = false
	}
	if hasTrailingFlag(c, "in-place") {
		cfg.Formatting.InPlace = true
	}
	if hasTrailingFlag(c, "parallel") {
		cfg.Analysis.Parallel = true
	}
	if hasTrailingFlag(c, "no-save") {
		cfg.Analysis.SaveReports = false
	}
	if c.IsSet("workers") {
		cfg.Analysis.Workers = c.Int("workers")
	}
	if c.IsSet("timeout") {
		cfg.Analysis.Timeout = c.Int("timeout")
	}
	return cfg.Validate()
}

// collectFiles expands the positional paths, or lists changed files with
// --changed.
func collectFiles(c *cli.Context, cfg *config.Config) ([]string, error) {
	paths := getPaths(c)
	if !hasTrailingFlag(c, "changed") {
		var expanded []string
		for _, p := range paths {
			if !locator.IsPattern(p) {
				expanded = append(expanded, p)
				continue
			}
			matches, err := locator.Expand(p, locator.WithExclude(cfg.ShouldExclude))
			if err != nil {
				return nil, err
			}
			expanded = append(expanded, matches...)
		}
		return scanner.NewScanner(cfg).ScanPaths(expanded)
	}

	var files []string
	seen := make(map[string]bool)
	for _, p := range paths {
		changed, err := vcs.ChangedFiles(vcs.DefaultOpener(), p, func(path string) bool {
			return parser.IsPython(path) && !cfg.ShouldExclude(path)
		})
		if err != nil {
			return nil, fmt.Errorf("list changed files in %s: %w", p, err)
		}
		for _, f := range changed {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files, nil
}

func runAnalyzeCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := applyAnalyzeFlags(c, cfg); err != nil {
		return err
	}
	msg := messenger(cfg)

	files, err := collectFiles(c, cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		msg.Warning("No Python files found")
		return nil
	}

	svc := newService(cfg, newLogger(cfg, false))

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	tracker := newTracker(files)
	outcomes, errs := svc.AnalyzeFiles(c.Context, files, tracker.Tick)
	if errs.HasErrors() {
		tracker.FinishError(errs)
	} else {
		tracker.FinishSuccess()
	}

	if err := renderOutcomes(formatter, outcomes); err != nil {
		return err
	}

	if errs.HasErrors() {
		for _, e := range errs.Errors {
			msg.Error("%s: %v", filepath.Base(e.Path), e.Err)
		}
		return fmt.Errorf("%d of %d files failed", len(errs.Errors), len(files))
	}
	return nil
}

// newTracker shows a spinner for one file and a bar for a batch. Both stay
// hidden when stderr is not a terminal.
func newTracker(files []string) *progress.Tracker {
	hidden := progress.Hidden(!progress.Interactive())
	if len(files) == 1 {
		return progress.NewSpinner("Reviewing "+filepath.Base(files[0]), hidden)
	}
	return progress.NewTracker("Reviewing...", len(files), hidden)
}

// renderOutcomes writes each report. Text and markdown print one review
// after another; data formats emit a single document, a list when more
// than one file was analyzed.
func renderOutcomes(f *output.Formatter, outcomes []*analysis.Outcome) error {
	var views []*output.ReportView
	for _, o := range outcomes {
		if o != nil && o.Report != nil {
			views = append(views, output.NewReportView(o.Report, o.ReportPath))
		}
	}
	if len(views) == 0 {
		return nil
	}

	switch f.Format() {
	case output.FormatText, output.FormatMarkdown:
		for _, v := range views {
			if err := f.Output(v); err != nil {
				return err
			}
		}
		return nil
	default:
		if len(views) == 1 {
			return f.Output(views[0])
		}
		reports := make([]*models.AnalysisReport, len(views))
		for i, v := range views {
			reports[i] = v.Report
		}
		return f.Output(reports)
	}
}
