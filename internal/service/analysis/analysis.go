// Package analysis runs the review pipeline for one or more files.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/sourcegraph/conc"

	"github.com/panbanda/pyreview/internal/cache"
	"github.com/panbanda/pyreview/internal/fileproc"
	"github.com/panbanda/pyreview/internal/storage"
	"github.com/panbanda/pyreview/pkg/analyzer"
	"github.com/panbanda/pyreview/pkg/analyzer/complexity"
	"github.com/panbanda/pyreview/pkg/analyzer/formatter"
	"github.com/panbanda/pyreview/pkg/analyzer/maintainability"
	"github.com/panbanda/pyreview/pkg/analyzer/style"
	"github.com/panbanda/pyreview/pkg/config"
	"github.com/panbanda/pyreview/pkg/models"
	"github.com/panbanda/pyreview/pkg/parser"
	"github.com/panbanda/pyreview/pkg/report"
	"github.com/panbanda/pyreview/pkg/toolrun"
)

// ErrNoInput is returned when there is no file to analyze. It is the only
// condition that stops an analysis; tool failures end up in the report.
var ErrNoInput = errors.New("no input file to analyze")

// Service orchestrates analysis runs.
type Service struct {
	config *config.Config
	runner toolrun.Runner
	logger *slog.Logger
	store  *storage.Store
	cache  *cache.Cache
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithRunner sets the tool runner (for testing).
func WithRunner(r toolrun.Runner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithCache sets the tool result cache. Without it the cache is built
// from the cache section of the configuration.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.runner == nil {
		s.runner = toolrun.NewExecRunner(toolrun.WithLogger(s.logger))
	}
	s.store = storage.New(s.config.Paths)
	if s.cache == nil {
		c, err := cache.New(s.config.Cache)
		if err != nil {
			s.logger.Warn("tool result cache disabled", "dir", s.config.Cache.Dir, "error", err)
			c, _ = cache.New(config.CacheConfig{})
		}
		s.cache = c
	}
	return s
}

// Config returns the configuration the service runs with.
func (s *Service) Config() *config.Config {
	return s.config
}

// Store returns the report store.
func (s *Service) Store() *storage.Store {
	return s.store
}

// Cache returns the tool result cache.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

func (s *Service) toolOptions(tc config.ToolConfig) []analyzer.Option {
	return []analyzer.Option{analyzer.WithTool(tc), analyzer.WithTimeout(s.config.ToolTimeout())}
}

// Formatter returns the formatter configured for this service.
func (s *Service) Formatter() *formatter.Formatter {
	return formatter.New(s.runner, s.toolOptions(s.config.Tools.Formatter)...)
}

// FormattedPath returns where the formatted copy of path is written:
// <output_dir>/formatted_<base>.
func (s *Service) FormattedPath(path string) string {
	return s.taggedFormattedPath(path, "")
}

// taggedFormattedPath inserts tag before the extension:
// formatted_<stem>.<tag><ext>.
func (s *Service) taggedFormattedPath(path, tag string) string {
	base := filepath.Base(path)
	if tag != "" {
		ext := filepath.Ext(base)
		base = strings.TrimSuffix(base, ext) + "." + tag + ext
	}
	return filepath.Join(s.config.Paths.OutputDir, "formatted_"+base)
}

// Analyze runs every tool against path and assembles the report. It fails
// only when path does not name a regular file.
func (s *Service) Analyze(ctx context.Context, path string) (*models.AnalysisReport, error) {
	return s.analyze(ctx, path, "")
}

func (s *Service) analyze(ctx context.Context, path, tag string) (*models.AnalysisReport, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, path)
	}

	logger := s.logger.With("file", path)
	in := report.Input{FilePath: path}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoInput, path, err)
	}
	in.Digest = report.Digest(source)
	if src, err := parser.Inspect(ctx, source); err != nil {
		logger.Warn("source inspection failed", "error", err)
	} else {
		in.Source = src
		if !src.Valid() {
			logger.Info("source has syntax errors", "lines", src.SyntaxErrors)
		}
	}

	s.cachedTools(ctx, path, &in)
	in.Formatting = s.format(ctx, path, s.taggedFormattedPath(path, tag))

	r := report.Assemble(in)
	logger.Debug("analysis complete",
		"issues", r.Summary.IssueCount,
		"blocks", r.Summary.BlockCount,
		"formatted", r.Formatting.Succeeded,
	)
	return r, nil
}

// cachedTools fills the read-only tool results from the cache, or runs the
// tools and caches what they produced when all three succeeded. The
// formatter writes files, so it is never cached.
func (s *Service) cachedTools(ctx context.Context, path string, in *report.Input) {
	if !s.cache.Enabled() {
		s.runTools(ctx, path, in)
		return
	}

	key := cache.Key(path, in.Digest, s.config.Tools)
	if hit, ok := s.cache.Get(key); ok {
		s.logger.Debug("tool results from cache", "file", path)
		in.Issues = hit.Issues
		in.Complexity = hit.Complexity
		in.Maintainability = hit.Maintainability
		return
	}

	s.runTools(ctx, path, in)
	results := &cache.ToolResults{
		Issues:          in.Issues,
		Complexity:      in.Complexity,
		Maintainability: in.Maintainability,
	}
	if !results.Complete() {
		return
	}
	if err := s.cache.Put(key, results); err != nil {
		s.logger.Warn("cache write failed", "file", path, "error", err)
	}
}

// runTools runs the three read-only tools, concurrently when configured.
// They only read path, so no coordination beyond the wait is needed.
func (s *Service) runTools(ctx context.Context, path string, in *report.Input) {
	tools := s.config.Tools
	styleA := style.New(s.runner, s.toolOptions(tools.Style)...)
	ccA := complexity.New(s.runner, s.toolOptions(tools.Complexity)...)
	miA := maintainability.New(s.runner, s.toolOptions(tools.Maintainability)...)

	runStyle := func() { in.Issues = styleA.Analyze(ctx, path) }
	runCC := func() { in.Complexity = ccA.Analyze(ctx, path) }
	runMI := func() { in.Maintainability = miA.Analyze(ctx, path) }

	if !s.config.Analysis.Parallel {
		runStyle()
		runCC()
		runMI()
	} else {
		var wg conc.WaitGroup
		wg.Go(runStyle)
		wg.Go(runCC)
		wg.Go(runMI)
		wg.Wait()
	}

	s.logUnavailable(path, "style", in.Issues.Reason())
	s.logUnavailable(path, "complexity", in.Complexity.Reason())
	s.logUnavailable(path, "maintainability", in.Maintainability.Reason())
}

func (s *Service) logUnavailable(path, tool, reason string) {
	if reason != "" {
		s.logger.Warn("tool result unavailable", "file", path, "tool", tool, "reason", reason)
	}
}

func (s *Service) format(ctx context.Context, path, dest string) models.FormattingResult {
	if !s.config.Formatting.Enabled {
		return models.FormattingResult{Message: "Formatting disabled"}
	}
	f := s.Formatter()
	if s.config.Formatting.InPlace {
		return f.FormatToCopy(ctx, path, dest)
	}
	return f.FormatSnapshot(ctx, path, dest)
}

// Outcome is one analyzed file: its report and, when saved, where.
type Outcome struct {
	Path       string
	Report     *models.AnalysisReport
	ReportPath string
}

// Run analyzes path and saves the report when analysis.save_reports is set.
func (s *Service) Run(ctx context.Context, path string) (*Outcome, error) {
	return s.run(ctx, path, "")
}

func (s *Service) run(ctx context.Context, path, tag string) (*Outcome, error) {
	r, err := s.analyze(ctx, path, tag)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Path: path, Report: r}
	if s.config.Analysis.SaveReports {
		saved, err := s.store.SaveTagged(r, tag)
		if err != nil {
			return out, fmt.Errorf("save report for %s: %w", path, err)
		}
		out.ReportPath = saved
		s.logger.Debug("report saved", "file", path, "report", saved)
	}
	return out, nil
}

// AnalyzeFiles runs Run over paths on a bounded pool. Outcomes keep the
// order of paths; a nil entry means that file failed and is listed in the
// returned errors. Files sharing a stem get tagged report and formatted
// copy names so concurrent runs never write the same file.
func (s *Service) AnalyzeFiles(ctx context.Context, paths []string, onProgress fileproc.ProgressFunc) ([]*Outcome, *fileproc.ProcessingErrors) {
	tags := collisionTags(paths)
	run := func(ctx context.Context, path string) (*Outcome, error) {
		return s.run(ctx, path, tags[path])
	}
	return fileproc.Map(ctx, paths, run, fileproc.Options{
		MaxWorkers: s.config.Analysis.Workers,
		OnProgress: onProgress,
	})
}

// collisionTags maps every path whose stem is shared with another distinct
// file in paths to a short hash of its absolute path. Other paths are
// absent from the map.
func collisionTags(paths []string) map[string]string {
	byStem := make(map[string]map[string][]string)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}
		base := filepath.Base(p)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if byStem[stem] == nil {
			byStem[stem] = make(map[string][]string)
		}
		byStem[stem][abs] = append(byStem[stem][abs], p)
	}

	tags := make(map[string]string)
	for _, files := range byStem {
		if len(files) < 2 {
			continue
		}
		for abs, ps := range files {
			tag := fmt.Sprintf("%016x", xxhash.Sum64String(abs))[:8]
			for _, p := range ps {
				tags[p] = tag
			}
		}
	}
	return tags
}
