package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for pyreview.
type Config struct {
	// External tool invocations
	Tools ToolsConfig `koanf:"tools" toml:"tools"`

	// Input, output and report directories
	Paths PathsConfig `koanf:"paths" toml:"paths"`

	// Pipeline behavior
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Formatter behavior
	Formatting FormattingConfig `koanf:"formatting" toml:"formatting"`

	// File exclusion patterns for directory scans, watch and --changed
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`

	// HTTP server settings
	Server ServerConfig `koanf:"server" toml:"server"`

	// Tool result cache
	Cache CacheConfig `koanf:"cache" toml:"cache"`
}

// ToolConfig names an executable and the arguments placed before the
// target file path.
type ToolConfig struct {
	Command string   `koanf:"command" toml:"command"`
	Args    []string `koanf:"args" toml:"args"`
}

// ToolsConfig lists the four external invocations.
type ToolsConfig struct {
	Style           ToolConfig `koanf:"style" toml:"style"`
	Complexity      ToolConfig `koanf:"complexity" toml:"complexity"`
	Maintainability ToolConfig `koanf:"maintainability" toml:"maintainability"`
	Formatter       ToolConfig `koanf:"formatter" toml:"formatter"`
}

// PathsConfig names the directories used by the pipeline.
type PathsConfig struct {
	InputDir  string `koanf:"input_dir" toml:"input_dir"`
	OutputDir string `koanf:"output_dir" toml:"output_dir"`
	ReportDir string `koanf:"report_dir" toml:"report_dir"`
}

// AnalysisConfig controls how tools are run.
type AnalysisConfig struct {
	// Parallel runs the three read-only tools concurrently.
	Parallel bool `koanf:"parallel" toml:"parallel"`
	// Timeout bounds each tool invocation, in seconds. 0 disables it.
	Timeout int `koanf:"timeout" toml:"timeout"`
	// Workers bounds concurrent files in batch runs. 0 means 2x NumCPU.
	Workers int `koanf:"workers" toml:"workers"`
	// SaveReports writes report_<stem>.json after every analysis.
	SaveReports bool `koanf:"save_reports" toml:"save_reports"`
}

// FormattingConfig controls the formatter step.
type FormattingConfig struct {
	Enabled bool `koanf:"enabled" toml:"enabled"`
	// InPlace lets the formatter rewrite the analyzed file itself before
	// the copy is taken. When false the file is copied first and only the
	// copy is formatted.
	InPlace bool `koanf:"in_place" toml:"in_place"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"` // also honor .gitignore files
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, toon, yaml
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr         string `koanf:"addr" toml:"addr"`
	MaxUploadMB  int    `koanf:"max_upload_mb" toml:"max_upload_mb"`
	ReadTimeout  int    `koanf:"read_timeout" toml:"read_timeout"` // seconds
	WriteTimeout int    `koanf:"write_timeout" toml:"write_timeout"`
}

// CacheConfig controls the on-disk tool result cache.
type CacheConfig struct {
	Enabled  bool   `koanf:"enabled" toml:"enabled"`
	Dir      string `koanf:"dir" toml:"dir"`
	TTLHours int    `koanf:"ttl_hours" toml:"ttl_hours"` // 0 never expires
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Tools: ToolsConfig{
			Style: ToolConfig{
				Command: "flake8",
				Args:    []string{"--format=%(row)d:%(col)d:%(code)s:%(text)s"},
			},
			Complexity: ToolConfig{
				Command: "radon",
				Args:    []string{"cc", "-s", "-j"},
			},
			Maintainability: ToolConfig{
				Command: "radon",
				Args:    []string{"mi", "-j"},
			},
			Formatter: ToolConfig{
				Command: "black",
				Args:    []string{"--quiet", "--fast"},
			},
		},
		Paths: PathsConfig{
			InputDir:  "inputs",
			OutputDir: "outputs",
			ReportDir: "reports",
		},
		Analysis: AnalysisConfig{
			Parallel:    false,
			Timeout:     0,
			Workers:     0,
			SaveReports: true,
		},
		Formatting: FormattingConfig{
			Enabled: true,
			InPlace: false,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*_pb2.py",
			},
			Dirs: []string{
				".git",
				".venv",
				"venv",
				"__pycache__",
				"node_modules",
				"outputs",
				"reports",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxUploadMB:  5,
			ReadTimeout:  30,
			WriteTimeout: 120,
		},
		Cache: CacheConfig{
			Enabled:  false,
			Dir:      ".pyreview/cache",
			TTLHours: 24,
		},
	}
}

// ToolTimeout returns the per-invocation deadline, or 0 for none.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Analysis.Timeout) * time.Second
}

// Validate checks values that would make the pipeline misbehave.
func (c *Config) Validate() error {
	var errs []error
	tools := map[string]ToolConfig{
		"tools.style":           c.Tools.Style,
		"tools.complexity":      c.Tools.Complexity,
		"tools.maintainability": c.Tools.Maintainability,
		"tools.formatter":       c.Tools.Formatter,
	}
	for _, name := range []string{"tools.style", "tools.complexity", "tools.maintainability", "tools.formatter"} {
		if strings.TrimSpace(tools[name].Command) == "" {
			errs = append(errs, fmt.Errorf("%s.command must not be empty", name))
		}
	}
	if c.Paths.OutputDir == "" {
		errs = append(errs, errors.New("paths.output_dir must not be empty"))
	}
	if c.Paths.ReportDir == "" {
		errs = append(errs, errors.New("paths.report_dir must not be empty"))
	}
	if c.Analysis.Timeout < 0 {
		errs = append(errs, fmt.Errorf("analysis.timeout must be >= 0 (got %d)", c.Analysis.Timeout))
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("analysis.workers must be >= 0 (got %d)", c.Analysis.Workers))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be positive (got %d)", c.Server.MaxUploadMB))
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		errs = append(errs, errors.New("cache.dir must not be empty when the cache is enabled"))
	}
	if c.Cache.TTLHours < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl_hours must be >= 0 (got %d)", c.Cache.TTLHours))
	}
	return errors.Join(errs...)
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadResult is a loaded config together with the file it came from.
// Source is empty when defaults were used.
type LoadResult struct {
	Config *Config
	Source string
}

type loadOptions struct {
	path string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads the given file instead of searching the default locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// configNames are searched in order inside each search directory.
var configNames = []string{
	"pyreview.toml",
	"pyreview.yaml",
	"pyreview.yml",
	"pyreview.json",
	".pyreview.toml",
	".pyreview.yaml",
	".pyreview.yml",
	".pyreview.json",
}

var searchDirs = []string{".", ".pyreview"}

// LoadConfig loads and validates configuration. Unlike LoadOrDefault it
// reports parse and validation errors.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	path := o.path
	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	if path := findConfigFile(); path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

func findConfigFile() string {
	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// ShouldExclude checks if a path should be skipped by watch and --changed.
// Directory scans apply the same rules through gitignore matchers.
func (c *Config) ShouldExclude(path string) bool {
	sep := string(filepath.Separator)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, sep+dir+sep) || strings.HasPrefix(path, dir+sep) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
