package main

import (
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyreview/internal/output"
	"github.com/panbanda/pyreview/internal/service/analysis"
	"github.com/panbanda/pyreview/pkg/config"
)

// valueFlags take their value from the next argument unless written as
// --flag=value.
var valueFlags = map[string]bool{
	"format": true, "f": true,
	"output": true, "o": true,
	"config": true, "c": true,
	"dest": true, "addr": true, "debounce": true,
	"workers": true, "timeout": true,
}

// getPaths returns positional args, defaulting to ["."]. Flags written
// after the first path are not parsed by urfave; they are skipped here and
// read with getTrailingFlag or hasTrailingFlag.
func getPaths(c *cli.Context) []string {
	var paths []string
	args := c.Args().Slice()
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") && arg != "-" {
			name := strings.TrimLeft(arg, "-")
			if !strings.Contains(name, "=") && valueFlags[name] {
				i++
			}
			continue
		}
		paths = append(paths, arg)
	}
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}

// getTrailingFlag returns a string flag whether it was given before or
// after the positional args.
func getTrailingFlag(c *cli.Context, name, short, defaultValue string) string {
	if ctx := flagContext(c, name); ctx != nil {
		return ctx.String(name)
	}
	names := []string{"--" + name}
	if short != "" {
		names = append(names, "-"+short)
	}
	args := c.Args().Slice()
	for i, arg := range args {
		for _, n := range names {
			if arg == n && i+1 < len(args) {
				return args[i+1]
			}
			if v, ok := strings.CutPrefix(arg, n+"="); ok {
				return v
			}
		}
	}
	return defaultValue
}

// hasTrailingFlag reports whether a boolean flag was given before or after
// the positional args.
func hasTrailingFlag(c *cli.Context, name string) bool {
	if ctx := flagContext(c, name); ctx != nil && ctx.Bool(name) {
		return true
	}
	return slices.Contains(c.Args().Slice(), "--"+name)
}

// flagContext returns the nearest context in c's lineage where name was
// set. Output flags are declared on the app and again on subcommands, and
// a subcommand's unset copy would otherwise shadow the global value.
func flagContext(c *cli.Context, name string) *cli.Context {
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return ctx
		}
	}
	return nil
}

// outputFlags are accepted both before and after the subcommand name.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, markdown, toon, yaml (default from config)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
	}
}

// loadConfig loads the config named by --config, or the first one found in
// the default locations, and applies the global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if cfg, ok := c.App.Metadata["config"].(*config.Config); ok {
		return cfg, nil
	}
	result, err := config.LoadConfig(config.WithPath(c.String("config")))
	if err != nil {
		return nil, err
	}
	cfg := result.Config
	if hasTrailingFlag(c, "verbose") {
		cfg.Output.Verbose = true
	}
	if hasTrailingFlag(c, "no-color") {
		cfg.Output.Color = false
	}
	if hasTrailingFlag(c, "no-cache") {
		cfg.Cache.Enabled = false
	}
	c.App.Metadata["config"] = cfg
	return cfg, nil
}

// newLogger builds the process logger on stderr. Debug with --verbose,
// warnings otherwise; long-running servers log at info and, with
// structured set, as JSON.
func newLogger(cfg *config.Config, structured bool) *slog.Logger {
	level := slog.LevelWarn
	if structured {
		level = slog.LevelInfo
	}
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var logger *slog.Logger
	if structured {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	slog.SetDefault(logger)
	return logger
}

func newService(cfg *config.Config, logger *slog.Logger) *analysis.Service {
	return analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(logger))
}

// colorEnabled reports whether w should receive ANSI colors.
func colorEnabled(cfg *config.Config, w io.Writer) bool {
	if !cfg.Output.Color {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newFormatter creates the output formatter from --format and --output,
// falling back to the configured format.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := output.ParseFormat(getTrailingFlag(c, "format", "f", cfg.Output.Format))
	path := getTrailingFlag(c, "output", "o", "")
	colored := path == "" && colorEnabled(cfg, os.Stdout)
	return output.NewFormatter(format, path, colored)
}

// messenger writes status lines to stderr.
func messenger(cfg *config.Config) *output.Messenger {
	return output.NewMessenger(os.Stderr, colorEnabled(cfg, os.Stderr))
}
