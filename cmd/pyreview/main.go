package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func newApp() *cli.App {
	return &cli.App{
		Name:     "pyreview",
		Usage:    "Review Python files with external linters and formatters",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `pyreview runs a style checker, a complexity analyzer, a maintainability
scorer and a formatter over Python files and assembles one report per file
with actionable suggestions.

Missing tools never abort a run: their sections are marked unavailable.`,
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"PYREVIEW_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Always run the tools, ignoring cached results",
			},
		),
		Commands: []*cli.Command{
			analyzeCmd(),
			formatCmd(),
			reportCmd(),
			watchCmd(),
			serveCmd(),
			mcpCmd(),
			toolsCmd(),
			configCmd(),
			cacheCmd(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
