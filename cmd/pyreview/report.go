package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyreview/internal/htmlreport"
	"github.com/panbanda/pyreview/internal/output"
	"github.com/panbanda/pyreview/internal/storage"
	"github.com/panbanda/pyreview/pkg/models"
)

func reportCmd() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Inspect stored reports",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Render a stored report",
				ArgsUsage: "<path|name>",
				Flags:     outputFlags(),
				Action:    runReportShowCmd,
			},
			{
				Name:      "html",
				Usage:     "Render stored reports as one HTML page (stdout or --output)",
				ArgsUsage: "<path|name>...",
				Flags:     outputFlags(),
				Action:    runReportHTMLCmd,
			},
			{
				Name:      "validate",
				Usage:     "Check stored reports against the report schema",
				ArgsUsage: "<path|name>...",
				Action:    runReportValidateCmd,
			},
		},
	}
}

// resolveReport accepts a path to a report file or a bare report name
// looked up in the report directory.
func resolveReport(store *storage.Store, arg string) (string, error) {
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}
	path, err := store.Resolve(arg)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("report %s not found", arg)
	}
	return path, nil
}

func runReportShowCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return errors.New("report show requires a report path or name")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	path, err := resolveReport(storage.New(cfg.Paths), getPaths(c)[0])
	if err != nil {
		return err
	}
	r, err := storage.Load(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(output.NewReportView(r, ""))
}

func runReportValidateCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return errors.New("report validate requires at least one report")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store := storage.New(cfg.Paths)
	msg := messenger(cfg)

	invalid := 0
	for _, arg := range getPaths(c) {
		path, err := resolveReport(store, arg)
		if err == nil {
			var data []byte
			if data, err = os.ReadFile(path); err == nil {
				err = storage.Validate(data)
			}
		}
		if err != nil {
			invalid++
			msg.Error("%s: %v", arg, err)
			continue
		}
		msg.Success("%s: valid", path)
	}
	if invalid > 0 {
		return fmt.Errorf("%d invalid report(s)", invalid)
	}
	return nil
}

func runReportHTMLCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return errors.New("report html requires at least one report")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store := storage.New(cfg.Paths)

	var reports []*models.AnalysisReport
	for _, arg := range getPaths(c) {
		path, err := resolveReport(store, arg)
		if err != nil {
			return err
		}
		r, err := storage.Load(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		reports = append(reports, r)
	}

	renderer, err := htmlreport.NewRenderer(c.App.Version)
	if err != nil {
		return err
	}
	if out := getTrailingFlag(c, "output", "o", ""); out != "" {
		if err := renderer.RenderToFile(out, reports...); err != nil {
			return err
		}
		messenger(cfg).Success("Wrote %s", out)
		return nil
	}
	return renderer.Render(c.App.Writer, reports...)
}
