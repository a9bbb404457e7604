package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyreview/internal/output"
	"github.com/panbanda/pyreview/pkg/models"
	"github.com/panbanda/pyreview/pkg/parser"
)

func formatCmd() *cli.Command {
	return &cli.Command{
		Name:      "format",
		Aliases:   []string{"fmt"},
		Usage:     "Run the formatter on one Python file",
		ArgsUsage: "<file>",
		Description: `Without flags the file is copied and only the copy is formatted, written
to <output_dir>/formatted_<name>. --in-place rewrites the file itself;
combined with --dest the rewritten file is then copied to dest.`,
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:  "dest",
				Usage: "Where to write the formatted file",
			},
			&cli.BoolFlag{
				Name:  "in-place",
				Usage: "Rewrite the file itself",
			},
		),
		Action: runFormatCmd,
	}
}

func runFormatCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return errors.New("format requires a file")
	}
	path := getPaths(c)[0]
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a file", path)
	}
	if !parser.IsPython(path) {
		return fmt.Errorf("%s is not a Python file", path)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc := newService(cfg, newLogger(cfg, false))
	f := svc.Formatter()

	dest := getTrailingFlag(c, "dest", "", "")
	var result models.FormattingResult
	switch {
	case hasTrailingFlag(c, "in-place") && dest != "":
		result = f.FormatToCopy(c.Context, path, dest)
	case hasTrailingFlag(c, "in-place"):
		result = f.FormatInPlace(c.Context, path)
	default:
		if dest == "" {
			dest = svc.FormattedPath(path)
		}
		result = f.FormatSnapshot(c.Context, path, dest)
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() == output.FormatText {
		msg := messenger(cfg)
		if result.Succeeded {
			msg.Success("%s", result.Message)
			return nil
		}
		msg.Error("%s", result.Message)
		return errors.New("formatting failed")
	}

	if err := formatter.Output(result); err != nil {
		return err
	}
	if !result.Succeeded {
		return errors.New("formatting failed")
	}
	return nil
}
