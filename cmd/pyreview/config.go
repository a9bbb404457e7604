package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyreview/pkg/config"
)

const defaultConfigFile = "pyreview.toml"

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect and create configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Load the config and report every invalid value",
				Action: runConfigValidateCmd,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration as TOML",
				Action: runConfigShowCmd,
			},
			{
				Name:  "init",
				Usage: "Write the default configuration to " + defaultConfigFile,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: runConfigInitCmd,
			},
		},
	}
}

func runConfigValidateCmd(c *cli.Context) error {
	result, err := config.LoadConfig(config.WithPath(c.String("config")))
	if err != nil {
		return err
	}
	msg := messenger(result.Config)
	if result.Source == "" {
		msg.Info("No config file found, defaults are valid")
		return nil
	}
	msg.Success("%s is valid", result.Source)
	return nil
}

func runConfigShowCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = c.App.Writer.Write(data)
	return err
}

func runConfigInitCmd(c *cli.Context) error {
	path := defaultConfigFile
	if c.Args().Len() > 0 {
		path = c.Args().First()
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	data, err := toml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	messenger(config.DefaultConfig()).Success("Wrote %s", path)
	return nil
}
