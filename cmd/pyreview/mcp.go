package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyreview/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run as an MCP server over stdio",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "manifest",
				Usage: "Print the MCP registry manifest (server.json) and exit",
			},
		},
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	if c.Bool("manifest") {
		data, err := mcpserver.GenerateManifest(version)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.App.Writer, string(data))
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// stdout carries the protocol; logs stay on stderr
	logger := newLogger(cfg, false)
	return mcpserver.NewServer(version, newService(cfg, logger), logger).Run(c.Context)
}
