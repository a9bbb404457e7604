package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyreview/internal/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the review pipeline over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default from config, :8080)",
			},
		},
		Action: runServeCmd,
	}
}

func runServeCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, true)

	addr := cfg.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(newService(cfg, logger), logger)
	return srv.ListenAndServe(ctx, addr)
}
