package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyreview/internal/output"
	"github.com/panbanda/pyreview/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch a directory and re-review Python files when they change",
		ArgsUsage: "[dir]",
		Flags: append(outputFlags(),
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Quiet period before a changed file is reviewed",
			},
		),
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, false)

	absPath, err := filepath.Abs(getPaths(c)[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if info, err := os.Stat(absPath); err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", absPath)
	}

	watcher, err := watch.NewWatcher(absPath, cfg, c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()
	watcher.SetLogger(logger)

	svc := newService(cfg, logger)
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()
	msg := messenger(cfg)

	// Reviews of different files may finish together
	var mu sync.Mutex
	watcher.SetCallback(func(ctx context.Context, changed string) {
		out, err := svc.Run(ctx, changed)

		mu.Lock()
		defer mu.Unlock()
		msg.Info("[%s] %s changed", time.Now().Format("15:04:05"), changed)
		if err != nil {
			msg.Error("%v", err)
			if out == nil {
				return
			}
		}
		if err := formatter.Output(output.NewReportView(out.Report, out.ReportPath)); err != nil {
			msg.Error("render: %v", err)
		}
	})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	msg.Success("Watching %s for changes (Ctrl+C to stop)", absPath)
	if err := watcher.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
