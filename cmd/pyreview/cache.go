package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyreview/internal/cache"
	"github.com/panbanda/pyreview/internal/output"
	"github.com/panbanda/pyreview/pkg/config"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the tool result cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show how many results are cached",
				Flags:  outputFlags(),
				Action: runCacheStatsCmd,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached result",
				Action: runCacheClearCmd,
			},
		},
	}
}

// openCache opens the configured cache directory even when caching is
// switched off for analysis, so stale entries can still be inspected.
func openCache(c *cli.Context) (*config.Config, *cache.Cache, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	cc := cfg.Cache
	cc.Enabled = true
	store, err := cache.New(cc)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache %s: %w", cc.Dir, err)
	}
	return cfg, store, nil
}

func runCacheStatsCmd(c *cli.Context) error {
	cfg, store, err := openCache(c)
	if err != nil {
		return err
	}
	stats, err := store.GetStats()
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rows := [][]string{
		{"Directory", stats.Dir},
		{"Enabled", strconv.FormatBool(cfg.Cache.Enabled)},
		{"Entries", strconv.Itoa(stats.Entries)},
		{"Size", fmt.Sprintf("%d bytes", stats.TotalSize)},
	}
	if stats.Entries > 0 {
		rows = append(rows,
			[]string{"Oldest", stats.OldestAge.Round(time.Second).String()},
			[]string{"Newest", stats.NewestAge.Round(time.Second).String()},
		)
	}
	return formatter.Output(output.NewTable("Tool Result Cache", []string{"Field", "Value"}, rows, nil, stats))
}

func runCacheClearCmd(c *cli.Context) error {
	cfg, store, err := openCache(c)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	messenger(cfg).Success("Cleared %s", cfg.Cache.Dir)
	return nil
}
