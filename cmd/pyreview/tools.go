package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyreview/internal/output"
	"github.com/panbanda/pyreview/pkg/config"
	"github.com/panbanda/pyreview/pkg/toolrun"
)

const versionProbeTimeout = 5 * time.Second

// ToolStatus reports whether one configured tool can be run.
type ToolStatus struct {
	Role      string `json:"role"`
	Command   string `json:"command"`
	Path      string `json:"path,omitempty"`
	Installed bool   `json:"installed"`
	Version   string `json:"version,omitempty"`
}

func toolsCmd() *cli.Command {
	return &cli.Command{
		Name:   "tools",
		Usage:  "Show which external tools are installed",
		Flags:  outputFlags(),
		Action: runToolsCmd,
	}
}

// probeTools resolves every configured tool and asks it for its version.
func probeTools(ctx context.Context, cfg *config.Config, runner toolrun.Runner) []ToolStatus {
	roles := []struct {
		role string
		tc   config.ToolConfig
	}{
		{"style", cfg.Tools.Style},
		{"complexity", cfg.Tools.Complexity},
		{"maintainability", cfg.Tools.Maintainability},
		{"formatter", cfg.Tools.Formatter},
	}

	statuses := make([]ToolStatus, 0, len(roles))
	for _, r := range roles {
		st := ToolStatus{Role: r.role, Command: strings.Join(append([]string{r.tc.Command}, r.tc.Args...), " ")}
		path, err := toolrun.LookPath(r.tc.Command)
		if err == nil {
			st.Installed = true
			st.Path = path
			probeCtx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
			if out, err := runner.Run(probeCtx, r.tc.Command, []string{"--version"}, ""); err == nil && out.ExitCode == 0 {
				st.Version = firstLine(out.Combined())
			}
			cancel()
		}
		statuses = append(statuses, st)
	}
	return statuses
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func runToolsCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, false)
	statuses := probeTools(c.Context, cfg, toolrun.NewExecRunner(toolrun.WithLogger(logger)))

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rows := make([][]string, 0, len(statuses))
	missing := 0
	for _, st := range statuses {
		status := "installed"
		if !st.Installed {
			status = "missing"
			missing++
		}
		rows = append(rows, []string{st.Role, st.Command, status, st.Version})
	}
	var footer []string
	if missing > 0 {
		footer = []string{fmt.Sprintf("%d missing", missing), "", "", "their report sections will be unavailable"}
	}
	table := output.NewTable("External Tools", []string{"Role", "Command", "Status", "Version"}, rows, footer, statuses)
	return formatter.Output(table)
}
