// Package toolrun launches external command-line tools against a file and
// captures their output.
package toolrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// Output is what a finished tool process produced.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Combined returns stdout followed by stderr, the way a terminal shows them.
func (o *Output) Combined() string {
	return o.Stdout + o.Stderr
}

// Runner runs an executable with args followed by the target path.
// A non-zero exit status is not an error; many linters use it to signal
// that issues were found.
type Runner interface {
	Run(ctx context.Context, name string, args []string, target string) (*Output, error)
}

// ExecRunner runs tools as child processes on the local host.
type ExecRunner struct {
	// Dir is the working directory of the child. Empty means the caller's.
	Dir string
	// Env replaces the child's environment when non-nil.
	Env []string

	logger *slog.Logger
}

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithLogger sets the logger used for per-invocation debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(r *ExecRunner) {
		r.logger = logger
	}
}

// WithDir sets the working directory of every child process.
func WithDir(dir string) Option {
	return func(r *ExecRunner) {
		r.Dir = dir
	}
}

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner(opts ...Option) *ExecRunner {
	r := &ExecRunner{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LookPath resolves name to an executable path.
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrToolNotFound)
	}
	return path, nil
}

// Run launches name with args and target appended, and blocks until it exits.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, target string) (*Output, error) {
	path, err := LookPath(name)
	if err != nil {
		return nil, err
	}

	argv := make([]string, 0, len(args)+1)
	argv = append(argv, args...)
	if target != "" {
		argv = append(argv, target)
	}

	cmd := exec.CommandContext(ctx, path, argv...)
	cmd.Dir = r.Dir
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	out := &Output{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return nil, &ExecutionError{Tool: name, Err: ctx.Err()}
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	case errors.Is(err, exec.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", name, ErrToolNotFound)
	default:
		return nil, &ExecutionError{Tool: name, Err: err}
	}

	r.logger.Debug("tool finished",
		slog.String("tool", name),
		slog.Any("args", argv),
		slog.Int("exit_code", out.ExitCode),
		slog.Int("stdout_bytes", len(out.Stdout)),
		slog.Int("stderr_bytes", len(out.Stderr)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}
