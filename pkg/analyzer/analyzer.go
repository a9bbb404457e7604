// Package analyzer holds what the tool adapters share: how an external tool
// is invoked and how a failed invocation becomes an unavailability reason.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panbanda/pyreview/pkg/config"
	"github.com/panbanda/pyreview/pkg/models"
	"github.com/panbanda/pyreview/pkg/toolrun"
)

// ToolAnalyzer runs one external tool against a file and normalizes its
// output. It never returns an error: failures become Unavailable results.
type ToolAnalyzer[T any] interface {
	Analyze(ctx context.Context, path string) models.Result[T]
}

// Options describes one tool invocation.
type Options struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// Option is a functional option for configuring an adapter.
type Option func(*Options)

// WithCommand overrides the executable and the arguments placed before
// the target path.
func WithCommand(command string, args ...string) Option {
	return func(o *Options) {
		o.Command = command
		o.Args = append([]string(nil), args...)
	}
}

// WithTool applies a configured tool invocation.
func WithTool(tc config.ToolConfig) Option {
	return WithCommand(tc.Command, tc.Args...)
}

// WithTimeout bounds each invocation. Zero means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// NewOptions applies opts over the given default invocation.
func NewOptions(def config.ToolConfig, opts ...Option) Options {
	o := Options{
		Command: def.Command,
		Args:    append([]string(nil), def.Args...),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Run invokes the tool against path through runner.
func (o Options) Run(ctx context.Context, runner toolrun.Runner, path string) (*toolrun.Output, error) {
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}
	return runner.Run(ctx, o.Command, o.Args, path)
}

// Reason turns a runner error into the text stored in an Unavailable result.
func (o Options) Reason(err error) string {
	switch {
	case toolrun.IsNotFound(err):
		return fmt.Sprintf("%s not installed or not found in PATH.", o.Command)
	case errors.Is(err, context.DeadlineExceeded) && o.Timeout > 0:
		return fmt.Sprintf("%s timed out after %s", o.Command, o.Timeout)
	default:
		return err.Error()
	}
}
