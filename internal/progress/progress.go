// Package progress shows spinners and bars on stderr while files are
// analyzed.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar for file processing.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
	w     io.Writer
}

type options struct {
	w      io.Writer
	hidden bool
}

// Option configures a Tracker.
type Option func(*options)

// WithWriter draws the bar on w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.w = w
	}
}

// Hidden suppresses drawing. Finish messages are still written.
func Hidden(hidden bool) Option {
	return func(o *options) {
		o.hidden = hidden
	}
}

// Interactive reports whether stderr is a terminal worth drawing on.
func Interactive() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func resolve(opts []Option) options {
	o := options{w: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func barWriter(o options) io.Writer {
	if o.hidden {
		return io.Discard
	}
	return o.w
}

// NewSpinner creates a spinner for operations with unknown total count,
// such as a single file going through every tool.
func NewSpinner(label string, opts ...Option) *Tracker {
	o := resolve(opts)
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(barWriter(o)),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: bar, label: label, w: o.w}
}

// NewTracker creates a progress bar with the given label and total count.
func NewTracker(label string, total int, opts ...Option) *Tracker {
	o := resolve(opts)
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(barWriter(o)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label, w: o.w}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	_ = t.bar.Add(1)
}

// Describe replaces the label shown next to the bar.
func (t *Tracker) Describe(label string) {
	t.bar.Describe(label)
}

// FinishSuccess clears the bar completely (no output).
func (t *Tracker) FinishSuccess() {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}

// FinishError clears the bar and prints an error message.
func (t *Tracker) FinishError(err error) {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
	fmt.Fprintf(t.w, "  %s error: %v\n", t.label, err)
}
