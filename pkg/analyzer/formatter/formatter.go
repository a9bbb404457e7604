// Package formatter runs the code formatter and stages its output.
//
// The formatter rewrites its target in place. FormatInPlace and
// FormatToCopy keep that behavior; FormatSnapshot formats a private copy
// so the analyzed file is never modified.
package formatter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/panbanda/pyreview/pkg/analyzer"
	"github.com/panbanda/pyreview/pkg/config"
	"github.com/panbanda/pyreview/pkg/models"
	"github.com/panbanda/pyreview/pkg/toolrun"
)

// Formatter wraps the formatting tool.
type Formatter struct {
	runner toolrun.Runner
	opts   analyzer.Options
}

// New creates a formatter. Without options it runs `black --quiet --fast`.
func New(runner toolrun.Runner, opts ...analyzer.Option) *Formatter {
	return &Formatter{
		runner: runner,
		opts:   analyzer.NewOptions(config.DefaultConfig().Tools.Formatter, opts...),
	}
}

// FormatInPlace rewrites path with the formatter.
func (f *Formatter) FormatInPlace(ctx context.Context, path string) models.FormattingResult {
	out, err := f.opts.Run(ctx, f.runner, path)
	if err != nil {
		return models.FormattingResult{Message: f.opts.Reason(err)}
	}

	text := strings.TrimSpace(out.Combined())
	if out.ExitCode != 0 {
		if text == "" {
			text = fmt.Sprintf("%s exited with status %d", f.opts.Command, out.ExitCode)
		}
		return models.FormattingResult{Message: text}
	}

	if text == "" {
		text = "Formatted " + path
	}
	return models.FormattingResult{Succeeded: true, Message: text, OutputPath: path}
}

// FormatToCopy formats src in place and then copies the result to dest.
// src stays formatted afterwards. dest is only written after a successful
// format.
func (f *Formatter) FormatToCopy(ctx context.Context, src, dest string) models.FormattingResult {
	if sameFile(src, dest) {
		return models.FormattingResult{Message: sameFileMessage(dest)}
	}
	res := f.FormatInPlace(ctx, src)
	if !res.Succeeded {
		return res
	}
	if err := copyFile(src, dest); err != nil {
		return models.FormattingResult{Message: fmt.Sprintf("copy formatted file: %v", err)}
	}
	return models.FormattingResult{
		Succeeded:  true,
		Message:    "Formatted file written to " + dest,
		OutputPath: dest,
	}
}

// FormatSnapshot copies src next to dest, formats the copy and moves it
// into place. src is never modified and dest is left untouched when
// formatting fails. The copy keeps the permissions of src.
func (f *Formatter) FormatSnapshot(ctx context.Context, src, dest string) models.FormattingResult {
	if sameFile(src, dest) {
		return models.FormattingResult{Message: sameFileMessage(dest)}
	}
	info, err := os.Stat(src)
	if err != nil {
		return models.FormattingResult{Message: fmt.Sprintf("snapshot source: %v", err)}
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return models.FormattingResult{Message: fmt.Sprintf("create output directory: %v", err)}
	}

	tmp, err := os.CreateTemp(dir, ".pyreview-*"+filepath.Ext(src))
	if err != nil {
		return models.FormattingResult{Message: fmt.Sprintf("create snapshot: %v", err)}
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	if err := copyFile(src, tmpPath); err != nil {
		return models.FormattingResult{Message: fmt.Sprintf("snapshot source: %v", err)}
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return models.FormattingResult{Message: fmt.Sprintf("snapshot source: %v", err)}
	}

	res := f.FormatInPlace(ctx, tmpPath)
	if !res.Succeeded {
		return res
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return models.FormattingResult{Message: fmt.Sprintf("stage formatted file: %v", err)}
	}
	return models.FormattingResult{
		Succeeded:  true,
		Message:    "Formatted file written to " + dest,
		OutputPath: dest,
	}
}

// sameFile reports whether dest names src, by path or by identity when
// both exist (hard links, symlinks).
func sameFile(src, dest string) bool {
	a, errA := filepath.Abs(src)
	b, errB := filepath.Abs(dest)
	if errA == nil && errB == nil && a == b {
		return true
	}
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	di, err := os.Stat(dest)
	if err != nil {
		return false
	}
	return os.SameFile(si, di)
}

func sameFileMessage(dest string) string {
	return fmt.Sprintf("destination %s is the source file; format in place instead", dest)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
