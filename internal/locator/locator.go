// Package locator resolves a user-supplied target to Python files. A
// target is an existing path, a glob such as src/**/*.py, or a bare file
// name searched for under the base directory.
package locator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/panbanda/pyreview/pkg/parser"
)

var (
	ErrNotFound       = errors.New("no Python file found")
	ErrAmbiguousMatch = errors.New("ambiguous match")
)

// AmbiguousError lists the files a single-file target matched.
type AmbiguousError struct {
	Target     string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s: %q matches %d files: %s",
		ErrAmbiguousMatch, e.Target, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousError) Unwrap() error {
	return ErrAmbiguousMatch
}

// Options configures target resolution.
type Options struct {
	BaseDir string
	// Exclude drops glob and basename matches. Exact paths are never
	// excluded.
	Exclude func(path string) bool
}

// Option is a functional option for Locate and Expand.
type Option func(*Options)

// WithBaseDir sets the base directory for glob and basename searches.
func WithBaseDir(dir string) Option {
	return func(o *Options) {
		o.BaseDir = dir
	}
}

// WithExclude skips matches for which exclude returns true.
func WithExclude(exclude func(path string) bool) Option {
	return func(o *Options) {
		o.Exclude = exclude
	}
}

func newOptions(opts []Option) *Options {
	o := &Options{BaseDir: "."}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// IsPattern reports whether target would be resolved by searching rather
// than used as a path.
func IsPattern(target string) bool {
	if _, err := os.Stat(target); err == nil {
		return false
	}
	return containsGlobChars(target) || looksLikeFilename(target)
}

// Locate resolves target to exactly one Python file.
// Resolution order: exact path, glob, basename.
func Locate(target string, opts ...Option) (string, error) {
	o := newOptions(opts)

	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		return target, nil
	}

	matches, err := search(target, o)
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, target)
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{Target: target, Candidates: matches}
	}
}

// Expand resolves target to every Python file it names. An existing path
// is returned as is, including directories, for the caller to scan.
func Expand(target string, opts ...Option) ([]string, error) {
	o := newOptions(opts)

	if _, err := os.Stat(target); err == nil {
		return []string{target}, nil
	}

	matches, err := search(target, o)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
	}
	return matches, nil
}

func search(target string, o *Options) ([]string, error) {
	pattern := filepath.ToSlash(target)
	switch {
	case containsGlobChars(target):
	case looksLikeFilename(target):
		pattern = "**/" + pattern
	default:
		return nil, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", target)
	}

	var matches []string
	err := doublestar.GlobWalk(os.DirFS(o.BaseDir), pattern, func(p string, d fs.DirEntry) error {
		if d.IsDir() || !parser.IsPython(p) {
			return nil
		}
		full := filepath.Join(o.BaseDir, filepath.FromSlash(p))
		if o.Exclude != nil && o.Exclude(full) {
			return nil
		}
		matches = append(matches, full)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func containsGlobChars(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

func looksLikeFilename(s string) bool {
	return filepath.Ext(s) != "" && !strings.ContainsRune(s, filepath.Separator) && !strings.Contains(s, "/")
}
