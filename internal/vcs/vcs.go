// Package vcs reads working tree state from git repositories.
package vcs

import (
	"errors"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when no repository contains the path.
var ErrNotRepository = errors.New("not a git repository (or any parent)")

// FileStatus is the state of one path in the working tree.
type FileStatus struct {
	// Path is relative to the repository root, slash separated.
	Path     string
	Staging  git.StatusCode
	Worktree git.StatusCode
}

// Changed reports whether the file was added or modified, staged or not,
// or is untracked. Deleted files are not changed in this sense: there is
// nothing left to analyze.
func (s FileStatus) Changed() bool {
	if s.Staging == git.Deleted || s.Worktree == git.Deleted {
		return false
	}
	return s.Staging != git.Unmodified || s.Worktree != git.Unmodified
}

// Repository provides access to git repository operations.
type Repository interface {
	// RepoPath returns the root path of the working tree.
	RepoPath() string
	// Status returns the status of every path that differs from HEAD.
	Status() ([]FileStatus, error)
}

// Opener opens repositories.
type Opener interface {
	PlainOpenWithDetect(path string) (Repository, error)
}

// GitOpener opens git repositories using go-git.
type GitOpener struct{}

// NewGitOpener creates a new GitOpener.
func NewGitOpener() *GitOpener {
	return &GitOpener{}
}

// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
func (o *GitOpener) PlainOpenWithDetect(path string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	return &gitRepository{wt: wt}, nil
}

// gitRepository wraps a go-git worktree.
type gitRepository struct {
	wt *git.Worktree
}

func (r *gitRepository) RepoPath() string {
	return r.wt.Filesystem.Root()
}

func (r *gitRepository) Status() ([]FileStatus, error) {
	status, err := r.wt.Status()
	if err != nil {
		return nil, err
	}
	out := make([]FileStatus, 0, len(status))
	for path, s := range status {
		out = append(out, FileStatus{Path: path, Staging: s.Staging, Worktree: s.Worktree})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

var defaultOpener Opener = NewGitOpener()

// DefaultOpener returns the opener used when none is injected.
func DefaultOpener() Opener {
	return defaultOpener
}

// ChangedFiles lists files under the repository containing path that are
// added, modified or untracked, accepted by keep, as absolute paths sorted
// by repository path.
func ChangedFiles(opener Opener, path string, keep func(string) bool) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	repo, err := opener.PlainOpenWithDetect(abs)
	if err != nil {
		return nil, err
	}
	statuses, err := repo.Status()
	if err != nil {
		return nil, err
	}

	root := repo.RepoPath()
	var files []string
	for _, s := range statuses {
		if !s.Changed() {
			continue
		}
		full := filepath.Join(root, filepath.FromSlash(s.Path))
		if keep != nil && !keep(full) {
			continue
		}
		files = append(files, full)
	}
	return files, nil
}
