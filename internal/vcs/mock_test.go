package vcs

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOpener struct {
	mock.Mock
}

func (m *mockOpener) PlainOpenWithDetect(path string) (Repository, error) {
	args := m.Called(path)
	repo, _ := args.Get(0).(Repository)
	return repo, args.Error(1)
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) RepoPath() string {
	return m.Called().String(0)
}

func (m *mockRepository) Status() ([]FileStatus, error) {
	args := m.Called()
	statuses, _ := args.Get(0).([]FileStatus)
	return statuses, args.Error(1)
}

func TestChangedFilesWithMock(t *testing.T) {
	root := t.TempDir()

	repo := new(mockRepository)
	repo.On("RepoPath").Return(root)
	repo.On("Status").Return([]FileStatus{
		{Path: "pkg/app.py", Staging: git.Unmodified, Worktree: git.Modified},
		{Path: "new.py", Staging: git.Untracked, Worktree: git.Untracked},
		{Path: "gone.py", Staging: git.Unmodified, Worktree: git.Deleted},
		{Path: "same.py", Staging: git.Unmodified, Worktree: git.Unmodified},
		{Path: "README.md", Staging: git.Added, Worktree: git.Unmodified},
	}, nil)

	opener := new(mockOpener)
	opener.On("PlainOpenWithDetect", root).Return(repo, nil)

	files, err := ChangedFiles(opener, root, func(p string) bool {
		return filepath.Ext(p) == ".py"
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "pkg", "app.py"),
		filepath.Join(root, "new.py"),
	}, files)
	opener.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestChangedFilesErrors(t *testing.T) {
	root := t.TempDir()

	t.Run("open fails", func(t *testing.T) {
		opener := new(mockOpener)
		opener.On("PlainOpenWithDetect", root).Return(nil, ErrNotRepository)

		_, err := ChangedFiles(opener, root, nil)
		assert.ErrorIs(t, err, ErrNotRepository)
	})

	t.Run("status fails", func(t *testing.T) {
		boom := errors.New("index locked")
		repo := new(mockRepository)
		repo.On("Status").Return(nil, boom)
		opener := new(mockOpener)
		opener.On("PlainOpenWithDetect", root).Return(repo, nil)

		_, err := ChangedFiles(opener, root, nil)
		assert.ErrorIs(t, err, boom)
		repo.AssertNotCalled(t, "RepoPath")
	})
}
