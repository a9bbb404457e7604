package locator

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/pyreview/internal/testutil"
)

// tree lays out a small project and returns its root.
func tree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WritePython(t, filepath.Join(root, "app"), "service.py")
	testutil.WritePython(t, filepath.Join(root, "app"), "models.py")
	testutil.WritePython(t, filepath.Join(root, "lib"), "service.py")
	testutil.WritePython(t, filepath.Join(root, ".venv", "site"), "models.py")
	testutil.WriteFile(t, filepath.Join(root, "app", "README.md"), "# app\n")
	return root
}

func TestLocate(t *testing.T) {
	root := tree(t)

	t.Run("exact path", func(t *testing.T) {
		path := filepath.Join(root, "app", "models.py")
		got, err := Locate(path)
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("exact non-Python path is returned as is", func(t *testing.T) {
		path := filepath.Join(root, "app", "README.md")
		got, err := Locate(path)
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("glob single match", func(t *testing.T) {
		_, err := Locate("app/*.py", WithBaseDir(root))
		require.ErrorIs(t, err, ErrAmbiguousMatch, "app has two Python files")

		got, err := Locate("lib/**/*.py", WithBaseDir(root))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "lib", "service.py"), got)
	})

	t.Run("basename", func(t *testing.T) {
		got, err := Locate("models.py", WithBaseDir(root), WithExclude(func(p string) bool {
			return strings.Contains(p, ".venv")
		}))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "app", "models.py"), got)
	})

	t.Run("ambiguous basename", func(t *testing.T) {
		_, err := Locate("service.py", WithBaseDir(root))
		require.ErrorIs(t, err, ErrAmbiguousMatch)

		var amb *AmbiguousError
		require.ErrorAs(t, err, &amb)
		assert.Equal(t, []string{
			filepath.Join(root, "app", "service.py"),
			filepath.Join(root, "lib", "service.py"),
		}, amb.Candidates)
	})

	t.Run("not found", func(t *testing.T) {
		for _, target := range []string{"missing.py", "nope/**/*.py", filepath.Join(root, "gone", "x")} {
			_, err := Locate(target, WithBaseDir(root))
			assert.ErrorIs(t, err, ErrNotFound, target)
		}
	})

	t.Run("glob ignores non-Python files", func(t *testing.T) {
		_, err := Locate("app/*.md", WithBaseDir(root))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestExpand(t *testing.T) {
	root := tree(t)

	got, err := Expand("**/service.py", WithBaseDir(root))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = Expand("**/*.py", WithBaseDir(root), WithExclude(func(p string) bool {
		return strings.Contains(p, string(filepath.Separator)+".venv"+string(filepath.Separator))
	}))
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// Existing directories pass through for the scanner
	got, err = Expand(root)
	require.NoError(t, err)
	assert.Equal(t, []string{root}, got)

	_, err = Expand("[", WithBaseDir(root))
	assert.Error(t, err)

	_, err = Expand("**/*.pyx", WithBaseDir(root))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsPattern(t *testing.T) {
	existing := testutil.WritePython(t, t.TempDir(), "a.py")

	tests := []struct {
		target string
		want   bool
	}{
		{existing, false},
		{"src/**/*.py", true},
		{"tower.py", true},
		{"src/missing", false},
		{"src", false},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPattern(tt.target))
		})
	}
}
