package scanner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/pyreview/internal/testutil"
	"github.com/panbanda/pyreview/pkg/config"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		testutil.WriteFile(t, filepath.Join(root, filepath.FromSlash(name)), content)
	}
}

func relAll(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, len(files))
	for i, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestNewScanner(t *testing.T) {
	s := NewScanner(nil)
	require.NotNil(t, s)
	assert.NotNil(t, s.config)

	cfg := config.DefaultConfig()
	assert.Same(t, cfg, NewScanner(cfg).config)
}

func TestScanDir(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"main.py":               "print(1)\n",
		"game/tower.py":         "class Tower: pass\n",
		"game/stubs.pyi":        "def f() -> int: ...\n",
		"README.md":             "# readme\n",
		".venv/lib/site.py":     "x = 1\n",
		"src/__pycache__/c.py":  "x = 1\n",
		"proto/service_pb2.py":  "x = 1\n",
		"reports/report_a.json": "{}\n",
	})

	files, err := NewScanner(nil).ScanDir(tmpDir)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"main.py", "game/tower.py", "game/stubs.pyi"}, relAll(t, tmpDir, files))
}

func TestScanDirWithGitignore(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		".git/HEAD":      "ref: refs/heads/main\n",
		".gitignore":     "skipme/\ngenerated_*.py\n",
		"main.py":        "x = 1\n",
		"skipme/skip.py": "x = 1\n",
		"generated_a.py": "x = 1\n",
	})

	t.Run("enabled", func(t *testing.T) {
		files, err := NewScanner(nil).ScanDir(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, []string{"main.py"}, relAll(t, tmpDir, files))
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Exclude.Gitignore = false
		files, err := NewScanner(cfg).ScanDir(tmpDir)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"main.py", "skipme/skip.py", "generated_a.py"}, relAll(t, tmpDir, files))
	})
}

func TestScanPaths(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"a.py":         "x = 1\n",
		"pkg/b.py":     "x = 1\n",
		"notes.txt":    "hi\n",
		"gen_pb2.py":   "x = 1\n",
		"pkg/c_pb2.py": "x = 1\n",
	})
	s := NewScanner(nil)

	t.Run("files and directories", func(t *testing.T) {
		files, err := s.ScanPaths([]string{
			filepath.Join(tmpDir, "a.py"),
			filepath.Join(tmpDir, "pkg"),
			filepath.Join(tmpDir, "a.py"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.py", "pkg/b.py"}, relAll(t, tmpDir, files))
	})

	t.Run("explicit file bypasses exclusions", func(t *testing.T) {
		files, err := s.ScanPaths([]string{filepath.Join(tmpDir, "gen_pb2.py")})
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := s.ScanPaths([]string{filepath.Join(tmpDir, "nope.py")})
		var pe *PathError
		require.ErrorAs(t, err, &pe)
	})

	t.Run("not python", func(t *testing.T) {
		_, err := s.ScanPaths([]string{filepath.Join(tmpDir, "notes.txt")})
		assert.ErrorIs(t, err, ErrNotPython)
	})
}

func TestIsWithinRoot(t *testing.T) {
	assert.True(t, isWithinRoot("/root/a/b", "/root"))
	assert.True(t, isWithinRoot("/root", "/root"))
	assert.False(t, isWithinRoot("/root2/a", "/root"))
	assert.False(t, isWithinRoot("/etc", "/root"))
}
