// Package testutil holds helpers shared by pyreview tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to a file, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads content from a file.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SamplePython is a small module with one branchy function, used as the
// analyzed file in tests.
const SamplePython = `import os


class Tower:
    def __init__(self, x, y):
        self.x = x
        self.y = y

    def fire(self, enemies):
        for e in enemies:
            if e.alive and e.distance(self) < 5:
                e.hit()


def main():
    t = Tower(1, 2)
    print(t)
`

// WritePython writes SamplePython (or content, when given) to dir/name and
// returns the path.
func WritePython(t *testing.T, dir, name string, content ...string) string {
	t.Helper()
	body := SamplePython
	if len(content) > 0 {
		body = content[0]
	}
	path := filepath.Join(dir, name)
	WriteFile(t, path, body)
	return path
}
