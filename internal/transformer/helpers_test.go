package transformer

import (
	"os"
	"path/filepath"
	"testing"
)

type testDir struct {
	path string
	t    *testing.T
}

func newTestDir(t *testing.T) *testDir {
	t.Helper()

	dir, err := os.MkdirTemp("", "transformer-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	return &testDir{
		path: dir,
		t:    t,
	}
}

func (td *testDir) cleanup() {
	td.t.Helper()
	if err := os.RemoveAll(td.path); err != nil {
		td.t.Errorf("failed to cleanup test dir: %v", err)
	}
}

func (td *testDir) createFile(name, content string) string {
	td.t.Helper()

	path := filepath.Join(td.path, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		td.t.Fatalf("failed to create test file dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		td.t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func (td *testDir) join(elem ...string) string {
	return filepath.Join(append([]string{td.path}, elem...)...)
}
