// Package testutil loads the per-bank fixtures kept under
// <bank>/testdata/fixtures.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// FixtureDir returns the fixtures directory of bankDir (for example "leumi").
func FixtureDir(bankDir string) string {
	_, filename, _, _ := runtime.Caller(0)
	baseDir := filepath.Dir(filepath.Dir(filename)) // up to bank/

	return filepath.Join(baseDir, bankDir, "testdata", "fixtures")
}

// LoadFixture reads a fixture file, name including its extension.
func LoadFixture(t *testing.T, bankDir, name string) string {
	t.Helper()
	return string(LoadFixtureBytes(t, bankDir, name))
}

func LoadFixtureBytes(t *testing.T, bankDir, name string) []byte {
	t.Helper()

	path := filepath.Join(FixtureDir(bankDir), name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to load fixture %s/%s: %v", bankDir, name, err)
	}

	return data
}
