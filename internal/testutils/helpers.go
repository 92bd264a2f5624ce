package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupWorkspace creates a temporary directory to seed a markdown workspace
// in. It returns the absolute path to the temp dir.
// It fails the test immediately on error.
func SetupWorkspace(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	// Loam prefers absolute paths, though t.TempDir usually returns one.
	// Ensuring it is absolute is safe.
	absPath, err := filepath.Abs(tmpDir)
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	return absPath
}

// WriteDoc writes one workspace document at a path relative to dir,
// creating parent directories as needed.
func WriteDoc(t *testing.T, dir, rel, content string) {
	t.Helper()

	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755), "Failed to create document directory")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "Failed to write document")
}
