package devenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsWorkspaceRoot(t *testing.T) {
	dir := t.TempDir()
	require.False(t, isWorkspaceRoot(dir))

	err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module other-module\n\ngo 1.22.2\n"), 0600)
	require.NoError(t, err)
	require.False(t, isWorkspaceRoot(dir))

	err = os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module wilma-backend\n\ngo 1.22.2\n"), 0600)
	require.NoError(t, err)
	require.True(t, isWorkspaceRoot(dir))
}

func TestGetWorkspaceRoot(t *testing.T) {
	root, err := GetWorkspaceRoot()
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "go.mod"))
	require.NoError(t, err)

	stateDir, err := GetStateDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "dev", ".state"), stateDir)
}
