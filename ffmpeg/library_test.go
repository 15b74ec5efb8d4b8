package ffmpeg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibPathsOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.so")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	t.Setenv(LibPathEnv, dir)
	paths := libPaths(file)
	require.GreaterOrEqual(t, len(paths), 2)
	assert.Equal(t, file, paths[0])
	assert.Equal(t, filepath.Join(dir, libName()), paths[1])
}

func TestLibPathsDefault(t *testing.T) {
	t.Setenv(LibPathEnv, "")
	paths := libPaths("")
	assert.Contains(t, paths, libName())
	for _, p := range paths {
		assert.Equal(t, libName(), filepath.Base(p))
	}
}

func TestFindModuleRoot(t *testing.T) {
	root := findModuleRoot()
	require.NotEmpty(t, root)
	_, err := os.Stat(filepath.Join(root, "go.mod"))
	assert.NoError(t, err)
}
