package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/shade/internal/fileutil"
)

func TestWriteAtomic(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "keystore.age")

	require.NoError(t, fileutil.WriteAtomic(path, []byte("v1"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteAtomicOverwrites(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "keystore.age")

	require.NoError(t, fileutil.WriteAtomic(path, []byte("v1"), 0o600))
	require.NoError(t, fileutil.WriteAtomic(path, []byte("v2"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestWriteAtomicEmptyPath(t *testing.T) {
	t.Parallel()
	require.ErrorIs(t, fileutil.WriteAtomic("", []byte("x"), 0o600), fileutil.ErrEmptyPath)
}

func TestWriteAtomicLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "keystore.age")

	require.NoError(t, fileutil.WriteAtomic(path, []byte("v1"), 0o600))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keystore.age", entries[0].Name())
}
