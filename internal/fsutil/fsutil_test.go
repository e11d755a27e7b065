package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveFile_Rename(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0644))

	require.NoError(t, MoveFile(src, dst))

	assert.FileExists(t, dst)
	assert.NoFileExists(t, src)
}

func TestCopyThenDelete(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0640))

	require.NoError(t, copyThenDelete(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
	assert.NoFileExists(t, src)

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())
}

func TestCopyThenDelete_RefusesExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

	err := copyThenDelete(src, dst)
	assert.Error(t, err)

	// Neither side was disturbed.
	data, _ := os.ReadFile(dst)
	assert.Equal(t, "old", string(data))
	assert.FileExists(t, src)
}

func TestResolveCollision(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "doc.pdf")

	// Free path comes back untouched.
	got, err := ResolveCollision(target)
	require.NoError(t, err)
	assert.Equal(t, target, got)

	// Occupied path gets a numeric suffix before the extension.
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
	got, err = ResolveCollision(target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "doc_1.pdf"), got)

	require.NoError(t, os.WriteFile(got, []byte("x"), 0644))
	got, err = ResolveCollision(target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "doc_2.pdf"), got)
}
