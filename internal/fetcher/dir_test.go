package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDocument(t *testing.T) {
	assert.True(t, IsDocument("claim.PDF"))
	assert.True(t, IsDocument("scans/form-a.jpeg"))
	assert.True(t, IsDocument("claim.txt"))
	assert.False(t, IsDocument("statewise.xlsx"))
	assert.False(t, IsDocument("README"))
}

func TestDirSource_ListAndRead(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "koraput"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".trash"), 0o755))
	require.NoError(t, writeTestFile(filepath.Join(root, "b.pdf"), "%PDF-1.4"))
	require.NoError(t, writeTestFile(filepath.Join(root, "koraput", "a.txt"), "Claimant Name: Sukru Majhi"))
	require.NoError(t, writeTestFile(filepath.Join(root, "notes.md"), "skip"))
	require.NoError(t, writeTestFile(filepath.Join(root, ".hidden.pdf"), "skip"))
	require.NoError(t, writeTestFile(filepath.Join(root, ".trash", "old.pdf"), "skip"))

	src := NewDirSource(root)
	names, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b.pdf", "koraput/a.txt"}, names)

	data, err := src.Read(context.Background(), "koraput/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "Claimant Name: Sukru Majhi", string(data))
}

func TestDirSource_ReadRejectsEscape(t *testing.T) {
	src := NewDirSource(t.TempDir())
	_, err := src.Read(context.Background(), "../etc/passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal path")
}

func TestDirSource_MissingRoot(t *testing.T) {
	_, err := NewDirSource("/nonexistent/scans").List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dir: list")
}

func TestDirSource_CancelledContext(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, writeTestFile(filepath.Join(root, "a.pdf"), "%PDF"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirSource(root).List(ctx)
	require.Error(t, err)
}
