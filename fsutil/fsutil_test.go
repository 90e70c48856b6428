package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBasics(t *testing.T) {
	root := t.TempDir()
	fs := NewLocal(root)

	walDir := fs.WalDir("t1")
	assert.False(t, fs.Exists(walDir))
	require.NoError(t, fs.CreateDirIfMissing(walDir))
	assert.True(t, fs.Exists(walDir))

	require.NoError(t, fs.CreateDirIfMissing(filepath.Join(walDir, "sub")))

	children, err := fs.ListDir(walDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"sub"}, children)

	recDir := fs.WalRecoveryDir("t1")
	require.NoError(t, fs.Rename(walDir, recDir))
	assert.False(t, fs.Exists(walDir))
	assert.True(t, fs.Exists(recDir))

	require.NoError(t, fs.DeleteRecursively(recDir))
	assert.False(t, fs.Exists(recDir))
}

func TestLocalListDirMissing(t *testing.T) {
	fs := NewLocal(t.TempDir())
	children, err := fs.ListDir(filepath.Join(fs.WalDir("nope")))
	require.NoError(t, err)
	assert.Empty(t, children)
}
