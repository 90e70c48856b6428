package recovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tabletstore/bootstrap/fsutil"
	"github.com/tabletstore/bootstrap/wal"
	"go.uber.org/zap"
)

func writeSegment(t *testing.T, dir string, seq int64) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, wal.SegmentFileName(seq))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestPrepareRecoveryFreshTablet(t *testing.T) {
	fs := fsutil.NewLocal(t.TempDir())
	m := NewManager(fs, "t1", zap.NewNop())

	needs, err := m.PrepareRecovery()
	require.NoError(t, err)
	require.False(t, needs)
	require.True(t, fs.Exists(fs.WalDir("t1")))
}

func TestPrepareRecoveryExistingSegments(t *testing.T) {
	fs := fsutil.NewLocal(t.TempDir())
	writeSegment(t, fs.WalDir("t1"), 0)

	m := NewManager(fs, "t1", zap.NewNop())
	needs, err := m.PrepareRecovery()
	require.NoError(t, err)
	require.True(t, needs)

	require.False(t, fs.Exists(fs.WalDir("t1")+"/"+wal.SegmentFileName(0)))
	require.True(t, fs.Exists(fs.WalRecoveryDir("t1")))
	children, err := fs.ListDir(fs.WalRecoveryDir("t1"))
	require.NoError(t, err)
	require.Contains(t, children, wal.SegmentFileName(0))
}

func TestPrepareRecoveryResumesFromPreviousAttempt(t *testing.T) {
	fs := fsutil.NewLocal(t.TempDir())
	writeSegment(t, fs.WalRecoveryDir("t1"), 0)
	writeSegment(t, fs.WalDir("t1"), 1) // stray file from aborted new WAL

	m := NewManager(fs, "t1", zap.NewNop())
	needs, err := m.PrepareRecovery()
	require.NoError(t, err)
	require.True(t, needs)

	children, err := fs.ListDir(fs.WalDir("t1"))
	require.NoError(t, err)
	require.Empty(t, children, "stray segment from aborted recovery must be removed")
}

func TestRemoveRecovery(t *testing.T) {
	fs := fsutil.NewLocal(t.TempDir())
	writeSegment(t, fs.WalRecoveryDir("t1"), 0)

	m := NewManager(fs, "t1", zap.NewNop())
	m.nowFn = func() int64 { return 42 }

	require.NoError(t, m.RemoveRecovery())
	require.False(t, fs.Exists(fs.WalRecoveryDir("t1")))
	require.False(t, fs.Exists(fs.WalRecoveryDir("t1")+"-42"))
}

func TestRemoveRecoverySkipDelete(t *testing.T) {
	fs := fsutil.NewLocal(t.TempDir())
	writeSegment(t, fs.WalRecoveryDir("t1"), 0)

	m := NewManager(fs, "t1", zap.NewNop())
	m.nowFn = func() int64 { return 99 }
	m.SkipRemoveOldRecoveryDir = true

	require.NoError(t, m.RemoveRecovery())
	require.True(t, fs.Exists(fs.WalRecoveryDir("t1")+"-99"))
}
