// Copyright (c) 2016 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package recovery implements the crash-consistency pivot of tablet
// bootstrap: atomically relocating the live WAL directory to a side
// "recovery" directory before replay, and safely resuming from (or
// cleaning up) a recovery directory left behind by an interrupted prior
// attempt.
package recovery

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/tabletstore/bootstrap/fsutil"
	"github.com/tabletstore/bootstrap/wal"
	"go.uber.org/zap"
)

// NowFn returns the current time in microseconds since the epoch. It is a
// seam for tests that need deterministic recovery-directory naming.
type NowFn func() int64

func defaultNowFn() int64 {
	return time.Now().UnixMicro()
}

// Manager stages and tears down a single tablet's WAL recovery directory.
type Manager struct {
	fs       fsutil.Manager
	tabletID string
	log      *zap.Logger
	nowFn    NowFn

	// SkipRemoveOldRecoveryDir keeps the timestamped recovery directory
	// on disk (after the atomic rename that makes its removal
	// observationally atomic) instead of recursively deleting it --
	// useful for forensic inspection of a completed bootstrap.
	SkipRemoveOldRecoveryDir bool
}

// NewManager returns a recovery Manager for one tablet.
func NewManager(fs fsutil.Manager, tabletID string, logger *zap.Logger) *Manager {
	return &Manager{
		fs:       fs,
		tabletID: tabletID,
		log:      logger,
		nowFn:    defaultNowFn,
	}
}

// PrepareRecovery stages the WAL segments that must be replayed under the
// recovery directory and reports whether replay is needed at all.
//
//   - If the recovery directory already exists, a previous bootstrap was
//     interrupted after staging; any stray segment files re-created in the
//     WAL directory since then are deleted, and needsRecovery is true.
//   - Else if the WAL directory is missing or contains no segment files,
//     this is a brand-new (or already fully flushed + GC'd) tablet;
//     needsRecovery is false.
//   - Else the WAL directory is atomically renamed to the recovery
//     directory and an empty WAL directory is re-created in its place;
//     needsRecovery is true. This rename is the crash-consistency pivot:
//     once it succeeds, recovery is restartable from scratch at any
//     later point.
func (m *Manager) PrepareRecovery() (needsRecovery bool, err error) {
	walDir := m.fs.WalDir(m.tabletID)
	recDir := m.fs.WalRecoveryDir(m.tabletID)

	if m.fs.Exists(recDir) {
		m.log.Info("replaying from previous recovery directory", zap.String("recovery_dir", recDir))
		if m.fs.Exists(walDir) {
			children, err := m.fs.ListDir(walDir)
			if err != nil {
				return false, errors.Wrap(err, "couldn't list log segments")
			}
			for _, child := range children {
				if !wal.IsSegmentFileName(child) {
					continue
				}
				path := walDir + "/" + child
				m.log.Info("removing stray log file from aborted recovery attempt", zap.String("path", path))
				if err := m.fs.DeleteFile(path); err != nil {
					return false, err
				}
			}
		} else if err := m.fs.CreateDirIfMissing(walDir); err != nil {
			return false, errors.Wrap(err, "failed to create wal dir")
		}
		return true, nil
	}

	if !m.fs.Exists(walDir) {
		if err := m.fs.CreateDirIfMissing(walDir); err != nil {
			return false, errors.Wrap(err, "failed to create wal dir")
		}
		return false, nil
	}

	children, err := m.fs.ListDir(walDir)
	if err != nil {
		return false, errors.Wrap(err, "couldn't list log segments")
	}

	hasSegments := false
	for _, child := range children {
		if wal.IsSegmentFileName(child) {
			hasSegments = true
			break
		}
	}
	if !hasSegments {
		return false, nil
	}

	if err := m.fs.Rename(walDir, recDir); err != nil {
		return false, errors.Wrapf(err, "could not move wal dir %s to recovery dir %s", walDir, recDir)
	}
	m.log.Info("moved wal directory to recovery directory", zap.String("wal_dir", walDir), zap.String("recovery_dir", recDir))

	if err := m.fs.CreateDirIfMissing(walDir); err != nil {
		return false, errors.Wrapf(err, "failed to recreate wal dir %s", walDir)
	}
	return true, nil
}

// RemoveRecovery makes the now-replayed recovery directory's removal
// observationally atomic: it is first renamed to a timestamped sibling,
// then (unless SkipRemoveOldRecoveryDir is set) recursively deleted.
// Requires the recovery directory to exist.
func (m *Manager) RemoveRecovery() error {
	recDir := m.fs.WalRecoveryDir(m.tabletID)
	if !m.fs.Exists(recDir) {
		return errors.Errorf("wal recovery dir %s does not exist", recDir)
	}

	tmpPath := fmt.Sprintf("%s-%d", recDir, m.nowFn())
	if err := m.fs.Rename(recDir, tmpPath); err != nil {
		return errors.Wrapf(err, "could not rename old recovery dir from %s to %s", recDir, tmpPath)
	}
	m.log.Info("renamed old recovery dir", zap.String("from", recDir), zap.String("to", tmpPath))

	if m.SkipRemoveOldRecoveryDir {
		m.log.Info("skip_remove_old_recovery_dir enabled, not removing", zap.String("path", tmpPath))
		return nil
	}

	if err := m.fs.DeleteRecursively(tmpPath); err != nil {
		return errors.Wrapf(err, "could not remove renamed recovery dir %s", tmpPath)
	}
	m.log.Info("removed renamed recovery dir", zap.String("path", tmpPath))
	return nil
}
