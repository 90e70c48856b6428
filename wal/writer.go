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

package wal

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/tabletstore/bootstrap/fsutil"
	"github.com/tabletstore/bootstrap/logentry"
	"go.uber.org/zap"
)

// Log is the fresh WAL writer that bootstrap opens before replay and
// hands back to the caller once replay completes.
type Log struct {
	mu   sync.Mutex
	fs   fsutil.Manager
	log  *zap.Logger
	file *os.File
	sync bool
}

// Open creates a new, empty-sequence WAL segment in the tablet's (already
// clean) WAL directory. Sync is enabled by default; DisableSync is a
// performance opt-out specific to bulk replay.
func Open(fs fsutil.Manager, tabletID string, logger *zap.Logger) (*Log, error) {
	dir := fs.WalDir(tabletID)
	if err := fs.CreateDirIfMissing(dir); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, SegmentFileName(0))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open new wal segment %s", path)
	}

	return &Log{
		fs:   fs,
		log:  logger,
		file: f,
		sync: true,
	}, nil
}

// Append writes one entry to the log, fsyncing if sync is currently
// enabled.
func (l *Log) Append(e *logentry.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := writeFrame(l.file, e); err != nil {
		return errors.Wrap(err, "failed to append wal entry")
	}
	if l.sync {
		if err := l.file.Sync(); err != nil {
			return errors.Wrap(err, "failed to fsync wal segment")
		}
	}
	return nil
}

// DisableSync turns off per-append fsync, speeding up bulk replay. The
// caller is responsible for calling ReEnableSyncIfRequired once replay is
// complete.
func (l *Log) DisableSync() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sync {
		l.log.Debug("disabling wal sync for bulk replay")
	}
	l.sync = false
}

// ReEnableSyncIfRequired restores normal fsync-per-append behavior and
// flushes once to make sure everything written while sync was disabled is
// durable before resuming ordinary operation.
func (l *Log) ReEnableSyncIfRequired() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sync {
		return nil
	}
	l.sync = true
	if err := l.file.Sync(); err != nil {
		return errors.Wrap(err, "failed to fsync wal segment on re-enabling sync")
	}
	return nil
}

// Close flushes and closes the underlying segment file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Sync(); err != nil {
		return errors.Wrap(err, "failed to fsync wal segment on close")
	}
	return l.file.Close()
}
