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

// Package fsutil provides the narrow filesystem surface the bootstrap core
// needs: existence checks, directory listing, atomic rename, and recursive
// delete. Directory-level operations go through it; the wal, tablet and
// consensusmeta packages read and write their own file contents with the
// os package directly.
package fsutil

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Manager is the filesystem collaborator consumed by recovery, wal and
// bootstrap. Local is its only implementation in this module; the tests
// use Local too, rooted at a temporary directory.
type Manager interface {
	// Exists reports whether path exists (file or directory).
	Exists(path string) bool

	// CreateDirIfMissing creates path and any missing parents if they do
	// not already exist.
	CreateDirIfMissing(path string) error

	// ListDir lists the immediate children of path (file and directory
	// names, not full paths). Returns an empty slice if path is missing.
	ListDir(path string) ([]string, error)

	// Rename atomically renames src to dst. Both must be on the same
	// filesystem for atomicity to hold.
	Rename(src, dst string) error

	// DeleteFile removes a single file.
	DeleteFile(path string) error

	// DeleteRecursively removes path and everything under it.
	DeleteRecursively(path string) error

	// WalDir returns the active WAL directory for a tablet.
	WalDir(tabletID string) string

	// WalRecoveryDir returns the side recovery directory for a tablet.
	WalRecoveryDir(tabletID string) string

	// TabletMetaPath returns the path of a tablet's metadata file.
	TabletMetaPath(tabletID string) string

	// ConsensusMetaPath returns the path of a tablet's consensus metadata
	// file.
	ConsensusMetaPath(tabletID string) string
}

// Local is a Manager backed by the real OS filesystem, rooted under a
// single directory tree with one wal directory per tablet.
type Local struct {
	root string
}

// NewLocal returns a Manager rooted at root. The root directory is not
// created by this call; CreateDirIfMissing must be used as needed.
func NewLocal(root string) *Local {
	return &Local{root: root}
}

// Exists implements Manager.
func (l *Local) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreateDirIfMissing implements Manager.
func (l *Local) CreateDirIfMissing(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create dir %s", path)
	}
	return nil
}

// ListDir implements Manager.
func (l *Local) ListDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't list dir %s", path)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Rename implements Manager.
func (l *Local) Rename(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrapf(err, "could not create parent dir for %s", dst)
	}
	if err := os.Rename(src, dst); err != nil {
		return errors.Wrapf(err, "could not rename %s to %s", src, dst)
	}
	return nil
}

// DeleteFile implements Manager.
func (l *Local) DeleteFile(path string) error {
	if err := os.Remove(path); err != nil {
		return errors.Wrapf(err, "could not delete file %s", path)
	}
	return nil
}

// DeleteRecursively implements Manager.
func (l *Local) DeleteRecursively(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return errors.Wrapf(err, "could not remove %s recursively", path)
	}
	return nil
}

// WalDir implements Manager.
func (l *Local) WalDir(tabletID string) string {
	return filepath.Join(l.root, "wal", tabletID)
}

// WalRecoveryDir implements Manager.
func (l *Local) WalRecoveryDir(tabletID string) string {
	return filepath.Join(l.root, "wal-recovery", tabletID)
}

// TabletMetaPath implements Manager.
func (l *Local) TabletMetaPath(tabletID string) string {
	return filepath.Join(l.root, "meta", tabletID+".meta.yaml")
}

// ConsensusMetaPath implements Manager.
func (l *Local) ConsensusMetaPath(tabletID string) string {
	return filepath.Join(l.root, "consensus-meta", tabletID+".cmeta.yaml")
}
