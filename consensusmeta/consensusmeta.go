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

// Package consensusmeta is a minimal stand-in for the consensus metadata
// persistence layer bootstrap reads and (at most once) flushes: the
// committed quorum configuration. Consensus metadata persistence beyond
// this read/modify/flush cycle is owned by the consensus layer.
package consensusmeta

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/tabletstore/bootstrap/fsutil"
	"github.com/tabletstore/bootstrap/logentry"
)

// onDisk is the YAML-serializable shape of a tablet's consensus metadata
// file.
type onDisk struct {
	CommittedQuorum logentry.QuorumConfig `json:"committed_quorum"`
}

// Metadata holds one tablet's consensus metadata in memory. Mutations
// (SetCommittedQuorum) are only visible on disk after Flush.
type Metadata struct {
	mu   sync.RWMutex
	fs   fsutil.Manager
	path string

	committedQuorum logentry.QuorumConfig
}

// Load reads the consensus metadata file for tabletID. The file must
// already exist -- consensus metadata is created when a tablet is first
// created, outside the scope of this engine -- and a missing file is
// reported as a NotFound-flavored error the orchestrator fails loudly on.
func Load(fs fsutil.Manager, tabletID string) (*Metadata, error) {
	path := fs.ConsensusMetaPath(tabletID)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "consensus metadata not found for tablet %s", tabletID)
		}
		return nil, errors.Wrapf(err, "unable to load consensus metadata for tablet %s", tabletID)
	}

	var d onDisk
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrapf(err, "corrupt consensus metadata for tablet %s", tabletID)
	}

	return &Metadata{
		fs:              fs,
		path:            path,
		committedQuorum: d.CommittedQuorum,
	}, nil
}

// Create writes a brand-new consensus metadata file with the given
// initial committed quorum. Used by tests and by tablet-creation flows
// (outside this engine's scope) to seed a tablet before its first
// bootstrap.
func Create(fs fsutil.Manager, tabletID string, initial logentry.QuorumConfig) (*Metadata, error) {
	path := fs.ConsensusMetaPath(tabletID)
	m := &Metadata{fs: fs, path: path, committedQuorum: initial}
	if err := m.Flush(); err != nil {
		return nil, err
	}
	return m, nil
}

// CommittedQuorumSeqNo returns the sequence number of the in-memory
// committed quorum configuration.
func (m *Metadata) CommittedQuorumSeqNo() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.committedQuorum.SeqNo
}

// SetCommittedQuorum overwrites the in-memory committed quorum. Not
// visible on disk until Flush.
func (m *Metadata) SetCommittedQuorum(q logentry.QuorumConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committedQuorum = q
}

// Flush persists the in-memory consensus metadata to disk. Bootstrap
// calls this exactly once, at the end of a successful replay.
func (m *Metadata) Flush() error {
	m.mu.RLock()
	d := onDisk{CommittedQuorum: m.committedQuorum}
	m.mu.RUnlock()

	raw, err := yaml.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "failed to encode consensus metadata")
	}

	dir := filepath.Dir(m.path)
	if err := m.fs.CreateDirIfMissing(dir); err != nil {
		return err
	}
	if err := os.WriteFile(m.path, raw, 0o644); err != nil {
		return errors.Wrapf(err, "failed to flush consensus metadata to %s", m.path)
	}
	return nil
}
