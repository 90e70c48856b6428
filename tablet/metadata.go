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

// Package tablet is a reference implementation of the tablet storage
// engine collaborator that bootstrap replays into. The real engine
// (rowset materialization, memstore, MVCC, row locks, schema application)
// lives elsewhere; this package provides the minimal, in-memory stand-in
// needed to exercise and test the replay engine end to end.
package tablet

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/tabletstore/bootstrap/fsutil"
)

// RemoteBootstrapState records whether a remote (cross-node) bootstrap
// copy into this tablet's directory has completed. Locally bootstrapping
// a tablet stuck mid remote-copy is corruption.
type RemoteBootstrapState int

const (
	// RemoteBootstrapDone means no remote copy is in flight; local
	// bootstrap may proceed.
	RemoteBootstrapDone RemoteBootstrapState = iota
	// RemoteBootstrapInProgress means a remote copy has not finished;
	// local state may be partial.
	RemoteBootstrapInProgress
)

// RowSetMetadata is the persisted metadata of one on-disk rowset (DRS):
// just enough to answer the "was this delta-memstore already flushed"
// question bootstrap's write filter needs.
type RowSetMetadata struct {
	RSID                 int64 `json:"rs_id"`
	LastDurableRedoDMSID int64 `json:"last_durable_redo_dms_id"`
}

// SuperBlock is the serializable snapshot of a tablet's on-disk metadata.
type SuperBlock struct {
	TabletID             string           `json:"tablet_id"`
	TableName            string           `json:"table_name"`
	StartKey             []byte           `json:"start_key"`
	EndKey               []byte           `json:"end_key"`
	LastDurableMRSID     int64            `json:"last_durable_mrs_id"`
	RemoteBootstrapState int              `json:"remote_bootstrap_state"`
	RowSets              []RowSetMetadata `json:"row_sets"`
}

// Metadata is a tablet's on-disk metadata: which memrowset/rowsets are
// durable, and whether a remote bootstrap copy is still in flight.
type Metadata struct {
	mu sync.RWMutex

	fs  fsutil.Manager
	oid string

	tableName string
	startKey  []byte
	endKey    []byte

	lastDurableMRSID     int64
	rowSets              map[int64]*RowSetMetadata
	remoteBootstrapState RemoteBootstrapState

	pinned bool
}

// NewMetadata creates brand-new (empty) metadata for a tablet that has
// never been flushed: no rowsets, lastDurableMRSID = -1 (no mrs id is
// ever <= -1, so bootstrap's wasFlushed correctly reports "not flushed"
// for any real mrs id).
func NewMetadata(fs fsutil.Manager, tabletID string) *Metadata {
	return &Metadata{
		fs:                   fs,
		oid:                  tabletID,
		lastDurableMRSID:     -1,
		rowSets:              make(map[int64]*RowSetMetadata),
		remoteBootstrapState: RemoteBootstrapDone,
	}
}

// LoadOrCreateMetadata loads a tablet's metadata file if it exists, or
// returns brand-new empty metadata otherwise (mirroring how a freshly
// created tablet has metadata but no rowsets yet).
func LoadOrCreateMetadata(fs fsutil.Manager, tabletID string) (*Metadata, error) {
	path := fs.TabletMetaPath(tabletID)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewMetadata(fs, tabletID), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load tablet metadata for %s", tabletID)
	}

	var sb SuperBlock
	if err := yaml.Unmarshal(raw, &sb); err != nil {
		return nil, errors.Wrapf(err, "corrupt tablet metadata for %s", tabletID)
	}

	m := &Metadata{
		fs:                   fs,
		oid:                  tabletID,
		tableName:            sb.TableName,
		startKey:             sb.StartKey,
		endKey:               sb.EndKey,
		lastDurableMRSID:     sb.LastDurableMRSID,
		rowSets:              make(map[int64]*RowSetMetadata, len(sb.RowSets)),
		remoteBootstrapState: RemoteBootstrapState(sb.RemoteBootstrapState),
	}
	for i := range sb.RowSets {
		rs := sb.RowSets[i]
		m.rowSets[rs.RSID] = &rs
	}
	return m, nil
}

// FsManager returns the filesystem collaborator this metadata (and its
// tablet) was opened against.
func (m *Metadata) FsManager() fsutil.Manager { return m.fs }

// OID returns the tablet's id.
func (m *Metadata) OID() string { return m.oid }

// TableName returns the name of the table this tablet is a shard of.
func (m *Metadata) TableName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tableName
}

// StartKey returns the inclusive lower bound of this tablet's key range.
func (m *Metadata) StartKey() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.startKey
}

// EndKey returns the exclusive upper bound of this tablet's key range.
func (m *Metadata) EndKey() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.endKey
}

// SetTableInfo is a test/setup seam for seeding a tablet's table name and
// key range before a bootstrap run; real tablet creation (outside this
// engine's scope) sets these once, at tablet-creation time.
func (m *Metadata) SetTableInfo(tableName string, startKey, endKey []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tableName = tableName
	m.startKey = startKey
	m.endKey = endKey
}

// RemoteBootstrapState returns whether a remote bootstrap copy is still
// in flight.
func (m *Metadata) RemoteBootstrapState() RemoteBootstrapState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.remoteBootstrapState
}

// SetRemoteBootstrapState is a test/setup seam; real remote-bootstrap
// completion is out of scope for this engine.
func (m *Metadata) SetRemoteBootstrapState(s RemoteBootstrapState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remoteBootstrapState = s
}

// PinFlush marks the metadata as pinned for the duration of a bootstrap.
// The pin is only recorded: Flush does not consult it, so a Flush call
// made while pinned still writes to disk.
func (m *Metadata) PinFlush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinned = true
}

// UnpinFlush releases the pin taken by PinFlush.
func (m *Metadata) UnpinFlush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinned = false
	return nil
}

// LastDurableMRSID returns the highest memrowset id known to be flushed
// to a rowset.
func (m *Metadata) LastDurableMRSID() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastDurableMRSID
}

// GetRowSetMetadata looks up a rowset's metadata by id. A missing rowset
// means it was compacted away since the commit referencing it was
// written -- the caller should treat that as "already flushed".
func (m *Metadata) GetRowSetMetadata(rsID int64) (RowSetMetadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rs, ok := m.rowSets[rsID]
	if !ok {
		return RowSetMetadata{}, false
	}
	return *rs, true
}

// NumRowSets reports how many rowsets are currently known to this
// tablet's metadata.
func (m *Metadata) NumRowSets() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rowSets)
}

// PutRowSetMetadata is a test/setup seam for seeding rowsets before a
// bootstrap run.
func (m *Metadata) PutRowSetMetadata(rs RowSetMetadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rowSets[rs.RSID] = &rs
}

// SetLastDurableMRSID is a test/setup seam for seeding the flushed-mrs
// watermark before a bootstrap run.
func (m *Metadata) SetLastDurableMRSID(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastDurableMRSID = id
}

// ToSuperblock returns a serializable snapshot of the tablet's metadata.
func (m *Metadata) ToSuperblock() (SuperBlock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sb := SuperBlock{
		TabletID:             m.oid,
		TableName:            m.tableName,
		StartKey:             m.startKey,
		EndKey:               m.endKey,
		LastDurableMRSID:     m.lastDurableMRSID,
		RemoteBootstrapState: int(m.remoteBootstrapState),
	}
	for _, rs := range m.rowSets {
		sb.RowSets = append(sb.RowSets, *rs)
	}
	return sb, nil
}

// Flush persists the tablet's metadata to disk.
func (m *Metadata) Flush() error {
	sb, _ := m.ToSuperblock()
	raw, err := yaml.Marshal(sb)
	if err != nil {
		return errors.Wrap(err, "failed to encode tablet metadata")
	}
	path := m.fs.TabletMetaPath(m.oid)
	if err := m.fs.CreateDirIfMissing(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errors.Wrapf(err, "failed to flush tablet metadata for %s", m.oid)
	}
	return nil
}
