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

// Package bootstrap implements the tablet bootstrap core: the replay
// engine that rebuilds a tablet's runtime state from its write-ahead log
// on server restart. Bootstrap drives the flow; replayState pairs
// replicates with their commits, the dispatcher routes matched pairs to
// operation handlers, and filterAndApply suppresses row operations
// already captured by flushed on-disk state.
package bootstrap

import (
	"time"

	"go.uber.org/zap"

	"github.com/tabletstore/bootstrap/consensusmeta"
	"github.com/tabletstore/bootstrap/fsutil"
	"github.com/tabletstore/bootstrap/logentry"
	"github.com/tabletstore/bootstrap/opid"
	"github.com/tabletstore/bootstrap/recovery"
	"github.com/tabletstore/bootstrap/tablet"
	"github.com/tabletstore/bootstrap/wal"
)

// Result is published by a successful Bootstrap call: the rebuilt
// tablet and fresh WAL the caller should adopt, plus the replay summary
// the consensus layer needs to reconcile its own state.
type Result struct {
	Tablet            *tablet.Tablet
	Log               *wal.Log
	TabletMetadata    *tablet.Metadata
	ConsensusMetadata *consensusmeta.Metadata

	// AnchorRegistry is the (initially empty) anchor table the caller
	// threads into the log retention layer: in-memory stores register
	// the earliest OpId they still need retained.
	AnchorRegistry *opid.AnchorRegistry

	LastID             opid.ID
	LastCommittedID    opid.ID
	OrphanedReplicates []*logentry.Replicate
}

// Bootstrap runs the tablet bootstrap orchestrator for tabletID
// against fs. On success, the returned
// Result's Tablet and Log are ready for the caller to publish; on
// failure, no partial state is returned and the recovery directory (if
// any) is left in place for a subsequent retry.
func Bootstrap(fs fsutil.Manager, tabletID string, opts Options) (*Result, error) {
	if opts == nil {
		opts = NewOptions()
	}
	log := opts.Logger()
	metrics := NewMetrics(opts.MetricsScope())
	listener := opts.StatusListener()
	started := time.Now()
	defer func() { metrics.BootstrapLatency.Record(time.Since(started)) }()

	cmeta, err := consensusmeta.Load(fs, tabletID)
	if err != nil {
		return nil, newError(NotFound, err, "consensus metadata missing for tablet %s", tabletID)
	}

	tmeta, err := tablet.LoadOrCreateMetadata(fs, tabletID)
	if err != nil {
		return nil, newError(IOError, err, "failed to load tablet metadata for %s", tabletID)
	}
	if tmeta.RemoteBootstrapState() != tablet.RemoteBootstrapDone {
		return nil, newError(Corruption, nil, "tablet %s has an in-progress remote bootstrap", tabletID)
	}

	tmeta.PinFlush()
	unpinned := false
	unpin := func() error {
		if unpinned {
			return nil
		}
		unpinned = true
		return tmeta.UnpinFlush()
	}
	defer unpin()

	anchors := opid.NewAnchorRegistry()

	tab := tablet.New(tmeta)
	if err := tab.Open(); err != nil {
		return nil, newError(IOError, err, "failed to open tablet %s", tabletID)
	}
	listener.Bind(tab)
	fetchedBlocks := tab.NumRowSets() > 0

	recMgr := recovery.NewManager(fs, tabletID, log)
	recMgr.SkipRemoveOldRecoveryDir = opts.SkipRemoveOldRecoveryDir()

	needsRecovery, err := recMgr.PrepareRecovery()
	if err != nil {
		return nil, newError(IOError, err, "failed to prepare recovery for tablet %s", tabletID)
	}

	switch {
	case !fetchedBlocks && !needsRecovery:
		newLog, err := wal.Open(fs, tabletID, log)
		if err != nil {
			return nil, newError(IOError, err, "failed to open fresh wal for new tablet %s", tabletID)
		}
		if err := unpin(); err != nil {
			return nil, newError(Internal, err, "failed to unpin tablet metadata for %s", tabletID)
		}
		return &Result{
			Tablet:            tab,
			Log:               newLog,
			TabletMetadata:    tmeta,
			ConsensusMetadata: cmeta,
			AnchorRegistry:    anchors,
		}, nil

	case fetchedBlocks && !needsRecovery:
		return nil, newError(IllegalState, nil,
			"tablet %s has on-disk rowsets but no write-ahead log segments to replay", tabletID)
	}

	newLog, err := wal.Open(fs, tabletID, log)
	if err != nil {
		return nil, newError(IOError, err, "failed to open fresh wal for tablet %s", tabletID)
	}
	newLog.DisableSync()

	reader, err := wal.OpenFromRecoveryDir(fs, tabletID)
	if err != nil {
		return nil, newError(IOError, err, "failed to open recovery directory reader for tablet %s", tabletID)
	}

	state := newReplayState()
	d := &dispatcher{
		log:           log,
		metrics:       metrics,
		clock:         opts.Clock(),
		tabletMeta:    tmeta,
		engine:        tab,
		consensusMeta: cmeta,
		newWAL:        newLog,
	}

	if err := playSegments(d, reader, state, listener); err != nil {
		// Recovery directory is intentionally left in place: a retry
		// resumes from it.
		return nil, err
	}

	if err := newLog.ReEnableSyncIfRequired(); err != nil {
		return nil, newError(IOError, err, "failed to re-enable wal sync for tablet %s", tabletID)
	}
	if err := cmeta.Flush(); err != nil {
		return nil, newError(IOError, err, "failed to flush consensus metadata for tablet %s", tabletID)
	}
	if err := unpin(); err != nil {
		return nil, newError(Internal, err, "failed to unpin tablet metadata for %s", tabletID)
	}
	if err := recMgr.RemoveRecovery(); err != nil {
		return nil, newError(IOError, err, "failed to remove recovery directory for tablet %s", tabletID)
	}

	orphans := state.drainOrphans()
	orphaned := make([]*logentry.Replicate, 0, len(orphans))
	for _, e := range orphans {
		orphaned = append(orphaned, e.Replicate)
	}
	metrics.OrphanedReplicates.Update(float64(len(orphaned)))
	logOrphanedReplicates(log, tabletID, orphans)

	return &Result{
		Tablet:             tab,
		Log:                newLog,
		TabletMetadata:     tmeta,
		ConsensusMetadata:  cmeta,
		AnchorRegistry:     anchors,
		LastID:             state.prevOpID,
		LastCommittedID:    state.committedOpID,
		OrphanedReplicates: orphaned,
	}, nil
}

// logOrphanedReplicates announces, at Info level, every REPLICATE entry
// that reached end-of-log with no matching COMMIT.
// These are not errors -- the consensus layer decides whether to drive
// them to completion or truncate them -- but an operator restarting a
// tablet should see them called out by id rather than buried in a count.
func logOrphanedReplicates(log *zap.Logger, tabletID string, orphans []*logentry.Entry) {
	if len(orphans) == 0 {
		return
	}
	log.Info("bootstrap found orphaned replicates with no matching commit",
		zap.String("tablet_id", tabletID), zap.Int("count", len(orphans)))
	for _, e := range orphans {
		log.Info("orphaned replicate", zap.String("tablet_id", tabletID), zap.String("entry", describeEntry(e)))
	}
}
