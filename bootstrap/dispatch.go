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

package bootstrap

import (
	"github.com/tabletstore/bootstrap/clock"
	"github.com/tabletstore/bootstrap/logentry"
	"github.com/tabletstore/bootstrap/tablet"
	"github.com/tabletstore/bootstrap/wal"
	"go.uber.org/zap"
)

// dispatcher routes each matched (REPLICATE, COMMIT) pair
// to the right operation handler,
// advances the clock, and appends the authoritative commit record to
// the fresh WAL.
type dispatcher struct {
	log           *zap.Logger
	metrics       *Metrics
	clock         clock.Clock
	tabletMeta    TabletMetadata
	engine        TabletEngine
	consensusMeta ConsensusMetadata
	newWAL        *wal.Log
}

// handlePair dispatches one matched (replicate, commit) pair.
func (d *dispatcher) handlePair(segment int64, index int, replicate, commit *logentry.Entry) error {
	c := commit.Commit

	switch c.OpType {
	case logentry.OpAbort:
		d.log.Debug("skipping aborted replicate", zap.Stringer("op_id", replicate.ID))
		return nil
	case logentry.OpWrite:
		if err := d.playWrite(segment, index, replicate, commit); err != nil {
			return err
		}
	case logentry.OpAlterSchema:
		if err := d.playAlterSchema(segment, index, replicate, commit); err != nil {
			return err
		}
	case logentry.OpChangeConfig:
		if err := d.playChangeConfig(segment, index, replicate, commit); err != nil {
			return err
		}
	default:
		return wrapEntry(Corruption, nil, segment, index, commit, "unrecognized committed op type %v", c.OpType)
	}

	if err := d.clock.Update(c.Timestamp); err != nil {
		return wrapEntry(Internal, err, segment, index, commit, "failed to advance clock past commit timestamp")
	}
	d.metrics.OpsReplayed.Inc(1)
	return nil
}

// playWrite replays a committed row-mutating write: filters and applies
// its row operations, then appends a new commit record with a freshly
// recomputed per-op result set.
func (d *dispatcher) playWrite(segment int64, index int, replicate, commit *logentry.Entry) error {
	req := replicate.Replicate.Body.Write
	if req == nil {
		return wrapEntry(Corruption, nil, segment, index, replicate,
			"commit type WRITE but matching replicate body is not a write")
	}

	var tx tablet.WriteTxState
	d.engine.StartTransaction(&tx, replicate.ID)
	if err := d.engine.DecodeWriteOperations(&tx, req); err != nil {
		return wrapEntry(Corruption, err, segment, index, replicate, "failed to decode write operations")
	}
	if err := d.engine.AcquireRowLocks(&tx); err != nil {
		return wrapEntry(Internal, err, segment, index, replicate, "failed to acquire row locks")
	}

	originalResult := commit.Commit.Result
	if err := filterAndApply(d.log, d.tabletMeta, d.engine, &tx, &originalResult, segment, index, replicate); err != nil {
		return err
	}

	freshResult := logentry.TxResult{Ops: make([]logentry.OpResult, len(tx.RowOps))}
	for i, op := range tx.RowOps {
		if op.Result != nil && op.Result.AlreadyPresent {
			d.metrics.OpsFiltered.Inc(1)
		}
		// The real storage engine recomputes which memstore/delta-store
		// each op landed in; this stand-in keeps the original targets
		// and only recomputes the failed flag, since it has no real
		// memstore to choose a fresh target from.
		freshResult.Ops[i] = logentry.OpResult{
			MutatedStores: originalResult.Ops[i].MutatedStores,
		}
		if op.Result != nil {
			freshResult.Ops[i].Failed = op.Result.Failed
			freshResult.Ops[i].FailedStatus = op.Result.FailedReason
		}
	}

	newCommit := *commit.Commit
	newCommit.Result = freshResult
	if err := d.newWAL.Append(&logentry.Entry{Commit: &newCommit}); err != nil {
		return wrapEntry(IOError, err, segment, index, commit, "failed to append recomputed commit to new wal")
	}
	return nil
}

// playAlterSchema replays a committed schema change and appends the
// unchanged commit record to the fresh WAL.
func (d *dispatcher) playAlterSchema(segment int64, index int, replicate, commit *logentry.Entry) error {
	req := replicate.Replicate.Body.AlterSchema
	if req == nil {
		return wrapEntry(Corruption, nil, segment, index, replicate,
			"commit type ALTER_SCHEMA but matching replicate body is not an alter schema")
	}

	var tx tablet.AlterSchemaTxState
	if err := d.engine.CreatePreparedAlterSchema(&tx, req.Schema); err != nil {
		return wrapEntry(Internal, err, segment, index, replicate, "failed to prepare alter schema")
	}
	if err := d.engine.AlterSchema(&tx); err != nil {
		return wrapEntry(Internal, err, segment, index, replicate, "failed to apply alter schema")
	}

	if err := d.newWAL.Append(commit); err != nil {
		return wrapEntry(IOError, err, segment, index, commit, "failed to append commit to new wal")
	}
	return nil
}

// playChangeConfig replays a committed quorum configuration change: the
// committed quorum is overwritten in memory only if the replayed
// config's sequence number is strictly greater than the current one;
// either way the commit record is appended unchanged.
func (d *dispatcher) playChangeConfig(segment int64, index int, replicate, commit *logentry.Entry) error {
	req := replicate.Replicate.Body.ChangeConfig
	if req == nil {
		return wrapEntry(Corruption, nil, segment, index, replicate,
			"commit type CHANGE_CONFIG but matching replicate body is not a config change")
	}

	if req.NewConfig.SeqNo > d.consensusMeta.CommittedQuorumSeqNo() {
		d.consensusMeta.SetCommittedQuorum(req.NewConfig)
	}

	if err := d.newWAL.Append(commit); err != nil {
		return wrapEntry(IOError, err, segment, index, commit, "failed to append commit to new wal")
	}
	return nil
}

// checkOrphanCommitFlushed verifies that every store an orphan commit
// claims to have mutated is already durable -- the only way an orphan
// commit (its REPLICATE absent from replayed segments) can be legal.
func checkOrphanCommitFlushed(meta TabletMetadata, commit *logentry.Entry, segment int64, index int) error {
	for _, opResult := range commit.Commit.Result.Ops {
		for _, target := range opResult.MutatedStores {
			if !wasFlushed(meta, target) {
				return wrapEntry(Corruption, nil, segment, index, commit,
					"orphan commit references a store that is not already flushed")
			}
		}
	}
	return nil
}
