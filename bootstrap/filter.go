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
	"github.com/tabletstore/bootstrap/logentry"
	"github.com/tabletstore/bootstrap/tablet"
	"go.uber.org/zap"
)

// wasFlushed reports whether a mutated store target is already durable
// on disk.
func wasFlushed(meta TabletMetadata, target logentry.MemStoreTarget) bool {
	if target.HasMRSID {
		return target.MRSID <= meta.LastDurableMRSID()
	}
	rs, ok := meta.GetRowSetMetadata(target.RSID)
	if !ok {
		// Rowset metadata absent means it was compacted away since the
		// commit referencing it was written -- necessarily flushed.
		return true
	}
	return target.DMSID <= rs.LastDurableRedoDMSID
}

// filterAndApply walks a committed write's row operations, filtering
// out ones already captured by flushed on-disk state and re-applying
// the remainder to the tablet. tx.RowOps must already be populated
// (via TabletEngine.DecodeWriteOperations) and aligned index-for-index
// with result.Ops.
func filterAndApply(
	log *zap.Logger,
	meta TabletMetadata,
	eng TabletEngine,
	tx *tablet.WriteTxState,
	result *logentry.TxResult,
	segment int64,
	index int,
	entry *logentry.Entry,
) error {
	if len(tx.RowOps) != len(result.Ops) {
		return wrapEntry(Corruption, nil, segment, index, entry,
			"write has %d row operations but commit result has %d", len(tx.RowOps), len(result.Ops))
	}

	for i, op := range tx.RowOps {
		opResult := result.Ops[i]

		if opResult.Failed {
			op.SetFailed("Row operation failed previously.")
			continue
		}

		switch op.Op.Type {
		case logentry.RowInsert:
			if len(opResult.MutatedStores) != 1 || !opResult.MutatedStores[0].HasMRSID {
				return wrapEntry(Corruption, nil, segment, index, entry,
					"insert row operation %d must mutate exactly one mrs_id store", i)
			}
			if wasFlushed(meta, opResult.MutatedStores[0]) {
				op.SetAlreadyPresent("Row to insert was already flushed.")
				log.Debug("skipping insert, target mrs already flushed", zap.Int("row_op_index", i))
				continue
			}

		case logentry.RowUpdate, logentry.RowDelete:
			if len(opResult.MutatedStores) < 1 || len(opResult.MutatedStores) > 2 {
				return wrapEntry(Corruption, nil, segment, index, entry,
					"mutate row operation %d must have one or two mutated stores, got %d", i, len(opResult.MutatedStores))
			}
			unflushed := 0
			for _, t := range opResult.MutatedStores {
				if !wasFlushed(meta, t) {
					unflushed++
				}
			}
			switch unflushed {
			case 0:
				op.SetAlreadyPresent("Update was already flushed.")
				log.Debug("skipping mutation, all targets already flushed", zap.Int("row_op_index", i))
				continue
			case 2:
				log.Warn("replaying mutation with two unflushed targets (crash between flush and metadata write)",
					zap.Int("row_op_index", i))
			}

		default:
			return wrapEntry(Corruption, nil, segment, index, entry, "unknown row operation type %v", op.Op.Type)
		}

		log.Debug("replaying row operation", zap.Int("row_op_index", i), zap.Stringer("type", op.Op.Type))

		if err := eng.ApplyRowOperation(tx, op); err != nil {
			return wrapEntry(Corruption, err, segment, index, entry, "failed to re-apply row operation %d", i)
		}
		if op.Result != nil && op.Result.Failed {
			return wrapEntry(Corruption, nil, segment, index, entry,
				"row operation %d succeeded originally but failed on replay", i)
		}
	}
	return nil
}
