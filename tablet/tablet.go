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

package tablet

import (
	"sync"

	"github.com/tabletstore/bootstrap/logentry"
	"github.com/tabletstore/bootstrap/opid"
)

// RowOpOutcome records what happened when a row operation was applied.
// AlreadyPresent means the operation was filtered out because its target
// mutation was already durable on disk -- it was never
// re-applied, and that is the expected, non-error outcome during replay.
type RowOpOutcome struct {
	Failed               bool
	FailedReason         string
	AlreadyPresent       bool
	AlreadyPresentReason string
}

// RowOp is one row mutation within a write, paired with the outcome of
// applying it.
type RowOp struct {
	Op     logentry.RowOperation
	Result *RowOpOutcome
}

// SetFailed marks the row op as having failed for a real reason (e.g. an
// update against a row that does not exist). A failed op is still a
// successfully-replayed op: the failure was also recorded the first time
// the op ran, and commit.Result captures it.
func (op *RowOp) SetFailed(reason string) {
	op.Result = &RowOpOutcome{Failed: true, FailedReason: reason}
}

// SetAlreadyPresent marks the row op as filtered: its target store was
// already flushed, so the mutation is already durable and must not be
// re-applied.
func (op *RowOp) SetAlreadyPresent(reason string) {
	op.Result = &RowOpOutcome{AlreadyPresent: true, AlreadyPresentReason: reason}
}

// WriteTxState is the per-write transaction state threaded through
// StartTransaction -> DecodeWriteOperations -> AcquireRowLocks ->
// ApplyRowOperation.
type WriteTxState struct {
	OpID   opid.ID
	RowOps []*RowOp
}

// AlterSchemaTxState is the per-alter-schema transaction state threaded
// through CreatePreparedAlterSchema -> AlterSchema.
type AlterSchemaTxState struct {
	OpID      opid.ID
	NewSchema logentry.SchemaDescriptor
}

// Tablet is the minimal row-store this engine replays mutations into.
// Row locking, MVCC, and rowset/memstore management are handled by the
// real storage engine and are out of scope here; this
// implementation keeps just enough state -- a schema and a row map -- to
// make replay observable and testable.
type Tablet struct {
	meta *Metadata

	mu     sync.Mutex
	schema logentry.SchemaDescriptor
	rows   map[string][]byte
}

// New returns a Tablet backed by the given metadata.
func New(meta *Metadata) *Tablet {
	return &Tablet{
		meta: meta,
		rows: make(map[string][]byte),
	}
}

// Metadata returns the tablet's on-disk metadata collaborator.
func (t *Tablet) Metadata() *Metadata { return t.meta }

// Open prepares the tablet for replay. Real tablet opening loads rowsets
// from disk; here there is nothing to load beyond the metadata already
// passed to New.
func (t *Tablet) Open() error { return nil }

// NumRowSets reports the number of on-disk rowsets known to this
// tablet's metadata.
func (t *Tablet) NumRowSets() int { return t.meta.NumRowSets() }

// StartTransaction begins tracking a new write. Real transaction start
// assigns MVCC state; that is out of scope here.
func (t *Tablet) StartTransaction(tx *WriteTxState, id opid.ID) {
	tx.OpID = id
}

// DecodeWriteOperations expands a WriteRequest into per-row operations
// ready for locking and application.
func (t *Tablet) DecodeWriteOperations(tx *WriteTxState, req *logentry.WriteRequest) error {
	tx.RowOps = make([]*RowOp, len(req.RowOperations))
	for i := range req.RowOperations {
		tx.RowOps[i] = &RowOp{Op: req.RowOperations[i]}
	}
	return nil
}

// AcquireRowLocks takes whatever locks are needed to apply tx's row
// operations. Row locking is out of scope for this engine; a real
// implementation serializes concurrent writers to the same row here.
func (t *Tablet) AcquireRowLocks(tx *WriteTxState) error { return nil }

// ApplyRowOperation applies a single row mutation and records its
// outcome on op.Result. Callers that have already filtered op as
// already-flushed (tablet.RowOp.SetAlreadyPresent) must not call this.
func (t *Tablet) ApplyRowOperation(tx *WriteTxState, op *RowOp) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := string(op.Op.Key)
	switch op.Op.Type {
	case logentry.RowInsert:
		t.rows[key] = op.Op.Value
	case logentry.RowUpdate:
		if _, ok := t.rows[key]; !ok {
			op.SetFailed("row not found for update")
			return nil
		}
		t.rows[key] = op.Op.Value
	case logentry.RowDelete:
		if _, ok := t.rows[key]; !ok {
			op.SetFailed("row not found for delete")
			return nil
		}
		delete(t.rows, key)
	}
	op.Result = &RowOpOutcome{}
	return nil
}

// Row returns the current value for key, for test assertions.
func (t *Tablet) Row(key []byte) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[string(key)]
	return v, ok
}

// NumRows returns the number of live rows, for test assertions.
func (t *Tablet) NumRows() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// CreatePreparedAlterSchema validates and stages a schema change.
func (t *Tablet) CreatePreparedAlterSchema(tx *AlterSchemaTxState, schema logentry.SchemaDescriptor) error {
	tx.NewSchema = schema
	return nil
}

// AlterSchema commits a previously-prepared schema change.
func (t *Tablet) AlterSchema(tx *AlterSchemaTxState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.schema = tx.NewSchema
	return nil
}

// SchemaUnlocked returns the tablet's current schema without acquiring
// any lock beyond what's needed to read it safely.
func (t *Tablet) SchemaUnlocked() logentry.SchemaDescriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.schema
}
