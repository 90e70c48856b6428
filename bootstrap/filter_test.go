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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tabletstore/bootstrap/fsutil"
	"github.com/tabletstore/bootstrap/logentry"
	"github.com/tabletstore/bootstrap/tablet"
)

func newTestTablet(t *testing.T) (*tablet.Metadata, *tablet.Tablet) {
	t.Helper()
	fs := fsutil.NewLocal(t.TempDir())
	meta := tablet.NewMetadata(fs, "t1")
	return meta, tablet.New(meta)
}

func TestWasFlushedByMRSID(t *testing.T) {
	meta, _ := newTestTablet(t)
	meta.SetLastDurableMRSID(5)

	assert.True(t, wasFlushed(meta, logentry.MemStoreTarget{HasMRSID: true, MRSID: 5}))
	assert.True(t, wasFlushed(meta, logentry.MemStoreTarget{HasMRSID: true, MRSID: 3}))
	assert.False(t, wasFlushed(meta, logentry.MemStoreTarget{HasMRSID: true, MRSID: 6}))
}

func TestWasFlushedByRowSet(t *testing.T) {
	meta, _ := newTestTablet(t)
	meta.PutRowSetMetadata(tablet.RowSetMetadata{RSID: 1, LastDurableRedoDMSID: 10})

	assert.True(t, wasFlushed(meta, logentry.MemStoreTarget{RSID: 1, DMSID: 10}))
	assert.False(t, wasFlushed(meta, logentry.MemStoreTarget{RSID: 1, DMSID: 11}))
	// A rowset absent from metadata was compacted away: necessarily flushed.
	assert.True(t, wasFlushed(meta, logentry.MemStoreTarget{RSID: 99, DMSID: 1}))
}

func TestFilterAndApplyInsertAlreadyFlushed(t *testing.T) {
	meta, eng := newTestTablet(t)
	meta.SetLastDurableMRSID(5)

	tx := &tablet.WriteTxState{RowOps: []*tablet.RowOp{
		{Op: logentry.RowOperation{Type: logentry.RowInsert, Key: []byte("k"), Value: []byte("v")}},
	}}
	result := &logentry.TxResult{Ops: []logentry.OpResult{
		{MutatedStores: []logentry.MemStoreTarget{{HasMRSID: true, MRSID: 5}}},
	}}

	err := filterAndApply(zap.NewNop(), meta, eng, tx, result, 0, 0, nil)
	require.NoError(t, err)
	assert.True(t, tx.RowOps[0].Result.AlreadyPresent)
	_, ok := eng.Row([]byte("k"))
	assert.False(t, ok, "an already-flushed insert must not be re-applied")
}

func TestFilterAndApplyInsertNotYetFlushed(t *testing.T) {
	meta, eng := newTestTablet(t)
	meta.SetLastDurableMRSID(-1)

	tx := &tablet.WriteTxState{RowOps: []*tablet.RowOp{
		{Op: logentry.RowOperation{Type: logentry.RowInsert, Key: []byte("k"), Value: []byte("v")}},
	}}
	result := &logentry.TxResult{Ops: []logentry.OpResult{
		{MutatedStores: []logentry.MemStoreTarget{{HasMRSID: true, MRSID: 1}}},
	}}

	err := filterAndApply(zap.NewNop(), meta, eng, tx, result, 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, &tablet.RowOpOutcome{}, tx.RowOps[0].Result)
	v, ok := eng.Row([]byte("k"))
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestFilterAndApplyPreviouslyFailedOpSkipsReapply(t *testing.T) {
	meta, eng := newTestTablet(t)

	tx := &tablet.WriteTxState{RowOps: []*tablet.RowOp{
		{Op: logentry.RowOperation{Type: logentry.RowUpdate, Key: []byte("k"), Value: []byte("v")}},
	}}
	result := &logentry.TxResult{Ops: []logentry.OpResult{
		{Failed: true, FailedStatus: "row not found for update"},
	}}

	err := filterAndApply(zap.NewNop(), meta, eng, tx, result, 0, 0, nil)
	require.NoError(t, err)
	assert.True(t, tx.RowOps[0].Result.Failed)
}

func TestFilterAndApplyRowOpCountMismatch(t *testing.T) {
	meta, eng := newTestTablet(t)

	tx := &tablet.WriteTxState{RowOps: []*tablet.RowOp{
		{Op: logentry.RowOperation{Type: logentry.RowInsert, Key: []byte("k"), Value: []byte("v")}},
	}}
	result := &logentry.TxResult{Ops: []logentry.OpResult{}}

	err := filterAndApply(zap.NewNop(), meta, eng, tx, result, 0, 0, nil)
	require.Error(t, err)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, Corruption, be.Kind)
}

func TestFilterAndApplyTwoUnflushedTargetsAppliesAndLogs(t *testing.T) {
	meta, eng := newTestTablet(t)
	meta.SetLastDurableMRSID(-1)
	meta.PutRowSetMetadata(tablet.RowSetMetadata{RSID: 1, LastDurableRedoDMSID: 0})
	meta.PutRowSetMetadata(tablet.RowSetMetadata{RSID: 2, LastDurableRedoDMSID: 0})
	require.NoError(t, eng.ApplyRowOperation(&tablet.WriteTxState{}, &tablet.RowOp{
		Op: logentry.RowOperation{Type: logentry.RowInsert, Key: []byte("k"), Value: []byte("orig")},
	}))

	tx := &tablet.WriteTxState{RowOps: []*tablet.RowOp{
		{Op: logentry.RowOperation{Type: logentry.RowUpdate, Key: []byte("k"), Value: []byte("new")}},
	}}
	result := &logentry.TxResult{Ops: []logentry.OpResult{
		{MutatedStores: []logentry.MemStoreTarget{
			{RSID: 1, DMSID: 1},
			{RSID: 2, DMSID: 1},
		}},
	}}

	err := filterAndApply(zap.NewNop(), meta, eng, tx, result, 0, 0, nil)
	require.NoError(t, err)
	v, ok := eng.Row([]byte("k"))
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), v)
}
