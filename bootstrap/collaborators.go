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
	"github.com/tabletstore/bootstrap/opid"
	"github.com/tabletstore/bootstrap/tablet"
)

// TabletMetadata is the subset of tablet.Metadata the replay engine
// consumes.
type TabletMetadata interface {
	RemoteBootstrapState() tablet.RemoteBootstrapState
	PinFlush()
	UnpinFlush() error
	LastDurableMRSID() int64
	GetRowSetMetadata(rsID int64) (tablet.RowSetMetadata, bool)
}

// TabletEngine is the subset of tablet.Tablet the replay engine drives.
// Named distinctly from the tablet package's own Tablet type since this
// interface describes what bootstrap needs, not everything a tablet is.
type TabletEngine interface {
	Open() error
	NumRowSets() int
	StartTransaction(tx *tablet.WriteTxState, id opid.ID)
	DecodeWriteOperations(tx *tablet.WriteTxState, req *logentry.WriteRequest) error
	AcquireRowLocks(tx *tablet.WriteTxState) error
	ApplyRowOperation(tx *tablet.WriteTxState, op *tablet.RowOp) error
	CreatePreparedAlterSchema(tx *tablet.AlterSchemaTxState, schema logentry.SchemaDescriptor) error
	AlterSchema(tx *tablet.AlterSchemaTxState) error
}

// ConsensusMetadata is the subset of consensusmeta.Metadata the replay
// engine reads and mutates.
type ConsensusMetadata interface {
	CommittedQuorumSeqNo() int64
	SetCommittedQuorum(q logentry.QuorumConfig)
	Flush() error
}
