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

// Package logentry defines the on-WAL record shapes the bootstrap engine
// replays: REPLICATE proposals and their matching COMMIT/ABORT records.
//
// Operation bodies are a tagged variant: a sum type expressed as a
// struct with optional pointer fields, matched exhaustively at the
// dispatcher. This is also the shape the msgpack codec needs, since
// msgpack has no native notion of a Go interface.
package logentry

import "github.com/tabletstore/bootstrap/opid"

// OpType identifies what kind of operation a COMMIT finalizes.
type OpType int

const (
	// OpWrite is a row-mutating write (insert/update/delete).
	OpWrite OpType = iota
	// OpAlterSchema changes the tablet's schema.
	OpAlterSchema
	// OpChangeConfig changes the consensus quorum configuration.
	OpChangeConfig
	// OpAbort nullifies the matching REPLICATE; it was never applied.
	OpAbort
)

func (t OpType) String() string {
	switch t {
	case OpWrite:
		return "WRITE"
	case OpAlterSchema:
		return "ALTER_SCHEMA"
	case OpChangeConfig:
		return "CHANGE_CONFIG"
	case OpAbort:
		return "ABORT"
	default:
		return "UNKNOWN"
	}
}

// RowOpType identifies one row mutation inside a WriteRequest.
type RowOpType int

// Row operation kinds.
const (
	RowInsert RowOpType = iota
	RowUpdate
	RowDelete
)

func (t RowOpType) String() string {
	switch t {
	case RowInsert:
		return "INSERT"
	case RowUpdate:
		return "UPDATE"
	case RowDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// ColumnDescriptor names one column of a schema.
type ColumnDescriptor struct {
	Name string
	Type string
}

// SchemaDescriptor is a decoded table schema, as would be attached to a
// write or an ALTER_SCHEMA request.
type SchemaDescriptor struct {
	Version int
	Columns []ColumnDescriptor
}

// RowOperation is one decoded row mutation. Key/Value are opaque encoded
// row payloads -- their structure is owned by the (external) storage
// engine, not by the bootstrap core.
type RowOperation struct {
	Type  RowOpType
	Key   []byte
	Value []byte
}

// WriteRequest is the REPLICATE body of a row-mutating write.
type WriteRequest struct {
	Schema        SchemaDescriptor
	RowOperations []RowOperation
}

// AlterSchemaRequest is the REPLICATE body of a schema change.
type AlterSchemaRequest struct {
	Schema SchemaDescriptor
}

// QuorumConfig is a consensus quorum configuration, identified by a
// monotonically increasing sequence number.
type QuorumConfig struct {
	SeqNo   int64
	Members []string
}

// ChangeConfigRequest is the REPLICATE body of a quorum configuration
// change.
type ChangeConfigRequest struct {
	NewConfig QuorumConfig
}

// OperationBody is the tagged union of REPLICATE payloads. Exactly one
// field is set; Kind reports which.
type OperationBody struct {
	Write        *WriteRequest
	AlterSchema  *AlterSchemaRequest
	ChangeConfig *ChangeConfigRequest
}

// Kind reports which variant of the union is populated.
func (b OperationBody) Kind() OpType {
	switch {
	case b.Write != nil:
		return OpWrite
	case b.AlterSchema != nil:
		return OpAlterSchema
	case b.ChangeConfig != nil:
		return OpChangeConfig
	default:
		return OpAbort
	}
}

// Replicate is a tentative operation proposal: it carries a body, and
// has not yet been durably decided (committed or aborted). Its OpId
// lives on the enclosing Entry, not here.
type Replicate struct {
	Body      OperationBody
	Timestamp uint64
}

// MemStoreTarget names one in-memory store a row mutation was applied to.
// Exactly one of the two shapes is populated.
type MemStoreTarget struct {
	HasMRSID bool
	MRSID    int64

	HasRSID bool
	RSID    int64
	DMSID   int64
}

// OpResult is the outcome of one row operation inside a committed write.
type OpResult struct {
	Failed        bool
	FailedStatus  string
	MutatedStores []MemStoreTarget
}

// TxResult collects the per-row-operation outcomes of a committed write,
// in the same order as the WriteRequest's RowOperations.
type TxResult struct {
	Ops []OpResult
}

// Commit finalizes (or aborts) an earlier REPLICATE. It never carries its
// own OpId -- CommittedOpID points back at the REPLICATE it concludes.
type Commit struct {
	CommittedOpID opid.ID
	OpType        OpType
	Timestamp     uint64
	Result        TxResult
}

// Entry is one WAL record: exactly one of Replicate or Commit is set. A
// REPLICATE entry carries its own OpId; a COMMIT entry's ID field must be
// the zero value (it is never itself addressed by OpId).
type Entry struct {
	ID        opid.ID
	Replicate *Replicate
	Commit    *Commit
}

// IsReplicate reports whether this entry is a REPLICATE record.
func (e *Entry) IsReplicate() bool { return e.Replicate != nil }

// IsCommit reports whether this entry is a COMMIT/ABORT record.
func (e *Entry) IsCommit() bool { return e.Commit != nil }
