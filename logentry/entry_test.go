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

package logentry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tabletstore/bootstrap/opid"
)

func TestOperationBodyKind(t *testing.T) {
	assert.Equal(t, OpWrite, OperationBody{Write: &WriteRequest{}}.Kind())
	assert.Equal(t, OpAlterSchema, OperationBody{AlterSchema: &AlterSchemaRequest{}}.Kind())
	assert.Equal(t, OpChangeConfig, OperationBody{ChangeConfig: &ChangeConfigRequest{}}.Kind())
	assert.Equal(t, OpAbort, OperationBody{}.Kind())
}

func TestEntryIsReplicateIsCommit(t *testing.T) {
	rep := &Entry{ID: opid.ID{Term: 1, Index: 1}, Replicate: &Replicate{Body: OperationBody{Write: &WriteRequest{}}}}
	assert.True(t, rep.IsReplicate())
	assert.False(t, rep.IsCommit())

	com := &Entry{Commit: &Commit{CommittedOpID: opid.ID{Term: 1, Index: 1}, OpType: OpWrite}}
	assert.False(t, com.IsReplicate())
	assert.True(t, com.IsCommit())
}

func TestOpTypeString(t *testing.T) {
	assert.Equal(t, "WRITE", OpWrite.String())
	assert.Equal(t, "ALTER_SCHEMA", OpAlterSchema.String())
	assert.Equal(t, "CHANGE_CONFIG", OpChangeConfig.String())
	assert.Equal(t, "ABORT", OpAbort.String())
	assert.Equal(t, "UNKNOWN", OpType(99).String())
}

func TestRowOpTypeString(t *testing.T) {
	assert.Equal(t, "INSERT", RowInsert.String())
	assert.Equal(t, "UPDATE", RowUpdate.String())
	assert.Equal(t, "DELETE", RowDelete.String())
	assert.Equal(t, "UNKNOWN", RowOpType(99).String())
}
