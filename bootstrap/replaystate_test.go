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

	"github.com/tabletstore/bootstrap/logentry"
	"github.com/tabletstore/bootstrap/opid"
)

func writeEntry(id opid.ID) *logentry.Entry {
	return &logentry.Entry{
		ID:        id,
		Replicate: &logentry.Replicate{Body: logentry.OperationBody{Write: &logentry.WriteRequest{}}},
	}
}

func commitEntry(id opid.ID) *logentry.Entry {
	return &logentry.Entry{
		Commit: &logentry.Commit{CommittedOpID: id, OpType: logentry.OpWrite},
	}
}

func TestReplayStateHandleReplicateSequential(t *testing.T) {
	s := newReplayState()

	require.NoError(t, s.handleReplicate(writeEntry(opid.ID{Term: 1, Index: 1}), 0, 0))
	require.NoError(t, s.handleReplicate(writeEntry(opid.ID{Term: 1, Index: 2}), 0, 1))
	require.NoError(t, s.handleReplicate(writeEntry(opid.ID{Term: 2, Index: 7}), 0, 2))

	assert.Equal(t, opid.ID{Term: 2, Index: 7}, s.prevOpID)
	assert.Len(t, s.pending, 3)
}

func TestReplayStateHandleReplicateNonSequential(t *testing.T) {
	s := newReplayState()
	require.NoError(t, s.handleReplicate(writeEntry(opid.ID{Term: 1, Index: 1}), 0, 0))

	err := s.handleReplicate(writeEntry(opid.ID{Term: 1, Index: 3}), 0, 1)
	require.Error(t, err)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, Corruption, be.Kind)
}

func TestReplayStateHandleReplicateDuplicate(t *testing.T) {
	s := newReplayState()
	id := opid.ID{Term: 1, Index: 1}
	require.NoError(t, s.handleReplicate(writeEntry(id), 0, 0))
	s.prevOpID = opid.ID{}
	err := s.handleReplicate(writeEntry(id), 0, 1)
	require.Error(t, err)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, Corruption, be.Kind)
}

func TestReplayStateHandleCommitMatched(t *testing.T) {
	s := newReplayState()
	id := opid.ID{Term: 1, Index: 1}
	require.NoError(t, s.handleReplicate(writeEntry(id), 0, 0))

	rep, found, err := s.handleCommit(commitEntry(id), 0, 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, id, rep.ID)
	assert.Equal(t, id, s.committedOpID)
	assert.Empty(t, s.pending)
}

func TestReplayStateHandleCommitOrphan(t *testing.T) {
	s := newReplayState()
	id := opid.ID{Term: 1, Index: 1}

	rep, found, err := s.handleCommit(commitEntry(id), 0, 0)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, rep)
	assert.Equal(t, id, s.committedOpID)
}

func TestReplayStateHandleCommitZeroID(t *testing.T) {
	s := newReplayState()
	_, _, err := s.handleCommit(&logentry.Entry{Commit: &logentry.Commit{}}, 0, 0)
	require.Error(t, err)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, Internal, be.Kind)
}

func TestReplayStateDrainOrphans(t *testing.T) {
	s := newReplayState()
	require.NoError(t, s.handleReplicate(writeEntry(opid.ID{Term: 1, Index: 1}), 0, 0))
	require.NoError(t, s.handleReplicate(writeEntry(opid.ID{Term: 1, Index: 2}), 0, 1))

	orphans := s.drainOrphans()
	assert.Len(t, orphans, 2)
	assert.Empty(t, s.pending)
	assert.Empty(t, s.drainOrphans())
}
