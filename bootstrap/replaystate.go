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
)

// replayState is the pairing table and watermarks threaded through one
// tablet's replay. It owns every REPLICATE entry it has accepted
// until that entry is either matched by a COMMIT/ABORT or drained as an
// orphan at the end of replay.
type replayState struct {
	prevOpID      opid.ID
	committedOpID opid.ID
	pending       map[opid.ID]*logentry.Entry
}

func newReplayState() *replayState {
	return &replayState{pending: make(map[opid.ID]*logentry.Entry)}
}

// handleReplicate runs the sequential-id check, then inserts e into the
// pairing table. Returns a Corruption error on a non-sequential id or a
// duplicate key.
func (s *replayState) handleReplicate(e *logentry.Entry, segment int64, index int) error {
	if !opid.ValidSequence(s.prevOpID, e.ID) {
		return wrapEntry(Corruption, nil, segment, index, e,
			"non-sequential op id %s following %s", e.ID, s.prevOpID)
	}
	if _, exists := s.pending[e.ID]; exists {
		return wrapEntry(Corruption, nil, segment, index, e, "duplicate REPLICATE id %s", e.ID)
	}
	s.pending[e.ID] = e
	s.prevOpID = e.ID
	return nil
}

// handleCommit advances the committed watermark and, if found, removes
// and returns the matching REPLICATE entry. A false, nil return means an
// orphan commit -- the caller must separately verify its stores are all
// flushed.
func (s *replayState) handleCommit(e *logentry.Entry, segment int64, index int) (replicate *logentry.Entry, found bool, err error) {
	c := e.Commit
	if c.CommittedOpID.IsZero() {
		return nil, false, wrapEntry(Internal, nil, segment, index, e, "commit carries no committed op id")
	}
	if s.committedOpID.Less(c.CommittedOpID) {
		s.committedOpID = c.CommittedOpID
	}

	rep, ok := s.pending[c.CommittedOpID]
	if !ok {
		return nil, false, nil
	}
	delete(s.pending, c.CommittedOpID)
	return rep, true, nil
}

// drainOrphans removes and returns every still-pending REPLICATE, in no
// particular order, releasing the pairing table's ownership of them.
func (s *replayState) drainOrphans() []*logentry.Entry {
	out := make([]*logentry.Entry, 0, len(s.pending))
	for _, rep := range s.pending {
		out = append(out, rep)
	}
	s.pending = make(map[opid.ID]*logentry.Entry)
	return out
}
