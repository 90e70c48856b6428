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
	"fmt"

	"github.com/tabletstore/bootstrap/wal"
	"go.uber.org/zap"
)

// playSegments iterates every segment in the recovery directory in
// sequence order and feeds its entries through the replay state machine
// and dispatcher. A REPLICATE entry is appended to the fresh WAL as soon
// as it is accepted, independent of whether its commit has been seen
// yet, so recovery is itself durable.
func playSegments(d *dispatcher, reader *wal.LogReader, state *replayState, listener *StatusListener) error {
	segments := reader.SegmentsSnapshot()
	total := len(segments)

	for segPos, seg := range segments {
		entries, readErr := seg.ReadEntries()

		for idx, e := range entries {
			switch {
			case e.IsReplicate():
				if err := state.handleReplicate(e, seg.SequenceNumber(), idx); err != nil {
					return err
				}
				if err := d.newWAL.Append(e); err != nil {
					return wrapEntry(IOError, err, seg.SequenceNumber(), idx, e, "failed to append replicate to new wal")
				}

			case e.IsCommit():
				replicate, found, err := state.handleCommit(e, seg.SequenceNumber(), idx)
				if err != nil {
					return err
				}
				if found {
					if err := d.handlePair(seg.SequenceNumber(), idx, replicate, e); err != nil {
						return err
					}
					continue
				}
				if err := checkOrphanCommitFlushed(d.tabletMeta, e, seg.SequenceNumber(), idx); err != nil {
					return err
				}
				d.log.Debug("skipping orphan commit for already-flushed stores",
					zap.Stringer("committed_op_id", e.Commit.CommittedOpID))

			default:
				return wrapEntry(Corruption, nil, seg.SequenceNumber(), idx, e, "log entry is neither replicate nor commit")
			}
		}

		if readErr != nil {
			return wrapEntry(Corruption, readErr, seg.SequenceNumber(), len(entries), nil,
				"segment truncated after %d successfully parsed entries", len(entries))
		}

		d.metrics.SegmentsReplayed.Inc(1)
		if listener != nil {
			listener.SetStatus(fmt.Sprintf("Bootstrap replayed %d/%d log segments", segPos+1, total))
		}
	}
	return nil
}
