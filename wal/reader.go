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

package wal

import (
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/tabletstore/bootstrap/fsutil"
)

// LogReader enumerates the segments of a tablet's recovery directory in
// ascending sequence-number order.
type LogReader struct {
	segments []*Segment
}

// OpenFromRecoveryDir lists the recovery directory for tabletID and
// builds a LogReader snapshotting its segments in sequence order.
func OpenFromRecoveryDir(fs fsutil.Manager, tabletID string) (*LogReader, error) {
	dir := fs.WalRecoveryDir(tabletID)
	children, err := fs.ListDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list recovery dir %s", dir)
	}

	segments := make([]*Segment, 0, len(children))
	for _, name := range children {
		if !IsSegmentFileName(name) {
			continue
		}
		seq, err := ParseSegmentSequence(name)
		if err != nil {
			return nil, err
		}
		segments = append(segments, &Segment{seq: seq, path: filepath.Join(dir, name)})
	}
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].seq < segments[j].seq
	})

	return &LogReader{segments: segments}, nil
}

// SegmentsSnapshot returns the segments discovered at open time, in
// ascending sequence order.
func (r *LogReader) SegmentsSnapshot() []*Segment {
	return r.segments
}

// NumSegments returns the number of segments in the snapshot.
func (r *LogReader) NumSegments() int {
	return len(r.segments)
}
