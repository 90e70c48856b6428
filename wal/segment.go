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
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/tabletstore/bootstrap/logentry"
)

// Segment is one numbered WAL file in the recovery directory.
type Segment struct {
	seq  int64
	path string
}

// SequenceNumber returns the segment's position in the recovery
// directory's sequence order.
func (s *Segment) SequenceNumber() int64 { return s.seq }

// Path returns the segment's on-disk path.
func (s *Segment) Path() string { return s.path }

// ReadEntries reads every entry in the segment, in file order.
//
// If the segment's trailing bytes are truncated (the expected shape of a
// crash mid-append), the entries parsed before the truncation are
// returned alongside a non-nil error -- callers must still replay the
// returned entries before surfacing the error as corruption.
func (s *Segment) ReadEntries() ([]*logentry.Entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open segment %s", s.path)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var entries []*logentry.Entry
	for {
		e, err := readFrame(r)
		if err != nil {
			if err == io.EOF {
				return entries, nil
			}
			return entries, errors.Wrapf(err, "error reading segment %d at path %s (read %d entries)",
				s.seq, s.path, len(entries))
		}
		entries = append(entries, e)
	}
}
