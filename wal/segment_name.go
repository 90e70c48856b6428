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
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

const segmentFilePrefix = "wal-"
const segmentFileSuffix = ".log"

var segmentFileRE = regexp.MustCompile(`^wal-(\d{20})\.log$`)

// IsSegmentFileName reports whether name matches the WAL segment naming
// predicate ("wal-<20 digit sequence number>.log"), the predicate used by
// recovery.PrepareRecovery to decide whether a directory holds segments
// worth staging for replay.
func IsSegmentFileName(name string) bool {
	return segmentFileRE.MatchString(name)
}

// ParseSegmentSequence extracts the sequence number from a segment file
// name. It is the caller's responsibility to have already checked
// IsSegmentFileName.
func ParseSegmentSequence(name string) (int64, error) {
	m := segmentFileRE.FindStringSubmatch(name)
	if m == nil {
		return 0, errors.Errorf("not a WAL segment file name: %s", name)
	}
	seq, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "bad segment sequence in %s", name)
	}
	return seq, nil
}

// SegmentFileName formats the on-disk file name for the given sequence
// number.
func SegmentFileName(seq int64) string {
	return fmt.Sprintf("%s%020d%s", segmentFilePrefix, seq, segmentFileSuffix)
}
