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
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/tabletstore/bootstrap/logentry"
	"gopkg.in/vmihailenco/msgpack.v2"
)

// ErrTruncatedEntry is returned (wrapped) when a segment ends partway
// through a frame -- the expected shape of a crash mid-append.
var ErrTruncatedEntry = errors.New("wal: truncated entry at end of segment")

// writeFrame appends one length-prefixed, msgpack-encoded entry to w.
// Segment-level checksumming belongs to the segment format layer, not to
// this framing.
func writeFrame(w io.Writer, e *logentry.Entry) error {
	payload, err := msgpack.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "failed to encode wal entry")
	}
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(payload)))
	if _, err := w.Write(lenBuf[:n]); err != nil {
		return errors.Wrap(err, "failed to write wal frame length")
	}
	if _, err := w.Write(payload); err != nil {
		return errors.Wrap(err, "failed to write wal frame payload")
	}
	return nil
}

// readFrame reads one length-prefixed, msgpack-encoded entry from r.
// Returns io.EOF (unwrapped) if r is positioned exactly at the end of the
// stream (a clean end-of-segment). Any other failure to fully read a
// frame is wrapped as ErrTruncatedEntry.
func readFrame(r *bufio.Reader) (*logentry.Entry, error) {
	size, err := binary.ReadUvarint(r)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(ErrTruncatedEntry, err.Error())
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errors.Wrap(ErrTruncatedEntry, "short read of frame payload")
	}

	var e logentry.Entry
	if err := msgpack.Unmarshal(payload, &e); err != nil {
		return nil, errors.Wrap(ErrTruncatedEntry, "failed to decode wal entry: "+err.Error())
	}
	return &e, nil
}
