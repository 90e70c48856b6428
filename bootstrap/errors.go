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

	"github.com/pkg/errors"
	"github.com/tabletstore/bootstrap/logentry"
)

// Kind classifies a bootstrap failure for the caller (the consensus
// layer), which treats every kind as fatal for the affected tablet but
// may want to log or alert differently by kind.
type Kind int

const (
	// NotFound means required consensus or tablet metadata is missing.
	NotFound Kind = iota
	// IllegalState means on-disk state is internally inconsistent in a
	// way this engine recognizes but cannot repair (e.g. rowsets with no
	// WAL to replay).
	IllegalState
	// Corruption means the replayed log itself violates an invariant
	// this engine depends on.
	Corruption
	// IOError wraps a filesystem operation failure.
	IOError
	// Internal marks an assertion violation that should never happen
	// outside a programming error.
	Internal
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case IllegalState:
		return "IllegalState"
	case Corruption:
		return "Corruption"
	case IOError:
		return "IOError"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

const maxEntryDescriptionLen = 500

// Error is the typed error returned by Bootstrap and its internals. It
// always carries a Kind, and when the failure was discovered while
// processing a specific WAL entry, the segment sequence number, entry
// index within the segment, and a truncated description of the entry.
type Error struct {
	Kind    Kind
	Segment int64
	Index   int
	hasPos  bool
	msg     string
	cause   error
}

func (e *Error) Error() string {
	if e.hasPos {
		return fmt.Sprintf("%s: %s (segment %d, entry %d)", e.Kind, e.msg, e.Segment, e.Index)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap exposes the underlying cause, if any, for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, cause error, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		msg = errors.Wrap(cause, msg).Error()
	}
	return &Error{Kind: kind, msg: msg, cause: cause}
}

// wrapEntry builds an Error annotated with the offending segment, entry
// index, and a truncated description of entry (nil if the failure was
// discovered at end-of-segment, after the last successfully parsed
// entry).
func wrapEntry(kind Kind, cause error, segment int64, index int, entry *logentry.Entry, format string, args ...interface{}) *Error {
	e := newError(kind, cause, format, args...)
	e.Segment = segment
	e.Index = index
	e.hasPos = true
	if entry != nil {
		e.msg = fmt.Sprintf("%s [entry: %s]", e.msg, describeEntry(entry))
	}
	return e
}

// describeEntry renders a short, truncated description of a log entry
// for error messages -- never the full payload, which may be large or
// contain opaque row bytes.
func describeEntry(e *logentry.Entry) string {
	var s string
	switch {
	case e.IsReplicate():
		s = fmt.Sprintf("REPLICATE id=%s type=%s", e.ID, e.Replicate.Body.Kind())
	case e.IsCommit():
		s = fmt.Sprintf("COMMIT committed_id=%s type=%s", e.Commit.CommittedOpID, e.Commit.OpType)
	default:
		s = "UNKNOWN entry"
	}
	if len(s) > maxEntryDescriptionLen {
		s = s[:maxEntryDescriptionLen] + "...(truncated)"
	}
	return s
}
