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

// Package opid defines the (term, index) operation identifier used to order
// entries within a tablet's write-ahead log.
package opid

import "fmt"

// ID is a monotone identifier pair. Higher term always dominates; within a
// term, index increases by exactly one per entry. The zero value is the
// sentinel "uninitialized" ID.
type ID struct {
	Term  uint64
	Index uint64
}

// Zero is the sentinel uninitialized OpId.
var Zero = ID{}

// IsZero returns true if id is the uninitialized sentinel.
func (id ID) IsZero() bool {
	return id.Term == 0 && id.Index == 0
}

// Compare returns -1, 0 or 1 as id is less than, equal to, or greater than
// other, ordering lexicographically by (Term, Index).
func (id ID) Compare(other ID) int {
	switch {
	case id.Term != other.Term:
		if id.Term < other.Term {
			return -1
		}
		return 1
	case id.Index != other.Index:
		if id.Index < other.Index {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Less returns true if id orders strictly before other.
func (id ID) Less(other ID) bool {
	return id.Compare(other) < 0
}

// LessEqual returns true if id orders before or equal to other.
func (id ID) LessEqual(other ID) bool {
	return id.Compare(other) <= 0
}

// String renders the OpId in "term.index" form.
func (id ID) String() string {
	return fmt.Sprintf("%d.%d", id.Term, id.Index)
}

// ValidSequence reports whether next is allowed to immediately follow prev
// in a single tablet's replicated log:
//
//   - any ID may follow the uninitialized sentinel.
//   - within the same term, index must increase by exactly one.
//   - across a term boundary, the new term must be strictly greater (index
//     may reset to any value).
func ValidSequence(prev, next ID) bool {
	if prev.IsZero() {
		return true
	}
	if next.Term == prev.Term {
		return next.Index == prev.Index+1
	}
	return next.Term > prev.Term
}
