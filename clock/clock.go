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

// Package clock provides the monotone logical clock collaborator that
// bootstrap advances from replayed commit timestamps.
package clock

import "go.uber.org/atomic"

// Clock is a shared, thread-safe, monotone clock. Update is idempotent
// and monotone-safe: observing a timestamp at or below the current value
// is a no-op.
type Clock interface {
	// Update advances the clock to ts if ts is greater than the current
	// value. An implementation that decodes or validates a wire
	// timestamp can fail, hence the error return.
	Update(ts uint64) error

	// Now returns the current value of the clock.
	Now() uint64
}

// Monotonic is the default Clock implementation: an atomic high-water
// mark, safe for concurrent Update/Now calls from a single tablet's
// replay thread and any concurrent readers.
type Monotonic struct {
	value atomic.Uint64
}

// New returns a Monotonic clock starting at zero.
func New() *Monotonic {
	return &Monotonic{}
}

// Update implements Clock.
func (c *Monotonic) Update(ts uint64) error {
	for {
		cur := c.value.Load()
		if ts <= cur {
			return nil
		}
		if c.value.CAS(cur, ts) {
			return nil
		}
	}
}

// Now implements Clock.
func (c *Monotonic) Now() uint64 {
	return c.value.Load()
}
