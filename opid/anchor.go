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

package opid

import (
	"sync"

	"github.com/pkg/errors"
)

// Anchor is one registration in an AnchorRegistry. Callers keep the
// handle and pass it back to UpdateRegistration/Unregister.
type Anchor struct {
	owner string
	id    ID
}

// Owner returns the label the anchor was registered under.
func (a *Anchor) Owner() string { return a.owner }

// AnchorRegistry tracks the earliest log position still referenced by
// in-memory state (e.g. an unflushed memrowset), so the log retention
// layer knows which WAL segments must not be garbage collected. Safe
// for concurrent use.
type AnchorRegistry struct {
	mu      sync.Mutex
	anchors map[*Anchor]struct{}
}

// NewAnchorRegistry returns an empty registry.
func NewAnchorRegistry() *AnchorRegistry {
	return &AnchorRegistry{anchors: make(map[*Anchor]struct{})}
}

// Register records that owner still needs the log retained back to id,
// returning the anchor handle for later update or release.
func (r *AnchorRegistry) Register(id ID, owner string) *Anchor {
	a := &Anchor{owner: owner, id: id}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anchors[a] = struct{}{}
	return a
}

// UpdateRegistration moves an existing anchor to id, typically forward
// after a flush made earlier entries unneeded.
func (r *AnchorRegistry) UpdateRegistration(a *Anchor, id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.anchors[a]; !ok {
		return errors.Errorf("anchor owned by %q is not registered", a.owner)
	}
	a.id = id
	return nil
}

// Unregister releases an anchor.
func (r *AnchorRegistry) Unregister(a *Anchor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.anchors[a]; !ok {
		return errors.Errorf("anchor owned by %q is not registered", a.owner)
	}
	delete(r.anchors, a)
	return nil
}

// EarliestRegistered returns the smallest registered OpId, or false if
// the registry is empty (every log entry is eligible for GC).
func (r *AnchorRegistry) EarliestRegistered() (ID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var earliest ID
	found := false
	for a := range r.anchors {
		if !found || a.id.Less(earliest) {
			earliest = a.id
			found = true
		}
	}
	return earliest, found
}
