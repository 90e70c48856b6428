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
	"go.uber.org/atomic"

	"github.com/tabletstore/bootstrap/logentry"
	"github.com/tabletstore/bootstrap/tablet"
)

// StatusListener receives human-readable progress strings during replay
// (e.g. "Bootstrap replayed 3/10 log segments"). It may be read from any
// goroutine while the replay thread writes to it; the last status is
// kept behind an atomic to avoid requiring callers to take a lock just
// to poll progress.
//
// It also exposes read-through accessors onto the tablet it is bound to
// (TabletID, TableName, StartKey, EndKey, Schema), which callers use to
// label progress (e.g. in a web UI listing in-flight bootstraps by table
// and key range) without needing their own handle on the tablet.
type StatusListener struct {
	last atomic.String
	tab  *tablet.Tablet
}

// NewStatusListener returns a listener with an empty initial status and
// no bound tablet.
func NewStatusListener() *StatusListener {
	return &StatusListener{}
}

// Bind associates the listener with the tablet being bootstrapped. Must
// be called before replay begins and before any concurrent reader
// observes the accessors below; Bootstrap calls this once, synchronously,
// right after opening the tablet.
func (l *StatusListener) Bind(tab *tablet.Tablet) {
	l.tab = tab
}

// SetStatus records the latest progress string.
func (l *StatusListener) SetStatus(status string) {
	l.last.Store(status)
}

// LastStatus returns the most recently recorded progress string, or the
// empty string if none has been set yet.
func (l *StatusListener) LastStatus() string {
	return l.last.Load()
}

// TabletID returns the id of the bound tablet, or "" if unbound.
func (l *StatusListener) TabletID() string {
	if l.tab == nil {
		return ""
	}
	return l.tab.Metadata().OID()
}

// TableName returns the bound tablet's table name, or "" if unbound.
func (l *StatusListener) TableName() string {
	if l.tab == nil {
		return ""
	}
	return l.tab.Metadata().TableName()
}

// StartKey returns the bound tablet's inclusive lower key bound, or nil
// if unbound.
func (l *StatusListener) StartKey() []byte {
	if l.tab == nil {
		return nil
	}
	return l.tab.Metadata().StartKey()
}

// EndKey returns the bound tablet's exclusive upper key bound, or nil if
// unbound.
func (l *StatusListener) EndKey() []byte {
	if l.tab == nil {
		return nil
	}
	return l.tab.Metadata().EndKey()
}

// Schema returns the bound tablet's current schema, or the zero schema
// if unbound.
func (l *StatusListener) Schema() logentry.SchemaDescriptor {
	if l.tab == nil {
		return logentry.SchemaDescriptor{}
	}
	return l.tab.SchemaUnlocked()
}
