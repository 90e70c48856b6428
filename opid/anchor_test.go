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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchorRegistryEarliest(t *testing.T) {
	r := NewAnchorRegistry()

	_, found := r.EarliestRegistered()
	assert.False(t, found, "empty registry anchors nothing")

	a1 := r.Register(ID{Term: 1, Index: 5}, "mrs-0")
	a2 := r.Register(ID{Term: 1, Index: 2}, "dms-3")

	earliest, found := r.EarliestRegistered()
	require.True(t, found)
	assert.Equal(t, ID{Term: 1, Index: 2}, earliest)

	require.NoError(t, r.Unregister(a2))
	earliest, found = r.EarliestRegistered()
	require.True(t, found)
	assert.Equal(t, ID{Term: 1, Index: 5}, earliest)

	require.NoError(t, r.Unregister(a1))
	_, found = r.EarliestRegistered()
	assert.False(t, found)
}

func TestAnchorRegistryUpdateRegistration(t *testing.T) {
	r := NewAnchorRegistry()
	a := r.Register(ID{Term: 1, Index: 1}, "mrs-0")

	require.NoError(t, r.UpdateRegistration(a, ID{Term: 1, Index: 9}))
	earliest, found := r.EarliestRegistered()
	require.True(t, found)
	assert.Equal(t, ID{Term: 1, Index: 9}, earliest)
}

func TestAnchorRegistryUnknownAnchor(t *testing.T) {
	r := NewAnchorRegistry()
	a := r.Register(ID{Term: 1, Index: 1}, "mrs-0")
	require.NoError(t, r.Unregister(a))

	assert.Error(t, r.Unregister(a))
	assert.Error(t, r.UpdateRegistration(a, ID{Term: 1, Index: 2}))
}
