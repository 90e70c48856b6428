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

import "github.com/uber-go/tally"

// Metrics are the per-tablet-bootstrap counters reported to the metrics
// collaborator.
type Metrics struct {
	SegmentsReplayed   tally.Counter
	OpsReplayed        tally.Counter
	OpsFiltered        tally.Counter
	OrphanedReplicates tally.Gauge
	BootstrapLatency   tally.Timer
}

// NewMetrics builds Metrics under scope's "bootstrap" sub-scope.
func NewMetrics(scope tally.Scope) *Metrics {
	scope = scope.SubScope("bootstrap")
	return &Metrics{
		SegmentsReplayed:   scope.Counter("segments_replayed"),
		OpsReplayed:        scope.Counter("ops_replayed"),
		OpsFiltered:        scope.Counter("ops_filtered"),
		OrphanedReplicates: scope.Gauge("orphaned_replicates"),
		BootstrapLatency:   scope.Timer("latency"),
	}
}
