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
	"context"

	"github.com/tabletstore/bootstrap/fsutil"
	"golang.org/x/sync/errgroup"
)

// BootstrapAll runs Bootstrap independently for each of tabletIDs.
// Bootstraps of distinct tablets share nothing (each owns its own replay
// state, tablet handle and WAL handle) so they run concurrently; a
// failure on one tablet does not cancel the others -- every tablet's
// outcome is reported back, matching the orchestrator's per-tablet
// fatal-but-isolated failure model.
func BootstrapAll(ctx context.Context, fs fsutil.Manager, tabletIDs []string, optsFn func(tabletID string) Options) map[string]*TabletOutcome {
	outcomes := make([]*TabletOutcome, len(tabletIDs))

	g, _ := errgroup.WithContext(ctx)
	for i, id := range tabletIDs {
		i, id := i, id
		g.Go(func() error {
			var opts Options
			if optsFn != nil {
				opts = optsFn(id)
			}
			result, err := Bootstrap(fs, id, opts)
			outcomes[i] = &TabletOutcome{TabletID: id, Result: result, Err: err}
			// Never propagate per-tablet errors through the errgroup:
			// doing so would cancel sibling bootstraps.
			return nil
		})
	}
	_ = g.Wait()

	byID := make(map[string]*TabletOutcome, len(outcomes))
	for _, o := range outcomes {
		byID[o.TabletID] = o
	}
	return byID
}

// TabletOutcome is one tablet's result from a BootstrapAll fan-out:
// exactly one of Result or Err is set.
type TabletOutcome struct {
	TabletID string
	Result   *Result
	Err      error
}
