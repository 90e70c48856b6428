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
	"github.com/tabletstore/bootstrap/clock"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
)

// Options configures one call to Bootstrap. Follows the chained
// SetX/X() accessor shape used throughout this codebase's collaborators
// rather than a constructor taking a long positional argument list.
type Options interface {
	// SetSkipRemoveOldRecoveryDir sets whether the timestamped recovery
	// directory is left on disk after a successful bootstrap instead of
	// being recursively deleted.
	SetSkipRemoveOldRecoveryDir(value bool) Options
	SkipRemoveOldRecoveryDir() bool

	// SetLogger sets the structured logger used throughout replay.
	SetLogger(value *zap.Logger) Options
	Logger() *zap.Logger

	// SetMetricsScope sets the tally scope bootstrap metrics are rooted
	// at.
	SetMetricsScope(value tally.Scope) Options
	MetricsScope() tally.Scope

	// SetClock sets the monotone clock commit timestamps are played
	// into.
	SetClock(value clock.Clock) Options
	Clock() clock.Clock

	// SetStatusListener sets the progress listener bootstrap reports
	// into.
	SetStatusListener(value *StatusListener) Options
	StatusListener() *StatusListener
}

type options struct {
	skipRemoveOldRecoveryDir bool
	logger                   *zap.Logger
	scope                    tally.Scope
	clock                    clock.Clock
	listener                 *StatusListener
}

// NewOptions returns default Options: a no-op logger, the no-op tally
// scope, a fresh monotone clock starting at zero, and a fresh status
// listener.
func NewOptions() Options {
	return &options{
		logger:   zap.NewNop(),
		scope:    tally.NoopScope,
		clock:    clock.New(),
		listener: NewStatusListener(),
	}
}

func (o *options) SetSkipRemoveOldRecoveryDir(value bool) Options {
	opts := *o
	opts.skipRemoveOldRecoveryDir = value
	return &opts
}

func (o *options) SkipRemoveOldRecoveryDir() bool { return o.skipRemoveOldRecoveryDir }

func (o *options) SetLogger(value *zap.Logger) Options {
	opts := *o
	opts.logger = value
	return &opts
}

func (o *options) Logger() *zap.Logger { return o.logger }

func (o *options) SetMetricsScope(value tally.Scope) Options {
	opts := *o
	opts.scope = value
	return &opts
}

func (o *options) MetricsScope() tally.Scope { return o.scope }

func (o *options) SetClock(value clock.Clock) Options {
	opts := *o
	opts.clock = value
	return &opts
}

func (o *options) Clock() clock.Clock { return o.clock }

func (o *options) SetStatusListener(value *StatusListener) Options {
	opts := *o
	opts.listener = value
	return &opts
}

func (o *options) StatusListener() *StatusListener { return o.listener }
