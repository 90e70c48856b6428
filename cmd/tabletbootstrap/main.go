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

// tabletbootstrap is a CLI entry point that drives one or more tablet
// bootstraps from a YAML config file.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/uber-go/tally"
	"go.uber.org/zap"

	"github.com/tabletstore/bootstrap/bootstrap"
	"github.com/tabletstore/bootstrap/config"
	"github.com/tabletstore/bootstrap/fsutil"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tabletbootstrap [config-file]",
		Short: "replay a tablet's write-ahead log to rebuild its runtime state",
		Long: `tabletbootstrap loads a BootstrapConfig from a YAML file and runs the
bootstrap orchestrator for every tablet id it lists, reporting each
successful tablet on stdout and each failed tablet on stderr.

Example:

  tabletbootstrap bootstrap.yaml
`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := zap.InfoLevel
	if cfg.LogLevel != "" {
		if err := level.Set(cfg.LogLevel); err != nil {
			return fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
		}
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	log, err := zapCfg.Build()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	fs := fsutil.NewLocal(cfg.FsRoot)
	opts := bootstrap.NewOptions().
		SetLogger(log).
		SetMetricsScope(tally.NoopScope).
		SetSkipRemoveOldRecoveryDir(cfg.SkipRemoveOldRecoveryDir)

	outcomes := bootstrap.BootstrapAll(context.Background(), fs, cfg.TabletIDs, func(string) bootstrap.Options {
		return opts.SetStatusListener(bootstrap.NewStatusListener())
	})

	failed := false
	for _, tabletID := range cfg.TabletIDs {
		outcome := outcomes[tabletID]
		if outcome.Err != nil {
			failed = true
			fmt.Fprintf(os.Stderr, "tablet %s: bootstrap failed: %v\n", tabletID, outcome.Err)
			continue
		}
		fmt.Printf("tablet %s: bootstrapped, last_id=%s last_committed_id=%s orphaned_replicates=%d\n",
			tabletID, outcome.Result.LastID, outcome.Result.LastCommittedID, len(outcome.Result.OrphanedReplicates))
	}
	if failed {
		return fmt.Errorf("one or more tablets failed to bootstrap")
	}
	return nil
}
