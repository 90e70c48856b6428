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

// Package config loads the on-disk configuration for a tabletbootstrap
// run: which directory tree to treat as the FsManager root, and the
// knobs that would otherwise be left as process-global flags, like the
// skip_remove_old_recovery_dir switch.
package config

import (
	"os"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// BootstrapConfig is the top-level configuration for a tabletbootstrap
// run, loaded once at process startup.
type BootstrapConfig struct {
	// FsRoot is the directory tree fsutil.Local is rooted at: it holds
	// the wal/, wal-recovery/, meta/ and consensus-meta/ subtrees.
	FsRoot string `json:"fs_root"`

	// TabletIDs lists the tablets to bootstrap, in order. A server
	// driving many tablets on startup configures all of them here
	// rather than passing them on the command line.
	TabletIDs []string `json:"tablet_ids"`

	// SkipRemoveOldRecoveryDir, when true, leaves a successful run's
	// renamed recovery directory on disk instead of deleting it.
	SkipRemoveOldRecoveryDir bool `json:"skip_remove_old_recovery_dir"`

	// LogLevel selects the zap level the CLI's logger is built at
	// ("debug", "info", "warn", "error"). Empty means "info".
	LogLevel string `json:"log_level"`
}

// Load reads and parses a BootstrapConfig from the YAML file at path.
func Load(path string) (*BootstrapConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config file %s", path)
	}

	var cfg BootstrapConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrapf(err, "invalid config file %s", path)
	}
	if cfg.FsRoot == "" {
		return nil, errors.Errorf("config file %s is missing fs_root", path)
	}
	return &cfg, nil
}
