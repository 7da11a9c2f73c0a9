// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	_ "embed"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
)

//go:embed ragdesk.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns ~/.config/ragdesk/ragdesk.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ragdesk", "ragdesk.yaml"), nil
}

// WriteDefault writes the commented default config to path unless a file
// already exists there. It reports whether the file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "checking %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "creating config directory: %w", err)
	}
	if err := os.WriteFile(path, DefaultConfigYAML, 0o600); err != nil {
		return false, ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "writing default config: %w", err)
	}
	return true, nil
}

// BootstrapConfig writes the default config to DefaultConfigPath on first
// run. It returns the path written, or "" when nothing was written. Failures
// are logged and skipped.
func BootstrapConfig() string {
	path, err := DefaultConfigPath()
	if err != nil {
		slog.Debug("skipping config bootstrap", "error", err)
		return ""
	}

	written, err := WriteDefault(path)
	if err != nil {
		slog.Debug("skipping config bootstrap", "path", path, "error", err)
		return ""
	}
	if !written {
		return ""
	}

	slog.Info("created default config", "path", path)
	return path
}
