// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

//go:build !windows

package config

import (
	"io/fs"
	"log/slog"
	"os"
)

// WarnInsecurePermissions logs a warning for every file in paths that is
// readable by group or others. Config and .env files may hold the API key.
// Empty paths and missing files are skipped.
func WarnInsecurePermissions(paths ...string) {
	const groupOrOtherRead fs.FileMode = 0o044

	for _, path := range paths {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			slog.Debug("could not stat file for permission check", "path", path, "error", err)
			continue
		}
		if info.Mode().Perm()&groupOrOtherRead != 0 {
			slog.Warn("file holding credentials has insecure permissions",
				"path", path,
				"mode", info.Mode(),
				"recommended", "0600",
			)
		}
	}
}
