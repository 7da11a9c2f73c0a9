// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sigil-dev/ragdesk/internal/config"
	"github.com/sigil-dev/ragdesk/internal/rag"
	"github.com/sigil-dev/ragdesk/internal/secrets"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check the binary, configuration, API key, keyring, a running server and disk space. With --remote also contact the Gemini API.",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}

	cmd.Flags().String("address", "", "server address to check (default: server.listen)")
	cmd.Flags().Bool("remote", false, "initialize a session against the remote service")

	return cmd
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	addr := serverAddress(cmd)
	remote, _ := cmd.Flags().GetBool("remote")

	checks := []struct {
		name string
		fn   func() string
	}{
		{"Binary", checkBinary},
		{"Platform", checkPlatform},
		{"Config", checkConfig},
		{"API Key", checkAPIKey},
		{"Keyring", checkKeyring},
		{"Server", func() string { return checkServer(addr) }},
		{"Disk Space", func() string { return checkDiskSpace(configDir()) }},
	}
	if remote {
		checks = append(checks, struct {
			name string
			fn   func() string
		}{"Remote", func() string { return checkRemote(cmd) }})
	}

	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", c.name+":", c.fn()); err != nil {
			return err
		}
	}

	return nil
}

func checkBinary() string {
	return fmt.Sprintf("ragdesk %s (%s/%s)", version, runtime.GOOS, runtime.GOARCH)
}

func checkPlatform() string {
	return fmt.Sprintf("%s/%s, Go %s", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func checkConfig() string {
	cfgFile := viper.ConfigFileUsed()
	if _, err := config.FromViper(viper.GetViper()); err != nil {
		return fmt.Sprintf("invalid: %s", err)
	}
	if cfgFile != "" {
		return fmt.Sprintf("loaded from %s", cfgFile)
	}
	return "using defaults (no config file found)"
}

func checkAPIKey() string {
	key := viper.GetString("api_key")
	switch {
	case key == "":
		return fmt.Sprintf("missing: export %s or run 'ragdesk secret set %s'", config.CredentialEnv, secrets.APIKeyName)
	case secrets.IsKeyringURI(key):
		return fmt.Sprintf("unresolved keyring reference %s", key)
	default:
		return fmt.Sprintf("set (%d characters)", len(key))
	}
}

func checkKeyring() string {
	keys, err := secretStoreFactory().List(secrets.Service)
	if err != nil {
		return fmt.Sprintf("unavailable: %s", err)
	}
	return fmt.Sprintf("available, %d secret(s) stored", len(keys))
}

func checkServer(addr string) string {
	st, err := fetchStatus(addr)
	if err != nil {
		if ragerr.HasCode(err, ragerr.CodeCLIServerNotRunning) {
			return fmt.Sprintf("not running at %s (run 'ragdesk serve')", addr)
		}
		return fmt.Sprintf("error: %s", err)
	}
	return fmt.Sprintf("%s at %s (initialized: %t)", st.Status, addr, st.Initialized)
}

func checkRemote(cmd *cobra.Command) string {
	app, err := WireApp()
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	defer app.Close()

	if err := app.Connect(cmd.Context()); err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	n := len(app.Controller.Snapshot().Stores)
	if hr, ok := app.Service.(rag.HealthReporter); ok {
		return fmt.Sprintf("%d store(s), %s", n, describeHealth(hr.Health()))
	}
	return fmt.Sprintf("%d store(s)", n)
}

// configDir is the directory of the config in use, or the default one.
func configDir() string {
	if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
		return filepath.Dir(cfgFile)
	}
	if path, err := config.DefaultConfigPath(); err == nil {
		return filepath.Dir(path)
	}
	home, _ := os.UserHomeDir()
	return home
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
		kb = 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
