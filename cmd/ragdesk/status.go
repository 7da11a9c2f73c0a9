// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"

	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/sigil-dev/ragdesk/pkg/health"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serverStatus mirrors GET /api/v1/status.
type serverStatus struct {
	Status      string          `json:"status"`
	Initialized bool            `json:"initialized"`
	Health      *health.Metrics `json:"health,omitempty"`
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of a running server",
		Long:  "Query the status endpoint of a running `ragdesk serve`.",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}

	cmd.Flags().String("address", "", "server address to check (default: server.listen)")

	return cmd
}

func serverAddress(cmd *cobra.Command) string {
	if addr, _ := cmd.Flags().GetString("address"); addr != "" {
		return addr
	}
	return viper.GetString("server.listen")
}

func fetchStatus(addr string) (serverStatus, error) {
	var body serverStatus
	err := newAPIClient(addr).getJSON("/api/v1/status", &body)
	return body, err
}

func runStatus(cmd *cobra.Command, _ []string) error {
	addr := serverAddress(cmd)
	out := cmd.OutOrStdout()

	st, err := fetchStatus(addr)
	if err != nil {
		if ragerr.HasCode(err, ragerr.CodeCLIServerNotRunning) {
			_, _ = fmt.Fprintf(out, "Server at %s is not running (connection refused)\n", addr)
			return nil
		}
		return err
	}

	_, _ = fmt.Fprintf(out, "Server at %s: %s\n", addr, st.Status)
	_, _ = fmt.Fprintf(out, "Session initialized: %t\n", st.Initialized)
	if st.Health != nil {
		_, _ = fmt.Fprintf(out, "Remote: %s\n", describeHealth(*st.Health))
	}
	return nil
}

func describeHealth(m health.Metrics) string {
	switch {
	case m.Available && m.FailureCount == 0:
		return "available"
	case m.Available:
		return fmt.Sprintf("available (%d recent failures)", m.FailureCount)
	case m.CooldownUntil != nil:
		return fmt.Sprintf("cooling down until %s after %d failures", m.CooldownUntil.Format("15:04:05"), m.FailureCount)
	default:
		return fmt.Sprintf("unavailable after %d failures", m.FailureCount)
	}
}
