// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"log/slog"

	"github.com/sigil-dev/ragdesk/internal/server"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long:  "Initialize the session and serve the HTTP API and event stream used by browser front ends.",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen")); err != nil {
		return ragerr.Errorf(ragerr.CodeCLISetupFailure, "binding listen flag: %w", err)
	}

	app, err := WireApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	// A failed initialization is recorded as the session error; clients
	// see it and retry through the API.
	if err := app.Connect(ctx); err != nil {
		slog.Warn("session not initialized", "error", err)
	}

	server.Version = version
	srv, err := server.New(server.Config{
		ListenAddr:     app.Config.Server.Listen,
		CORSOrigins:    app.Config.Server.CORSOrigins,
		RequestTimeout: app.Config.RequestTimeout,
		MaxUploadBytes: app.Config.Server.MaxUploadBytes,
	}, app.Controller)
	if err != nil {
		return err
	}

	slog.Info("serving ragdesk api", "listen", app.Config.Server.Listen, "version", version)
	return srv.Start(ctx)
}
