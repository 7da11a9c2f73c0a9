// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"github.com/sigil-dev/ragdesk/internal/tui"
	"github.com/spf13/cobra"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI",
		Long:  "Browse stores and documents, upload files and ask questions in a full-screen terminal UI. This is the default command.",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}
}

// runTUI is a variable so tests can exercise the command tree without a
// terminal.
var runTUI = func(cmd *cobra.Command, _ []string) error {
	app, err := WireApp()
	if err != nil {
		return err
	}
	defer app.Close()

	return tui.Run(cmd.Context(), app.Controller)
}

func isTUI(cmd *cobra.Command) bool {
	return cmd == cmd.Root() || cmd.Name() == "tui"
}
