// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sigil-dev/ragdesk/internal/rag"
	"github.com/spf13/cobra"
)

func newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage file search stores",
	}

	cmd.AddCommand(
		newStoreListCmd(),
		newStoreCreateCmd(),
		newStoreDeleteCmd(),
	)

	return cmd
}

func newStoreListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stores",
		Args:  cobra.NoArgs,
		RunE:  runStoreList,
	}
}

func newStoreCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <display-name>",
		Short: "Create a store",
		Args:  cobra.ExactArgs(1),
		RunE:  runStoreCreate,
	}
}

func newStoreDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <store-id>",
		Short: "Delete a store and all of its documents",
		Args:  cobra.ExactArgs(1),
		RunE:  runStoreDelete,
	}

	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func runStoreList(cmd *cobra.Command, _ []string) error {
	app, err := WireApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Connect(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	stores := app.Controller.Snapshot().Stores
	if len(stores) == 0 {
		_, _ = fmt.Fprintln(out, "No stores found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tACTIVE\tPENDING\tFAILED\tSIZE")
	for _, s := range stores {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			rag.ShortID(s.ID), s.Name(), s.ActiveDocuments, s.PendingDocuments, s.FailedDocuments,
			formatBytes(uint64(max(s.SizeBytes, 0))))
	}
	return tw.Flush()
}

func runStoreCreate(cmd *cobra.Command, args []string) error {
	app, err := WireApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if err := app.Connect(ctx); err != nil {
		return err
	}

	ctx, cancel := app.withTimeout(ctx)
	defer cancel()
	id, err := app.Controller.CreateStore(ctx, args[0])
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created store %q: %s\n", args[0], rag.ShortID(id))
	return nil
}

func runStoreDelete(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")

	app, err := WireApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if err := app.Connect(ctx); err != nil {
		return err
	}

	ctrl := app.Controller
	if err := ctrl.RequestStoreDeletion(args[0]); err != nil {
		return err
	}
	pending := ctrl.Snapshot().PendingDeletion

	out := cmd.OutOrStdout()
	if !yes {
		prompt := fmt.Sprintf("Delete store %q and all of its documents?", pending.Name())
		if !confirm(cmd.InOrStdin(), out, prompt) {
			ctrl.CancelStoreDeletion()
			_, _ = fmt.Fprintln(out, "Aborted")
			return nil
		}
	}

	ctx, cancel := app.withTimeout(ctx)
	defer cancel()
	if err := ctrl.ConfirmStoreDeletion(ctx); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Deleted store %q\n", pending.Name())
	return nil
}

// confirm asks a y/N question. Anything but y or yes, including EOF, is a
// no.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	_, _ = fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
