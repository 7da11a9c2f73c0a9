// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sigil-dev/ragdesk/internal/rag"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/spf13/cobra"
)

func newDocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "doc",
		Aliases: []string{"docs", "document"},
		Short:   "Manage the documents of a store",
	}

	cmd.PersistentFlags().StringP("store", "s", "", "store id or resource name")

	cmd.AddCommand(
		newDocListCmd(),
		newDocUploadCmd(),
		newDocDeleteCmd(),
	)

	return cmd
}

func newDocListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the documents of a store",
		Args:  cobra.NoArgs,
		RunE:  runDocList,
	}
}

func newDocUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload files to a store",
		Long: "Upload files to a store and wait until the service has indexed each one.\n\n" +
			"Metadata is given as key=value. A value starting with '#' is a number and a\n" +
			"value containing ',' is a list of strings. --metadata-file reads a flat YAML\n" +
			"mapping; flag values are appended after it.",
		Args: cobra.MinimumNArgs(1),
		RunE: runDocUpload,
	}

	cmd.Flags().StringArrayP("metadata", "m", nil, "custom metadata as key=value (repeatable)")
	cmd.Flags().String("metadata-file", "", "YAML file with custom metadata")
	cmd.Flags().String("mime-type", "", "MIME type of every uploaded file (detected when empty)")

	return cmd
}

func newDocDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE:  runDocDelete,
	}
}

func runDocList(cmd *cobra.Command, _ []string) error {
	storeID, _ := cmd.Flags().GetString("store")

	app, err := WireApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.SelectStore(cmd.Context(), storeID); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	docs := app.Controller.Snapshot().Documents
	if len(docs) == 0 {
		_, _ = fmt.Fprintln(out, "No documents found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tSTATE\tSIZE\tMETADATA")
	for _, d := range docs {
		md := make([]string, len(d.Metadata))
		for i, kv := range d.Metadata {
			md[i] = kv.String()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rag.ShortID(d.ID), d.Name(), d.State, formatBytes(uint64(max(d.SizeBytes, 0))), strings.Join(md, " "))
	}
	return tw.Flush()
}

func runDocUpload(cmd *cobra.Command, args []string) error {
	storeID, _ := cmd.Flags().GetString("store")
	mimeType, _ := cmd.Flags().GetString("mime-type")

	md, err := uploadMetadata(cmd)
	if err != nil {
		return err
	}

	app, err := WireApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if err := app.SelectStore(ctx, storeID); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return ragerr.Wrapf(err, ragerr.CodeCLIInputInvalid, "opening %s", path)
		}

		_, _ = fmt.Fprintf(out, "Uploading %s...\n", path)
		// Uploads wait for indexing and are bounded only by ctx.
		err = app.Controller.UploadDocument(ctx, rag.UploadRequest{
			FileName: path,
			MIMEType: mimeType,
			Content:  f,
			Metadata: md,
		})
		_ = f.Close()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Uploaded %s\n", path)
	}
	return nil
}

// uploadMetadata merges --metadata-file and --metadata entries.
func uploadMetadata(cmd *cobra.Command) ([]rag.KeyValue, error) {
	pairs, _ := cmd.Flags().GetStringArray("metadata")
	path, _ := cmd.Flags().GetString("metadata-file")

	var md []rag.KeyValue
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, ragerr.Wrapf(err, ragerr.CodeCLIInputInvalid, "opening metadata file %s", path)
		}
		defer func() { _ = f.Close() }()
		if md, err = rag.ParseMetadata(f); err != nil {
			return nil, err
		}
	}

	fromFlags, err := rag.ParseMetadataFlags(pairs)
	if err != nil {
		return nil, err
	}
	md = append(md, fromFlags...)
	if err := rag.ValidateMetadata(md); err != nil {
		return nil, err
	}
	return md, nil
}

func runDocDelete(cmd *cobra.Command, args []string) error {
	storeID, _ := cmd.Flags().GetString("store")

	app, err := WireApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if err := app.SelectStore(ctx, storeID); err != nil {
		return err
	}

	ctx, cancel := app.withTimeout(ctx)
	defer cancel()
	if err := app.Controller.DeleteDocument(ctx, args[0]); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted document %s\n", args[0])
	return nil
}
