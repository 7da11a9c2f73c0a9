// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/sigil-dev/ragdesk/internal/rag"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/spf13/cobra"
)

const renderWidth = 100

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <question>...",
		Short: "Ask a question grounded on a store",
		Long:  "Answer a question using only the documents of one store and list the sources the answer is grounded on.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runQuery,
	}

	cmd.Flags().StringP("store", "s", "", "store id or resource name")
	cmd.Flags().Bool("render", false, "render the answer as styled markdown")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	storeID, _ := cmd.Flags().GetString("store")
	render, _ := cmd.Flags().GetBool("render")
	text := strings.Join(args, " ")

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
	res, err := app.Controller.Query(ctx, text)
	if err != nil {
		return err
	}

	answer := res.AnswerText
	if render {
		if answer, err = renderMarkdown(answer); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, strings.TrimSpace(answer))
	if len(res.Citations) == 0 {
		return nil
	}
	_, _ = fmt.Fprintln(out, "\nSources:")
	for i, c := range res.Citations {
		_, _ = fmt.Fprintf(out, "  %d. %s\n", i+1, sourceLabel(c))
	}
	return nil
}

func renderMarkdown(text string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styles.DarkStyle),
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		return "", ragerr.Errorf(ragerr.CodeCLISetupFailure, "creating markdown renderer: %w", err)
	}
	out, err := r.Render(text)
	if err != nil {
		return "", ragerr.Errorf(ragerr.CodeCLIRequestFailure, "rendering answer: %w", err)
	}
	return out, nil
}

func sourceLabel(c rag.Citation) string {
	label := c.Title
	if label == "" {
		label = rag.DisplayName("", c.DocumentName)
	}
	if label == "" {
		label = "untitled source"
	}
	if c.SourceText == nil {
		return label
	}
	return fmt.Sprintf("%s: %q", label, snippet(*c.SourceText, 80))
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
