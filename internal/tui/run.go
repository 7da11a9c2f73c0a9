// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sigil-dev/ragdesk/internal/session"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
)

// Run shows the main screen until the user quits or ctx ends.
func Run(ctx context.Context, ctrl *session.Controller, opts ...tea.ProgramOption) error {
	m := New(ctx, ctrl)
	defer m.cancel()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if err == nil || (errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return nil
	}
	return ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "running terminal ui")
}
