// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sigil-dev/ragdesk/internal/pubsub"
	"github.com/sigil-dev/ragdesk/internal/rag"
	"github.com/sigil-dev/ragdesk/internal/session"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
)

// --- bubbletea messages ---

type (
	// stateMsg carries a snapshot published by the controller.
	stateMsg struct {
		state session.State
		kind  pubsub.EventType
	}
	// eventsClosedMsg reports that the subscription ended.
	eventsClosedMsg struct{}
	// opResultMsg reports the outcome of a controller call.
	opResultMsg struct {
		op  string
		err error
	}
)

// Operation labels used in status messages.
const (
	opInit          = "initialize"
	opRefreshStores = "refresh stores"
	opCreateStore   = "create store"
	opSelectStore   = "select store"
	opRequestDelete = "request deletion"
	opConfirmDelete = "delete store"
	opCancelDelete  = "cancel deletion"
	opRefreshDocs   = "refresh documents"
	opUpload        = "upload"
	opDeleteDoc     = "delete document"
	opQuery         = "query"
	opClearError    = "retry"
)

// --- tea.Cmd factories ---

func waitForEvent(events <-chan pubsub.Event[session.State]) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return stateMsg{state: ev.Payload, kind: ev.Type}
	}
}

func runOp(op string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return opResultMsg{op: op, err: fn()}
	}
}

func initSessionCmd(ctx context.Context, ctrl *session.Controller) tea.Cmd {
	return runOp(opInit, func() error { return ctrl.InitializeSession(ctx) })
}

func refreshStoresCmd(ctx context.Context, ctrl *session.Controller) tea.Cmd {
	return runOp(opRefreshStores, func() error { return ctrl.RefreshStores(ctx) })
}

func createStoreCmd(ctx context.Context, ctrl *session.Controller, name string) tea.Cmd {
	return runOp(opCreateStore, func() error {
		_, err := ctrl.CreateStore(ctx, name)
		return err
	})
}

func selectStoreCmd(ctx context.Context, ctrl *session.Controller, storeID string) tea.Cmd {
	return runOp(opSelectStore, func() error { return ctrl.SelectStore(ctx, storeID) })
}

func requestDeletionCmd(ctrl *session.Controller, storeID string) tea.Cmd {
	return runOp(opRequestDelete, func() error { return ctrl.RequestStoreDeletion(storeID) })
}

func confirmDeletionCmd(ctx context.Context, ctrl *session.Controller) tea.Cmd {
	return runOp(opConfirmDelete, func() error { return ctrl.ConfirmStoreDeletion(ctx) })
}

func cancelDeletionCmd(ctrl *session.Controller) tea.Cmd {
	return runOp(opCancelDelete, func() error {
		ctrl.CancelStoreDeletion()
		return nil
	})
}

func refreshDocumentsCmd(ctx context.Context, ctrl *session.Controller) tea.Cmd {
	return runOp(opRefreshDocs, func() error { return ctrl.RefreshDocuments(ctx) })
}

func deleteDocumentCmd(ctx context.Context, ctrl *session.Controller, docID string) tea.Cmd {
	return runOp(opDeleteDoc, func() error { return ctrl.DeleteDocument(ctx, docID) })
}

func queryCmd(ctx context.Context, ctrl *session.Controller, text string) tea.Cmd {
	return runOp(opQuery, func() error {
		_, err := ctrl.Query(ctx, text)
		return err
	})
}

func clearErrorCmd(ctx context.Context, ctrl *session.Controller) tea.Cmd {
	return runOp(opClearError, func() error { return ctrl.ClearError(ctx) })
}

// uploadCmd uploads the file named by the first field of line. Remaining
// fields are key=value metadata pairs.
func uploadCmd(ctx context.Context, ctrl *session.Controller, line string) tea.Cmd {
	return runOp(opUpload, func() error {
		req, closeFn, err := parseUploadLine(line)
		if err != nil {
			return err
		}
		defer closeFn()
		return ctrl.UploadDocument(ctx, req)
	})
}

func parseUploadLine(line string) (rag.UploadRequest, func(), error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return rag.UploadRequest{}, nil, ragerr.New(ragerr.CodeRAGRequestInvalid, "enter a file path")
	}

	path := expandHome(fields[0])
	md, err := rag.ParseMetadataFlags(fields[1:])
	if err != nil {
		return rag.UploadRequest{}, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return rag.UploadRequest{}, nil, ragerr.Wrapf(err, ragerr.CodeRAGRequestInvalid, "opening %s", path)
	}
	req := rag.UploadRequest{FileName: path, Content: f, Metadata: md}
	return req, func() { _ = f.Close() }, nil
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
