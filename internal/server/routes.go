// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/sigil-dev/ragdesk/internal/rag"
	"github.com/sigil-dev/ragdesk/internal/session"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/sigil-dev/ragdesk/pkg/health"
	"github.com/sigil-dev/ragdesk/pkg/types"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Session and remote client status",
		Tags:        []string{"system"},
	}, s.handleStatus)

	// Session endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "get-state",
		Method:      http.MethodGet,
		Path:        "/api/v1/state",
		Summary:     "Current session snapshot",
		Tags:        []string{"session"},
	}, s.handleState)

	huma.Register(s.api, huma.Operation{
		OperationID: "init-session",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/init",
		Summary:     "Initialize the remote client and load stores",
		Tags:        []string{"session"},
	}, s.handleInit)

	huma.Register(s.api, huma.Operation{
		OperationID: "clear-error",
		Method:      http.MethodDelete,
		Path:        "/api/v1/error",
		Summary:     "Dismiss the session error, retrying initialization if needed",
		Tags:        []string{"session"},
	}, s.handleClearError)

	// Store endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "list-stores",
		Method:      http.MethodGet,
		Path:        "/api/v1/stores",
		Summary:     "List stores",
		Tags:        []string{"stores"},
	}, s.handleListStores)

	huma.Register(s.api, huma.Operation{
		OperationID:   "create-store",
		Method:        http.MethodPost,
		Path:          "/api/v1/stores",
		Summary:       "Create a store",
		Tags:          []string{"stores"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateStore)

	huma.Register(s.api, huma.Operation{
		OperationID: "select-store",
		Method:      http.MethodPost,
		Path:        "/api/v1/stores/{id}/select",
		Summary:     "Select a store and load its documents",
		Tags:        []string{"stores"},
	}, s.handleSelectStore)

	huma.Register(s.api, huma.Operation{
		OperationID: "request-store-deletion",
		Method:      http.MethodPost,
		Path:        "/api/v1/stores/{id}/delete-request",
		Summary:     "Mark a store for deletion pending confirmation",
		Tags:        []string{"stores"},
	}, s.handleRequestDeletion)

	huma.Register(s.api, huma.Operation{
		OperationID: "confirm-store-deletion",
		Method:      http.MethodPost,
		Path:        "/api/v1/stores/delete-confirm",
		Summary:     "Delete the store awaiting confirmation",
		Tags:        []string{"stores"},
	}, s.handleConfirmDeletion)

	huma.Register(s.api, huma.Operation{
		OperationID: "cancel-store-deletion",
		Method:      http.MethodDelete,
		Path:        "/api/v1/stores/delete-request",
		Summary:     "Cancel a pending store deletion",
		Tags:        []string{"stores"},
	}, s.handleCancelDeletion)

	// Document endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "list-documents",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents",
		Summary:     "List documents of the selected store",
		Tags:        []string{"documents"},
	}, s.handleListDocuments)

	huma.Register(s.api, huma.Operation{
		OperationID:  "upload-document",
		Method:       http.MethodPost,
		Path:         "/api/v1/documents",
		Summary:      "Upload a document to the selected store",
		Description:  "Blocks until the service has finished processing the file.",
		Tags:         []string{"documents"},
		Middlewares:  huma.Middlewares{clearWriteDeadline},
		MaxBodyBytes: uploadBodyLimit(s.cfg.MaxUploadBytes),
	}, s.handleUploadDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-document",
		Method:      http.MethodDelete,
		Path:        "/api/v1/documents/{id}",
		Summary:     "Delete a document from the selected store",
		Tags:        []string{"documents"},
	}, s.handleDeleteDocument)

	// Query endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "query",
		Method:      http.MethodPost,
		Path:        "/api/v1/query",
		Summary:     "Ask a question grounded on the selected store",
		Tags:        []string{"query"},
	}, s.handleQuery)
}

// clearWriteDeadline lifts the server write timeout for operations that wait
// on remote processing.
func clearWriteDeadline(ctx huma.Context, next func(huma.Context)) {
	_, w := humachi.Unwrap(ctx)
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("write deadline not cleared", "error", err)
	}
	next(ctx)
}

// uploadBodyLimit is the request body size that carries a file of
// maxFile bytes base64 encoded, plus room for the name and metadata.
func uploadBodyLimit(maxFile int64) int64 {
	return int64(base64.StdEncoding.EncodedLen(int(maxFile))) + 1<<20
}

// --- Request/Response types for huma ---

type stateOutput struct {
	Body session.State
}

type statusOutput struct {
	Body struct {
		Status      string                `json:"status" example:"ok" doc:"Server status"`
		Initialized bool                  `json:"initialized" doc:"Whether the remote client is ready"`
		Loading     map[types.Region]bool `json:"loading" doc:"Per-region loading flags"`
		Health      *health.Metrics       `json:"health,omitempty" doc:"Remote client health"`
	}
}

type idInput struct {
	ID string `path:"id" minLength:"1" doc:"Resource id; the trailing path segment is enough"`
}

type listStoresOutput struct {
	Body struct {
		Stores []rag.Store `json:"stores"`
	}
}

type createStoreInput struct {
	Body struct {
		DisplayName string `json:"display_name" minLength:"1" doc:"Human readable store name"`
	}
}
type createStoreOutput struct {
	Body struct {
		ID string `json:"id" doc:"Resource name of the new store"`
	}
}

type listDocumentsInput struct {
	Refresh bool `query:"refresh" doc:"Reload the list from the service first"`
}
type listDocumentsOutput struct {
	Body struct {
		StoreID   string         `json:"store_id"`
		Documents []rag.Document `json:"documents"`
	}
}

type uploadDocumentInput struct {
	Body struct {
		FileName string         `json:"file_name" minLength:"1" doc:"File name; its extension drives MIME detection"`
		MIMEType string         `json:"mime_type,omitempty" doc:"Explicit MIME type"`
		Content  []byte         `json:"content" doc:"Base64 encoded file content"`
		Metadata []rag.KeyValue `json:"metadata,omitempty" doc:"Custom metadata attached to the document"`
	}
}

type queryInput struct {
	Body struct {
		Text string `json:"text" minLength:"1" doc:"Question to answer"`
	}
}
type queryOutput struct {
	Body rag.QueryResult
}

// --- Handlers ---

func (s *Server) handleStatus(_ context.Context, _ *struct{}) (*statusOutput, error) {
	snap := s.ctrl.Snapshot()
	out := &statusOutput{}
	out.Body.Status = "ok"
	out.Body.Initialized = snap.Initialized
	out.Body.Loading = snap.Loading
	if hr, ok := s.ctrl.Service().(rag.HealthReporter); ok {
		m := hr.Health()
		out.Body.Health = &m
	}
	return out, nil
}

func (s *Server) handleState(_ context.Context, _ *struct{}) (*stateOutput, error) {
	return s.state(), nil
}

func (s *Server) handleInit(ctx context.Context, _ *struct{}) (*stateOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.ctrl.InitializeSession(ctx); err != nil {
		return nil, apiError(err)
	}
	return s.state(), nil
}

func (s *Server) handleClearError(ctx context.Context, _ *struct{}) (*stateOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.ctrl.ClearError(ctx); err != nil {
		return nil, apiError(err)
	}
	return s.state(), nil
}

func (s *Server) handleListStores(_ context.Context, _ *struct{}) (*listStoresOutput, error) {
	out := &listStoresOutput{}
	out.Body.Stores = s.ctrl.Snapshot().Stores
	return out, nil
}

func (s *Server) handleCreateStore(ctx context.Context, input *createStoreInput) (*createStoreOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id, err := s.ctrl.CreateStore(ctx, input.Body.DisplayName)
	if err != nil {
		return nil, apiError(err)
	}
	out := &createStoreOutput{}
	out.Body.ID = id
	return out, nil
}

func (s *Server) handleSelectStore(ctx context.Context, input *idInput) (*stateOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.ctrl.SelectStore(ctx, input.ID); err != nil {
		return nil, apiError(err)
	}
	return s.state(), nil
}

func (s *Server) handleRequestDeletion(_ context.Context, input *idInput) (*stateOutput, error) {
	if err := s.ctrl.RequestStoreDeletion(input.ID); err != nil {
		return nil, apiError(err)
	}
	return s.state(), nil
}

func (s *Server) handleConfirmDeletion(ctx context.Context, _ *struct{}) (*stateOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.ctrl.ConfirmStoreDeletion(ctx); err != nil {
		return nil, apiError(err)
	}
	return s.state(), nil
}

func (s *Server) handleCancelDeletion(_ context.Context, _ *struct{}) (*stateOutput, error) {
	s.ctrl.CancelStoreDeletion()
	return s.state(), nil
}

func (s *Server) handleListDocuments(ctx context.Context, input *listDocumentsInput) (*listDocumentsOutput, error) {
	if input.Refresh {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		if err := s.ctrl.RefreshDocuments(ctx); err != nil {
			return nil, apiError(err)
		}
	}

	snap := s.ctrl.Snapshot()
	if snap.SelectedStore == nil {
		return nil, apiError(ragerr.New(ragerr.CodeSessionNoSelection, "no store selected"))
	}
	out := &listDocumentsOutput{}
	out.Body.StoreID = snap.SelectedStoreID()
	out.Body.Documents = snap.Documents
	return out, nil
}

func (s *Server) handleUploadDocument(ctx context.Context, input *uploadDocumentInput) (*stateOutput, error) {
	req := rag.UploadRequest{
		FileName: input.Body.FileName,
		MIMEType: input.Body.MIMEType,
		Content:  bytes.NewReader(input.Body.Content),
		Metadata: input.Body.Metadata,
	}
	if err := s.ctrl.UploadDocument(ctx, req); err != nil {
		return nil, apiError(err)
	}
	return s.state(), nil
}

func (s *Server) handleDeleteDocument(ctx context.Context, input *idInput) (*stateOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.ctrl.DeleteDocument(ctx, input.ID); err != nil {
		return nil, apiError(err)
	}
	return s.state(), nil
}

func (s *Server) handleQuery(ctx context.Context, input *queryInput) (*queryOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.ctrl.Query(ctx, input.Body.Text)
	if err != nil {
		return nil, apiError(err)
	}
	out := &queryOutput{}
	if res != nil {
		out.Body = *res
	}
	return out, nil
}

func (s *Server) state() *stateOutput {
	return &stateOutput{Body: s.ctrl.Snapshot()}
}

func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.RequestTimeout)
}

// apiError maps a domain error onto an HTTP status, carrying the error code
// as a detail so clients can branch on it.
func apiError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return huma.Error504GatewayTimeout("request timed out", err)
	}
	status := ragerr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Warn("request failed", "status", status, "error", err)
	}
	detail := &huma.ErrorDetail{Location: "code", Value: string(ragerr.CodeOf(err)), Message: "error code"}
	return huma.NewError(status, err.Error(), detail)
}
