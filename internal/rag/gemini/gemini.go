// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package gemini implements rag.Service on top of the Gemini File Search
// Store API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/sigil-dev/ragdesk/internal/poll"
	"github.com/sigil-dev/ragdesk/internal/rag"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/sigil-dev/ragdesk/pkg/health"
)

// DefaultModel answers grounded queries when Config.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// CredentialEnv names the environment variable holding the API key.
const CredentialEnv = "GEMINI_API_KEY"

// Config holds Gemini client configuration.
type Config struct {
	APIKey string
	Model  string

	PollInterval    time.Duration
	MaxPollAttempts int
	// Clock drives upload polling; nil means the wall clock.
	Clock poll.Clock
}

// Client implements rag.Service. It is safe for concurrent use.
type Client struct {
	config     Config
	health     *health.Tracker
	newBackend backendFactory

	mu      sync.RWMutex
	backend backend
}

var _ rag.Service = (*Client)(nil)

// New creates an uninitialized client. No network traffic happens until
// Initialize.
func New(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if err := (poll.Config{Interval: cfg.PollInterval, MaxAttempts: cfg.MaxPollAttempts}).Validate(); err != nil {
		return nil, err
	}

	tracker, err := health.NewTracker(health.DefaultCooldown)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:     cfg,
		health:     tracker,
		newBackend: newGenaiBackend,
	}, nil
}

// Initialize validates the credential and builds the SDK client. Calling it
// again after success is a no-op.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		return nil
	}
	if strings.TrimSpace(c.config.APIKey) == "" {
		return ragerr.New(ragerr.CodeRAGCredentialMissing,
			fmt.Sprintf("gemini: %s is not set; export it or store it with `ragdesk secret set gemini-api-key`", CredentialEnv))
	}

	b, err := c.newBackend(ctx, c.config.APIKey)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeRAGUpstreamFailure, "gemini: creating client")
	}
	c.backend = b

	slog.Debug("gemini client initialized", "model", c.config.Model)
	return nil
}

// Health reports remote failure tracking.
func (c *Client) Health() health.Metrics { return c.health.Metrics() }

func (c *Client) ready(op string) (backend, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.backend == nil {
		return nil, ragerr.New(ragerr.CodeRAGClientNotInitialized,
			"gemini: client used before Initialize", ragerr.FieldOperation(op))
	}
	return c.backend, nil
}

func (c *Client) ListStores(ctx context.Context) ([]rag.Store, error) {
	b, err := c.ready("list_stores")
	if err != nil {
		return nil, err
	}

	remote, err := b.listStores(ctx)
	c.observe(err)
	if err != nil {
		return nil, upstream(err, "listing stores", ragerr.FieldOperation("list_stores"))
	}

	stores := make([]rag.Store, 0, len(remote))
	for _, s := range remote {
		if s == nil {
			continue
		}
		stores = append(stores, convertStore(s))
	}
	return stores, nil
}

func (c *Client) CreateStore(ctx context.Context, displayName string) (string, error) {
	b, err := c.ready("create_store")
	if err != nil {
		return "", err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return "", ragerr.New(ragerr.CodeRAGRequestInvalid, "gemini: store display name must not be empty")
	}

	created, err := b.createStore(ctx, displayName)
	c.observe(err)
	if err != nil {
		return "", upstream(err, "creating store", ragerr.FieldOperation("create_store"))
	}
	if created == nil || created.Name == "" {
		return "", ragerr.New(ragerr.CodeRAGResponseInvalid,
			"gemini: malformed response, created store has no resource name")
	}

	slog.Info("store created", "store_id", created.Name, "display_name", displayName)
	return created.Name, nil
}

func (c *Client) DeleteStore(ctx context.Context, storeID string) error {
	b, err := c.ready("delete_store")
	if err != nil {
		return err
	}
	storeID = rag.QualifyStoreID(storeID)
	if storeID == "" {
		return ragerr.New(ragerr.CodeRAGRequestInvalid, "gemini: store id must not be empty")
	}

	err = b.deleteStore(ctx, storeID)
	c.observe(err)
	if err != nil {
		return upstream(err, "deleting store", ragerr.FieldOperation("delete_store"), ragerr.FieldStoreID(storeID))
	}

	slog.Info("store deleted", "store_id", storeID)
	return nil
}

func (c *Client) ListDocuments(ctx context.Context, storeID string) ([]rag.Document, error) {
	b, err := c.ready("list_documents")
	if err != nil {
		return nil, err
	}
	storeID = rag.QualifyStoreID(storeID)
	if storeID == "" {
		return nil, ragerr.New(ragerr.CodeRAGRequestInvalid, "gemini: store id must not be empty")
	}

	remote, err := b.listDocuments(ctx, storeID)
	c.observe(err)
	if err != nil {
		return nil, upstream(err, "listing documents", ragerr.FieldOperation("list_documents"), ragerr.FieldStoreID(storeID))
	}

	docs := make([]rag.Document, 0, len(remote))
	for _, d := range remote {
		if d == nil {
			continue
		}
		docs = append(docs, convertDocument(d))
	}
	return docs, nil
}

// UploadDocument submits the file and polls the returned operation until
// the service reports it done.
func (c *Client) UploadDocument(ctx context.Context, storeID string, req rag.UploadRequest) error {
	b, err := c.ready("upload_document")
	if err != nil {
		return err
	}
	storeID = rag.QualifyStoreID(storeID)
	if storeID == "" {
		return ragerr.New(ragerr.CodeRAGRequestInvalid, "gemini: store id must not be empty")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	mimeType, content := req.ResolveMIMEType()
	uploadID := uuid.NewString()
	log := slog.With("upload_id", uploadID, "store_id", storeID, "file_name", req.FileName)
	log.Info("uploading document", "mime_type", mimeType)

	op, err := b.upload(ctx, content, storeID, &genai.UploadToFileSearchStoreConfig{
		MIMEType:       mimeType,
		DisplayName:    req.DisplayName(),
		CustomMetadata: toCustomMetadata(req.Metadata),
	})
	c.observe(err)
	if err != nil {
		return upstream(err, "submitting upload", ragerr.FieldOperation("upload_document"), ragerr.FieldStoreID(storeID))
	}
	if op == nil {
		return ragerr.New(ragerr.CodeRAGResponseInvalid, "gemini: upload returned no operation",
			ragerr.FieldStoreID(storeID))
	}

	cfg := poll.Config{
		Interval:    c.config.PollInterval,
		MaxAttempts: c.config.MaxPollAttempts,
		Clock:       c.config.Clock,
	}
	attempts, err := poll.Until(ctx, cfg, func(ctx context.Context) (bool, error) {
		if !op.Done {
			next, err := b.getOperation(ctx, op)
			c.observe(err)
			if err != nil {
				return false, upstream(err, "checking upload status",
					ragerr.FieldOperation("upload_document"), ragerr.FieldStoreID(storeID))
			}
			if next != nil {
				op = next
			}
		}
		if !op.Done {
			return false, nil
		}
		if len(op.Error) > 0 {
			return true, operationError(op, storeID)
		}
		return true, nil
	})
	if err != nil {
		log.Warn("upload did not complete", "attempts", attempts, "error", err)
		return err
	}

	docName := ""
	if op.Response != nil {
		docName = op.Response.DocumentName
	}
	log.Info("document uploaded", "document_id", docName, "status_checks", attempts)
	return nil
}

func (c *Client) DeleteDocument(ctx context.Context, storeID, docID string) error {
	b, err := c.ready("delete_document")
	if err != nil {
		return err
	}
	docID = rag.QualifyDocumentID(storeID, docID)
	if docID == "" {
		return ragerr.New(ragerr.CodeRAGRequestInvalid, "gemini: document id must not be empty")
	}

	err = b.deleteDocument(ctx, docID)
	c.observe(err)
	if err != nil {
		return upstream(err, "deleting document", ragerr.FieldOperation("delete_document"),
			ragerr.FieldStoreID(rag.StoreIDOf(docID)), ragerr.FieldDocumentID(docID))
	}

	slog.Info("document deleted", "document_id", docID)
	return nil
}

// Query answers text with retrieval restricted to storeID.
func (c *Client) Query(ctx context.Context, storeID, text string) (*rag.QueryResult, error) {
	b, err := c.ready("query")
	if err != nil {
		return nil, err
	}
	storeID = rag.QualifyStoreID(storeID)
	if storeID == "" {
		return nil, ragerr.New(ragerr.CodeRAGRequestInvalid, "gemini: store id must not be empty")
	}
	if strings.TrimSpace(text) == "" {
		return nil, ragerr.New(ragerr.CodeRAGRequestInvalid, "gemini: query text must not be empty")
	}

	resp, err := b.generate(ctx, c.config.Model, genai.Text(text), buildQueryConfig(storeID))
	c.observe(err)
	if err != nil {
		return nil, upstream(err, "generating answer", ragerr.FieldOperation("query"), ragerr.FieldStoreID(storeID))
	}
	if resp == nil {
		return nil, ragerr.New(ragerr.CodeRAGResponseInvalid, "gemini: empty generate response",
			ragerr.FieldStoreID(storeID))
	}

	return convertResponse(resp), nil
}

func (c *Client) observe(err error) {
	if err == nil {
		c.health.RecordSuccess()
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	c.health.RecordFailure()
}

// upstream wraps a remote failure, keeping the HTTP status of API errors.
func upstream(err error, msg string, fields ...ragerr.Attr) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields, ragerr.Field("http_status", apiErr.Code), ragerr.Field("status", apiErr.Status))
	}
	return ragerr.Wrap(err, ragerr.CodeRAGUpstreamFailure, "gemini: "+msg, fields...)
}

func operationError(op *genai.UploadToFileSearchStoreOperation, storeID string) error {
	msg, _ := op.Error["message"].(string)
	if msg == "" {
		msg = fmt.Sprintf("%v", op.Error)
	}
	return ragerr.New(ragerr.CodeRAGUpstreamFailure, "gemini: upload operation failed: "+msg,
		ragerr.FieldOperation("upload_document"), ragerr.FieldStoreID(storeID), ragerr.Field("operation_name", op.Name))
}
