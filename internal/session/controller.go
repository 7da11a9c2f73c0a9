// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package session owns the application state shared by every view: the
// store list, the selection, its documents and the latest query result.
//
// Views call Controller operations from any goroutine and re-render from
// the snapshots it publishes. The controller never holds its lock across a
// remote call; instead each region carries a loading flag and a second
// mutation in a busy region is rejected.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/sigil-dev/ragdesk/internal/pubsub"
	"github.com/sigil-dev/ragdesk/internal/rag"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/sigil-dev/ragdesk/pkg/types"
)

// Controller coordinates the remote service with the session state.
type Controller struct {
	svc    rag.Service
	broker *pubsub.Broker[State]

	mu    sync.Mutex
	state State
	// selectionGen increments whenever the selection changes so that late
	// document or query results for a previous selection are dropped.
	selectionGen uint64
	// docsIdle is closed when the document fetch in flight finishes; nil
	// when none is.
	docsIdle chan struct{}
}

// NewController returns a controller over svc. The session starts
// uninitialized; call InitializeSession.
func NewController(svc rag.Service) *Controller {
	return &Controller{
		svc:    svc,
		broker: pubsub.NewBroker[State](),
		state:  newState(),
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe streams a snapshot after every state change until ctx ends.
func (c *Controller) Subscribe(ctx context.Context) <-chan pubsub.Event[State] {
	return c.broker.Subscribe(ctx)
}

// Close ends every subscription.
func (c *Controller) Close() { c.broker.Shutdown() }

// Service returns the remote service the controller drives.
func (c *Controller) Service() rag.Service { return c.svc }

// InitializeSession initializes the remote client and loads the store list.
func (c *Controller) InitializeSession(ctx context.Context) error {
	if err := c.begin(types.RegionStores); err != nil {
		return err
	}
	defer c.end(types.RegionStores)

	if err := c.svc.Initialize(ctx); err != nil {
		c.update(func(s *State) { s.Initialized = false })
		return c.fail(types.RegionStores, "initialize", "Failed to initialize the RAG service", err)
	}

	if err := c.reloadStores(ctx); err != nil {
		c.update(func(s *State) { s.Initialized = false })
		return c.fail(types.RegionStores, "list_stores", "Failed to load stores", err)
	}

	c.update(func(s *State) { s.Initialized = true })
	slog.Info("session initialized", "stores", len(c.Snapshot().Stores))
	return nil
}

// CreateStore creates a store and reloads the store list. The new store
// appears only through the reload.
func (c *Controller) CreateStore(ctx context.Context, displayName string) (string, error) {
	if strings.TrimSpace(displayName) == "" {
		return "", ragerr.New(ragerr.CodeRAGRequestInvalid, "store name must not be empty")
	}
	if err := c.begin(types.RegionStores); err != nil {
		return "", err
	}
	defer c.end(types.RegionStores)

	id, err := c.svc.CreateStore(ctx, displayName)
	if err != nil {
		return "", c.fail(types.RegionStores, "create_store", "Failed to create store", err)
	}
	if err := c.reloadStores(ctx); err != nil {
		return id, c.fail(types.RegionStores, "list_stores", "Failed to load stores", err)
	}
	return id, nil
}

// RefreshStores reloads the store list.
func (c *Controller) RefreshStores(ctx context.Context) error {
	if err := c.begin(types.RegionStores); err != nil {
		return err
	}
	defer c.end(types.RegionStores)

	if err := c.reloadStores(ctx); err != nil {
		return c.fail(types.RegionStores, "list_stores", "Failed to load stores", err)
	}
	return nil
}

// RequestStoreDeletion marks a store as awaiting confirmation.
func (c *Controller) RequestStoreDeletion(storeID string) error {
	storeID = rag.QualifyStoreID(storeID)

	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.state.FindStore(storeID)
	if !ok {
		return ragerr.New(ragerr.CodeSessionStoreNotFound, "store not found", ragerr.FieldStoreID(storeID))
	}
	c.state.PendingDeletion = &st
	c.publishLocked(pubsub.UpdatedEvent)
	return nil
}

// CancelStoreDeletion drops a pending deletion request.
func (c *Controller) CancelStoreDeletion() {
	c.update(func(s *State) { s.PendingDeletion = nil })
}

// ConfirmStoreDeletion deletes the store awaiting confirmation.
func (c *Controller) ConfirmStoreDeletion(ctx context.Context) error {
	c.mu.Lock()
	pending := c.state.PendingDeletion
	c.mu.Unlock()

	if pending == nil {
		return ragerr.New(ragerr.CodeSessionConfirmationRequired, "no store deletion is awaiting confirmation")
	}
	return c.deleteStore(ctx, pending.ID)
}

// DeleteStore deletes storeID, which must have been confirmed through
// RequestStoreDeletion.
func (c *Controller) DeleteStore(ctx context.Context, storeID string) error {
	storeID = rag.QualifyStoreID(storeID)

	c.mu.Lock()
	pending := c.state.PendingDeletion
	c.mu.Unlock()

	if pending == nil || pending.ID != storeID {
		return ragerr.New(ragerr.CodeSessionConfirmationRequired,
			"store deletion must be requested and confirmed first", ragerr.FieldStoreID(storeID))
	}
	return c.deleteStore(ctx, storeID)
}

func (c *Controller) deleteStore(ctx context.Context, storeID string) error {
	if err := c.begin(types.RegionStores); err != nil {
		return err
	}
	defer c.end(types.RegionStores)

	err := c.svc.DeleteStore(ctx, storeID)
	c.update(func(s *State) {
		s.PendingDeletion = nil
		if err == nil && s.SelectedStoreID() == storeID {
			c.clearSelectionLocked(s)
		}
	})
	if err != nil {
		return c.fail(types.RegionStores, "delete_store", "Failed to delete store", err)
	}

	if err := c.reloadStores(ctx); err != nil {
		return c.fail(types.RegionStores, "list_stores", "Failed to load stores", err)
	}
	return nil
}

// SelectStore makes storeID the selection and loads its documents.
// Selecting the current selection is a no-op.
func (c *Controller) SelectStore(ctx context.Context, storeID string) error {
	storeID = rag.QualifyStoreID(storeID)

	c.mu.Lock()
	if c.state.SelectedStoreID() == storeID {
		c.mu.Unlock()
		return nil
	}
	st, ok := c.state.FindStore(storeID)
	if !ok {
		c.mu.Unlock()
		return ragerr.New(ragerr.CodeSessionStoreNotFound, "store not found", ragerr.FieldStoreID(storeID))
	}

	c.selectionGen++
	c.state.SelectedStore = &st
	c.state.Documents = []rag.Document{}
	c.state.QueryResult = nil
	c.state.LastQuery = ""
	gen, done := c.startFetchLocked()
	c.publishLocked(pubsub.UpdatedEvent)
	c.mu.Unlock()

	return c.fetchDocuments(ctx, gen, done, storeID)
}

// ClearSelection deselects the current store.
func (c *Controller) ClearSelection() {
	c.update(c.clearSelectionLocked)
}

func (c *Controller) clearSelectionLocked(s *State) {
	c.selectionGen++
	s.SelectedStore = nil
	s.Documents = []rag.Document{}
	s.QueryResult = nil
	s.LastQuery = ""
	s.Loading[types.RegionDocuments] = false
}

// RefreshDocuments reloads the document list of the selection.
func (c *Controller) RefreshDocuments(ctx context.Context) error {
	c.mu.Lock()
	storeID := c.state.SelectedStoreID()
	if storeID == "" {
		c.mu.Unlock()
		return ragerr.New(ragerr.CodeSessionNoSelection, "no store selected")
	}
	if c.state.Loading[types.RegionDocuments] {
		c.mu.Unlock()
		return busy(types.RegionDocuments)
	}
	gen, done := c.startFetchLocked()
	c.publishLocked(pubsub.UpdatedEvent)
	c.mu.Unlock()

	return c.fetchDocuments(ctx, gen, done, storeID)
}

// startFetchLocked marks the Documents region loading and returns the
// selection generation and the channel fetchDocuments closes when done.
func (c *Controller) startFetchLocked() (uint64, chan struct{}) {
	done := make(chan struct{})
	c.docsIdle = done
	c.state.Loading[types.RegionDocuments] = true
	return c.selectionGen, done
}

// fetchDocuments loads documents and applies them only if the selection
// generation still matches gen.
func (c *Controller) fetchDocuments(ctx context.Context, gen uint64, done chan struct{}, storeID string) error {
	docs, err := c.svc.ListDocuments(ctx, storeID)

	c.mu.Lock()
	defer c.mu.Unlock()

	close(done)
	if c.docsIdle == done {
		c.docsIdle = nil
	}
	if gen != c.selectionGen {
		slog.Debug("dropping stale document list", "store_id", storeID)
		return nil
	}
	c.state.Loading[types.RegionDocuments] = false
	if err != nil {
		return c.failLocked(types.RegionDocuments, "list_documents", "Failed to load documents", err)
	}
	if docs == nil {
		docs = []rag.Document{}
	}
	c.state.Documents = docs
	c.publishLocked(pubsub.UpdatedEvent)
	return nil
}

// UploadDocument adds a file to the selected store. It returns once the
// service has finished processing the file, then refreshes the document
// list.
func (c *Controller) UploadDocument(ctx context.Context, req rag.UploadRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	storeID, err := c.beginProcessing(req.DisplayName())
	if err != nil {
		return err
	}
	defer c.endProcessing()

	uploadErr := c.svc.UploadDocument(ctx, storeID, req)
	refreshErr := c.refreshAfterMutation(ctx, storeID)
	if uploadErr != nil {
		return c.fail(types.RegionDocuments, "upload_document", "Failed to upload "+req.DisplayName(), uploadErr)
	}
	return refreshErr
}

// DeleteDocument removes a document from the selected store and refreshes
// the document list. The id need not be in the local list.
func (c *Controller) DeleteDocument(ctx context.Context, docID string) error {
	c.mu.Lock()
	storeID := c.state.SelectedStoreID()
	docID = rag.QualifyDocumentID(storeID, docID)
	target := rag.DisplayName("", docID)
	if d, ok := c.state.FindDocument(docID); ok {
		target = d.Name()
	}
	c.mu.Unlock()

	storeID, err := c.beginProcessing(target)
	if err != nil {
		return err
	}
	defer c.endProcessing()

	deleteErr := c.svc.DeleteDocument(ctx, storeID, docID)
	refreshErr := c.refreshAfterMutation(ctx, storeID)
	if deleteErr != nil {
		return c.fail(types.RegionDocuments, "delete_document", "Failed to delete "+target, deleteErr)
	}
	return refreshErr
}

func (c *Controller) beginProcessing(target string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	storeID := c.state.SelectedStoreID()
	if storeID == "" {
		return "", ragerr.New(ragerr.CodeSessionNoSelection, "no store selected")
	}
	if c.state.ProcessingTarget != "" {
		return "", ragerr.New(ragerr.CodeSessionRegionBusy, "already processing "+c.state.ProcessingTarget,
			ragerr.FieldRegion(types.RegionDocuments.String()))
	}
	c.state.ProcessingTarget = target
	c.publishLocked(pubsub.UpdatedEvent)
	return storeID, nil
}

func (c *Controller) endProcessing() {
	c.update(func(s *State) { s.ProcessingTarget = "" })
}

// refreshAfterMutation reloads documents when storeID is still selected.
// A fetch already in flight may predate the mutation, so it waits for that
// fetch to finish and then starts its own.
func (c *Controller) refreshAfterMutation(ctx context.Context, storeID string) error {
	c.mu.Lock()
	for {
		if c.state.SelectedStoreID() != storeID {
			c.mu.Unlock()
			return nil
		}
		if c.docsIdle == nil {
			break
		}
		idle := c.docsIdle
		c.mu.Unlock()
		<-idle
		c.mu.Lock()
	}
	gen, done := c.startFetchLocked()
	c.publishLocked(pubsub.UpdatedEvent)
	c.mu.Unlock()

	// The list reflects the mutation even when the caller's context was
	// cancelled during a long upload.
	return c.fetchDocuments(context.WithoutCancel(ctx), gen, done, storeID)
}

// Query asks a question grounded on the selected store. The previous
// result is cleared before the request is sent.
func (c *Controller) Query(ctx context.Context, text string) (*rag.QueryResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ragerr.New(ragerr.CodeRAGRequestInvalid, "query text must not be empty")
	}

	c.mu.Lock()
	storeID := c.state.SelectedStoreID()
	if storeID == "" {
		c.mu.Unlock()
		return nil, ragerr.New(ragerr.CodeSessionNoSelection, "no store selected")
	}
	if c.state.Loading[types.RegionQuery] {
		c.mu.Unlock()
		return nil, busy(types.RegionQuery)
	}
	gen := c.selectionGen
	c.state.Loading[types.RegionQuery] = true
	c.state.QueryResult = nil
	c.state.LastQuery = text
	c.publishLocked(pubsub.UpdatedEvent)
	c.mu.Unlock()

	defer c.end(types.RegionQuery)

	res, err := c.svc.Query(ctx, storeID, text)
	if err != nil {
		return nil, c.fail(types.RegionQuery, "query", "Query failed", err)
	}

	c.update(func(s *State) {
		if gen == c.selectionGen {
			s.QueryResult = res.Clone()
		}
	})
	return res, nil
}

// ReportError sets the session error.
func (c *Controller) ReportError(message string, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.LastError = errorInfo(types.RegionGlobal, "", message, cause)
	c.publishLocked(pubsub.ErrorEvent)
}

// ClearError dismisses the session error. When the session never
// initialized, it retries initialization.
func (c *Controller) ClearError(ctx context.Context) error {
	c.mu.Lock()
	c.state.LastError = nil
	initialized := c.state.Initialized
	c.publishLocked(pubsub.UpdatedEvent)
	c.mu.Unlock()

	if initialized {
		return nil
	}
	return c.InitializeSession(ctx)
}

// reloadStores replaces the store list. A selection that no longer exists
// is cleared.
func (c *Controller) reloadStores(ctx context.Context) error {
	stores, err := c.svc.ListStores(ctx)
	if err != nil {
		return err
	}
	if stores == nil {
		stores = []rag.Store{}
	}

	c.update(func(s *State) {
		s.Stores = stores
		if sel := s.SelectedStoreID(); sel != "" {
			if st, ok := s.FindStore(sel); ok {
				s.SelectedStore = &st
			} else {
				c.clearSelectionLocked(s)
			}
		}
		if s.PendingDeletion != nil {
			if _, ok := s.FindStore(s.PendingDeletion.ID); !ok {
				s.PendingDeletion = nil
			}
		}
	})
	return nil
}

func (c *Controller) begin(region types.Region) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Loading[region] {
		return busy(region)
	}
	c.state.Loading[region] = true
	c.publishLocked(pubsub.UpdatedEvent)
	return nil
}

func (c *Controller) end(region types.Region) {
	c.update(func(s *State) { s.Loading[region] = false })
}

func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
	c.publishLocked(pubsub.UpdatedEvent)
}

// publishLocked publishes under c.mu so subscribers see snapshots in the
// order the state changed. The broker never blocks.
func (c *Controller) publishLocked(t pubsub.EventType) {
	c.broker.Publish(t, c.state.clone())
}

func (c *Controller) fail(region types.Region, op, message string, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failLocked(region, op, message, err)
}

// failLocked records err as the session error and returns it. Cancellation
// is returned without being recorded.
func (c *Controller) failLocked(region types.Region, op, message string, err error) error {
	if errors.Is(err, context.Canceled) {
		slog.Debug("operation cancelled", "region", region, "operation", op)
		return err
	}
	slog.Warn(message, "region", region, "operation", op, "error", err)
	c.state.LastError = errorInfo(region, op, message, err)
	c.publishLocked(pubsub.ErrorEvent)
	return err
}

func errorInfo(region types.Region, op, message string, cause error) *ErrorInfo {
	info := &ErrorInfo{Message: message, Region: region, Operation: op}
	if cause != nil {
		info.Cause = cause.Error()
		info.Code = string(ragerr.CodeOf(cause))
	}
	return info
}

func busy(region types.Region) error {
	return ragerr.New(ragerr.CodeSessionRegionBusy, region.String()+" is busy",
		ragerr.FieldRegion(region.String()))
}
