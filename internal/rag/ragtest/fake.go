// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package ragtest provides an in-memory rag.Service for tests.
package ragtest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sigil-dev/ragdesk/internal/rag"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/sigil-dev/ragdesk/pkg/health"
)

// Operation names accepted by SetError, Gate and Calls.
const (
	OpInitialize     = "initialize"
	OpListStores     = "list_stores"
	OpCreateStore    = "create_store"
	OpDeleteStore    = "delete_store"
	OpListDocuments  = "list_documents"
	OpUploadDocument = "upload_document"
	OpDeleteDocument = "delete_document"
	OpQuery          = "query"
)

// Fake is an in-memory rag.Service. The zero value is not usable; call
// NewFake.
type Fake struct {
	mu          sync.Mutex
	initialized bool
	stores      []rag.Store
	docs        map[string][]rag.Document
	errs        map[string]error
	gates       map[string]*Gate
	calls       map[string]int
	uploads     []Upload
	nextID      int

	// Answer builds query results; nil echoes the question.
	Answer func(storeID, text string) *rag.QueryResult
}

var (
	_ rag.Service        = (*Fake)(nil)
	_ rag.HealthReporter = (*Fake)(nil)
)

func NewFake() *Fake {
	return &Fake{
		docs:  make(map[string][]rag.Document),
		errs:  make(map[string]error),
		gates: make(map[string]*Gate),
		calls: make(map[string]int),
	}
}

// Gate holds calls of one operation until released.
type Gate struct {
	entered chan string
	release chan struct{}
	once    sync.Once
}

// Entered receives the target (store id, or text for queries) of every call
// that reached the gate.
func (g *Gate) Entered() <-chan string { return g.entered }

// Release lets every held and future call through.
func (g *Gate) Release() { g.once.Do(func() { close(g.release) }) }

// Gate installs a gate on op.
func (f *Fake) Gate(op string) *Gate {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := &Gate{entered: make(chan string, 16), release: make(chan struct{})}
	f.gates[op] = g
	return g
}

// SetError makes op fail with err; nil clears it.
func (f *Fake) SetError(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// Calls reports how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// AddStore seeds a store and returns its resource name.
func (f *Fake) AddStore(displayName string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addStoreLocked(displayName)
}

// AddDocument seeds a document and returns its resource name.
func (f *Fake) AddDocument(storeID, displayName string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addDocumentLocked(storeID, displayName, nil)
}

func (f *Fake) addStoreLocked(displayName string) string {
	f.nextID++
	id := fmt.Sprintf("fileSearchStores/%s-%d", slug(displayName), f.nextID)
	f.stores = append(f.stores, rag.Store{ID: id, DisplayName: displayName})
	return id
}

func (f *Fake) addDocumentLocked(storeID, displayName string, md []rag.KeyValue) string {
	f.nextID++
	id := fmt.Sprintf("%s/documents/%s-%d", storeID, slug(displayName), f.nextID)
	f.docs[storeID] = append(f.docs[storeID], rag.Document{
		ID:          id,
		DisplayName: displayName,
		Metadata:    md,
		State:       rag.DocumentStateActive,
	})
	for i := range f.stores {
		if f.stores[i].ID == storeID {
			f.stores[i].ActiveDocuments++
		}
	}
	return id
}

// enter records the call, waits at the gate and returns the injected error.
func (f *Fake) enter(ctx context.Context, op, target string) error {
	f.mu.Lock()
	f.calls[op]++
	g := f.gates[op]
	initialized := f.initialized
	f.mu.Unlock()

	if op != OpInitialize && !initialized {
		return ragerr.New(ragerr.CodeRAGClientNotInitialized, "fake: used before Initialize")
	}

	if g != nil {
		g.entered <- target
		select {
		case <-g.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[op]
}

func (f *Fake) Initialize(ctx context.Context) error {
	if err := f.enter(ctx, OpInitialize, ""); err != nil {
		return err
	}
	f.mu.Lock()
	f.initialized = true
	f.mu.Unlock()
	return nil
}

func (f *Fake) Health() health.Metrics {
	return health.Metrics{Available: true}
}

func (f *Fake) ListStores(ctx context.Context) ([]rag.Store, error) {
	if err := f.enter(ctx, OpListStores, ""); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]rag.Store{}, f.stores...), nil
}

func (f *Fake) CreateStore(ctx context.Context, displayName string) (string, error) {
	if err := f.enter(ctx, OpCreateStore, displayName); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addStoreLocked(displayName), nil
}

func (f *Fake) DeleteStore(ctx context.Context, storeID string) error {
	if err := f.enter(ctx, OpDeleteStore, storeID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.stores {
		if s.ID == storeID {
			f.stores = append(f.stores[:i], f.stores[i+1:]...)
			delete(f.docs, storeID)
			return nil
		}
	}
	return notFound("store", storeID)
}

func (f *Fake) ListDocuments(ctx context.Context, storeID string) ([]rag.Document, error) {
	if err := f.enter(ctx, OpListDocuments, storeID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]rag.Document{}, f.docs[storeID]...), nil
}

func (f *Fake) UploadDocument(ctx context.Context, storeID string, req rag.UploadRequest) error {
	if err := f.enter(ctx, OpUploadDocument, storeID); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	content, err := io.ReadAll(req.Content)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeRAGUpstreamFailure, "fake: reading upload")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, Upload{
		StoreID:  storeID,
		FileName: req.FileName,
		MIMEType: req.MIMEType,
		Content:  content,
		Metadata: req.Metadata,
	})
	f.addDocumentLocked(storeID, req.DisplayName(), req.Metadata)
	return nil
}

// Upload is a recorded UploadDocument call.
type Upload struct {
	StoreID  string
	FileName string
	MIMEType string
	Content  []byte
	Metadata []rag.KeyValue
}

// Uploads returns every successful upload in call order.
func (f *Fake) Uploads() []Upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Upload(nil), f.uploads...)
}

func (f *Fake) DeleteDocument(ctx context.Context, storeID, docID string) error {
	if err := f.enter(ctx, OpDeleteDocument, docID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	docs := f.docs[storeID]
	for i, d := range docs {
		if d.ID == docID {
			f.docs[storeID] = append(docs[:i], docs[i+1:]...)
			return nil
		}
	}
	return notFound("document", docID)
}

func (f *Fake) Query(ctx context.Context, storeID, text string) (*rag.QueryResult, error) {
	if err := f.enter(ctx, OpQuery, text); err != nil {
		return nil, err
	}
	if f.Answer != nil {
		return f.Answer(storeID, text), nil
	}
	return &rag.QueryResult{AnswerText: "answer to: " + text, Citations: []rag.Citation{}}, nil
}

func notFound(kind, id string) error {
	return ragerr.New(ragerr.CodeRAGUpstreamFailure, "fake: "+kind+" not found",
		ragerr.Field("http_status", 404), ragerr.Field("resource", id))
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, s)
	if s == "" {
		return "x"
	}
	return s
}
