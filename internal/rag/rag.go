// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package rag defines the domain model of a remote retrieval-augmented
// generation service and the contract a client for it must satisfy.
package rag

import (
	"context"
	"io"
	"time"

	"github.com/sigil-dev/ragdesk/pkg/health"
)

// Store is a named container of documents indexed remotely for retrieval.
type Store struct {
	// ID is the opaque resource name, e.g. "fileSearchStores/notes-123".
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`

	ActiveDocuments  int64     `json:"active_documents,omitempty"`
	PendingDocuments int64     `json:"pending_documents,omitempty"`
	FailedDocuments  int64     `json:"failed_documents,omitempty"`
	SizeBytes        int64     `json:"size_bytes,omitempty"`
	CreateTime       time.Time `json:"create_time,omitzero"`
}

// Name returns the display name with the documented fallback applied.
func (s Store) Name() string { return DisplayName(s.DisplayName, s.ID) }

// DocumentState is the server-side processing state of a document.
type DocumentState string

const (
	DocumentStateUnspecified DocumentState = ""
	DocumentStatePending     DocumentState = "pending"
	DocumentStateActive      DocumentState = "active"
	DocumentStateFailed      DocumentState = "failed"
)

// Document is an uploaded file, chunked and indexed by the remote service.
// Its lifetime is managed by the service; the parent store is referenced by
// the ID prefix.
type Document struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"display_name"`
	Metadata    []KeyValue    `json:"metadata,omitempty"`
	State       DocumentState `json:"state,omitempty"`
	SizeBytes   int64         `json:"size_bytes,omitempty"`
	MIMEType    string        `json:"mime_type,omitempty"`
	CreateTime  time.Time     `json:"create_time,omitzero"`
}

// Name returns the display name with the documented fallback applied.
func (d Document) Name() string { return DisplayName(d.DisplayName, d.ID) }

// StoreID returns the resource name of the store that owns the document.
func (d Document) StoreID() string { return StoreIDOf(d.ID) }

// Citation is a fragment of source text the service used to ground part of
// an answer.
type Citation struct {
	SourceText   *string `json:"source_text,omitempty"`
	Title        string  `json:"title,omitempty"`
	DocumentName string  `json:"document_name,omitempty"`
}

// QueryResult is a generated answer with its grounding citations. It is
// replaced wholesale on every query.
type QueryResult struct {
	AnswerText string     `json:"answer_text"`
	Citations  []Citation `json:"citations"`
}

// Clone returns a deep copy of r. A nil receiver yields nil.
func (r *QueryResult) Clone() *QueryResult {
	if r == nil {
		return nil
	}
	out := &QueryResult{AnswerText: r.AnswerText, Citations: make([]Citation, len(r.Citations))}
	for i, c := range r.Citations {
		out.Citations[i] = c
		if c.SourceText != nil {
			text := *c.SourceText
			out.Citations[i].SourceText = &text
		}
	}
	return out
}

// UploadRequest describes one file to add to a store.
type UploadRequest struct {
	FileName string
	// MIMEType is detected from the file name or content when empty.
	MIMEType string
	Content  io.Reader
	Metadata []KeyValue
}

// Service is the contract between the session controller and the remote
// RAG service. Every method except Initialize fails with a not-initialized
// error until Initialize has succeeded.
type Service interface {
	// Initialize validates the credential and prepares the remote client.
	Initialize(ctx context.Context) error

	// ListStores returns every store, draining all pages.
	ListStores(ctx context.Context) ([]Store, error)

	// CreateStore creates a store and returns its resource name.
	CreateStore(ctx context.Context, displayName string) (string, error)

	// DeleteStore deletes a store and, by force, all of its documents.
	DeleteStore(ctx context.Context, storeID string) error

	// ListDocuments returns every document of a store, draining all pages.
	ListDocuments(ctx context.Context, storeID string) ([]Document, error)

	// UploadDocument submits the file and blocks until the service reports
	// the processing operation done. Cancelling ctx abandons the wait; the
	// server-side job keeps running.
	UploadDocument(ctx context.Context, storeID string, req UploadRequest) error

	// DeleteDocument removes a document and its derived chunks.
	DeleteDocument(ctx context.Context, storeID, docID string) error

	// Query answers text grounded only on the named store.
	Query(ctx context.Context, storeID, text string) (*QueryResult, error)
}

// HealthReporter is implemented by services that track remote failures.
type HealthReporter interface {
	Health() health.Metrics
}
