// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package gemini

import (
	"context"
	"io"

	"google.golang.org/genai"
)

// Backend mirrors the unexported backend interface for tests in package
// gemini_test.
type Backend interface {
	ListStores(ctx context.Context) ([]*genai.FileSearchStore, error)
	CreateStore(ctx context.Context, displayName string) (*genai.FileSearchStore, error)
	DeleteStore(ctx context.Context, name string) error
	ListDocuments(ctx context.Context, storeName string) ([]*genai.Document, error)
	Upload(ctx context.Context, r io.Reader, storeName string, cfg *genai.UploadToFileSearchStoreConfig) (*genai.UploadToFileSearchStoreOperation, error)
	GetOperation(ctx context.Context, op *genai.UploadToFileSearchStoreOperation) (*genai.UploadToFileSearchStoreOperation, error)
	DeleteDocument(ctx context.Context, name string) error
	Generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type exportedBackend struct{ b Backend }

func (e exportedBackend) listStores(ctx context.Context) ([]*genai.FileSearchStore, error) {
	return e.b.ListStores(ctx)
}

func (e exportedBackend) createStore(ctx context.Context, displayName string) (*genai.FileSearchStore, error) {
	return e.b.CreateStore(ctx, displayName)
}

func (e exportedBackend) deleteStore(ctx context.Context, name string) error {
	return e.b.DeleteStore(ctx, name)
}

func (e exportedBackend) listDocuments(ctx context.Context, storeName string) ([]*genai.Document, error) {
	return e.b.ListDocuments(ctx, storeName)
}

func (e exportedBackend) upload(ctx context.Context, r io.Reader, storeName string, cfg *genai.UploadToFileSearchStoreConfig) (*genai.UploadToFileSearchStoreOperation, error) {
	return e.b.Upload(ctx, r, storeName, cfg)
}

func (e exportedBackend) getOperation(ctx context.Context, op *genai.UploadToFileSearchStoreOperation) (*genai.UploadToFileSearchStoreOperation, error) {
	return e.b.GetOperation(ctx, op)
}

func (e exportedBackend) deleteDocument(ctx context.Context, name string) error {
	return e.b.DeleteDocument(ctx, name)
}

func (e exportedBackend) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return e.b.Generate(ctx, model, contents, cfg)
}

// UseBackend makes Initialize install b instead of a real SDK client.
func (c *Client) UseBackend(b Backend) {
	c.newBackend = func(context.Context, string) (backend, error) {
		return exportedBackend{b: b}, nil
	}
}

// BuildQueryConfig exposes buildQueryConfig for white-box testing.
var BuildQueryConfig = buildQueryConfig
