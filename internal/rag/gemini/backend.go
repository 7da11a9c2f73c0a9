// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package gemini

import (
	"context"
	"io"

	"google.golang.org/genai"
)

// backend is the subset of the genai SDK the client depends on.
type backend interface {
	listStores(ctx context.Context) ([]*genai.FileSearchStore, error)
	createStore(ctx context.Context, displayName string) (*genai.FileSearchStore, error)
	deleteStore(ctx context.Context, name string) error
	listDocuments(ctx context.Context, storeName string) ([]*genai.Document, error)
	upload(ctx context.Context, r io.Reader, storeName string, cfg *genai.UploadToFileSearchStoreConfig) (*genai.UploadToFileSearchStoreOperation, error)
	getOperation(ctx context.Context, op *genai.UploadToFileSearchStoreOperation) (*genai.UploadToFileSearchStoreOperation, error)
	deleteDocument(ctx context.Context, name string) error
	generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type backendFactory func(ctx context.Context, apiKey string) (backend, error)

func newGenaiBackend(ctx context.Context, apiKey string) (backend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &genaiBackend{client: client}, nil
}

type genaiBackend struct {
	client *genai.Client
}

func (b *genaiBackend) listStores(ctx context.Context) ([]*genai.FileSearchStore, error) {
	var out []*genai.FileSearchStore
	for store, err := range b.client.FileSearchStores.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, store)
	}
	return out, nil
}

func (b *genaiBackend) createStore(ctx context.Context, displayName string) (*genai.FileSearchStore, error) {
	return b.client.FileSearchStores.Create(ctx, &genai.CreateFileSearchStoreConfig{DisplayName: displayName})
}

func (b *genaiBackend) deleteStore(ctx context.Context, name string) error {
	return b.client.FileSearchStores.Delete(ctx, name, &genai.DeleteFileSearchStoreConfig{Force: genai.Ptr(true)})
}

func (b *genaiBackend) listDocuments(ctx context.Context, storeName string) ([]*genai.Document, error) {
	var out []*genai.Document
	for doc, err := range b.client.FileSearchStores.Documents.All(ctx, storeName) {
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (b *genaiBackend) upload(ctx context.Context, r io.Reader, storeName string, cfg *genai.UploadToFileSearchStoreConfig) (*genai.UploadToFileSearchStoreOperation, error) {
	return b.client.FileSearchStores.UploadToFileSearchStore(ctx, r, storeName, cfg)
}

func (b *genaiBackend) getOperation(ctx context.Context, op *genai.UploadToFileSearchStoreOperation) (*genai.UploadToFileSearchStoreOperation, error) {
	return b.client.Operations.GetUploadToFileSearchStoreOperation(ctx, op, nil)
}

func (b *genaiBackend) deleteDocument(ctx context.Context, name string) error {
	return b.client.FileSearchStores.Documents.Delete(ctx, name, &genai.DeleteDocumentConfig{Force: genai.Ptr(true)})
}

func (b *genaiBackend) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return b.client.Models.GenerateContent(ctx, model, contents, cfg)
}
