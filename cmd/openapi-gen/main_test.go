// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSpec(t *testing.T) {
	spec, err := generateSpec()
	require.NoError(t, err)

	var doc struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(spec, &doc))
	assert.Contains(t, doc.OpenAPI, "3.1")

	for _, path := range []string{
		"/health",
		"/api/v1/status",
		"/api/v1/stores",
		"/api/v1/stores/{id}/select",
		"/api/v1/documents",
		"/api/v1/documents/{id}",
		"/api/v1/query",
		"/api/v1/events",
	} {
		assert.Contains(t, doc.Paths, path)
	}
	assert.Contains(t, doc.Paths["/api/v1/stores"], "post")
	assert.Contains(t, doc.Paths["/api/v1/documents/{id}"], "delete")
}

func TestWriteSpec(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "ragdesk.json")
	require.NoError(t, writeSpec(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, byte('{'), data[0])
}
