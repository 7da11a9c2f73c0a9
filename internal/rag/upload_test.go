// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/sigil-dev/ragdesk/internal/rag"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadRequest_Validate(t *testing.T) {
	ok := rag.UploadRequest{FileName: "notes.md", Content: strings.NewReader("# hi")}
	require.NoError(t, ok.Validate())

	err := rag.UploadRequest{Content: strings.NewReader("x")}.Validate()
	require.Error(t, err)
	assert.True(t, ragerr.IsInvalidInput(err))

	err = rag.UploadRequest{FileName: "notes.md"}.Validate()
	require.Error(t, err)

	bad := ok
	bad.Metadata = []rag.KeyValue{{Key: "empty"}}
	require.Error(t, bad.Validate())
}

func TestUploadRequest_DisplayName(t *testing.T) {
	assert.Equal(t, "report.pdf", rag.UploadRequest{FileName: "/tmp/docs/report.pdf"}.DisplayName())
}

func TestUploadRequest_ResolveMIMEType(t *testing.T) {
	t.Run("declared type wins", func(t *testing.T) {
		mt, _ := rag.UploadRequest{FileName: "a.pdf", MIMEType: "text/markdown", Content: strings.NewReader("x")}.ResolveMIMEType()
		assert.Equal(t, "text/markdown", mt)
	})

	t.Run("extension", func(t *testing.T) {
		mt, _ := rag.UploadRequest{FileName: "a.PDF", Content: strings.NewReader("x")}.ResolveMIMEType()
		assert.Equal(t, "application/pdf", mt)
	})

	t.Run("sniffed content is preserved", func(t *testing.T) {
		body := "<html><body>hello</body></html>"
		mt, r := rag.UploadRequest{FileName: "page", Content: strings.NewReader(body)}.ResolveMIMEType()
		assert.True(t, strings.HasPrefix(mt, "text/html"), mt)

		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, body, string(got))
	})

	t.Run("unknown binary falls back", func(t *testing.T) {
		mt, _ := rag.UploadRequest{FileName: "blob", Content: bytes.NewReader([]byte{0x00, 0x01, 0x02, 0xff})}.ResolveMIMEType()
		assert.Equal(t, rag.FallbackMIMEType, mt)
	})

	t.Run("empty content", func(t *testing.T) {
		mt, _ := rag.UploadRequest{FileName: "empty", Content: strings.NewReader("")}.ResolveMIMEType()
		assert.Equal(t, rag.FallbackMIMEType, mt)
	})
}
