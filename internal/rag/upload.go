// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag

import (
	"bufio"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
)

// FallbackMIMEType is used when neither the file name nor the content
// identify the type.
const FallbackMIMEType = "text/plain"

const sniffLen = 512

// Validate checks that the request names a file, carries content and has
// well-formed metadata.
func (r UploadRequest) Validate() error {
	if strings.TrimSpace(r.FileName) == "" {
		return ragerr.New(ragerr.CodeRAGRequestInvalid, "upload requires a file name")
	}
	if r.Content == nil {
		return ragerr.New(ragerr.CodeRAGRequestInvalid, "upload requires content",
			ragerr.Field("file_name", r.FileName))
	}
	return ValidateMetadata(r.Metadata)
}

// DisplayName is the base name of the uploaded file.
func (r UploadRequest) DisplayName() string {
	return filepath.Base(r.FileName)
}

// ResolveMIMEType returns the MIME type for the request together with a
// reader that yields the full content. The declared type wins, then the file
// extension, then a sniff of the leading bytes.
func (r UploadRequest) ResolveMIMEType() (string, io.Reader) {
	if r.MIMEType != "" {
		return r.MIMEType, r.Content
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(r.FileName))); byExt != "" {
		return byExt, r.Content
	}

	br := bufio.NewReaderSize(r.Content, sniffLen)
	head, _ := br.Peek(sniffLen)
	if len(head) == 0 {
		return FallbackMIMEType, br
	}
	sniffed := http.DetectContentType(head)
	if sniffed == "application/octet-stream" {
		return FallbackMIMEType, br
	}
	return sniffed, br
}
