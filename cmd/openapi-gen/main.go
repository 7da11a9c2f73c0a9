// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Command openapi-gen writes the OpenAPI document of the ragdesk HTTP API.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sigil-dev/ragdesk/internal/rag/ragtest"
	"github.com/sigil-dev/ragdesk/internal/server"
	"github.com/sigil-dev/ragdesk/internal/session"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
)

const defaultOutPath = "api/openapi/ragdesk.json"

func main() {
	outPath := defaultOutPath
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := writeSpec(outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OpenAPI spec written to %s\n", outPath)
}

func writeSpec(outPath string) error {
	doc, err := generateSpec()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return ragerr.Errorf(ragerr.CodeCLISetupFailure, "creating output dir: %w", err)
	}
	if err := os.WriteFile(outPath, doc, 0o644); err != nil {
		return ragerr.Errorf(ragerr.CodeCLISetupFailure, "writing spec: %w", err)
	}
	return nil
}

// generateSpec registers every route against an in-memory service and
// extracts the document huma derives from the handler types. No handler
// runs.
func generateSpec() ([]byte, error) {
	ctrl := session.NewController(ragtest.NewFake())
	defer ctrl.Close()

	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"}, ctrl)
	if err != nil {
		return nil, ragerr.Errorf(ragerr.CodeCLISetupFailure, "creating server: %w", err)
	}

	return json.MarshalIndent(srv.API().OpenAPI(), "", "  ")
}
