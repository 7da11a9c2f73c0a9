// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/sigil-dev/ragdesk/internal/config"
	"github.com/sigil-dev/ragdesk/internal/rag"
	"github.com/sigil-dev/ragdesk/internal/rag/ragtest"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

func TestMain(m *testing.M) {
	keyring.MockInit()

	// Keep config bootstrap away from the real home directory.
	home, err := os.MkdirTemp("", "ragdesk-home-")
	if err != nil {
		panic(err)
	}
	_ = os.Setenv("HOME", home)
	_ = os.Unsetenv(config.CredentialEnv)
	_ = os.Unsetenv(config.EnvPrefix + "_API_KEY")

	code := m.Run()
	_ = os.RemoveAll(home)
	os.Exit(code)
}

// execute runs the root command with args against a fresh global Viper and
// returns what it wrote to stdout. Logs go to stderr and are dropped.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), stdin, args...)
}

func executeContext(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Cleanup(closeLogFile)

	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(new(bytes.Buffer))
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	return buf.String(), err
}

// useFake routes WireApp to an in-memory service seeded with stores.
func useFake(t *testing.T, stores ...string) *ragtest.Fake {
	t.Helper()
	fake := ragtest.NewFake()
	for _, name := range stores {
		fake.AddStore(name)
	}

	orig := serviceFactory
	serviceFactory = func(*config.Config) (rag.Service, error) { return fake, nil }
	t.Cleanup(func() { serviceFactory = orig })
	return fake
}
