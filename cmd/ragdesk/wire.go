// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"

	"github.com/sigil-dev/ragdesk/internal/config"
	"github.com/sigil-dev/ragdesk/internal/rag"
	"github.com/sigil-dev/ragdesk/internal/rag/gemini"
	"github.com/sigil-dev/ragdesk/internal/secrets"
	"github.com/sigil-dev/ragdesk/internal/session"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/spf13/viper"
)

// serviceFactory builds the remote RAG service. It is a package-level
// variable so tests can substitute an in-memory fake.
var serviceFactory = func(cfg *config.Config) (rag.Service, error) {
	return gemini.New(gemini.Config{
		APIKey:          cfg.APIKey,
		Model:           cfg.Model,
		PollInterval:    cfg.Poll.Interval,
		MaxPollAttempts: cfg.Poll.MaxAttempts,
	})
}

// secretStoreFactory creates the secrets.Store used for keyring access.
// Tests substitute an in-memory store.
var secretStoreFactory = func() secrets.Store {
	return secrets.NewKeyringStore()
}

// App holds the wired subsystems of one command invocation.
type App struct {
	Config     *config.Config
	Service    rag.Service
	Controller *session.Controller
}

// WireApp decodes the configuration held by the global Viper and builds
// the remote client and the session controller on top of it. Nothing
// touches the network until the session is initialized.
func WireApp() (*App, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}

	svc, err := serviceFactory(cfg)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "creating rag client")
	}

	return &App{
		Config:     cfg,
		Service:    svc,
		Controller: session.NewController(svc),
	}, nil
}

// Close ends every controller subscription.
func (a *App) Close() {
	a.Controller.Close()
}

// withTimeout bounds one remote call by the configured request timeout.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.Config.RequestTimeout)
}

// Connect initializes the session for headless commands.
func (a *App) Connect(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.Controller.InitializeSession(ctx)
}

// SelectStore connects and selects storeID, which may be a bare id or a
// resource name.
func (a *App) SelectStore(ctx context.Context, storeID string) error {
	if storeID == "" {
		return ragerr.New(ragerr.CodeCLIInputInvalid, "a store is required; pass --store")
	}
	if err := a.Connect(ctx); err != nil {
		return err
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.Controller.SelectStore(ctx, storeID)
}
