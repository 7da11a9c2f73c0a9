// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package secrets

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/zalando/go-keyring"
)

// go-keyring cannot enumerate entries, so each service keeps a JSON list of
// its key names under this suffix.
const indexSuffix = "::index"

// KeyringStore implements Store on the OS keyring: Keychain on macOS,
// secret-service on Linux and Credential Manager on Windows.
type KeyringStore struct{}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func checkName(op, service, key string) error {
	if service == "" {
		return ragerr.New(ragerr.CodeSecretInvalidInput, "secret "+op+": service must not be empty")
	}
	if key == "" {
		return ragerr.New(ragerr.CodeSecretInvalidInput, "secret "+op+": key must not be empty")
	}
	if key == service+indexSuffix {
		return ragerr.New(ragerr.CodeSecretInvalidInput, "secret "+op+": key name is reserved",
			ragerr.Field("key", key))
	}
	return nil
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := checkName("store", service, key); err != nil {
		return err
	}
	if err := keyring.Set(service, key, value); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}

	keys, err := s.List(service)
	if err != nil {
		return err
	}
	if slices.Contains(keys, key) {
		return nil
	}
	return s.saveIndex(service, append(keys, key))
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := checkName("retrieve", service, key); err != nil {
		return "", err
	}

	val, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ragerr.Errorf(ragerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	}
	if err != nil {
		return "", ragerr.Wrapf(err, ragerr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := checkName("delete", service, key); err != nil {
		return err
	}

	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return ragerr.Errorf(ragerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	}
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeSecretDeleteFailure, "deleting secret %s/%s", service, key)
	}

	keys, err := s.List(service)
	if err != nil {
		return err
	}
	return s.saveIndex(service, slices.DeleteFunc(keys, func(k string) bool { return k == key }))
}

func (s *KeyringStore) List(service string) ([]string, error) {
	raw, err := keyring.Get(service, service+indexSuffix)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeSecretListFailure, "loading key index for %s", service)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeSecretListFailure, "decoding key index for %s", service)
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *KeyringStore) saveIndex(service string, keys []string) error {
	indexKey := service + indexSuffix
	if len(keys) == 0 {
		if err := keyring.Delete(service, indexKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			slog.Debug("removing empty key index", "service", service, "error", err)
		}
		return nil
	}

	slices.Sort(keys)
	data, err := json.Marshal(keys)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeSecretListFailure, "encoding key index for %s", service)
	}
	if err := keyring.Set(service, indexKey, string(data)); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeSecretListFailure, "saving key index for %s", service)
	}
	return nil
}
