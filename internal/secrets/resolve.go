// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package secrets

import (
	"log/slog"
	"strings"

	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/spf13/viper"
)

const keyringScheme = "keyring://"

// IsKeyringURI reports whether value uses the keyring:// scheme.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseKeyringURI splits keyring://service/key. The key may contain "/".
func ParseKeyringURI(uri string) (service, key string, err error) {
	rest, ok := strings.CutPrefix(uri, keyringScheme)
	if !ok {
		return "", "", ragerr.Errorf(ragerr.CodeSecretInvalidInput, "not a keyring URI: %q", uri)
	}
	service, key, _ = strings.Cut(rest, "/")
	if service == "" || key == "" {
		return "", "", ragerr.Errorf(ragerr.CodeSecretInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}
	return service, key, nil
}

// Resolve returns value, or the secret it references when it is a keyring
// URI.
func Resolve(store Store, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}
	service, key, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}
	secret, err := store.Retrieve(service, key)
	if err != nil {
		return "", ragerr.Wrapf(err, ragerr.CodeSecretResolveFailure, "resolving %q", value)
	}
	return secret, nil
}

// ResolveViperSecrets replaces every keyring:// string value in v with the
// secret it references. When api_key is empty, the stored Gemini API key is
// used if present. Failures are logged and the original value is kept, so
// the problem surfaces when the value is used.
func ResolveViperSecrets(v *viper.Viper, store Store) {
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if !IsKeyringURI(val) {
			continue
		}
		resolved, err := Resolve(store, val)
		if err != nil {
			slog.Warn("keyring reference not resolved", "config_key", key, "error", err)
			continue
		}
		v.Set(key, resolved)
	}

	if v.GetString("api_key") != "" {
		return
	}
	stored, err := store.Retrieve(Service, APIKeyName)
	switch {
	case err == nil:
		slog.Debug("using api key from keyring", "uri", APIKeyURI)
		v.Set("api_key", stored)
	case !ragerr.IsNotFound(err):
		slog.Debug("keyring unavailable", "error", err)
	}
}
