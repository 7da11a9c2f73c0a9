// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package secrets keeps the Gemini API key out of config files by storing
// it in the OS keyring and resolving keyring:// references at startup.
package secrets

const (
	// Service is the keyring service ragdesk stores its secrets under.
	Service = "ragdesk"
	// APIKeyName is the keyring key holding the Gemini API key.
	APIKeyName = "gemini-api-key"
)

// APIKeyURI references the stored Gemini API key.
var APIKeyURI = keyringScheme + Service + "/" + APIKeyName

// Store provides secret storage scoped by service.
type Store interface {
	// Store saves value under service and key, replacing any previous value.
	Store(service, key, value string) error

	// Retrieve fetches a secret. A missing entry yields CodeSecretNotFound.
	Retrieve(service, key string) (string, error)

	// Delete removes a secret. A missing entry yields CodeSecretNotFound.
	Delete(service, key string) error

	// List returns the key names stored under service in sorted order.
	List(service string) ([]string, error)
}
