// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package secrets_test

import (
	"testing"

	"github.com/sigil-dev/ragdesk/internal/secrets"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func init() {
	// Tests never touch the real OS keyring.
	keyring.MockInit()
}

var _ secrets.Store = (*secrets.KeyringStore)(nil)

func TestKeyringStore_StoreRetrieveDelete(t *testing.T) {
	ks := secrets.NewKeyringStore()
	svc := "test-roundtrip"

	require.NoError(t, ks.Store(svc, "api-key", "sk-123"))
	val, err := ks.Retrieve(svc, "api-key")
	require.NoError(t, err)
	assert.Equal(t, "sk-123", val)

	require.NoError(t, ks.Store(svc, "api-key", "sk-456"))
	val, err = ks.Retrieve(svc, "api-key")
	require.NoError(t, err)
	assert.Equal(t, "sk-456", val)

	require.NoError(t, ks.Delete(svc, "api-key"))
	_, err = ks.Retrieve(svc, "api-key")
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeSecretNotFound))
}

func TestKeyringStore_NotFound(t *testing.T) {
	ks := secrets.NewKeyringStore()

	_, err := ks.Retrieve("no-such-service", "no-key")
	require.Error(t, err)
	assert.True(t, ragerr.IsNotFound(err))

	err = ks.Delete("no-such-service", "no-key")
	require.Error(t, err)
	assert.True(t, ragerr.IsNotFound(err))
}

func TestKeyringStore_ListIsSortedAndDeduplicated(t *testing.T) {
	ks := secrets.NewKeyringStore()
	svc := "test-list"

	keys, err := ks.List(svc)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, ks.Store(svc, "zeta", "1"))
	require.NoError(t, ks.Store(svc, "alpha", "2"))
	require.NoError(t, ks.Store(svc, "zeta", "3"))

	keys, err = ks.List(svc)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, keys)

	require.NoError(t, ks.Delete(svc, "zeta"))
	keys, err = ks.List(svc)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, keys)

	require.NoError(t, ks.Delete(svc, "alpha"))
	keys, err = ks.List(svc)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestKeyringStore_InvalidNames(t *testing.T) {
	ks := secrets.NewKeyringStore()

	tests := []struct {
		name    string
		service string
		key     string
	}{
		{"empty service", "", "key"},
		{"empty key", "svc", ""},
		{"reserved index key", "svc", "svc::index"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ks.Store(tt.service, tt.key, "v")
			require.Error(t, err)
			assert.True(t, ragerr.HasCode(err, ragerr.CodeSecretInvalidInput))

			_, err = ks.Retrieve(tt.service, tt.key)
			assert.True(t, ragerr.HasCode(err, ragerr.CodeSecretInvalidInput))

			err = ks.Delete(tt.service, tt.key)
			assert.True(t, ragerr.HasCode(err, ragerr.CodeSecretInvalidInput))
		})
	}
}

func TestKeyringStore_EmptyValueAllowed(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store("test-empty", "key", ""))
	val, err := ks.Retrieve("test-empty", "key")
	require.NoError(t, err)
	assert.Empty(t, val)
}
