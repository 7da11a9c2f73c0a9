// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionConstants_Valid(t *testing.T) {
	for _, r := range Regions {
		t.Run(string(r), func(t *testing.T) {
			assert.True(t, r.Valid(), "region constant %q must pass Valid()", r)
		})
	}
}

func TestRegion_Valid_RejectsUnknown(t *testing.T) {
	assert.False(t, Region("uploads").Valid())
	assert.False(t, Region("").Valid())
}

func TestRegion_String(t *testing.T) {
	assert.Equal(t, "documents", RegionDocuments.String())
}
