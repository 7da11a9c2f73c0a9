// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package types

// Region identifies an independently loading area of the session state.
// Each region carries its own loading flag so a pending operation in one
// region never blocks the others.
type Region string

const (
	// RegionStores covers the store list and store mutations.
	RegionStores Region = "stores"
	// RegionDocuments covers the document list of the selected store.
	RegionDocuments Region = "documents"
	// RegionQuery covers the current query and its result.
	RegionQuery Region = "query"
	// RegionGlobal covers session-wide concerns such as the error view.
	RegionGlobal Region = "global"
)

// Regions lists every region in display order.
var Regions = []Region{RegionStores, RegionDocuments, RegionQuery, RegionGlobal}

// Valid reports whether r is a known region.
func (r Region) Valid() bool {
	switch r {
	case RegionStores, RegionDocuments, RegionQuery, RegionGlobal:
		return true
	default:
		return false
	}
}

func (r Region) String() string { return string(r) }
