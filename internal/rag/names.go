// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag

import "strings"

const (
	storeCollection    = "fileSearchStores"
	documentCollection = "documents"
)

// DisplayName picks the label shown for a remote resource. It applies three
// tiers in order:
//
//  1. displayName, when non-empty;
//  2. the last non-empty "/"-separated segment of resourceName;
//  3. resourceName verbatim, which may itself be empty.
func DisplayName(displayName, resourceName string) string {
	if displayName != "" {
		return displayName
	}
	if seg := lastSegment(resourceName); seg != "" {
		return seg
	}
	return resourceName
}

func lastSegment(name string) string {
	parts := strings.Split(name, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}

// StoreIDOf returns the store resource name that prefixes a document
// resource name, or "" when docID is not nested under a store.
func StoreIDOf(docID string) string {
	idx := strings.Index(docID, "/"+documentCollection+"/")
	if idx <= 0 {
		return ""
	}
	return docID[:idx]
}

// QualifyStoreID turns a bare store identifier into a resource name.
// Already qualified names are returned unchanged.
func QualifyStoreID(id string) string {
	if id == "" || strings.HasPrefix(id, storeCollection+"/") {
		return id
	}
	return storeCollection + "/" + id
}

// QualifyDocumentID turns a bare document identifier into a resource name
// under storeID. Already qualified names are returned unchanged.
func QualifyDocumentID(storeID, id string) string {
	if id == "" || strings.Contains(id, "/"+documentCollection+"/") {
		return id
	}
	return QualifyStoreID(storeID) + "/" + documentCollection + "/" + id
}

// ShortID returns the trailing segment of a resource name, suitable for
// URL path parameters.
func ShortID(resourceName string) string {
	return lastSegment(resourceName)
}
