// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package session

import (
	"github.com/sigil-dev/ragdesk/internal/rag"
	"github.com/sigil-dev/ragdesk/pkg/types"
)

// ErrorInfo is the user-visible error of the session.
type ErrorInfo struct {
	Message   string       `json:"message"`
	Cause     string       `json:"cause,omitempty"`
	Code      string       `json:"code,omitempty"`
	Region    types.Region `json:"region,omitempty"`
	Operation string       `json:"operation,omitempty"`
}

// State is a point-in-time view of the session. Values returned by the
// controller are deep copies and safe to retain.
type State struct {
	Initialized bool `json:"initialized"`

	Stores        []rag.Store    `json:"stores"`
	SelectedStore *rag.Store     `json:"selected_store,omitempty"`
	Documents     []rag.Document `json:"documents"`

	LastQuery   string           `json:"last_query,omitempty"`
	QueryResult *rag.QueryResult `json:"query_result,omitempty"`

	Loading map[types.Region]bool `json:"loading"`
	// ProcessingTarget names the document being uploaded or deleted.
	ProcessingTarget string `json:"processing_target,omitempty"`
	// PendingDeletion is the store awaiting deletion confirmation.
	PendingDeletion *rag.Store `json:"pending_deletion,omitempty"`

	LastError *ErrorInfo `json:"last_error,omitempty"`
}

func newState() State {
	loading := make(map[types.Region]bool, len(types.Regions))
	for _, r := range types.Regions {
		loading[r] = false
	}
	return State{
		Stores:    []rag.Store{},
		Documents: []rag.Document{},
		Loading:   loading,
	}
}

// IsLoading reports whether region r has an operation in flight.
func (s State) IsLoading(r types.Region) bool { return s.Loading[r] }

// SelectedStoreID returns the selected store's resource name or "".
func (s State) SelectedStoreID() string {
	if s.SelectedStore == nil {
		return ""
	}
	return s.SelectedStore.ID
}

// FindStore looks up a store by resource name.
func (s State) FindStore(id string) (rag.Store, bool) {
	for _, st := range s.Stores {
		if st.ID == id {
			return st, true
		}
	}
	return rag.Store{}, false
}

// FindDocument looks up a document of the selection by resource name.
func (s State) FindDocument(id string) (rag.Document, bool) {
	for _, d := range s.Documents {
		if d.ID == id {
			return d, true
		}
	}
	return rag.Document{}, false
}

func (s State) clone() State {
	out := s
	out.Stores = append([]rag.Store{}, s.Stores...)
	out.Documents = append([]rag.Document{}, s.Documents...)
	out.SelectedStore = cloneStore(s.SelectedStore)
	out.PendingDeletion = cloneStore(s.PendingDeletion)
	out.QueryResult = s.QueryResult.Clone()

	out.Loading = make(map[types.Region]bool, len(s.Loading))
	for r, v := range s.Loading {
		out.Loading[r] = v
	}
	if s.LastError != nil {
		e := *s.LastError
		out.LastError = &e
	}
	return out
}

func cloneStore(s *rag.Store) *rag.Store {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
