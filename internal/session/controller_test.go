// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package session_test

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigil-dev/ragdesk/internal/pubsub"
	"github.com/sigil-dev/ragdesk/internal/rag"
	"github.com/sigil-dev/ragdesk/internal/rag/gemini"
	"github.com/sigil-dev/ragdesk/internal/rag/ragtest"
	"github.com/sigil-dev/ragdesk/internal/session"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/sigil-dev/ragdesk/pkg/types"
)

const waitTimeout = 2 * time.Second

func newTestController(t *testing.T, stores ...string) (*session.Controller, *ragtest.Fake) {
	t.Helper()
	fake := ragtest.NewFake()
	for _, name := range stores {
		fake.AddStore(name)
	}
	c := session.NewController(fake)
	t.Cleanup(c.Close)
	require.NoError(t, c.InitializeSession(context.Background()))
	return c, fake
}

func storeIDByName(t *testing.T, c *session.Controller, name string) string {
	t.Helper()
	for _, s := range c.Snapshot().Stores {
		if s.DisplayName == name {
			return s.ID
		}
	}
	t.Fatalf("store %q not found", name)
	return ""
}

func waitEntered(t *testing.T, g *ragtest.Gate) string {
	t.Helper()
	select {
	case target := <-g.Entered():
		return target
	case <-time.After(waitTimeout):
		t.Fatal("call never reached the gate")
		return ""
	}
}

func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("operation did not return")
		return nil
	}
}

func drain(ch <-chan pubsub.Event[session.State]) []pubsub.Event[session.State] {
	var out []pubsub.Event[session.State]
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestInitializeSession_ZeroStores(t *testing.T) {
	c, _ := newTestController(t)

	st := c.Snapshot()
	assert.True(t, st.Initialized)
	assert.NotNil(t, st.Stores)
	assert.Empty(t, st.Stores)
	assert.Nil(t, st.LastError)
	assert.False(t, st.IsLoading(types.RegionStores))
}

func TestInitializeSession_MissingCredential(t *testing.T) {
	client, err := gemini.New(gemini.Config{})
	require.NoError(t, err)
	c := session.NewController(client)
	t.Cleanup(c.Close)

	err = c.InitializeSession(context.Background())
	require.Error(t, err)

	st := c.Snapshot()
	assert.False(t, st.Initialized)
	require.NotNil(t, st.LastError)
	assert.Contains(t, st.LastError.Cause, "GEMINI_API_KEY")
	assert.Equal(t, types.RegionStores, st.LastError.Region)
	assert.False(t, st.IsLoading(types.RegionStores), "loading cleared on failure")
}

func TestInitializeSession_ListFailure(t *testing.T) {
	fake := ragtest.NewFake()
	fake.SetError(ragtest.OpListStores, ragerr.New(ragerr.CodeRAGUpstreamFailure, "unavailable"))
	c := session.NewController(fake)
	t.Cleanup(c.Close)

	err := c.InitializeSession(context.Background())
	require.Error(t, err)
	assert.True(t, ragerr.IsUpstreamFailure(err))
	assert.False(t, c.Snapshot().Initialized)
	assert.Equal(t, "list_stores", c.Snapshot().LastError.Operation)
}

func TestCreateStore_AppearsAfterReload(t *testing.T) {
	c, fake := newTestController(t)

	id, err := c.CreateStore(context.Background(), "Notes")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	st := c.Snapshot()
	require.Len(t, st.Stores, 1)
	assert.Equal(t, "Notes", st.Stores[0].DisplayName)
	assert.Equal(t, id, st.Stores[0].ID)
	assert.Equal(t, 2, fake.Calls(ragtest.OpListStores), "initial load plus reload")
}

func TestCreateStore_EmptyName(t *testing.T) {
	c, fake := newTestController(t)

	_, err := c.CreateStore(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, ragerr.IsInvalidInput(err))
	assert.Zero(t, fake.Calls(ragtest.OpCreateStore))
}

func TestCreateStore_BusyRegionRejected(t *testing.T) {
	c, fake := newTestController(t)
	gate := fake.Gate(ragtest.OpCreateStore)

	first := make(chan error, 1)
	go func() {
		_, err := c.CreateStore(context.Background(), "One")
		first <- err
	}()
	waitEntered(t, gate)
	assert.True(t, c.Snapshot().IsLoading(types.RegionStores))

	_, err := c.CreateStore(context.Background(), "Two")
	require.Error(t, err)
	assert.True(t, ragerr.IsBusy(err))
	assert.Nil(t, c.Snapshot().LastError, "busy rejections are not session errors")

	gate.Release()
	require.NoError(t, waitErr(t, first))
	assert.Len(t, c.Snapshot().Stores, 1)
}

func TestRefreshStores(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	ctx := context.Background()

	fake.AddStore("Beta")
	require.NoError(t, c.RefreshStores(ctx))
	assert.Len(t, c.Snapshot().Stores, 2)

	fake.SetError(ragtest.OpListStores, stderrors.New("unavailable"))
	require.Error(t, c.RefreshStores(ctx))
	st := c.Snapshot()
	assert.Len(t, st.Stores, 2, "a failed reload keeps the previous list")
	require.NotNil(t, st.LastError)
	assert.Equal(t, "list_stores", st.LastError.Operation)
	assert.False(t, st.IsLoading(types.RegionStores))
}

func TestStoreDeletion_RequiresConfirmation(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	id := storeIDByName(t, c, "Alpha")
	ctx := context.Background()

	err := c.DeleteStore(ctx, id)
	require.Error(t, err)
	assert.True(t, ragerr.IsConfirmationRequired(err))

	err = c.ConfirmStoreDeletion(ctx)
	require.Error(t, err)
	assert.True(t, ragerr.IsConfirmationRequired(err))

	require.NoError(t, c.RequestStoreDeletion(id))
	require.NotNil(t, c.Snapshot().PendingDeletion)
	c.CancelStoreDeletion()
	assert.Nil(t, c.Snapshot().PendingDeletion)

	require.Error(t, c.DeleteStore(ctx, id))
	assert.Zero(t, fake.Calls(ragtest.OpDeleteStore))

	require.NoError(t, c.RequestStoreDeletion(id))
	require.NoError(t, c.DeleteStore(ctx, id))
	assert.Empty(t, c.Snapshot().Stores)
	assert.Nil(t, c.Snapshot().PendingDeletion)
}

func TestRequestStoreDeletion_UnknownStore(t *testing.T) {
	c, _ := newTestController(t)
	err := c.RequestStoreDeletion("fileSearchStores/missing")
	require.Error(t, err)
	assert.True(t, ragerr.IsNotFound(err))
}

func TestConfirmStoreDeletion_ClearsSelectionBeforeReload(t *testing.T) {
	c, fake := newTestController(t, "Alpha", "Beta")
	ctx := context.Background()
	alpha := storeIDByName(t, c, "Alpha")
	fake.AddDocument(alpha, "a.txt")

	require.NoError(t, c.SelectStore(ctx, alpha))
	require.Len(t, c.Snapshot().Documents, 1)

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := c.Subscribe(subCtx)

	require.NoError(t, c.RequestStoreDeletion(alpha))
	require.NoError(t, c.ConfirmStoreDeletion(ctx))

	var clearedIdx, reloadedIdx = -1, -1
	for i, ev := range drain(events) {
		_, stillListed := ev.Payload.FindStore(alpha)
		if clearedIdx == -1 && ev.Payload.SelectedStore == nil {
			clearedIdx = i
			assert.True(t, stillListed, "selection cleared before the store list is refreshed")
			assert.Empty(t, ev.Payload.Documents)
			assert.Nil(t, ev.Payload.QueryResult)
		}
		if reloadedIdx == -1 && !stillListed {
			reloadedIdx = i
		}
	}
	require.NotEqual(t, -1, clearedIdx)
	require.NotEqual(t, -1, reloadedIdx)
	assert.Less(t, clearedIdx, reloadedIdx)

	st := c.Snapshot()
	assert.Nil(t, st.SelectedStore)
	assert.Empty(t, st.Documents)
	require.Len(t, st.Stores, 1)
	assert.Equal(t, "Beta", st.Stores[0].DisplayName)
}

func TestDeleteStore_FailureKeepsSelection(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	ctx := context.Background()
	alpha := storeIDByName(t, c, "Alpha")
	require.NoError(t, c.SelectStore(ctx, alpha))

	fake.SetError(ragtest.OpDeleteStore, ragerr.New(ragerr.CodeRAGUpstreamFailure, "boom"))
	require.NoError(t, c.RequestStoreDeletion(alpha))
	err := c.ConfirmStoreDeletion(ctx)
	require.Error(t, err)

	st := c.Snapshot()
	assert.Equal(t, alpha, st.SelectedStoreID())
	assert.Nil(t, st.PendingDeletion)
	require.NotNil(t, st.LastError)
	assert.Equal(t, "delete_store", st.LastError.Operation)
}

func TestSelectStore_LoadsDocuments(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	alpha := storeIDByName(t, c, "Alpha")
	fake.AddDocument(alpha, "a.txt")
	fake.AddDocument(alpha, "b.txt")

	require.NoError(t, c.SelectStore(context.Background(), rag.ShortID(alpha)), "bare ids are qualified")

	st := c.Snapshot()
	assert.Equal(t, alpha, st.SelectedStoreID())
	assert.Len(t, st.Documents, 2)
	assert.False(t, st.IsLoading(types.RegionDocuments))
}

func TestSelectStore_SameStoreIsNoop(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	alpha := storeIDByName(t, c, "Alpha")
	ctx := context.Background()

	require.NoError(t, c.SelectStore(ctx, alpha))
	require.NoError(t, c.SelectStore(ctx, alpha))
	assert.Equal(t, 1, fake.Calls(ragtest.OpListDocuments))
}

func TestSelectStore_Unknown(t *testing.T) {
	c, _ := newTestController(t)
	err := c.SelectStore(context.Background(), "fileSearchStores/missing")
	require.Error(t, err)
	assert.True(t, ragerr.IsNotFound(err))
}

func TestSelectStore_StaleDocumentsDropped(t *testing.T) {
	c, fake := newTestController(t, "Alpha", "Beta")
	ctx := context.Background()
	alpha := storeIDByName(t, c, "Alpha")
	beta := storeIDByName(t, c, "Beta")
	fake.AddDocument(alpha, "a.txt")
	fake.AddDocument(beta, "b.txt")

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := c.Subscribe(subCtx)

	gate := fake.Gate(ragtest.OpListDocuments)
	done := make(chan error, 2)

	go func() { done <- c.SelectStore(ctx, alpha) }()
	assert.Equal(t, alpha, waitEntered(t, gate))

	go func() { done <- c.SelectStore(ctx, beta) }()
	assert.Equal(t, beta, waitEntered(t, gate))

	gate.Release()
	require.NoError(t, waitErr(t, done))
	require.NoError(t, waitErr(t, done))

	st := c.Snapshot()
	assert.Equal(t, beta, st.SelectedStoreID())
	require.Len(t, st.Documents, 1)
	assert.Equal(t, beta, st.Documents[0].StoreID())
	assert.False(t, st.IsLoading(types.RegionDocuments))

	selectedBeta := false
	for _, ev := range drain(events) {
		if ev.Payload.SelectedStoreID() == beta {
			selectedBeta = true
		}
		if !selectedBeta {
			continue
		}
		for _, d := range ev.Payload.Documents {
			assert.NotEqual(t, alpha, d.StoreID(), "documents of the previous selection leaked")
		}
	}
	assert.True(t, selectedBeta)
}

func TestClearSelection(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	alpha := storeIDByName(t, c, "Alpha")
	fake.AddDocument(alpha, "a.txt")
	ctx := context.Background()

	require.NoError(t, c.SelectStore(ctx, alpha))
	_, err := c.Query(ctx, "hello")
	require.NoError(t, err)

	c.ClearSelection()
	st := c.Snapshot()
	assert.Nil(t, st.SelectedStore)
	assert.Empty(t, st.Documents)
	assert.Nil(t, st.QueryResult)
}

func TestRefreshDocuments(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	alpha := storeIDByName(t, c, "Alpha")
	ctx := context.Background()

	err := c.RefreshDocuments(ctx)
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeSessionNoSelection))

	require.NoError(t, c.SelectStore(ctx, alpha))
	assert.Empty(t, c.Snapshot().Documents)

	fake.AddDocument(alpha, "late.txt")
	require.NoError(t, c.RefreshDocuments(ctx))
	assert.Len(t, c.Snapshot().Documents, 1)
}

func TestUploadDocument_TargetAndRefresh(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	alpha := storeIDByName(t, c, "Alpha")
	ctx := context.Background()
	require.NoError(t, c.SelectStore(ctx, alpha))

	gate := fake.Gate(ragtest.OpUploadDocument)
	done := make(chan error, 1)
	go func() {
		done <- c.UploadDocument(ctx, rag.UploadRequest{
			FileName: "/home/ada/notes.md",
			Content:  strings.NewReader("# notes"),
		})
	}()
	waitEntered(t, gate)

	assert.Equal(t, "notes.md", c.Snapshot().ProcessingTarget)
	assert.Empty(t, c.Snapshot().Documents, "no optimistic insert")

	err := c.UploadDocument(ctx, rag.UploadRequest{FileName: "other.md", Content: strings.NewReader("x")})
	require.Error(t, err)
	assert.True(t, ragerr.IsBusy(err))

	gate.Release()
	require.NoError(t, waitErr(t, done))

	st := c.Snapshot()
	assert.Empty(t, st.ProcessingTarget)
	require.Len(t, st.Documents, 1)
	assert.Equal(t, "notes.md", st.Documents[0].DisplayName)
}

func TestUploadDocument_FailureStillRefreshes(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	alpha := storeIDByName(t, c, "Alpha")
	ctx := context.Background()
	require.NoError(t, c.SelectStore(ctx, alpha))
	before := fake.Calls(ragtest.OpListDocuments)

	fake.SetError(ragtest.OpUploadDocument, ragerr.New(ragerr.CodeRAGUpstreamFailure, "operation failed"))
	err := c.UploadDocument(ctx, rag.UploadRequest{FileName: "a.txt", Content: strings.NewReader("a")})
	require.Error(t, err)

	st := c.Snapshot()
	assert.Empty(t, st.ProcessingTarget)
	assert.Equal(t, before+1, fake.Calls(ragtest.OpListDocuments))
	require.NotNil(t, st.LastError)
	assert.Equal(t, "upload_document", st.LastError.Operation)
}

func TestUploadDocument_Cancelled(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	alpha := storeIDByName(t, c, "Alpha")
	require.NoError(t, c.SelectStore(context.Background(), alpha))

	gate := fake.Gate(ragtest.OpUploadDocument)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.UploadDocument(ctx, rag.UploadRequest{FileName: "a.txt", Content: strings.NewReader("a")})
	}()
	waitEntered(t, gate)
	cancel()

	err := waitErr(t, done)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	st := c.Snapshot()
	assert.Empty(t, st.ProcessingTarget)
	assert.Nil(t, st.LastError, "abandoning an upload is not a session error")
}

func TestUploadDocument_NoSelection(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	err := c.UploadDocument(context.Background(), rag.UploadRequest{FileName: "a.txt", Content: strings.NewReader("a")})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeSessionNoSelection))
	assert.Zero(t, fake.Calls(ragtest.OpUploadDocument))
}

func TestDeleteDocument_AlreadyDeleted(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	alpha := storeIDByName(t, c, "Alpha")
	docID := fake.AddDocument(alpha, "a.txt")
	ctx := context.Background()
	require.NoError(t, c.SelectStore(ctx, alpha))

	require.NoError(t, c.DeleteDocument(ctx, docID))
	assert.Empty(t, c.Snapshot().Documents)

	err := c.DeleteDocument(ctx, docID)
	require.Error(t, err)
	assert.True(t, ragerr.IsUpstreamFailure(err))

	st := c.Snapshot()
	assert.Empty(t, st.ProcessingTarget)
	require.NotNil(t, st.LastError)
	assert.Equal(t, "delete_document", st.LastError.Operation)
}

func TestDeleteDocument_WaitsForInFlightRefresh(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	alpha := storeIDByName(t, c, "Alpha")
	docID := fake.AddDocument(alpha, "a.txt")
	ctx := context.Background()
	require.NoError(t, c.SelectStore(ctx, alpha))

	gate := fake.Gate(ragtest.OpListDocuments)
	refreshed := make(chan error, 1)
	go func() { refreshed <- c.RefreshDocuments(ctx) }()
	waitEntered(t, gate)

	deleted := make(chan error, 1)
	go func() { deleted <- c.DeleteDocument(ctx, docID) }()
	require.Eventually(t, func() bool { return fake.Calls(ragtest.OpDeleteDocument) == 1 },
		waitTimeout, 5*time.Millisecond)

	select {
	case <-gate.Entered():
		t.Fatal("second document fetch started while one was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 2, fake.Calls(ragtest.OpListDocuments))
	assert.True(t, c.Snapshot().IsLoading(types.RegionDocuments))

	gate.Release()
	require.NoError(t, waitErr(t, refreshed))
	require.NoError(t, waitErr(t, deleted))

	assert.Equal(t, 3, fake.Calls(ragtest.OpListDocuments))
	st := c.Snapshot()
	assert.Empty(t, st.Documents)
	assert.False(t, st.IsLoading(types.RegionDocuments))
}

func TestDeleteDocument_TargetUsesDisplayName(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	alpha := storeIDByName(t, c, "Alpha")
	docID := fake.AddDocument(alpha, "report.pdf")
	ctx := context.Background()
	require.NoError(t, c.SelectStore(ctx, alpha))

	gate := fake.Gate(ragtest.OpDeleteDocument)
	done := make(chan error, 1)
	go func() { done <- c.DeleteDocument(ctx, rag.ShortID(docID)) }()

	assert.Equal(t, docID, waitEntered(t, gate))
	assert.Equal(t, "report.pdf", c.Snapshot().ProcessingTarget)

	gate.Release()
	require.NoError(t, waitErr(t, done))
	assert.Empty(t, c.Snapshot().ProcessingTarget)
}

func TestQuery_ClearsResultBeforeDispatch(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	alpha := storeIDByName(t, c, "Alpha")
	ctx := context.Background()
	require.NoError(t, c.SelectStore(ctx, alpha))

	_, err := c.Query(ctx, "first")
	require.NoError(t, err)
	require.NotNil(t, c.Snapshot().QueryResult)

	gate := fake.Gate(ragtest.OpQuery)
	done := make(chan error, 1)
	go func() {
		_, err := c.Query(ctx, "second")
		done <- err
	}()
	assert.Equal(t, "second", waitEntered(t, gate))

	st := c.Snapshot()
	assert.Nil(t, st.QueryResult, "previous result cleared while the request is in flight")
	assert.True(t, st.IsLoading(types.RegionQuery))
	assert.False(t, st.IsLoading(types.RegionStores), "other regions stay usable")

	_, err = c.Query(ctx, "third")
	require.Error(t, err)
	assert.True(t, ragerr.IsBusy(err))

	gate.Release()
	require.NoError(t, waitErr(t, done))

	st = c.Snapshot()
	require.NotNil(t, st.QueryResult)
	assert.Equal(t, "answer to: second", st.QueryResult.AnswerText)
	assert.Equal(t, "second", st.LastQuery)
	assert.False(t, st.IsLoading(types.RegionQuery))
}

func TestQuery_Validation(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	ctx := context.Background()

	_, err := c.Query(ctx, "hello")
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeSessionNoSelection))

	require.NoError(t, c.SelectStore(ctx, storeIDByName(t, c, "Alpha")))
	_, err = c.Query(ctx, "   ")
	require.Error(t, err)
	assert.True(t, ragerr.IsInvalidInput(err))
	assert.Zero(t, fake.Calls(ragtest.OpQuery))
}

func TestQuery_Failure(t *testing.T) {
	c, fake := newTestController(t, "Alpha")
	ctx := context.Background()
	require.NoError(t, c.SelectStore(ctx, storeIDByName(t, c, "Alpha")))

	fake.SetError(ragtest.OpQuery, ragerr.New(ragerr.CodeRAGUpstreamFailure, "quota"))
	_, err := c.Query(ctx, "hello")
	require.Error(t, err)

	st := c.Snapshot()
	assert.Nil(t, st.QueryResult)
	assert.False(t, st.IsLoading(types.RegionQuery))
	require.NotNil(t, st.LastError)
	assert.Equal(t, types.RegionQuery, st.LastError.Region)
	assert.Equal(t, string(ragerr.CodeRAGUpstreamFailure), st.LastError.Code)
}

func TestClearError_RetriesInitialization(t *testing.T) {
	fake := ragtest.NewFake()
	fake.SetError(ragtest.OpInitialize, ragerr.New(ragerr.CodeRAGCredentialMissing, "GEMINI_API_KEY is not set"))
	c := session.NewController(fake)
	t.Cleanup(c.Close)
	ctx := context.Background()

	require.Error(t, c.InitializeSession(ctx))
	require.NotNil(t, c.Snapshot().LastError)

	fake.SetError(ragtest.OpInitialize, nil)
	require.NoError(t, c.ClearError(ctx))

	st := c.Snapshot()
	assert.True(t, st.Initialized)
	assert.Nil(t, st.LastError)
	assert.Equal(t, 2, fake.Calls(ragtest.OpInitialize))
}

func TestClearError_WhenInitialized(t *testing.T) {
	c, fake := newTestController(t)
	c.ReportError("upload failed", stderrors.New("disk"))
	require.NotNil(t, c.Snapshot().LastError)

	require.NoError(t, c.ClearError(context.Background()))
	assert.Nil(t, c.Snapshot().LastError)
	assert.Equal(t, 1, fake.Calls(ragtest.OpInitialize))
}

func TestReportError_PublishesErrorEvent(t *testing.T) {
	c, _ := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := c.Subscribe(ctx)

	c.ReportError("something broke", stderrors.New("cause"))

	select {
	case ev := <-events:
		assert.Equal(t, pubsub.ErrorEvent, ev.Type)
		require.NotNil(t, ev.Payload.LastError)
		assert.Equal(t, "something broke", ev.Payload.LastError.Message)
		assert.Equal(t, "cause", ev.Payload.LastError.Cause)
		assert.Equal(t, types.RegionGlobal, ev.Payload.LastError.Region)
	case <-time.After(waitTimeout):
		t.Fatal("no event published")
	}
}

func TestSnapshot_IsIsolated(t *testing.T) {
	c, _ := newTestController(t, "Alpha")

	snap := c.Snapshot()
	snap.Stores[0].DisplayName = "mutated"
	snap.Loading[types.RegionStores] = true

	again := c.Snapshot()
	assert.Equal(t, "Alpha", again.Stores[0].DisplayName)
	assert.False(t, again.IsLoading(types.RegionStores))
}
