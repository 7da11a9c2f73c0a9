// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/sigil-dev/ragdesk/internal/pubsub"
	"github.com/sigil-dev/ragdesk/internal/session"
)

// eventsPath streams state snapshots as server-sent events.
const eventsPath = "/api/v1/events"

// keepAliveInterval spaces SSE comments sent while the state is idle.
var keepAliveInterval = 25 * time.Second

// SSEEvent represents a single server-sent event.
type SSEEvent struct {
	ID    string `json:"id"`
	Event string `json:"event"`
	Data  string `json:"data"`
}

func (s *Server) registerEventsRoute() {
	s.router.Get(eventsPath, s.handleEvents)

	// The stream needs the raw ResponseWriter, so it is served by chi and
	// only documented through huma.
	s.api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: "session-events",
		Method:      http.MethodGet,
		Path:        eventsPath,
		Summary:     "Stream session snapshots via SSE",
		Description: "Sends the current snapshot immediately, then one event per state change. " +
			"Event names are \"updated\" and \"error\"; data is the JSON snapshot.",
		Tags: []string{"session"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Server-sent event stream",
				Content: map[string]*huma.MediaType{
					"text/event-stream": {
						Schema: &huma.Schema{
							Type:        "string",
							Description: "Server-sent event stream",
						},
					},
				},
			},
		},
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("write deadline not cleared", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	// Subscribe before taking the initial snapshot so no change is lost in
	// between; a duplicate snapshot is harmless.
	events := s.ctrl.Subscribe(ctx)

	if err := writeEvent(w, rc, pubsub.UpdatedEvent, s.ctrl.Snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, rc, ev.Type, ev.Payload); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, t pubsub.EventType, st session.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		slog.Error("encoding session snapshot", "error", err)
		return err
	}
	ev := SSEEvent{ID: uuid.NewString(), Event: string(t), Data: string(data)}
	if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Event, ev.Data); err != nil {
		return err
	}
	// httptest.ResponseRecorder supports Flush; other writers may not.
	_ = rc.Flush()
	return nil
}
