// Copyright 2025 Synthient Works
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/synthient-works/tally/event"
)

const (
	// sseHeartbeatInterval keeps idle connections alive
	sseHeartbeatInterval = 30 * time.Second
	// sseSubscriberBuffer bounds per-connection queueing; clients
	// that fall this far behind are disconnected
	sseSubscriberBuffer = 64
)

// sseFrame is the JSON payload of a single SSE data frame.
type sseFrame struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// sseSubscriber adapts an SSE connection to the event.Subscriber
// interface. Deliver is non-blocking: a full buffer returns an error,
// which causes the bus to unsubscribe the slow connection.
type sseSubscriber struct {
	ch        chan event.Event
	closeOnce sync.Once
}

func newSseSubscriber() *sseSubscriber {
	return &sseSubscriber{
		ch: make(chan event.Event, sseSubscriberBuffer),
	}
}

func (s *sseSubscriber) Deliver(evt event.Event) error {
	select {
	case s.ch <- evt:
		return nil
	default:
		return errors.New("subscriber buffer full")
	}
}

func (s *sseSubscriber) Close() {
	s.closeOnce.Do(func() {
		close(s.ch)
	})
}

// writeFrame writes a single SSE data frame and flushes it.
func writeFrame(
	w http.ResponseWriter,
	flusher http.Flusher,
	frame sseFrame,
) error {
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}
	data, err := json.Marshal(&frame)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// handleEvents handles GET /api/v1/events. It streams governance
// changes over SSE: a connection ack, a snapshot of every tracked
// proposal, then live vote and transition events, kept alive by
// heartbeats. The stream ends when the client disconnects.
func (a *Api) handleEvents(
	w http.ResponseWriter,
	r *http.Request,
) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"streaming not supported",
		)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Connection ack
	if err := writeFrame(w, flusher, sseFrame{
		Type:    "connection",
		Message: "SSE connection established",
	}); err != nil {
		return
	}

	// Register for live governance events before reading the snapshot
	// so a transition committed in between is buffered rather than
	// lost. The client may see such a change twice, once in the
	// snapshot and once live.
	sub := newSseSubscriber()
	eventTypes := []event.EventType{
		event.ProposalCreatedEventType,
		event.VoteRecordedEventType,
		event.StatusTransitionEventType,
	}
	subIds := make(map[event.EventType]event.EventSubscriberId)
	for _, eventType := range eventTypes {
		subIds[eventType] = a.eventBus.RegisterSubscriber(eventType, sub)
	}
	defer func() {
		for eventType, subId := range subIds {
			a.eventBus.Unsubscribe(eventType, subId)
		}
	}()

	// Snapshot of current proposal state
	proposals, err := a.provider.Proposals(r.Context(), "", 0, 0)
	if err != nil {
		a.logger.Error(
			"failed to load proposal snapshot for SSE client",
			"error", err,
		)
		return
	}
	for _, proposal := range proposals {
		if err := writeFrame(w, flusher, sseFrame{
			Type: "snapshot",
			Data: proposalToResponse(proposal),
		}); err != nil {
			return
		}
	}

	a.logger.Debug(
		"SSE client connected",
		"remote_addr", r.RemoteAddr,
	)

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			a.logger.Debug(
				"SSE client disconnected",
				"remote_addr", r.RemoteAddr,
			)
			return
		case <-heartbeat.C:
			if err := writeFrame(w, flusher, sseFrame{
				Type: "heartbeat",
			}); err != nil {
				return
			}
		case evt, ok := <-sub.ch:
			if !ok {
				return
			}
			frame := sseFrame{
				Timestamp: evt.Timestamp,
				Data:      evt.Data,
			}
			switch evt.Type {
			case event.ProposalCreatedEventType:
				frame.Type = "proposal"
			case event.VoteRecordedEventType:
				frame.Type = "vote"
			case event.StatusTransitionEventType:
				frame.Type = "transition"
			default:
				frame.Type = string(evt.Type)
			}
			if err := writeFrame(w, flusher, frame); err != nil {
				return
			}
		}
	}
}
