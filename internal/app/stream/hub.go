/*
Package stream pushes session snapshots to browser presenters connected to the local bridge.

This file defines the Hub, the single owner of the subscriber set. Subscribers register and
unregister through channels, and every event rendered by the session is fanned out to all
of them from the Run loop. A subscriber that cannot keep up is dropped.
*/
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"roomchat/internal/app/chat"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
)

const broadcastChannelBuffer = 64

// EventType tags a stream event.
type EventType string

const (
	// TypeSnapshot carries the full session snapshot.
	TypeSnapshot EventType = "SNAPSHOT"

	// TypeSendFailed reports a message that did not leave the client.
	TypeSendFailed EventType = "SEND_FAILED"
)

// SendFailedPayload describes a failed send.
type SendFailedPayload struct {
	Body    string `json:"body"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Event is the JSON document written to subscribers.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// Hub fans session events out to stream subscribers. It implements chat.Presenter.
type Hub struct {
	// subscribers currently attached to the hub.
	subscribers map[*Subscriber]struct{}

	// latest is the last encoded snapshot, sent to every new subscriber first.
	latest []byte

	// a buffered channel of encoded events waiting to be fanned out.
	broadcast chan encodedEvent

	register   chan *Subscriber
	unregister chan *Subscriber

	// done is closed when Run returns.
	done chan struct{}

	// mu protects access to the subscribers map for Len.
	mu sync.RWMutex

	logger zerolog.Logger
}

type encodedEvent struct {
	kind EventType
	data []byte
}

// NewHub creates a Hub. Run must be started before events are delivered.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		broadcast:   make(chan encodedEvent, broadcastChannelBuffer),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		done:        make(chan struct{}),
		logger:      logx.Component("stream"),
	}
}

// Run serves registrations and broadcasts until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)

		h.mu.Lock()
		for sub := range h.subscribers {
			delete(h.subscribers, sub)
			close(sub.send)
		}
		h.mu.Unlock()

		h.logger.Info().Msg("Stream hub stopped.")
	}()

	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = struct{}{}
			count := len(h.subscribers)
			h.mu.Unlock()

			if h.latest != nil {
				sub.send <- h.latest
			}
			h.logger.Debug().Int("subscribers", count).Msg("Subscriber registered.")

		case sub := <-h.unregister:
			h.remove(sub)

		case event := <-h.broadcast:
			if event.kind == TypeSnapshot {
				h.latest = event.data
			}

			h.mu.RLock()
			var slow []*Subscriber
			for sub := range h.subscribers {
				select {
				case sub.send <- event.data:
				default:
					slow = append(slow, sub)
				}
			}
			h.mu.RUnlock()

			for _, sub := range slow {
				h.logger.Warn().Msg("Subscriber send channel full, unregistering.")
				h.remove(sub)
			}

		case <-ctx.Done():
			return
		}
	}
}

// remove detaches sub and closes its send channel; the write pump then closes the connection.
func (h *Hub) remove(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[sub]; !ok {
		return
	}
	delete(h.subscribers, sub)
	close(sub.send)
}

// Len returns the number of attached subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Render publishes snap to every subscriber.
func (h *Hub) Render(snap chat.Snapshot) {
	h.publish(TypeSnapshot, snap)
}

// SendFailed publishes a failed send to every subscriber.
func (h *Hub) SendFailed(body string, err error) {
	payload := SendFailedPayload{Body: body, Code: errs.CodeOf(err), Message: err.Error()}

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		payload.Message = customErr.Message
	}

	h.publish(TypeSendFailed, payload)
}

// publish never blocks the caller; events are dropped while the broadcast queue is full.
func (h *Hub) publish(kind EventType, payload any) {
	data, err := json.Marshal(Event{Type: kind, Payload: payload})
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(kind)).Msg("Error marshaling stream event.")
		return
	}

	select {
	case h.broadcast <- encodedEvent{kind: kind, data: data}:
	case <-h.done:
	default:
		h.logger.Warn().Str("event_type", string(kind)).Msg("Broadcast queue full, dropping stream event.")
	}
}
