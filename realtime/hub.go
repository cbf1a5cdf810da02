// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Message types pushed to subscribers
const (
	MsgResults = "results"
	MsgClosed  = "closed"
	MsgPong    = "pong"
	MsgError   = "error"
)

// Message is the envelope every server push uses.
type Message struct {
	Type      string      `json:"type"`
	PollID    string      `json:"poll_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage stamps a message with the current time.
func NewMessage(msgType, pollID string, payload interface{}) Message {
	return Message{
		Type:      msgType,
		PollID:    pollID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Subscriber receives encoded messages for a poll. Deliver must not block;
// it reports false when the message was dropped.
type Subscriber interface {
	Deliver(data []byte) bool
	Close() error
}

// Hub tracks live subscribers per poll.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[Subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[Subscriber]struct{})}
}

// Subscribe registers s for updates on pollID.
func (h *Hub) Subscribe(pollID string, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[pollID]
	if !ok {
		set = make(map[Subscriber]struct{})
		h.subs[pollID] = set
	}
	set[s] = struct{}{}
}

// Unsubscribe removes s. Unknown subscribers are ignored.
func (h *Hub) Unsubscribe(pollID string, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[pollID]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, pollID)
	}
}

// Count returns the number of subscribers on pollID.
func (h *Hub) Count(pollID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs[pollID])
}

// Broadcast encodes msg once and hands it to every subscriber of pollID.
// It returns how many subscribers accepted the message.
func (h *Hub) Broadcast(pollID string, msg Message) (int, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s message: %w", msg.Type, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for s := range h.subs[pollID] {
		if s.Deliver(data) {
			delivered++
		}
	}
	return delivered, nil
}

// Shutdown closes every subscriber and forgets them.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]map[Subscriber]struct{})
	h.mu.Unlock()

	for _, set := range subs {
		for s := range set {
			s.Close()
		}
	}
}
