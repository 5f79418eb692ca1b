// Package events allows for the registering and receiving of wallet
// activity events, fanned out to any number of subscribers.
package events

import (
	"fmt"
	"sync"
	"time"
)

// Event is a single wallet activity message.
type Event struct {
	Time    time.Time `json:"time"`
	TraceID string    `json:"trace_id"`
	Message string    `json:"message"`
}

// Events maintains a mapping of unique id and channels so goroutines can
// register and receive events.
type Events struct {
	mu sync.RWMutex
	m  map[string]chan Event
}

// New constructs an events hub for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]chan Event),
	}
}

// Shutdown closes and removes all channels that were provided by the call
// to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used to
// receive events.
func (evt *Events) Acquire(id string) chan Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	// A message is dropped if the subscriber is not ready to receive, so
	// this buffer gives slow websocket writers time to catch up.
	const messageBuffer = 100

	evt.m[id] = make(chan Event, messageBuffer)
	return evt.m[id]
}

// Release closes and removes the channel that was provided by the call to
// Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Send signals a message to every registered channel. Send will not block
// waiting for a receiver on any given channel.
func (evt *Events) Send(traceID string, message string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	event := Event{
		Time:    time.Now().UTC(),
		TraceID: traceID,
		Message: message,
	}

	for _, ch := range evt.m {
		select {
		case ch <- event:
		default:
		}
	}
}
