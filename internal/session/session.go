// Package session carries session-state transitions from the
// authentication surface to the sync coordinator as an event stream.
// The coordinator subscribes once; nothing polls.
package session

import "sync"

// EventKind enumerates session transitions.
type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
)

// Event is one session transition. UserID is set for signed_in events.
type Event struct {
	Kind   EventKind
	UserID string
}

// Provider is the publish side of the session event stream. The buffer
// absorbs bursts so the HTTP handler never blocks on the coordinator;
// if the buffer ever fills, the newest event is dropped rather than
// deadlocking the publisher.
type Provider struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewProvider creates a Provider.
func NewProvider() *Provider {
	return &Provider{ch: make(chan Event, 16)}
}

// Publish enqueues an event. Returns false if the event was dropped
// (closed provider or full buffer).
func (p *Provider) Publish(ev Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.ch <- ev:
		return true
	default:
		return false
	}
}

// Events returns the subscribe side of the stream.
func (p *Provider) Events() <-chan Event {
	return p.ch
}

// Close ends the stream; the subscriber's range loop terminates.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
}
