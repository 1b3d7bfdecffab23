// Package events is the typed publish/subscribe surface through which
// classified inbound events and lifecycle notifications reach collaborators.
//
// The event set is closed: one Topic field per event on the Dispatcher,
// each with its own payload type. Delivery is synchronous with respect to
// the frame that triggered it and follows subscription order.
package events

import (
	"sync"

	"github.com/chaodoze/multimodal-live-api-web-console/internal/logging"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/wire"
)

// Topic is a typed listener registry. The zero value is ready to use.
type Topic[T any] struct {
	mu   sync.Mutex
	next int
	subs []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns its handle for Unsubscribe.
func (t *Topic[T]) Subscribe(fn func(T)) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.subs = append(t.subs, subscriber[T]{id: t.next, fn: fn})
	return t.next
}

// Unsubscribe removes the listener registered under id. Unknown or already
// removed handles are a no-op.
func (t *Topic[T]) Unsubscribe(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.subs {
		if s.id == id {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers v to every listener in subscription order. Listeners run
// on the publisher's goroutine.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	subs := make([]subscriber[T], len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len reports the number of registered listeners.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// CloseEvent carries the transport close code and the cleaned close reason.
type CloseEvent struct {
	Code   int
	Reason string
}

// Dispatcher holds one typed topic per session event.
type Dispatcher struct {
	Open                 Topic[struct{}]
	Close                Topic[CloseEvent]
	Log                  Topic[logging.Entry]
	Audio                Topic[[]byte]
	Content              Topic[[]wire.Part]
	Interrupted          Topic[struct{}]
	SetupComplete        Topic[struct{}]
	TurnComplete         Topic[struct{}]
	ToolCall             Topic[wire.ToolCall]
	ToolCallCancellation Topic[[]string]
}

// New returns an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{}
}
