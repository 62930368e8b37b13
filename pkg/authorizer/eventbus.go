package authorizer

import (
	"context"
	"fmt"
)

// LoginEvent is published after an account is logged in. It is ephemeral and
// never persisted.
type LoginEvent struct {
	Account    *Account
	ProviderID string
	// ExtraData is the provider's opaque payload; mapping-capable providers
	// place the external member object under the "member" key.
	ExtraData map[string]interface{}
}

// Subscriber receives login events synchronously, in registration order.
type Subscriber interface {
	// Name identifies the subscriber in logs and errors.
	Name() string
	OnLogin(ctx context.Context, event *LoginEvent) error
}

// FatalLoginError wraps a subscriber failure during publication. The login
// request that triggered the event must be aborted.
type FatalLoginError struct {
	Subscriber string
	Err        error
}

func (e *FatalLoginError) Error() string {
	return fmt.Sprintf("login subscriber %q failed: %v", e.Subscriber, e.Err)
}

func (e *FatalLoginError) Unwrap() error { return e.Err }

// EventBus is an explicit, ordered, in-process publish/subscribe list.
// Publication is synchronous and fail-closed: the first subscriber error
// stops dispatch and is returned as a *FatalLoginError.
type EventBus struct {
	subscribers []Subscriber
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe appends a subscriber. Order matters: subscribers run in the
// order they were registered.
func (b *EventBus) Subscribe(s Subscriber) {
	b.subscribers = append(b.subscribers, s)
}

// Publish dispatches the event to every subscriber in order.
func (b *EventBus) Publish(ctx context.Context, event *LoginEvent) error {
	for _, s := range b.subscribers {
		if err := s.OnLogin(ctx, event); err != nil {
			return &FatalLoginError{Subscriber: s.Name(), Err: err}
		}
	}
	return nil
}
