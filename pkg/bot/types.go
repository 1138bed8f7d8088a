// Package bot wires inbound chat events to the booking engine, the
// roster source, the admin edit flow, and the schedule command parser.
// Transport is abstracted behind EventSource and Responder; the
// dispatcher only needs ordered delivery per actor.
package bot

import "context"

// Event is one inbound interaction.
type Event struct {
	// ActorID identifies the sender.
	ActorID int64
	// Text is the raw message text.
	Text string
}

// Message is an outbound reply with optional button rows. Buttons are
// plain labels; the transport decides how to render them.
type Message struct {
	Text    string
	Buttons [][]string
}

// EventSource yields inbound events in order. Next blocks until an
// event arrives or the context is done.
type EventSource interface {
	Next(ctx context.Context) (Event, error)
}

// Responder delivers outbound messages.
type Responder interface {
	Send(ctx context.Context, actorID int64, msg Message) error
}

// NameResolver resolves an actor id to their display name.
type NameResolver interface {
	DisplayName(ctx context.Context, actorID int64) (string, error)
}
