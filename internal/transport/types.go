// Package transport defines the capability interface the bot requires from
// the messaging platform. The core never imports a platform client
// directly; internal/transport/whatsapp provides the real implementation.
package transport

import "context"

// Message is one inbound chat message, already reduced to what the
// dispatch pipeline needs.
type Message struct {
	// Chat is the conversation JID: the group id for group messages,
	// otherwise the sender's own JID.
	Chat    string
	Sender  string
	Text    string
	IsGroup bool
	// PushName is the sender's display name as reported by the platform.
	PushName string
}

// Participant is one member of a group as reported by the platform.
// Role is "admin", "superadmin" or empty.
type Participant struct {
	ID   string
	Role string
}

// Sender is the outbound capability handed to command handlers and the
// reminder scheduler.
type Sender interface {
	SendMessage(ctx context.Context, target, text string) error
	GroupParticipants(ctx context.Context, groupID string) ([]Participant, error)
}

// Handler consumes inbound messages.
type Handler func(ctx context.Context, msg Message)
