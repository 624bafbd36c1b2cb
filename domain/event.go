// Package domain contains core concepts of the chat system.
// This file defines ChatEvent and related rules.
// Events are immutable and validated by the domain.
package domain

import (
	"chat-hub/errors"
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates the three events flowing through a topic.
type EventKind string

const (
	KindChat  EventKind = "CHAT"
	KindJoin  EventKind = "JOIN"
	KindLeave EventKind = "LEAVE"
)

// Destinations accepted on the inbound boundary.
const (
	DestinationSendMessage = "chat.sendMessage"
	DestinationAddUser     = "chat.adduser"
)

// DefaultTopic is the broadcast channel every connection joins on registration.
const DefaultTopic = "public"

// ChatEvent represents an immutable chat event.
type ChatEvent struct {
	ID        uuid.UUID
	Sender    string
	Content   string
	Kind      EventKind
	CreatedAt time.Time
}

// NewChatEvent stamps identity and creation time on a fresh event.
func NewChatEvent(sender, content string, kind EventKind) ChatEvent {
	return ChatEvent{
		ID:        uuid.New(),
		Sender:    sender,
		Content:   content,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate enforces the structural rules of an event.
// CHAT and JOIN events must carry a sender.
func (e ChatEvent) Validate() error {
	if (e.Kind == KindChat || e.Kind == KindJoin) && e.Sender == "" {
		return errors.ErrEmptySender
	}
	return nil
}
