package ws

import (
	"chat-hub/domain"
	"time"
)

// InboundFrame is the wire shape of a client message. The destination
// selects the handler; the rest maps onto the internal event record.
type InboundFrame struct {
	Destination string `json:"destination" validate:"required"`
	Sender      string `json:"sender"`
	Content     string `json:"content"`
	Type        string `json:"type" validate:"omitempty,oneof=CHAT JOIN LEAVE"`
}

// OutboundFrame is the wire shape of a broadcast event.
type OutboundFrame struct {
	ID      string    `json:"id"`
	Sender  string    `json:"sender"`
	Content string    `json:"content"`
	Type    string    `json:"type"`
	At      time.Time `json:"at"`
}

func toChatEvent(f InboundFrame) domain.ChatEvent {
	return domain.ChatEvent{
		Sender:  f.Sender,
		Content: f.Content,
		Kind:    domain.EventKind(f.Type),
	}
}

func toOutboundFrame(e domain.ChatEvent) OutboundFrame {
	return OutboundFrame{
		ID:      e.ID.String(),
		Sender:  e.Sender,
		Content: e.Content,
		Type:    string(e.Kind),
		At:      e.CreatedAt,
	}
}
