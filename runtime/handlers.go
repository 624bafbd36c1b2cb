package runtime

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/moderation"
	"time"

	"github.com/google/uuid"
)

// SendMessage returns the handler for chat.sendMessage: the event passes
// through unchanged apart from server-side stamping and content moderation.
// No session mutation happens here.
func SendMessage(moderator *moderation.Moderator) Handler {
	return func(e domain.ChatEvent, _ *Session) (*domain.ChatEvent, error) {
		out := e
		out.Kind = domain.KindChat
		if err := out.Validate(); err != nil {
			return nil, err
		}
		stamp(&out)
		if moderator != nil {
			out.Content = moderator.Censor(out.Content)
		}
		return &out, nil
	}
}

// AddUser returns the handler for chat.adduser: it binds the sender as the
// session identity, then broadcasts the join so every subscriber learns a
// user arrived. Binding twice surfaces the protocol misuse to the caller.
func AddUser(registry *Registry) Handler {
	return func(e domain.ChatEvent, session *Session) (*domain.ChatEvent, error) {
		if e.Sender == "" {
			return nil, errors.ErrEmptySender
		}
		if err := registry.BindIdentity(session.ConnID, e.Sender); err != nil {
			return nil, err
		}
		out := e
		out.Kind = domain.KindJoin
		stamp(&out)
		return &out, nil
	}
}

// stamp assigns server-side identity and time when the client left them out.
func stamp(e *domain.ChatEvent) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
}
