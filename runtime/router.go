package runtime

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/observability"
	"context"
	"log/slog"
	"sync"
)

// Handler processes one inbound event for a session. A non-nil result is
// published to the public topic; nil means nothing to broadcast.
type Handler func(e domain.ChatEvent, session *Session) (*domain.ChatEvent, error)

// Router maps an inbound event's destination to a handler and publishes
// whatever the handler yields. Registry and session errors on this hot
// path drop the single offending event; they never crash the dispatching
// goroutine or touch other connections.
type Router struct {
	log        *slog.Logger
	registry   *Registry
	broker     *Broker
	monitoring *observability.Monitoring

	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRouter(log *slog.Logger, registry *Registry, broker *Broker, monitoring *observability.Monitoring) *Router {
	return &Router{
		log:        log,
		registry:   registry,
		broker:     broker,
		monitoring: monitoring,
		handlers:   make(map[string]Handler),
	}
}

// Register binds a destination to a handler. Last registration wins.
func (r *Router) Register(destination string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[destination] = h
}

func (r *Router) handler(destination string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[destination]
	return h, ok
}

// Dispatch resolves the session and the handler for an inbound event,
// invokes the handler, and publishes a non-nil result to the public topic.
// An unrecognized destination is a client protocol mismatch, not a crash
// condition: the event is dropped and logged.
func (r *Router) Dispatch(ctx context.Context, connID, destination string, e domain.ChatEvent) {
	r.monitoring.IncrEventsDispatched()

	session, err := r.registry.Lookup(connID)
	if err != nil {
		r.monitoring.IncrEventsDropped()
		r.log.Warn("Dropping event for unknown connection",
			"conn_id", connID, "destination", destination, "error", err)
		return
	}
	if session.State() != StateOpen {
		r.monitoring.IncrEventsDropped()
		r.log.Debug("Dropping event for closing session",
			"conn_id", connID, "destination", destination, "error", errors.ErrSessionClosed)
		return
	}

	h, ok := r.handler(destination)
	if !ok {
		r.monitoring.IncrEventsDropped()
		r.log.Debug("Dropping event for unknown destination",
			"conn_id", connID, "destination", destination, "error", errors.ErrUnknownDestination)
		return
	}

	out, err := h(e, session)
	if err != nil {
		r.monitoring.IncrEventsDropped()
		r.log.Warn("Handler rejected event",
			"conn_id", connID, "destination", destination, "error", err)
		return
	}
	if out == nil {
		return
	}

	r.broker.Publish(ctx, domain.DefaultTopic, *out)
}
