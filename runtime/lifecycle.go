package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/observability"
	"context"
	"log/slog"
)

// Lifecycle reacts to transport open and close signals, keeping the
// registry and the topics consistent. Graceful and abrupt disconnections
// funnel into the same OnClose path.
type Lifecycle struct {
	log        *slog.Logger
	registry   *Registry
	broker     *Broker
	monitoring *observability.Monitoring
}

func NewLifecycle(log *slog.Logger, registry *Registry, broker *Broker, monitoring *observability.Monitoring) *Lifecycle {
	return &Lifecycle{
		log:        log,
		registry:   registry,
		broker:     broker,
		monitoring: monitoring,
	}
}

// OnOpen registers the connection and subscribes it to the public topic.
func (l *Lifecycle) OnOpen(connID string, sink contract.EventSink) error {
	session, err := l.registry.Register(connID, sink)
	if err != nil {
		return err
	}
	l.broker.Subscribe(domain.DefaultTopic, session)
	l.monitoring.IncrSessionsOpened()
	l.log.Info("Connection opened", "conn_id", connID)
	return nil
}

// OnClose tears a session down: CLOSING, unsubscribe from every topic,
// announce the departure if an identity was bound, deregister, CLOSED.
// The session leaves the subscriber sets before the LEAVE publish so it
// never receives its own departure notice. Idempotent for unknown or
// already-closing connections.
func (l *Lifecycle) OnClose(ctx context.Context, connID string) {
	session, err := l.registry.Lookup(connID)
	if err != nil {
		l.log.Debug("Close for unknown connection", "conn_id", connID)
		return
	}
	if !session.beginClose() {
		return
	}

	for _, name := range session.Topics() {
		l.broker.Unsubscribe(name, session)
	}

	if identity, bound := session.Identity(); bound {
		leave := domain.NewChatEvent(identity, "", domain.KindLeave)
		l.broker.Publish(ctx, domain.DefaultTopic, leave)
	}

	if _, err := l.registry.Deregister(connID); err != nil {
		l.log.Warn("Deregister failed during close", "conn_id", connID, "error", err)
	}
	session.markClosed()
	l.monitoring.IncrSessionsClosed()
	l.log.Info("Connection closed", "conn_id", connID)
}
