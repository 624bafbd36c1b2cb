// Package runtime handles event routing, fan-out and session lifecycle.
// It orchestrates the system without containing transport logic.
package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/moderation"
	"chat-hub/observability"
	"chat-hub/runtime/workers"
	"context"
	"log/slog"
	"time"
)

var _ contract.ICore = (*Orchestrator)(nil)

// Orchestrator wires the registry, the broker, the router and the session
// lifecycle together, and exposes the three callbacks the transport
// collaborator drives.
type Orchestrator struct {
	log        *slog.Logger
	supervisor contract.ISupervisor
	monitoring *observability.Monitoring
	registry   *Registry
	broker     *Broker
	router     *Router
	lifecycle  *Lifecycle

	heartbeatInterval time.Duration
}

func NewOrchestrator(
	log *slog.Logger,
	supervisor contract.ISupervisor,
	monitoring *observability.Monitoring,
	moderator *moderation.Moderator,
	sinkTimeout, heartbeatInterval time.Duration,
) *Orchestrator {
	registry := NewRegistry()
	broker := NewBroker(log, monitoring, sinkTimeout)
	router := NewRouter(log, registry, broker, monitoring)

	router.Register(domain.DestinationSendMessage, SendMessage(moderator))
	router.Register(domain.DestinationAddUser, AddUser(registry))

	return &Orchestrator{
		log:               log,
		supervisor:        supervisor,
		monitoring:        monitoring,
		registry:          registry,
		broker:            broker,
		router:            router,
		lifecycle:         NewLifecycle(log, registry, broker, monitoring),
		heartbeatInterval: heartbeatInterval,
	}
}

// OnOpen registers a freshly accepted connection with its send capability.
func (o *Orchestrator) OnOpen(connID string, sink contract.EventSink) error {
	return o.lifecycle.OnOpen(connID, sink)
}

// OnMessage routes one decoded inbound event.
func (o *Orchestrator) OnMessage(ctx context.Context, connID, destination string, e domain.ChatEvent) {
	o.router.Dispatch(ctx, connID, destination, e)
}

// OnClose tears the session down and announces the departure.
func (o *Orchestrator) OnClose(ctx context.Context, connID string) {
	o.lifecycle.OnClose(ctx, connID)
}

// Registry exposes the session directory for debug surfaces.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Router exposes the dispatch table so embedders can add destinations.
func (o *Orchestrator) Router() *Router {
	return o.router
}

// Start launches the supervised background workers. The supervisor loop
// runs until ctx is canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.supervisor.Add(workers.NewHeartbeatWorker(o.log, o.monitoring, o.heartbeatInterval))
	go o.supervisor.Run(ctx)
	o.log.Info("Orchestrator started")
}

// Stop initiates a graceful shutdown of the supervised workers.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
