package runtime

import (
	"chat-hub/domain"
	"chat-hub/observability"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// testCore builds a registry, a broker and a router with the built-in
// handlers, mirroring the orchestrator wiring without its workers.
func testCore(t *testing.T) (*Registry, *Broker, *Router) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	monitoring := observability.NewMonitoring()
	registry := NewRegistry()
	broker := NewBroker(log, monitoring, testSinkTimeout)
	router := NewRouter(log, registry, broker, monitoring)
	router.Register(domain.DestinationSendMessage, SendMessage(nil))
	router.Register(domain.DestinationAddUser, AddUser(registry))
	return registry, broker, router
}

func openConnection(t *testing.T, registry *Registry, broker *Broker) (string, *recordingSink) {
	t.Helper()
	connID := uuid.NewString()
	sink := &recordingSink{}
	session, err := registry.Register(connID, sink)
	require.NoError(t, err)
	broker.Subscribe(domain.DefaultTopic, session)
	return connID, sink
}

func TestRouter_Dispatch_SendMessage_Broadcasts_Chat(t *testing.T) {
	req := require.New(t)
	registry, broker, router := testCore(t)
	connID, sink := openConnection(t, registry, broker)

	// When a chat message is dispatched
	router.Dispatch(context.Background(), connID, domain.DestinationSendMessage,
		domain.ChatEvent{Sender: "alice", Content: "hi", Kind: domain.KindChat})

	// Then the subscriber received the CHAT event with server stamps
	events := sink.Events()
	req.Len(events, 1)
	req.Equal(domain.KindChat, events[0].Kind)
	req.Equal("alice", events[0].Sender)
	req.Equal("hi", events[0].Content)
	req.NotZero(events[0].ID)
	req.False(events[0].CreatedAt.IsZero())
}

func TestRouter_Dispatch_AddUser_Binds_And_Broadcasts_Join(t *testing.T) {
	req := require.New(t)
	registry, broker, router := testCore(t)
	connID, sink := openConnection(t, registry, broker)

	// When the user announces itself
	router.Dispatch(context.Background(), connID, domain.DestinationAddUser,
		domain.ChatEvent{Sender: "alice", Kind: domain.KindJoin})

	// Then the identity is bound and everyone got the JOIN
	session, err := registry.Lookup(connID)
	req.NoError(err)
	identity, bound := session.Identity()
	req.True(bound)
	req.Equal("alice", identity)

	events := sink.Events()
	req.Len(events, 1)
	req.Equal(domain.KindJoin, events[0].Kind)
}

func TestRouter_Dispatch_AddUser_Twice_Drops_Second_Join(t *testing.T) {
	req := require.New(t)
	registry, broker, router := testCore(t)
	connID, sink := openConnection(t, registry, broker)

	router.Dispatch(context.Background(), connID, domain.DestinationAddUser,
		domain.ChatEvent{Sender: "alice", Kind: domain.KindJoin})

	// When the client re-announces on the same connection
	router.Dispatch(context.Background(), connID, domain.DestinationAddUser,
		domain.ChatEvent{Sender: "bob", Kind: domain.KindJoin})

	// Then no second JOIN is broadcast and the identity stays
	req.Len(sink.Events(), 1)
	session, err := registry.Lookup(connID)
	req.NoError(err)
	identity, _ := session.Identity()
	req.Equal("alice", identity)
}

func TestRouter_Dispatch_Unknown_Destination_Drops_Event(t *testing.T) {
	req := require.New(t)
	registry, broker, router := testCore(t)
	connID, sink := openConnection(t, registry, broker)

	// When a destination without a handler is dispatched
	router.Dispatch(context.Background(), connID, "chat.unknown",
		domain.ChatEvent{Sender: "alice", Content: "hi", Kind: domain.KindChat})

	// Then nothing reaches the subscribers
	req.Empty(sink.Events())
}

func TestRouter_Dispatch_Unknown_Connection_Drops_Event(t *testing.T) {
	req := require.New(t)
	registry, broker, router := testCore(t)
	_, sink := openConnection(t, registry, broker)

	// When an event arrives for a connection that never registered
	router.Dispatch(context.Background(), uuid.NewString(), domain.DestinationSendMessage,
		domain.ChatEvent{Sender: "alice", Content: "hi", Kind: domain.KindChat})

	// Then nothing is broadcast
	req.Empty(sink.Events())
}

func TestRouter_Dispatch_Empty_Sender_Drops_Chat(t *testing.T) {
	req := require.New(t)
	registry, broker, router := testCore(t)
	connID, sink := openConnection(t, registry, broker)

	// When a CHAT event arrives without a sender
	router.Dispatch(context.Background(), connID, domain.DestinationSendMessage,
		domain.ChatEvent{Content: "hi", Kind: domain.KindChat})

	// Then the event is rejected, not broadcast
	req.Empty(sink.Events())
}
