package runtime

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/observability"
	"chat-hub/runtime/workers"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator() *Orchestrator {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	sup := workers.NewSupervisor(log, 200*time.Millisecond)
	return NewOrchestrator(log, sup, observability.NewMonitoring(), nil,
		testSinkTimeout, time.Minute)
}

func TestLifecycle_Open_Subscribes_To_Public(t *testing.T) {
	req := require.New(t)
	o := newTestOrchestrator()
	sink := &recordingSink{}

	// When a connection opens
	req.NoError(o.OnOpen("c1", sink))

	// Then its session exists and subscribes the public topic
	session, err := o.Registry().Lookup("c1")
	req.NoError(err)
	req.Equal([]string{domain.DefaultTopic}, session.Topics())
}

func TestLifecycle_Open_Same_Connection_Twice(t *testing.T) {
	req := require.New(t)
	o := newTestOrchestrator()

	req.NoError(o.OnOpen("c1", &recordingSink{}))

	// When the transport reports the same connection again
	err := o.OnOpen("c1", &recordingSink{})

	// Then the second open is rejected
	req.ErrorIs(err, errors.ErrDuplicateConnection)
}

func TestLifecycle_Close_Without_Identity_Publishes_No_Leave(t *testing.T) {
	req := require.New(t)
	o := newTestOrchestrator()
	anonymous, observer := &recordingSink{}, &recordingSink{}
	req.NoError(o.OnOpen("c1", anonymous))
	req.NoError(o.OnOpen("c2", observer))

	// When an anonymous connection closes
	o.OnClose(context.Background(), "c1")

	// Then no LEAVE is broadcast and the session is gone
	req.Empty(observer.Events())
	_, err := o.Registry().Lookup("c1")
	req.ErrorIs(err, errors.ErrUnknownSession)
}

func TestLifecycle_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	o := newTestOrchestrator()
	c1, observer := &recordingSink{}, &recordingSink{}
	req.NoError(o.OnOpen("c1", c1))
	req.NoError(o.OnOpen("c2", observer))
	o.OnMessage(context.Background(), "c1", domain.DestinationAddUser,
		domain.ChatEvent{Sender: "alice", Kind: domain.KindJoin})

	// When the close signal arrives twice
	o.OnClose(context.Background(), "c1")
	o.OnClose(context.Background(), "c1")

	// Then only one LEAVE was published
	var leaves int
	for _, e := range observer.Events() {
		if e.Kind == domain.KindLeave {
			leaves++
		}
	}
	req.Equal(1, leaves)
}

func TestLifecycle_Close_Unknown_Connection_Is_A_Noop(t *testing.T) {
	o := newTestOrchestrator()

	// When a close arrives for a connection that never opened
	o.OnClose(context.Background(), "ghost")

	// Then nothing panics and the registry stays empty
	require.Zero(t, o.Registry().Count())
}

// Full boundary scenario: join, chat, leave, observed through the
// transport-facing callbacks only.
func TestLifecycle_Join_Chat_Leave_Scenario(t *testing.T) {
	req := require.New(t)
	o := newTestOrchestrator()
	ctx := context.Background()
	c1, c2 := &recordingSink{}, &recordingSink{}

	// Given C1 opens and announces alice: C1 alone receives the JOIN
	req.NoError(o.OnOpen("c1", c1))
	o.OnMessage(ctx, "c1", domain.DestinationAddUser,
		domain.ChatEvent{Sender: "alice", Kind: domain.KindJoin})
	req.Len(c1.Events(), 1)
	req.Equal(domain.KindJoin, c1.Events()[0].Kind)
	req.Equal("alice", c1.Events()[0].Sender)

	// Given C2 opens and alice speaks: both receive the CHAT
	req.NoError(o.OnOpen("c2", c2))
	o.OnMessage(ctx, "c1", domain.DestinationSendMessage,
		domain.ChatEvent{Sender: "alice", Content: "hi", Kind: domain.KindChat})

	c1Events := c1.Events()
	req.Len(c1Events, 2)
	req.Equal(domain.KindChat, c1Events[1].Kind)
	req.Equal("hi", c1Events[1].Content)
	req.Len(c2.Events(), 1)
	req.Equal(domain.KindChat, c2.Events()[0].Kind)

	// When C1 closes
	o.OnClose(ctx, "c1")

	// Then C2 is notified alice left and C1 receives nothing more
	c2Events := c2.Events()
	req.Len(c2Events, 2)
	req.Equal(domain.KindLeave, c2Events[1].Kind)
	req.Equal("alice", c2Events[1].Sender)
	req.Len(c1.Events(), 2)

	// And the closed connection no longer dispatches
	o.OnMessage(ctx, "c1", domain.DestinationSendMessage,
		domain.ChatEvent{Sender: "alice", Content: "late", Kind: domain.KindChat})
	req.Len(c2.Events(), 2)
}
