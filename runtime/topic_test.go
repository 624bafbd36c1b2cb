package runtime

import (
	"chat-hub/domain"
	"chat-hub/mocks"
	"chat-hub/observability"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testSinkTimeout = 1 * time.Second

func newTestBroker() *Broker {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return NewBroker(log, observability.NewMonitoring(), testSinkTimeout)
}

func TestTopic_Subscribe_Idempotent(t *testing.T) {
	req := require.New(t)
	broker := newTestBroker()
	topic := broker.Topic("public")
	session := newSession(uuid.NewString(), &recordingSink{})

	// When the same session subscribes twice
	topic.Subscribe(session)
	topic.Subscribe(session)

	// Then it is present once and knows its subscription
	req.Equal(1, topic.Count())
	req.Equal([]string{"public"}, session.Topics())
}

func TestTopic_Unsubscribe_Idempotent(t *testing.T) {
	req := require.New(t)
	broker := newTestBroker()
	topic := broker.Topic("public")
	session := newSession(uuid.NewString(), &recordingSink{})
	topic.Subscribe(session)

	// When the session unsubscribes twice
	topic.Unsubscribe(session)
	topic.Unsubscribe(session)

	// Then no error occurs and the set is empty
	req.Zero(topic.Count())
	req.Empty(session.Topics())
}

func TestTopic_Publish_Delivers_To_All_Subscribers(t *testing.T) {
	req := require.New(t)
	broker := newTestBroker()
	topic := broker.Topic("public")

	sinkA, sinkB := &recordingSink{}, &recordingSink{}
	topic.Subscribe(newSession("A", sinkA))
	topic.Subscribe(newSession("B", sinkB))

	// When an event is published
	e := domain.NewChatEvent("alice", "hi", domain.KindChat)
	report := topic.Publish(context.Background(), e)

	// Then every subscriber received exactly one delivery
	req.Equal(2, report.Attempted)
	req.Equal(2, report.Delivered)
	req.Empty(report.Failures)
	req.Len(sinkA.Events(), 1)
	req.Len(sinkB.Events(), 1)
	req.Equal(e.ID, sinkA.Events()[0].ID)
}

// Publishes from concurrent goroutines must reach every subscriber in one
// identical total order per topic.
func TestTopic_Publish_Total_Order_Under_Concurrent_Publishers(t *testing.T) {
	req := require.New(t)
	broker := newTestBroker()
	topic := broker.Topic("public")

	sinks := []*recordingSink{{}, {}, {}}
	for i, sink := range sinks {
		topic.Subscribe(newSession(fmt.Sprintf("conn-%d", i), sink))
	}

	const publishers = 4
	const perPublisher = 25

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				e := domain.NewChatEvent(fmt.Sprintf("publisher-%d", p), fmt.Sprintf("msg-%d", i), domain.KindChat)
				topic.Publish(context.Background(), e)
			}
		}(p)
	}
	wg.Wait()

	// Then all subscribers saw every event, in the same order
	reference := sinks[0].Events()
	req.Len(reference, publishers*perPublisher)
	for _, sink := range sinks[1:] {
		events := sink.Events()
		req.Len(events, publishers*perPublisher)
		for i := range reference {
			req.Equal(reference[i].ID, events[i].ID)
		}
	}
}

func TestTopic_Publish_Failed_Delivery_Does_Not_Block_Others(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	broker := newTestBroker()
	topic := broker.Topic("public")

	// Given one subscriber that always fails
	failing := mocks.NewMockEventSink(ctrl)
	failing.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(fmt.Errorf("connection closing")).Times(1)
	healthy := &recordingSink{}

	topic.Subscribe(newSession("failing", failing))
	topic.Subscribe(newSession("healthy", healthy))

	// When an event is published
	report := topic.Publish(context.Background(), domain.NewChatEvent("alice", "hi", domain.KindChat))

	// Then the failure is recorded and the healthy subscriber still got it
	req.Equal(2, report.Attempted)
	req.Equal(1, report.Delivered)
	req.Len(report.Failures, 1)
	req.Equal("failing", report.Failures[0].ConnID)
	req.Len(healthy.Events(), 1)
}

func TestTopic_Unsubscribed_Session_Absent_From_Next_Publish(t *testing.T) {
	req := require.New(t)
	broker := newTestBroker()
	topic := broker.Topic("public")

	leaving, staying := &recordingSink{}, &recordingSink{}
	leavingSession := newSession("leaving", leaving)
	topic.Subscribe(leavingSession)
	topic.Subscribe(newSession("staying", staying))

	topic.Publish(context.Background(), domain.NewChatEvent("alice", "first", domain.KindChat))
	topic.Unsubscribe(leavingSession)
	topic.Publish(context.Background(), domain.NewChatEvent("alice", "second", domain.KindChat))

	// Then the unsubscribed session only saw the first event
	req.Len(leaving.Events(), 1)
	req.Len(staying.Events(), 2)
}

func TestBroker_Topic_Get_Or_Create(t *testing.T) {
	req := require.New(t)
	broker := newTestBroker()

	// When the same name is requested twice
	first := broker.Topic("public")
	second := broker.Topic("public")

	// Then one topic instance backs both
	req.Same(first, second)
	req.Equal("public", first.Name())
}
