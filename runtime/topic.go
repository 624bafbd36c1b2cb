package runtime

import (
	"chat-hub/domain"
	"chat-hub/observability"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
)

// DeliveryFailure records one subscriber that did not receive a publish.
type DeliveryFailure struct {
	ConnID string
	Err    error
}

// DeliveryReport summarizes one fan-out. Broadcast is best-effort,
// at-most-once per subscriber per publish; failures are recorded here
// and never abort the fan-out.
type DeliveryReport struct {
	Topic     string
	Attempted int
	Delivered int
	Failures  []DeliveryFailure
}

// Topic is a named broadcast channel holding the current subscriber set.
//
// Two locks with distinct roles: mu guards the subscriber set and is never
// held across a send; pub serializes complete fan-outs so that events
// published sequentially reach every subscriber in publication order.
type Topic struct {
	name        string
	log         *slog.Logger
	monitoring  *observability.Monitoring
	sinkTimeout time.Duration

	mu          sync.RWMutex
	subscribers map[string]*Session

	pub sync.Mutex
}

func newTopic(name string, sinkTimeout time.Duration, monitoring *observability.Monitoring, log *slog.Logger) *Topic {
	return &Topic{
		name:        name,
		log:         log,
		monitoring:  monitoring,
		sinkTimeout: sinkTimeout,
		subscribers: make(map[string]*Session),
	}
}

func (t *Topic) Name() string {
	return t.name
}

// Subscribe adds a session to the topic. Idempotent.
func (t *Topic) Subscribe(session *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.subscribers[session.ConnID]; ok {
		return
	}
	t.subscribers[session.ConnID] = session
	session.addTopic(t.name)
}

// Unsubscribe removes a session from the topic. Idempotent.
func (t *Topic) Unsubscribe(session *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subscribers, session.ConnID)
	session.removeTopic(t.name)
}

// Count returns the current number of subscribers.
func (t *Topic) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subscribers)
}

// Publish delivers an event to the snapshot of subscribers taken when the
// fan-out begins. The pub mutex is the serialization point giving the topic
// its total order; the subscriber-set lock is released before any send so
// subscribe/unsubscribe never wait behind a slow sink. Each send is bounded
// by the sink timeout and a failed delivery only lands in the report.
func (t *Topic) Publish(ctx context.Context, e domain.ChatEvent) DeliveryReport {
	t.pub.Lock()
	defer t.pub.Unlock()

	t.mu.RLock()
	snapshot := lo.Values(t.subscribers)
	t.mu.RUnlock()

	report := DeliveryReport{Topic: t.name, Attempted: len(snapshot)}
	for _, session := range snapshot {
		sendCtx, cancel := context.WithTimeout(ctx, t.sinkTimeout)
		err := session.Sink().Consume(sendCtx, e)
		cancel()

		if err != nil {
			report.Failures = append(report.Failures, DeliveryFailure{ConnID: session.ConnID, Err: err})
			t.log.Warn("Delivery failed",
				"topic", t.name,
				"conn_id", session.ConnID,
				"event_id", e.ID,
				"error", err)
			continue
		}
		report.Delivered++
	}

	t.monitoring.IncrEventsPublished()
	t.monitoring.AddDeliveries(uint64(report.Delivered), uint64(len(report.Failures)))
	return report
}

// Broker is the directory of named topics. The single "public" channel of
// the chat service is just one entry; additional rooms come for free.
type Broker struct {
	log         *slog.Logger
	monitoring  *observability.Monitoring
	sinkTimeout time.Duration

	mu     sync.RWMutex
	topics map[string]*Topic
}

func NewBroker(log *slog.Logger, monitoring *observability.Monitoring, sinkTimeout time.Duration) *Broker {
	return &Broker{
		log:         log,
		monitoring:  monitoring,
		sinkTimeout: sinkTimeout,
		topics:      make(map[string]*Topic),
	}
}

// Topic returns the named topic, creating it on first use.
func (b *Broker) Topic(name string) *Topic {
	b.mu.RLock()
	topic, ok := b.topics[name]
	b.mu.RUnlock()
	if ok {
		return topic
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if topic, ok = b.topics[name]; ok {
		return topic
	}
	topic = newTopic(name, b.sinkTimeout, b.monitoring, b.log)
	b.topics[name] = topic
	return topic
}

func (b *Broker) Subscribe(name string, session *Session) {
	b.Topic(name).Subscribe(session)
}

func (b *Broker) Unsubscribe(name string, session *Session) {
	b.Topic(name).Unsubscribe(session)
}

func (b *Broker) Publish(ctx context.Context, name string, e domain.ChatEvent) DeliveryReport {
	return b.Topic(name).Publish(ctx, e)
}
