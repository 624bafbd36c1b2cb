package observability

import (
	"sync/atomic"
	"time"
)

// Stats aggregates the counters exposed on the debug surface.
type Stats struct {
	SessionsOpened   uint64 `json:"sessions_opened"`
	SessionsClosed   uint64 `json:"sessions_closed"`
	SessionsLive     uint64 `json:"sessions_live"`
	EventsDispatched uint64 `json:"events_dispatched"`
	EventsPublished  uint64 `json:"events_published"`
	EventsDropped    uint64 `json:"events_dropped"`
	DeliveriesOK     uint64 `json:"deliveries_ok"`
	DeliveriesFailed uint64 `json:"deliveries_failed"`
	CollectedAt      string `json:"collected_at"`
}

// Monitoring keeps real-time telemetry for the routing core.
// Counters are atomic so the hot path never takes a lock.
type Monitoring struct {
	sessionsOpened   uint64
	sessionsClosed   uint64
	eventsDispatched uint64
	eventsPublished  uint64
	eventsDropped    uint64
	deliveriesOK     uint64
	deliveriesFailed uint64
}

func NewMonitoring() *Monitoring {
	return &Monitoring{}
}

func (m *Monitoring) IncrSessionsOpened() {
	atomic.AddUint64(&m.sessionsOpened, 1)
}

func (m *Monitoring) IncrSessionsClosed() {
	atomic.AddUint64(&m.sessionsClosed, 1)
}

func (m *Monitoring) IncrEventsDispatched() {
	atomic.AddUint64(&m.eventsDispatched, 1)
}

func (m *Monitoring) IncrEventsPublished() {
	atomic.AddUint64(&m.eventsPublished, 1)
}

func (m *Monitoring) IncrEventsDropped() {
	atomic.AddUint64(&m.eventsDropped, 1)
}

func (m *Monitoring) AddDeliveries(ok, failed uint64) {
	atomic.AddUint64(&m.deliveriesOK, ok)
	atomic.AddUint64(&m.deliveriesFailed, failed)
}

// GetLatest returns a consistent-enough snapshot for logging and the
// debug endpoint. Counters are read individually; exactness across
// fields is not required here.
func (m *Monitoring) GetLatest() Stats {
	opened := atomic.LoadUint64(&m.sessionsOpened)
	closed := atomic.LoadUint64(&m.sessionsClosed)
	live := uint64(0)
	if opened > closed {
		live = opened - closed
	}
	return Stats{
		SessionsOpened:   opened,
		SessionsClosed:   closed,
		SessionsLive:     live,
		EventsDispatched: atomic.LoadUint64(&m.eventsDispatched),
		EventsPublished:  atomic.LoadUint64(&m.eventsPublished),
		EventsDropped:    atomic.LoadUint64(&m.eventsDropped),
		DeliveriesOK:     atomic.LoadUint64(&m.deliveriesOK),
		DeliveriesFailed: atomic.LoadUint64(&m.deliveriesFailed),
		CollectedAt:      time.Now().UTC().Format(time.RFC3339),
	}
}
