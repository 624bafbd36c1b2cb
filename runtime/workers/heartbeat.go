package workers

import (
	"chat-hub/contract"
	"chat-hub/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*HeartbeatWorker)(nil)

// HeartbeatWorker periodically logs process health (CPU, RSS) together
// with the routing core gauges. Observability only, no domain logic.
type HeartbeatWorker struct {
	log        *slog.Logger
	monitoring *observability.Monitoring
	interval   time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, monitoring *observability.Monitoring, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, monitoring: monitoring, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu := selfStats(p)
			stats := w.monitoring.GetLatest()
			w.log.Info("Heartbeat",
				"sessions_live", stats.SessionsLive,
				"events_dispatched", stats.EventsDispatched,
				"events_published", stats.EventsPublished,
				"events_dropped", stats.EventsDropped,
				"deliveries_ok", stats.DeliveriesOK,
				"deliveries_failed", stats.DeliveriesFailed,
				"rss_bytes", rss,
				"cpu_percent", cpu)
		}
	}
}

// selfStats collects RSS and CPU usage of the current process.
// Best-effort: a collection failure reports zeroes rather than skipping
// the heartbeat entirely.
func selfStats(p *process.Process) (uint64, float64) {
	var rss uint64
	var cpu float64
	if mem, err := p.MemoryInfo(); err == nil {
		rss = mem.RSS
	}
	if percent, err := p.CPUPercent(); err == nil {
		cpu = percent
	}
	return rss, cpu
}
