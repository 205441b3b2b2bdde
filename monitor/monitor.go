// monitor/monitor.go
package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	ConnectedPeers     prometheus.Gauge
	MessagesRelayed    prometheus.Counter
	ActionsRejected    prometheus.Counter
	SnapshotsBroadcast prometheus.Counter
	SendsDropped       prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		ConnectedPeers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_peers",
			Help:      "Number of connected guest peers",
		}),
		MessagesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_relayed_total",
			Help:      "Total number of messages processed by the session loop",
		}),
		ActionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_rejected_total",
			Help:      "Total number of game actions rejected by the host authority",
		}),
		SnapshotsBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_broadcast_total",
			Help:      "Total number of state snapshot broadcasts",
		}),
		SendsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_dropped_total",
			Help:      "Total number of sends silently dropped on closed channels",
		}),
	}

	prometheus.MustRegister(
		m.ConnectedPeers,
		m.MessagesRelayed,
		m.ActionsRejected,
		m.SnapshotsBroadcast,
		m.SendsDropped,
	)

	return m
}

// Monitor exposes session counters. A nil *Monitor is valid and turns
// every method into a no-op, so wiring it up stays optional.
type Monitor struct {
	metrics *Metrics
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{metrics: NewMetrics(namespace)}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(addr, nil)
}

func (m *Monitor) SetConnectedPeers(count int) {
	if m == nil {
		return
	}
	m.metrics.ConnectedPeers.Set(float64(count))
}

func (m *Monitor) IncMessagesRelayed() {
	if m == nil {
		return
	}
	m.metrics.MessagesRelayed.Inc()
}

func (m *Monitor) IncActionsRejected() {
	if m == nil {
		return
	}
	m.metrics.ActionsRejected.Inc()
}

func (m *Monitor) IncSnapshotsBroadcast() {
	if m == nil {
		return
	}
	m.metrics.SnapshotsBroadcast.Inc()
}

func (m *Monitor) IncSendsDropped() {
	if m == nil {
		return
	}
	m.metrics.SendsDropped.Inc()
}
