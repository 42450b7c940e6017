// Package stcpmetrics exposes per-connection engine state as Prometheus
// metrics, collected on demand rather than pushed, the way a process
// hosting many short-lived connections wants its scrape cost to scale
// with whatever is still open.
package stcpmetrics

import (
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/basilisk-net/stcp"
)

type entry struct {
	id     uuid.UUID
	labels []string
	cb     *stcp.ControlBlock
}

type metricInfo struct {
	desc     *prometheus.Desc
	supplier func(cb *stcp.ControlBlock, labelValues []string) prometheus.Metric
}

// Collector implements prometheus.Collector over a dynamic set of
// connections, registered and unregistered as they're opened and closed.
// Grounded on the TCPInfoCollector pattern in
// runZeroInc-sockstats/pkg/exporter/exporter.go: a map of live
// collaborators guarded by a mutex, walked fresh on every Collect rather
// than cached.
type Collector struct {
	mu      sync.Mutex
	conns   map[uuid.UUID]entry
	metrics []metricInfo
}

// NewCollector builds a Collector. constLabels are attached to every
// metric the collector exports, e.g. a process or instance identifier.
func NewCollector(constLabels prometheus.Labels) *Collector {
	c := &Collector{conns: make(map[uuid.UUID]entry)}
	c.addMetrics(constLabels)
	return c
}

func (c *Collector) addMetrics(constLabels prometheus.Labels) {
	labelNames := []string{"connection_id", "role"}
	c.metrics = []metricInfo{
		{
			desc: prometheus.NewDesc("stcp_connection_state", "Current connection state, as its ordinal value.",
				labelNames, constLabels),
			supplier: func(cb *stcp.ControlBlock, lv []string) prometheus.Metric {
				return prometheus.MustNewConstMetric(c.metrics[0].desc, prometheus.GaugeValue, float64(cb.State()), lv...)
			},
		},
		{
			desc: prometheus.NewDesc("stcp_connection_queued_bytes", "Bytes currently sitting in the send queue awaiting transmission.",
				labelNames, constLabels),
			supplier: func(cb *stcp.ControlBlock, lv []string) prometheus.Metric {
				return prometheus.MustNewConstMetric(c.metrics[1].desc, prometheus.GaugeValue, float64(cb.QueuedLen()), lv...)
			},
		},
		{
			desc: prometheus.NewDesc("stcp_connection_inflight_bytes", "Bytes sent but not yet acknowledged by the peer.",
				labelNames, constLabels),
			supplier: func(cb *stcp.ControlBlock, lv []string) prometheus.Metric {
				return prometheus.MustNewConstMetric(c.metrics[2].desc, prometheus.GaugeValue, float64(cb.InFlight()), lv...)
			},
		},
		{
			desc: prometheus.NewDesc("stcp_connection_done", "1 if the connection has reached CLOSED_FINAL, else 0.",
				labelNames, constLabels),
			supplier: func(cb *stcp.ControlBlock, lv []string) prometheus.Metric {
				v := 0.0
				if cb.Done() {
					v = 1.0
				}
				return prometheus.MustNewConstMetric(c.metrics[3].desc, prometheus.GaugeValue, v, lv...)
			},
		},
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		descs <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.conns {
		if e.cb.Done() {
			delete(c.conns, id)
			continue
		}
		for _, m := range c.metrics {
			metrics <- m.supplier(e.cb, e.labels)
		}
	}
}

// Add registers cb for collection under a fresh connection ID, returning
// that ID so the caller can later Remove it explicitly (Collect also
// reaps connections once they report Done).
func (c *Collector) Add(cb *stcp.ControlBlock) uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.New()
	c.conns[id] = entry{id: id, labels: []string{id.String(), cb.Role().String()}, cb: cb}
	return id
}

// Remove unregisters a connection by the ID Add returned.
func (c *Collector) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.conns, id)
}
