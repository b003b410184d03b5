// Package metrics provides a lightweight, Prometheus-compatible counter
// collector for flowbridge. It outputs text/plain in Prometheus exposition
// format without requiring the heavy prometheus/client_golang dependency.
package metrics

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Collector is the global metrics collector.
var Collector = NewCollector()

// MetricsCollector aggregates counters.
type MetricsCollector struct {
	counters  sync.Map // name{labels} -> *Counter
	startTime time.Time
}

// NewCollector creates a new collector.
func NewCollector() *MetricsCollector {
	return &MetricsCollector{startTime: time.Now()}
}

// Uptime returns how long the collector has been running.
func (c *MetricsCollector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name   string
	help   string
	labels string
	value  atomic.Int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Value returns the current counter value.
func (c *Counter) Value() int64 { return c.value.Load() }

// Counter returns or creates a counter with the given name and label set.
func (c *MetricsCollector) Counter(name, help, labels string) *Counter {
	key := name + "{" + labels + "}"
	if v, ok := c.counters.Load(key); ok {
		return v.(*Counter)
	}
	ctr := &Counter{name: name, help: help, labels: labels}
	actual, _ := c.counters.LoadOrStore(key, ctr)
	return actual.(*Counter)
}

// --- Bridge-specific helpers ---

func (c *MetricsCollector) IncInbound(kind string) {
	c.Counter("flowbridge_inbound_total", "Inbound webhook messages by kind", `kind="`+kind+`"`).Inc()
}

func (c *MetricsCollector) IncDispatched(kind string) {
	c.Counter("flowbridge_dispatched_total", "Dispatched deliveries by kind", `kind="`+kind+`"`).Inc()
}

func (c *MetricsCollector) IncDispatchFailed(kind string) {
	c.Counter("flowbridge_dispatch_failed_total", "Failed dispatches by kind", `kind="`+kind+`"`).Inc()
}

func (c *MetricsCollector) IncSent(kind string) {
	c.Counter("flowbridge_sent_total", "Outbound provider sends by directive kind", `kind="`+kind+`"`).Inc()
}

func (c *MetricsCollector) IncSendFailed() {
	c.Counter("flowbridge_send_failed_total", "Failed outbound provider sends", "").Inc()
}

func (c *MetricsCollector) IncOrdersCreated() {
	c.Counter("flowbridge_orders_created_total", "Orders durably recorded", "").Inc()
}

func (c *MetricsCollector) IncOrdersRejected() {
	c.Counter("flowbridge_orders_rejected_total", "Order events rejected as incomplete", "").Inc()
}

// --- Prometheus text rendering ---

// Handler returns an http.HandlerFunc that renders metrics in Prometheus text format.
func (c *MetricsCollector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		var sb strings.Builder

		fmt.Fprintf(&sb, "# HELP flowbridge_uptime_seconds Time since start in seconds\n")
		fmt.Fprintf(&sb, "# TYPE flowbridge_uptime_seconds gauge\n")
		fmt.Fprintf(&sb, "flowbridge_uptime_seconds %d\n\n", int64(c.Uptime().Seconds()))

		helpWritten := make(map[string]bool)
		c.counters.Range(func(key, value any) bool {
			ctr := value.(*Counter)
			if !helpWritten[ctr.name] {
				fmt.Fprintf(&sb, "# HELP %s %s\n", ctr.name, ctr.help)
				fmt.Fprintf(&sb, "# TYPE %s counter\n", ctr.name)
				helpWritten[ctr.name] = true
			}
			if ctr.labels != "" {
				fmt.Fprintf(&sb, "%s{%s} %d\n", ctr.name, ctr.labels, ctr.Value())
			} else {
				fmt.Fprintf(&sb, "%s %d\n", ctr.name, ctr.Value())
			}
			return true
		})

		w.Write([]byte(sb.String()))
	}
}
