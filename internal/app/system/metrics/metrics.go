// Package metrics exposes lifecycle counters and inquiry gauges to
// Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/swarmhub/internal/app/lifecycle"
	metricsstore "github.com/dalemusser/swarmhub/internal/app/store/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "swarmhub"

// CountsFunc loads the current inquiry totals.
type CountsFunc func(ctx context.Context) metricsstore.Counts

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	reg *prometheus.Registry

	operations *prometheus.CounterVec
}

// New registers the lifecycle counters, the Go runtime collectors and,
// when counts is non-nil, the inquiry gauges.
func New(counts CountsFunc, timeout time.Duration) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inquiry_operations_total",
			Help:      "Inquiry lifecycle operations by operation and outcome.",
		}, []string{"op", "outcome"}),
	}
	reg.MustRegister(m.operations)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if counts != nil {
		reg.MustRegister(newInquiryCollector(counts, timeout))
	}
	return m
}

// Record implements lifecycle.EventSink.
func (m *Metrics) Record(_ context.Context, ev lifecycle.Event) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(ev.Op, ev.Outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Operations exposes the counter for tests.
func (m *Metrics) Operations() *prometheus.CounterVec { return m.operations }

// inquiryCollector reads the totals on every scrape.
type inquiryCollector struct {
	counts  CountsFunc
	timeout time.Duration

	byStatus     *prometheus.Desc
	unowned      *prometheus.Desc
	needsGeocode *prometheus.Desc
}

func newInquiryCollector(counts CountsFunc, timeout time.Duration) *inquiryCollector {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &inquiryCollector{
		counts:  counts,
		timeout: timeout,
		byStatus: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "inquiries"),
			"Inquiries by status.", []string{"status"}, nil),
		unowned: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "inquiries_unowned"),
			"Inquiries no coordinator has claimed.", nil, nil),
		needsGeocode: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "inquiries_needs_geocode"),
			"Inquiries waiting for coordinates.", nil, nil),
	}
}

func (c *inquiryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.byStatus
	ch <- c.unowned
	ch <- c.needsGeocode
}

func (c *inquiryCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	counts := c.counts(ctx)

	for status, n := range counts.ByStatus {
		ch <- prometheus.MustNewConstMetric(c.byStatus, prometheus.GaugeValue, float64(n), string(status))
	}
	ch <- prometheus.MustNewConstMetric(c.unowned, prometheus.GaugeValue, float64(counts.Unowned))
	ch <- prometheus.MustNewConstMetric(c.needsGeocode, prometheus.GaugeValue, float64(counts.NeedsGeocode))
}
