package observability

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusFactory implements MetricFactory on a prometheus Registerer.
// Metric names are normalized to the prometheus character set
// ("renthouse.booking.created" becomes "renthouse_booking_created").
type PrometheusFactory struct {
	registerer prometheus.Registerer
}

// NewPrometheusFactory creates a factory registering metrics with reg.
// Pass prometheus.DefaultRegisterer to use the process-global registry.
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	return &PrometheusFactory{registerer: reg}
}

// Counter implements MetricFactory.
func (f *PrometheusFactory) Counter(name string) Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: normalizeName(name),
	})
	f.registerer.MustRegister(c)
	return c
}

// Histogram implements MetricFactory.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    normalizeName(name),
		Buckets: prometheus.ExponentialBuckets(1, 4, 12),
	})
	f.registerer.MustRegister(h)
	return h
}

func normalizeName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
