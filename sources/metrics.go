package sources

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	requests *prometheus.CounterVec
	retries  prometheus.Counter
	duration prometheus.Histogram
	pages    *prometheus.CounterVec
	items    *prometheus.CounterVec
}

// NewMetrics creates the scraper collectors and registers them on reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yars",
			Name:      "requests_total",
			Help:      "Reddit requests by response status code.",
		}, []string{"code"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "yars",
			Name:      "retries_total",
			Help:      "Requests retried after a transient status code.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "yars",
			Name:      "request_duration_seconds",
			Help:      "Duration of single Reddit requests.",
			Buckets:   prometheus.DefBuckets,
		}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yars",
			Name:      "pages_total",
			Help:      "Listing pages fetched by endpoint.",
		}, []string{"endpoint"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yars",
			Name:      "items_total",
			Help:      "Records produced by endpoint.",
		}, []string{"endpoint"}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.retries, m.duration, m.pages, m.items)
	}

	return m
}

func (m *Metrics) observeRequest(code int, start time.Time) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.requests.WithLabelValues(label).Inc()
	m.duration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *Metrics) observePage(endpoint string, items int) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(endpoint).Inc()
	m.items.WithLabelValues(endpoint).Add(float64(items))
}
