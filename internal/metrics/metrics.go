// Package metrics exposes Prometheus counters for classified actions and raw input.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/button-handler/internal/logic"
)

const namespace = "button"

// Metrics holds the daemon's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	actions      *prometheus.CounterVec
	rawEvents    *prometheus.CounterVec
	overflows    prometheus.Counter
	pollDuration prometheus.Histogram
	publishFails prometheus.Counter
}

// New creates and registers the collectors. withRuntime adds the Go and
// process collectors.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Classified button actions.",
		}, []string{"button", "action"}),
		rawEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "raw_events_total",
			Help:      "Press and release transitions received from the input source.",
		}, []string{"button", "state"}),
		overflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_overflows_total",
			Help:      "Times the raw event queue filled up and dropped input.",
		}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Time spent draining the queue and classifying.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
		publishFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "MQTT publishes that failed or were buffered.",
		}),
	}

	m.registry.MustRegister(m.actions, m.rawEvents, m.overflows, m.pollDuration, m.publishFails)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Action counts a classified event.
func (m *Metrics) Action(e logic.Event) {
	m.actions.WithLabelValues(strconv.Itoa(e.Button), e.Action.String()).Inc()
}

// RawEvent counts a transition from the input source.
func (m *Metrics) RawEvent(e logic.RawEvent) {
	state := "released"
	if e.Pressed {
		state = "pressed"
	}
	m.rawEvents.WithLabelValues(strconv.Itoa(e.Button), state).Inc()
}

// QueueOverflow counts one overflow of the raw event queue.
func (m *Metrics) QueueOverflow() { m.overflows.Inc() }

// PublishFailure counts a publish that did not reach the broker.
func (m *Metrics) PublishFailure() { m.publishFails.Inc() }

// ObservePoll records the duration of one poll.
func (m *Metrics) ObservePoll(d time.Duration) { m.pollDuration.Observe(d.Seconds()) }

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
