package metrics

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"
)

// Collector defines the interface for collecting game client metrics
type Collector interface {
	RecordEventApplied(event string, accepted bool)
	RecordActionEmitted(action string)
	RecordAck(action string, success bool, latency time.Duration)
	RecordAutoSubmit(turn int)
}

// NoOpCollector is a no-op implementation for when metrics aren't needed
type NoOpCollector struct{}

func (NoOpCollector) RecordEventApplied(event string, accepted bool)                {}
func (NoOpCollector) RecordActionEmitted(action string)                             {}
func (NoOpCollector) RecordAck(action string, success bool, latency time.Duration) {}
func (NoOpCollector) RecordAutoSubmit(turn int)                                     {}

const (
	eventsAppliedName = "csschain_events_applied_total"
	eventsDroppedName = "csschain_events_dropped_total"
	actionsName       = "csschain_actions_emitted_total"
	acksName          = "csschain_acks_total"
	autoSubmitsName   = "csschain_auto_submits_total"

	resultSuccess = "success"
	resultFailure = "failure"
)

// Counters is a Prometheus-backed Collector with its own registry.
type Counters struct {
	clock    clockwork.Clock
	registry *prometheus.Registry

	eventsApplied *prometheus.CounterVec
	eventsDropped *prometheus.CounterVec
	actions       *prometheus.CounterVec
	acks          *prometheus.CounterVec
	ackLatency    *prometheus.HistogramVec
	autoSubmits   prometheus.Counter
	lastAuto      prometheus.Gauge
}

// NewCounters creates an empty counter set. A nil clock uses the real one.
func NewCounters(clock clockwork.Clock) *Counters {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	c := &Counters{
		clock:    clock,
		registry: prometheus.NewRegistry(),
		eventsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: eventsAppliedName,
			Help: "Server events applied to local state",
		}, []string{"event"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: eventsDroppedName,
			Help: "Server events ignored as stale or invalid",
		}, []string{"event"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: actionsName,
			Help: "Actions sent to the server",
		}, []string{"action"}),
		acks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: acksName,
			Help: "Action acknowledgements by result",
		}, []string{"action", "result"}),
		ackLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "csschain_ack_latency_seconds",
			Help:    "Time spent waiting for acknowledgements",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		autoSubmits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: autoSubmitsName,
			Help: "Submissions forced by the turn timer",
		}),
		lastAuto: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "csschain_last_auto_submit_timestamp_seconds",
			Help: "Unix time of the last forced submission",
		}),
	}
	c.registry.MustRegister(
		c.eventsApplied,
		c.eventsDropped,
		c.actions,
		c.acks,
		c.ackLatency,
		c.autoSubmits,
		c.lastAuto,
	)
	return c
}

func (c *Counters) RecordEventApplied(event string, accepted bool) {
	if accepted {
		c.eventsApplied.WithLabelValues(event).Inc()
		return
	}
	c.eventsDropped.WithLabelValues(event).Inc()
}

func (c *Counters) RecordActionEmitted(action string) {
	c.actions.WithLabelValues(action).Inc()
}

func (c *Counters) RecordAck(action string, success bool, latency time.Duration) {
	result := resultFailure
	if success {
		result = resultSuccess
	}
	c.acks.WithLabelValues(action, result).Inc()
	c.ackLatency.WithLabelValues(action).Observe(latency.Seconds())
}

func (c *Counters) RecordAutoSubmit(turn int) {
	c.autoSubmits.Inc()
	c.lastAuto.Set(float64(c.clock.Now().Unix()))
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Counters) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Events      map[string]int
	Dropped     map[string]int
	Actions     map[string]int
	AcksOK      map[string]int
	AcksFailed  map[string]int
	AutoSubmits int
}

func (c *Counters) Snapshot() Snapshot {
	snap := Snapshot{
		Events:     make(map[string]int),
		Dropped:    make(map[string]int),
		Actions:    make(map[string]int),
		AcksOK:     make(map[string]int),
		AcksFailed: make(map[string]int),
	}
	families, err := c.registry.Gather()
	if err != nil {
		log.Error().Err(err).Msg("failed to gather metrics")
		return snap
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := int(m.GetCounter().GetValue())
			switch mf.GetName() {
			case eventsAppliedName:
				snap.Events[label(m, "event")] = v
			case eventsDroppedName:
				snap.Dropped[label(m, "event")] = v
			case actionsName:
				snap.Actions[label(m, "action")] = v
			case acksName:
				if label(m, "result") == resultSuccess {
					snap.AcksOK[label(m, "action")] = v
				} else {
					snap.AcksFailed[label(m, "action")] = v
				}
			case autoSubmitsName:
				snap.AutoSubmits = v
			}
		}
	}
	return snap
}

func label(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
