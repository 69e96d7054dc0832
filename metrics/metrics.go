// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"traffic-lights/queue"
	"traffic-lights/telemetry"
	"traffic-lights/timeparse"
	"traffic-lights/types"
)

const namespace = "traffic_lights"

// Metrics holds the collectors of one controller instance.
type Metrics struct {
	Registry *prometheus.Registry

	factory promauto.Factory

	commands          *prometheus.CounterVec
	activations       *prometheus.CounterVec
	activationSeconds *prometheus.HistogramVec
	cycleSeconds      prometheus.Gauge
	rejectedTimes     *prometheus.CounterVec
}

// New creates the collectors on a fresh registry. node is attached to every
// series as a constant label.
func New(node string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"node": node}, reg))

	return &Metrics{
		Registry: reg,
		factory:  f,
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "commands_total",
			Help:      "Commands accepted by the dispatcher",
		}, []string{"kind", "source"}),
		activations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lights",
			Name:      "activations_total",
			Help:      "Completed light activations",
		}, []string{"color"}),
		activationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lights",
			Name:      "activation_seconds",
			Help:      "Measured on-time of each activation",
			Buckets:   []float64{0.5, 0.9, 0.99, 1, 1.01, 1.05, 1.1, 1.5, 2, 5},
		}, []string{"color"}),
		cycleSeconds: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "last_cycle_seconds",
			Help:      "Sum of the last three activation measurements",
		}),
		rejectedTimes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "serial",
			Name:      "rejected_times_total",
			Help:      "Timer values rejected by validation",
		}, []string{"reason"}),
	}
}

// ObserveCommand counts a dispatched command.
func (m *Metrics) ObserveCommand(cmd types.Command) {
	m.commands.WithLabelValues(cmd.Kind.String(), string(cmd.Source)).Inc()
}

// ObserveEvent records measurement events; other kinds are ignored.
func (m *Metrics) ObserveEvent(ev telemetry.Event) {
	if ev.Kind != telemetry.KindMeasurement {
		return
	}
	color := ev.Color.String()
	m.activations.WithLabelValues(color).Inc()
	m.activationSeconds.WithLabelValues(color).Observe(float64(ev.Micros) / 1e6)
}

// ObserveTotal records a cycle total.
func (m *Metrics) ObserveTotal(t telemetry.Total) {
	m.cycleSeconds.Set(float64(t.Micros) / 1e6)
}

// ObserveRejected counts a rejected timer value by validator error.
func (m *Metrics) ObserveRejected(err error) {
	m.rejectedTimes.WithLabelValues(rejectReason(err)).Inc()
}

// Attach subscribes to the telemetry bus and returns the unsubscribe func.
func (m *Metrics) Attach(bus *telemetry.Bus) func() {
	return bus.Subscribe(m.ObserveEvent)
}

// WatchQueue exports the command queue counters.
func (m *Metrics) WatchQueue(stats func() queue.Stats) {
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Commands waiting for the dispatcher",
	}, func() float64 { return float64(stats().Depth) })
	m.factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "queue",
		Name:      "enqueued_total",
		Help:      "Commands accepted by the queue",
	}, func() float64 { return float64(stats().Enqueued) })
	m.factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "queue",
		Name:      "dropped_total",
		Help:      "Commands dropped by the queue",
	}, func() float64 { return float64(stats().Dropped) })
}

// WatchWork exports the deferred-work refusal count.
func (m *Metrics) WatchWork(refused func() uint64) {
	m.factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "work",
		Name:      "refused_total",
		Help:      "Deferred work submissions refused because the queue was full",
	}, func() float64 { return float64(refused()) })
}

// WatchTimer exports the timer delay and whether a countdown is pending.
func (m *Metrics) WatchTimer(delay func() uint32, armed func() bool) {
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "timer",
		Name:      "delay_seconds",
		Help:      "Last configured timer delay",
	}, func() float64 { return float64(delay()) })
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "timer",
		Name:      "armed",
		Help:      "1 while a countdown is pending",
	}, func() float64 {
		if armed() {
			return 1
		}
		return 0
	})
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, timeparse.ErrArray):
		return "array"
	case errors.Is(err, timeparse.ErrLength):
		return "length"
	case errors.Is(err, timeparse.ErrValue):
		return "value"
	default:
		return "other"
	}
}
