// Package metrics provides Prometheus instrumentation for asyncstream components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for asyncstream components.
type Registry struct {
	// Endpoint Metrics
	StreamOperations   *prometheus.CounterVec
	StreamItems        *prometheus.CounterVec
	StreamErrors       *prometheus.CounterVec
	QueueDepth         *prometheus.GaugeVec
	QueueCapacity      *prometheus.GaugeVec
	BackpressureEvents *prometheus.CounterVec

	// Pipe Metrics
	PipeItems   *prometheus.CounterVec
	PipeBatches *prometheus.CounterVec
	PipeRetries *prometheus.CounterVec

	// Writer Metrics
	WriterFlushes      *prometheus.CounterVec
	WriterBytesWritten *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by asyncstream components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		StreamOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncstream",
				Subsystem: "stream",
				Name:      "operations_total",
				Help:      "Total number of stream operations",
			},
			[]string{"operation", "stream_name"},
		),

		StreamItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncstream",
				Subsystem: "stream",
				Name:      "items_total",
				Help:      "Total number of items read from or written to streams",
			},
			[]string{"direction", "stream_name"},
		),

		StreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncstream",
				Subsystem: "stream",
				Name:      "errors_total",
				Help:      "Total number of failed stream operations",
			},
			[]string{"operation", "stream_name"},
		),

		QueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "asyncstream",
				Subsystem: "queue",
				Name:      "depth",
				Help:      "Current number of queued items",
			},
			[]string{"stream_name"},
		),

		QueueCapacity: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "asyncstream",
				Subsystem: "queue",
				Name:      "capacity",
				Help:      "Maximum number of queued items",
			},
			[]string{"stream_name"},
		),

		BackpressureEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncstream",
				Subsystem: "backpressure",
				Name:      "events_total",
				Help:      "Total number of writes rejected for insufficient capacity",
			},
			[]string{"operation", "stream_name"},
		),

		PipeItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncstream",
				Subsystem: "pipe",
				Name:      "items_total",
				Help:      "Total number of items transferred by pipes",
			},
			[]string{"pipe_name"},
		),

		PipeBatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncstream",
				Subsystem: "pipe",
				Name:      "batches_total",
				Help:      "Total number of batches transferred by pipes",
			},
			[]string{"pipe_name"},
		),

		PipeRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncstream",
				Subsystem: "pipe",
				Name:      "retries_total",
				Help:      "Total number of batches retried after a Full rejection",
			},
			[]string{"pipe_name"},
		),

		WriterFlushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncstream",
				Subsystem: "writer",
				Name:      "flushes_total",
				Help:      "Total number of writer flushes",
			},
			[]string{"writer_name"},
		),

		WriterBytesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncstream",
				Subsystem: "writer",
				Name:      "bytes_written_total",
				Help:      "Total bytes written to underlying writers",
			},
			[]string{"writer_name"},
		),
	}
}
