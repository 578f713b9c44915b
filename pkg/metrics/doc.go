/*
Package metrics provides Prometheus instrumentation for asyncstream
components.

The Registry groups every metric the library emits: endpoint operation and
item counters, queue depth and capacity gauges, backpressure rejection
counters, pipe transfer counters, and writer flush counters. Components
never register metrics themselves; instrumented wrappers (for example
queue.NewWithMetrics) take a Config and update the shared Registry.

Basic usage with the default Prometheus registerer:

	q := queue.NewWithMetrics[int](100, "ingest")

Using an isolated registry, for tests or multi-tenant processes:

	reg := prometheus.NewRegistry()
	q := queue.NewWithConfigAndMetrics[int](queue.DefaultConfig(), "ingest", metrics.Config{
		Enabled:  true,
		Registry: reg,
	})

All metrics use the "asyncstream" namespace.
*/
package metrics
