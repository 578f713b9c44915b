package pipe

import (
	"context"
	"time"

	asctx "github.com/termermc/asyncstream/pkg/common/context"
	aserrors "github.com/termermc/asyncstream/pkg/common/errors"
	"github.com/termermc/asyncstream/pkg/common/validation"
	"github.com/termermc/asyncstream/pkg/metrics"
	"github.com/termermc/asyncstream/pkg/streaming/stream"
)

// Outcome discriminates the variants of a pipe Result.
type Outcome int

const (
	// Complete indicates the source was drained and the sink completed.
	Complete Outcome = iota

	// SourceError indicates the source failed; the sink is left as-is.
	SourceError

	// SinkError indicates the sink failed, either on a write or during
	// completion.
	SinkError
)

// Result describes the outcome of a pipe run. Items delivered before a
// failure stay delivered; there is no rollback.
type Result struct {
	// Outcome is the terminal variant of the run.
	Outcome Outcome

	// Cause is the failure cause for SourceError/SinkError outcomes.
	Cause error

	// ItemsTransferred is the number of items delivered to the sink.
	ItemsTransferred int64

	// Batches is the number of batches accepted by the sink.
	Batches int64

	// FullRetries is the number of write attempts rejected with Full and
	// retried.
	FullRetries int64

	// Duration is the total run time.
	Duration time.Duration
}

// Config holds configuration for a pipe run.
type Config struct {
	// BatchSize is the maximum number of items moved per read. When the
	// sink exposes the QueuedStream capability it is clamped to the
	// sink's MaxQueueLen, since an all-or-nothing sink can never accept
	// a batch larger than its capacity. Default: 32.
	BatchSize int

	// RetryDelay is how long to yield before retrying a batch rejected
	// with Full. Default: 1ms.
	RetryDelay time.Duration

	// Name labels this pipe in metrics. Default: "pipe".
	Name string

	// Metrics enables Prometheus instrumentation for this run.
	Metrics metrics.Config
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:  32,
		RetryDelay: time.Millisecond,
		Name:       "pipe",
	}
}

// Pipe moves every item from source to sink with default configuration.
func Pipe[T any](ctx context.Context, source stream.ReadStream[T], sink stream.WriteStream[T]) Result {
	return Run(ctx, source, sink, DefaultConfig())
}

// Run moves every item from source to sink until the source is exhausted
// or either side fails.
//
// Items are delivered in the exact order the source produces them; a batch
// rejected with Full is retried unchanged after RetryDelay, never dropped,
// split, or reordered. On source Finished the sink is completed and the
// run reports Complete. On any Error the run stops immediately and reports
// the corresponding side; Full is backpressure, not an error, and is the
// only condition retried automatically.
func Run[T any](ctx context.Context, source stream.ReadStream[T], sink stream.WriteStream[T], config Config) Result {
	if err := validation.ValidatePositive("pipe", "batchSize", config.BatchSize); err != nil {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultConfig().RetryDelay
	}
	if config.Name == "" {
		config.Name = DefaultConfig().Name
	}
	if qs, ok := stream.AsQueued(sink); ok && config.BatchSize > qs.MaxQueueLen() {
		config.BatchSize = qs.MaxQueueLen()
	}

	var registry *metrics.Registry
	if config.Metrics.Enabled {
		registry = metrics.DefaultRegistry
		if config.Metrics.Registry != nil {
			registry = metrics.NewRegistry(config.Metrics.Registry)
		}
	}

	start := time.Now()
	result := Result{Outcome: Complete}

	defer func() {
		result.Duration = time.Since(start)
	}()

	for {
		read := source.ReadN(ctx, config.BatchSize)
		switch {
		case read.IsFinished():
			if cres := sink.Complete(ctx); cres.IsError() {
				result.Outcome = SinkError
				result.Cause = cres.Err
				return result
			}
			return result

		case read.IsError():
			result.Outcome = SourceError
			result.Cause = read.Err
			return result
		}

		batch := read.Value
		if len(batch) == 0 {
			continue
		}

		for {
			write := sink.WriteBatch(ctx, batch)
			if write.IsWritten() {
				break
			}
			if write.IsError() {
				result.Outcome = SinkError
				result.Cause = write.Err
				return result
			}

			// A batch the sink can never hold would retry forever; the
			// capacity must have shrunk under us since the read.
			if qs, ok := stream.AsQueued(sink); ok && len(batch) > qs.MaxQueueLen() {
				result.Outcome = SinkError
				result.Cause = aserrors.ErrCapacityExceeded
				return result
			}

			// Full: yield, then retry the identical batch.
			result.FullRetries++
			if registry != nil {
				registry.PipeRetries.WithLabelValues(config.Name).Inc()
			}
			if err := asctx.Sleep(ctx, config.RetryDelay); err != nil {
				result.Outcome = SinkError
				result.Cause = err
				return result
			}
		}

		result.ItemsTransferred += int64(len(batch))
		result.Batches++
		if registry != nil {
			registry.PipeItems.WithLabelValues(config.Name).Add(float64(len(batch)))
			registry.PipeBatches.WithLabelValues(config.Name).Inc()
		}
	}
}
