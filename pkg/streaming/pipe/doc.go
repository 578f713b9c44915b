/*
Package pipe composes a ReadStream and a WriteStream into a transfer loop
that honors both sides' backpressure.

The pipe is the one caller on each endpoint: it reads batches from the
source, writes them all-or-nothing to the sink, retries a Full rejection
with the identical batch after a short yield, completes the sink when the
source finishes, and stops immediately when either side fails. Items reach
the sink in the exact order the source produced them, with no duplication
and no drops.

	src := stream.FromSlice([]int{1, 2, 3, 4, 5})
	q := queue.New[int](64)

	res := pipe.Run(ctx, src, q, pipe.Config{BatchSize: 2})
	switch res.Outcome {
	case pipe.Complete:
		// q has completed; readers drain it to Finished
	case pipe.SourceError:
		log.Printf("source failed: %v", res.Cause)
	case pipe.SinkError:
		log.Printf("sink failed: %v", res.Cause)
	}

Full is not a fault: it is the expected signal of a slower consumer, and
the only condition the pipe retries automatically. Genuine errors are never
retried; items delivered before the failure stay delivered, and retry
policy for faults is left to the caller.

The pipe consumes only the capability set, never a concrete endpoint type,
so any conformant pair of streams can be connected regardless of their
underlying medium.
*/
package pipe
