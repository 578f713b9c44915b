/*
Package asyncstream provides backpressure-aware stream endpoints for Go,
built around an explicit result algebra instead of panics or bare errors.

Stream Contract (pkg/streaming/stream):
  - ReadStream / WriteStream: pull and push endpoints with tagged results
  - SliceReader, Collector: in-memory endpoints for composition and tests
  - Capability probing for queue-backed endpoints

Endpoints (pkg/streaming):
  - queue: in-memory bounded queue connecting one producer to one consumer
  - writer: async buffered writing over any io.Writer
  - reader: chunked reading over any io.Reader
  - redisqueue: cross-process queue over a Redis list

Composition (pkg/streaming/pipe):
  - pipe: moves every item from a source to a sink, retrying Full
    rejections and propagating completion and failure

Example usage:

	import (
		"github.com/termermc/asyncstream/pkg/streaming/pipe"
		"github.com/termermc/asyncstream/pkg/streaming/queue"
		"github.com/termermc/asyncstream/pkg/streaming/stream"
	)

	src := stream.FromSlice(records)
	q := queue.New[Record](1024)

	go consume(q) // reads until Finished

	res := pipe.Run(ctx, src, q, pipe.DefaultConfig())
	if res.Outcome != pipe.Complete {
		log.Fatal(res.Cause)
	}
*/
package asyncstream
