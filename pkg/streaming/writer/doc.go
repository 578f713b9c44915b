/*
Package writer adapts an io.Writer into a write-side stream endpoint.

The Writer queues accepted chunks in memory and flushes them from a
background goroutine, so callers on the hot path never block on disk or
network latency. Backpressure is surfaced through the stream contract: a
write that would exceed the pending bound returns Full immediately and the
caller decides whether to retry, drop, or slow down.

	w, err := writer.NewWithConfig(logFile, writer.Config{
		MaxPending:    512,
		FlushInterval: 250 * time.Millisecond,
	})
	if err != nil {
		return err
	}

	res := w.Write(ctx, []byte("event\n"))
	if res.IsFull() {
		// consumer is behind; apply local policy
	}

	// flush everything and stop the background goroutines
	if cres := w.Complete(ctx); cres.IsError() {
		return cres.Err
	}

Flushes run on a relative interval, on an optional wall-clock cron
schedule (Config.FlushSchedule), on explicit Flush calls, and during
Complete. Underlying write errors are retried with a delay; an error that
survives all retries fails the stream and discards the chunks that were
never handed to the underlying writer. Chunks already written stay
written, and the terminal error is reported by every subsequent write.

Complete is the only way to release the background goroutines, so call it
exactly once per Writer, even after a failure.
*/
package writer
