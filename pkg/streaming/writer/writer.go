package writer

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	aserrors "github.com/termermc/asyncstream/pkg/common/errors"
	"github.com/termermc/asyncstream/pkg/common/validation"
	"github.com/termermc/asyncstream/pkg/metrics"
	"github.com/termermc/asyncstream/pkg/streaming/stream"
)

// Writer is a write-side stream endpoint backed by an io.Writer. Accepted
// chunks are held in a bounded pending queue and flushed to the underlying
// writer by a background goroutine, so Write never blocks on the
// underlying medium.
//
// A flush runs on the FlushInterval ticker, on each FlushSchedule firing,
// on an explicit Flush call, and as part of Complete. A write rejected
// with Full also triggers a flush so capacity frees up without waiting for
// the next tick.
//
// A flush that still fails after MaxRetries fails the stream; the queued
// chunks that were not yet handed to the underlying writer are discarded
// and subsequent writes report the terminal error. Complete must be called
// exactly once, even on a failed writer, to stop the background goroutines.
//
// Writer assumes a single writer goroutine per the stream contract;
// Flush and the observational queue methods are safe to call concurrently.
type Writer struct {
	underlying io.Writer
	config     Config

	mu         sync.Mutex
	pending    [][]byte
	completing bool
	finished   bool
	failed     bool
	err        error

	flushCh   chan chan error
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	cron      *cron.Cron

	registry *metrics.Registry

	stats   Stats
	statsMu sync.RWMutex
}

// Config holds configuration for a Writer.
type Config struct {
	// MaxPending is the maximum number of chunks queued ahead of the
	// underlying writer. Must be positive. Default: 256.
	MaxPending int

	// FlushInterval is how often queued chunks are flushed automatically.
	// Set to 0 to disable the ticker. Default: 100ms.
	FlushInterval time.Duration

	// FlushSchedule is an optional cron expression (five-field, standard
	// syntax) for wall-clock flushes, e.g. "*/5 * * * *". Useful for
	// log-style sinks that want flushes aligned to clock boundaries
	// rather than to a relative interval. Empty disables the schedule.
	FlushSchedule string

	// MaxRetries is the number of times a failed underlying write is
	// retried before the stream fails. Must be non-negative; 0 disables
	// retries. Default: 3.
	MaxRetries int

	// RetryDelay is the delay between retries. Default: 100ms.
	RetryDelay time.Duration

	// OnError is called with each underlying write error, including the
	// ones that were retried successfully.
	OnError func(error)

	// OnFlush is called after each flush that wrote at least one chunk.
	OnFlush func(bytesWritten int, chunks int, duration time.Duration)

	// OnFull is called each time a write is rejected for insufficient
	// pending capacity.
	OnFull func()

	// Name labels this writer in metrics. Default: "writer".
	Name string

	// Metrics enables Prometheus instrumentation.
	Metrics metrics.Config
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		MaxPending:    256,
		FlushInterval: 100 * time.Millisecond,
		MaxRetries:    3,
		RetryDelay:    100 * time.Millisecond,
		Name:          "writer",
	}
}

// Stats holds counters describing writer activity.
type Stats struct {
	// ChunksAccepted is the total number of chunks accepted into the
	// pending queue.
	ChunksAccepted int64

	// BytesAccepted is the total number of bytes accepted.
	BytesAccepted int64

	// BytesFlushed is the total number of bytes handed to the underlying
	// writer.
	BytesFlushed int64

	// FlushCount is the number of flushes that wrote at least one chunk.
	FlushCount int64

	// FullRejections is the number of writes rejected for capacity.
	FullRejections int64

	// WriteRetries is the number of underlying writes that were retried.
	WriteRetries int64

	// ErrorCount is the number of underlying write errors observed.
	ErrorCount int64
}

// New creates a Writer over w with default configuration.
func New(w io.Writer) *Writer {
	wr, _ := NewWithConfig(w, DefaultConfig())
	return wr
}

// NewWithConfig creates a Writer over w with the specified configuration.
func NewWithConfig(w io.Writer, config Config) (*Writer, error) {
	if err := validation.ValidateNotNil("writer", "underlying", w); err != nil {
		return nil, err
	}
	if config.MaxPending <= 0 {
		config.MaxPending = DefaultConfig().MaxPending
	}
	if err := validation.ValidateNonNegative("writer", "maxRetries", config.MaxRetries); err != nil {
		return nil, err
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultConfig().RetryDelay
	}
	if config.Name == "" {
		config.Name = DefaultConfig().Name
	}

	wr := &Writer{
		underlying: w,
		config:     config,
		flushCh:    make(chan chan error, 16),
		done:       make(chan struct{}),
	}

	if config.Metrics.Enabled {
		wr.registry = metrics.DefaultRegistry
		if config.Metrics.Registry != nil {
			wr.registry = metrics.NewRegistry(config.Metrics.Registry)
		}
	}

	if config.FlushSchedule != "" {
		c := cron.New()
		_, err := c.AddFunc(config.FlushSchedule, func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			_ = wr.Flush(flushCtx)
		})
		if err != nil {
			return nil, aserrors.NewValidationError("writer", "flushSchedule", config.FlushSchedule,
				"not a valid cron expression").WithHint("use five-field cron syntax, e.g. \"*/5 * * * *\"")
		}
		wr.cron = c
		c.Start()
	}

	wr.wg.Add(1)
	go wr.flushLoop()

	return wr, nil
}

// Write implements stream.WriteStream.Write. The chunk is copied before it
// is queued; the caller may reuse the backing array.
func (w *Writer) Write(ctx context.Context, chunk []byte) stream.WriteResult {
	return w.WriteBatch(ctx, [][]byte{chunk})
}

// WriteBatch implements stream.WriteStream.WriteBatch. All chunks are
// queued or none are; a batch that would exceed MaxPending is rejected
// with Full, the queue is unchanged, and a flush is triggered to free
// capacity.
func (w *Writer) WriteBatch(ctx context.Context, chunks [][]byte) stream.WriteResult {
	select {
	case <-ctx.Done():
		return stream.WriteFailed(ctx.Err())
	default:
	}

	w.mu.Lock()

	if w.failed {
		err := w.err
		w.mu.Unlock()
		return stream.WriteFailed(err)
	}
	if w.completing || w.finished {
		w.mu.Unlock()
		return stream.WriteFailed(aserrors.ErrFinished)
	}
	if len(chunks) == 0 {
		w.mu.Unlock()
		return stream.WriteOK()
	}

	if len(w.pending)+len(chunks) > w.config.MaxPending {
		onFull := w.config.OnFull
		w.mu.Unlock()

		w.updateStats(func(s *Stats) { s.FullRejections++ })
		if w.registry != nil {
			w.registry.BackpressureEvents.WithLabelValues("write", w.config.Name).Inc()
		}
		w.requestFlush(nil)
		if onFull != nil {
			onFull()
		}
		return stream.WriteFull()
	}

	var bytes int64
	for _, chunk := range chunks {
		copied := make([]byte, len(chunk))
		copy(copied, chunk)
		w.pending = append(w.pending, copied)
		bytes += int64(len(chunk))
	}
	w.mu.Unlock()

	w.updateStats(func(s *Stats) {
		s.ChunksAccepted += int64(len(chunks))
		s.BytesAccepted += bytes
	})
	if w.registry != nil {
		w.registry.StreamItems.WithLabelValues("write", w.config.Name).Add(float64(len(chunks)))
	}
	return stream.WriteOK()
}

// Flush forces all queued chunks to the underlying writer and blocks until
// the flush finishes or ctx is canceled.
func (w *Writer) Flush(ctx context.Context) error {
	reply := make(chan error, 1)

	select {
	case w.flushCh <- reply:
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return aserrors.ErrFinished
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return aserrors.ErrFinished
	}
}

// Complete implements stream.WriteStream.Complete. It locks the write
// side, flushes everything still queued, stops the background goroutines
// and the flush schedule, and marks the stream finished.
//
// On a flush failure the stream is failed and the result is an error; on a
// canceled ctx the completion outcome is indeterminate and Complete may be
// called again. Completing an already-finished writer reports clean
// shutdown.
func (w *Writer) Complete(ctx context.Context) stream.CompleteResult {
	w.mu.Lock()
	if w.failed {
		err := w.err
		w.completing = true
		w.mu.Unlock()
		w.teardown()
		return stream.CompleteFailed(err)
	}
	if w.finished {
		w.mu.Unlock()
		return stream.CompleteOK()
	}
	w.completing = true
	w.mu.Unlock()

	reply := make(chan error, 1)
	select {
	case w.flushCh <- reply:
	case <-ctx.Done():
		return stream.CompleteFailed(ctx.Err())
	}

	var flushErr error
	select {
	case flushErr = <-reply:
	case <-ctx.Done():
		return stream.CompleteFailed(ctx.Err())
	}

	w.teardown()

	w.mu.Lock()
	w.finished = true
	if flushErr != nil {
		w.mu.Unlock()
		return stream.CompleteFailed(flushErr)
	}
	w.mu.Unlock()
	return stream.CompleteOK()
}

// CompleteWith implements stream.WriteStream.CompleteWith.
func (w *Writer) CompleteWith(ctx context.Context, chunk []byte) stream.WriteResult {
	return w.CompleteWithBatch(ctx, [][]byte{chunk})
}

// CompleteWithBatch implements stream.WriteStream.CompleteWithBatch.
func (w *Writer) CompleteWithBatch(ctx context.Context, chunks [][]byte) stream.WriteResult {
	res := w.WriteBatch(ctx, chunks)
	if !res.IsWritten() {
		return res
	}
	if cres := w.Complete(ctx); cres.IsError() {
		return stream.WriteFailed(cres.Err)
	}
	return stream.WriteOK()
}

// Fail transitions the writer to the failed terminal state, discards
// queued chunks, and stops the background goroutines. Failing a finished
// writer is a no-op.
func (w *Writer) Fail(err error) {
	w.mu.Lock()
	if w.failed || w.finished {
		w.mu.Unlock()
		return
	}
	w.failed = true
	w.finished = true
	w.err = err
	w.pending = nil
	w.mu.Unlock()

	w.teardown()
}

// IsFinished implements stream.Status.IsFinished.
func (w *Writer) IsFinished() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finished || w.failed
}

// IsFailed implements stream.Status.IsFailed.
func (w *Writer) IsFailed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failed
}

// Err implements stream.Status.Err.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// CanWrite implements stream.WriteStream.CanWrite.
func (w *Writer) CanWrite() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.failed && !w.finished && !w.completing && len(w.pending) < w.config.MaxPending
}

// QueueLen implements stream.QueuedStream.QueueLen. It counts pending
// chunks, not bytes.
func (w *Writer) QueueLen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// MaxQueueLen implements stream.QueuedStream.MaxQueueLen.
func (w *Writer) MaxQueueLen() int {
	return w.config.MaxPending
}

// QueueEmpty implements stream.QueuedStream.QueueEmpty.
func (w *Writer) QueueEmpty() bool {
	return w.QueueLen() == 0
}

// QueueFull implements stream.QueuedStream.QueueFull.
func (w *Writer) QueueFull() bool {
	return w.QueueLen() >= w.config.MaxPending
}

// Stats returns a snapshot of writer activity counters.
func (w *Writer) Stats() Stats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	return w.stats
}

// flushLoop is the background goroutine that drains the pending queue.
func (w *Writer) flushLoop() {
	defer w.wg.Done()

	var tick <-chan time.Time
	if w.config.FlushInterval > 0 {
		ticker := time.NewTicker(w.config.FlushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case reply := <-w.flushCh:
			err := w.flush()
			if reply != nil {
				reply <- err
			}
		case <-tick:
			_ = w.flush()
		case <-w.done:
			return
		}
	}
}

// requestFlush queues an asynchronous flush, dropping the request if the
// loop is saturated or shut down.
func (w *Writer) requestFlush(reply chan error) {
	select {
	case w.flushCh <- reply:
	case <-w.done:
	default:
	}
}

// flush hands every pending chunk to the underlying writer. On a
// persistent write error the stream fails and the chunks not yet handed
// over are discarded.
func (w *Writer) flush() error {
	w.mu.Lock()
	if w.failed {
		err := w.err
		w.mu.Unlock()
		return err
	}
	chunks := w.pending
	w.pending = nil
	w.mu.Unlock()

	if len(chunks) == 0 {
		return nil
	}

	start := time.Now()
	var written int
	for _, chunk := range chunks {
		n, err := w.writeWithRetries(chunk)
		written += n
		if err != nil {
			w.failFromFlush(err)
			return err
		}
	}
	duration := time.Since(start)

	w.updateStats(func(s *Stats) {
		s.FlushCount++
		s.BytesFlushed += int64(written)
	})
	if w.registry != nil {
		w.registry.WriterFlushes.WithLabelValues(w.config.Name).Inc()
		w.registry.WriterBytesWritten.WithLabelValues(w.config.Name).Add(float64(written))
	}
	if w.config.OnFlush != nil {
		w.config.OnFlush(written, len(chunks), duration)
	}
	return nil
}

// writeWithRetries writes one chunk, retrying transient errors and short
// writes up to MaxRetries times.
func (w *Writer) writeWithRetries(chunk []byte) (int, error) {
	var total int
	var lastErr error

	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			w.updateStats(func(s *Stats) { s.WriteRetries++ })
			select {
			case <-time.After(w.config.RetryDelay):
			case <-w.done:
				return total, lastErr
			}
		}

		n, err := w.underlying.Write(chunk[total:])
		total += n

		if err != nil {
			lastErr = err
			w.updateStats(func(s *Stats) { s.ErrorCount++ })
			if w.registry != nil {
				w.registry.StreamErrors.WithLabelValues("flush", w.config.Name).Inc()
			}
			if w.config.OnError != nil {
				w.config.OnError(err)
			}
			continue
		}
		if total >= len(chunk) {
			return total, nil
		}
	}

	return total, lastErr
}

// failFromFlush records a terminal flush failure. Teardown is left to
// Complete or Fail; this runs on the flush goroutine, which cannot wait
// for itself.
func (w *Writer) failFromFlush(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failed {
		return
	}
	w.failed = true
	w.err = err
	w.pending = nil
}

// teardown stops the flush schedule and background goroutine exactly once.
func (w *Writer) teardown() {
	w.closeOnce.Do(func() {
		if w.cron != nil {
			<-w.cron.Stop().Done()
		}
		close(w.done)
		w.wg.Wait()
	})
}

// updateStats safely updates activity counters.
func (w *Writer) updateStats(updater func(*Stats)) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	updater(&w.stats)
}

// Interface checks.
var (
	_ stream.WriteStream[[]byte] = (*Writer)(nil)
	_ stream.QueuedStream        = (*Writer)(nil)
)
