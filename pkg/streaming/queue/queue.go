package queue

import (
	"context"
	"sync"

	aserrors "github.com/termermc/asyncstream/pkg/common/errors"
	"github.com/termermc/asyncstream/pkg/common/validation"
	"github.com/termermc/asyncstream/pkg/streaming/stream"
)

// Queue is the in-memory bounded-queue reference endpoint. It implements
// both sides of the stream contract over a single ring buffer: producers
// push through the WriteStream interface, consumers pull through the
// ReadStream interface, and the QueuedStream capability exposes the
// buffer state for external flow-control policies.
//
// Writes never suspend: a write that does not fit returns Full immediately
// and the queue is left unchanged. Reads suspend while the queue is empty
// and the write side has not completed.
//
// Completion policy: Complete locks the write side immediately but
// preserves queued items. Readers drain the remainder and then observe
// Finished; the stream reports finished once the queue is empty. A failure
// is terminal at once and discards queued items.
//
// Queue is safe for concurrent use by one reader and one writer goroutine;
// additional concurrent callers are serialized but may observe interleaved
// batch boundaries.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond

	buf   []T
	head  int
	tail  int
	count int

	maxLen    int
	completed bool
	failed    bool
	err       error

	config Config

	stats   Stats
	statsMu sync.RWMutex
}

// Config holds configuration for a Queue.
type Config struct {
	// Capacity is the maximum number of queued items. Must be positive.
	Capacity int

	// OnFull is called each time a write is rejected for insufficient
	// capacity.
	OnFull func()

	// OnComplete is called once when the write side completes.
	OnComplete func()
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Capacity: 100,
	}
}

// Stats holds counters describing queue activity.
type Stats struct {
	// ItemsWritten is the total number of items accepted.
	ItemsWritten int64

	// ItemsRead is the total number of items delivered.
	ItemsRead int64

	// FullRejections is the number of writes rejected for capacity.
	FullRejections int64

	// BlockedReads is the number of reads that had to suspend.
	BlockedReads int64
}

// New creates a Queue with the given capacity and default configuration.
func New[T any](capacity int) *Queue[T] {
	config := DefaultConfig()
	config.Capacity = capacity
	q, err := NewWithConfig[T](config)
	if err != nil {
		// Match DefaultConfig behavior for invalid ad-hoc capacities.
		config.Capacity = DefaultConfig().Capacity
		q, _ = NewWithConfig[T](config)
	}
	return q
}

// NewWithConfig creates a Queue with the specified configuration.
func NewWithConfig[T any](config Config) (*Queue[T], error) {
	if err := validation.ValidatePositive("queue", "capacity", config.Capacity); err != nil {
		return nil, err
	}

	q := &Queue[T]{
		buf:    make([]T, config.Capacity),
		maxLen: config.Capacity,
		config: config,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	return q, nil
}

// Write implements stream.WriteStream.Write.
func (q *Queue[T]) Write(ctx context.Context, item T) stream.WriteResult {
	return q.WriteBatch(ctx, []T{item})
}

// WriteBatch implements stream.WriteStream.WriteBatch. The batch is
// enqueued in full or not at all; a batch larger than the remaining
// capacity is rejected with Full and the queue is unchanged. A batch
// larger than the total capacity can never be accepted.
func (q *Queue[T]) WriteBatch(ctx context.Context, items []T) stream.WriteResult {
	select {
	case <-ctx.Done():
		return stream.WriteFailed(ctx.Err())
	default:
	}

	q.mu.Lock()

	if q.failed {
		err := q.err
		q.mu.Unlock()
		return stream.WriteFailed(err)
	}
	if q.completed {
		q.mu.Unlock()
		return stream.WriteFailed(aserrors.ErrFinished)
	}
	if len(items) == 0 {
		q.mu.Unlock()
		return stream.WriteOK()
	}

	if q.count+len(items) > q.maxLen {
		onFull := q.config.OnFull
		q.mu.Unlock()
		q.updateStats(func(s *Stats) { s.FullRejections++ })
		if onFull != nil {
			onFull()
		}
		return stream.WriteFull()
	}

	for _, item := range items {
		q.pushLocked(item)
	}
	q.notEmpty.Broadcast()
	q.mu.Unlock()

	q.updateStats(func(s *Stats) { s.ItemsWritten += int64(len(items)) })
	return stream.WriteOK()
}

// Read implements stream.ReadStream.Read, suspending while the queue is
// empty and the write side has not completed.
func (q *Queue[T]) Read(ctx context.Context) stream.ReadResult[T] {
	res := q.ReadN(ctx, 1)
	if !res.IsData() {
		return stream.ReadResult[T]{Kind: res.Kind, Err: res.Err}
	}
	return stream.Data(res.Value[0])
}

// ReadN implements stream.ReadStream.ReadN. It returns between 1 and n of
// the currently queued items, suspending only while the queue is empty.
func (q *Queue[T]) ReadN(ctx context.Context, n int) stream.ReadResult[[]T] {
	// Wake blocked waiters if the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.notEmpty.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	blocked := false
	for {
		if q.failed {
			return stream.ReadFailed[[]T](q.err)
		}
		if q.count == 0 && q.completed {
			return stream.Finished[[]T]()
		}
		if n < 1 {
			return stream.Data([]T{})
		}
		if q.count > 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return stream.ReadFailed[[]T](err)
		}
		if !blocked {
			blocked = true
			q.updateStats(func(s *Stats) { s.BlockedReads++ })
		}
		q.notEmpty.Wait()
	}

	take := n
	if take > q.count {
		take = q.count
	}
	batch := make([]T, take)
	for i := 0; i < take; i++ {
		batch[i] = q.popLocked()
	}

	q.updateStats(func(s *Stats) { s.ItemsRead += int64(take) })
	return stream.Data(batch)
}

// ReadAll implements stream.ReadStream.ReadAll. It suspends until the
// write side completes, concatenating everything written in the meantime;
// the caller accepts unbounded memory use.
func (q *Queue[T]) ReadAll(ctx context.Context) stream.ReadResult[[]T] {
	var all []T
	for {
		res := q.ReadN(ctx, q.MaxQueueLen())
		switch {
		case res.IsData():
			all = append(all, res.Value...)
		case res.IsFinished():
			if len(all) == 0 {
				return stream.Finished[[]T]()
			}
			return stream.Data(all)
		default:
			return res
		}
	}
}

// Complete implements stream.WriteStream.Complete. The write side is
// locked immediately; queued items remain readable and the stream reports
// finished once they drain. Completing an already-completed queue is a
// no-op reporting clean shutdown.
func (q *Queue[T]) Complete(ctx context.Context) stream.CompleteResult {
	select {
	case <-ctx.Done():
		return stream.CompleteFailed(ctx.Err())
	default:
	}

	q.mu.Lock()
	if q.failed {
		err := q.err
		q.mu.Unlock()
		return stream.CompleteFailed(err)
	}
	already := q.completed
	q.completed = true
	q.notEmpty.Broadcast()
	onComplete := q.config.OnComplete
	q.mu.Unlock()

	if !already && onComplete != nil {
		onComplete()
	}
	return stream.CompleteOK()
}

// CompleteWith implements stream.WriteStream.CompleteWith.
func (q *Queue[T]) CompleteWith(ctx context.Context, item T) stream.WriteResult {
	return q.CompleteWithBatch(ctx, []T{item})
}

// CompleteWithBatch implements stream.WriteStream.CompleteWithBatch.
// Written is returned only once both the write and the finish transition
// succeeded; on Full nothing happens and the queue remains writable.
func (q *Queue[T]) CompleteWithBatch(ctx context.Context, items []T) stream.WriteResult {
	res := q.WriteBatch(ctx, items)
	if !res.IsWritten() {
		return res
	}
	if cres := q.Complete(ctx); cres.IsError() {
		return stream.WriteFailed(cres.Err)
	}
	return stream.WriteOK()
}

// Fail transitions the queue to the failed terminal state, discarding any
// queued items and waking blocked readers. Intended for owners embedding
// the queue behind a transport that faulted. Failing a finished queue is
// a no-op.
func (q *Queue[T]) Fail(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.failed || (q.completed && q.count == 0) {
		return
	}

	q.failed = true
	q.completed = true
	q.err = err
	q.clearLocked()
	q.notEmpty.Broadcast()
}

// IsFinished implements stream.Status.IsFinished.
func (q *Queue[T]) IsFinished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.failed || (q.completed && q.count == 0)
}

// IsFailed implements stream.Status.IsFailed.
func (q *Queue[T]) IsFailed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.failed
}

// Err implements stream.Status.Err.
func (q *Queue[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// CanRead implements stream.ReadStream.CanRead. It is false while the
// queue is empty; that is backpressure, not a terminal condition.
func (q *Queue[T]) CanRead() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.failed && q.count > 0
}

// CanWrite implements stream.WriteStream.CanWrite. It is false while the
// queue is full or once completion has begun.
func (q *Queue[T]) CanWrite() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.failed && !q.completed && q.count < q.maxLen
}

// QueueLen implements stream.QueuedStream.QueueLen.
func (q *Queue[T]) QueueLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// MaxQueueLen implements stream.QueuedStream.MaxQueueLen.
func (q *Queue[T]) MaxQueueLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.maxLen
}

// QueueEmpty implements stream.QueuedStream.QueueEmpty.
func (q *Queue[T]) QueueEmpty() bool {
	return q.QueueLen() == 0
}

// QueueFull implements stream.QueuedStream.QueueFull.
func (q *Queue[T]) QueueFull() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count >= q.maxLen
}

// SetMaxQueueLen implements stream.MutableQueuedStream.SetMaxQueueLen.
// The new capacity applies to subsequent writes only: shrinking below the
// current length never discards queued items, it just keeps the queue
// full until readers drain it below the new bound.
func (q *Queue[T]) SetMaxQueueLen(n int) error {
	if err := validation.ValidatePositive("queue", "maxQueueLen", n); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if n > len(q.buf) {
		q.growLocked(n)
	}
	q.maxLen = n
	return nil
}

// Stats returns a snapshot of queue activity counters.
func (q *Queue[T]) Stats() Stats {
	q.statsMu.RLock()
	defer q.statsMu.RUnlock()
	return q.stats
}

// pushLocked adds a value to the ring buffer (must hold mu).
func (q *Queue[T]) pushLocked(item T) {
	q.buf[q.tail] = item
	q.tail = (q.tail + 1) % len(q.buf)
	q.count++
}

// popLocked removes the oldest value from the ring buffer (must hold mu).
func (q *Queue[T]) popLocked() T {
	item := q.buf[q.head]
	var zero T
	q.buf[q.head] = zero // Clear reference
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return item
}

// clearLocked discards all queued items (must hold mu).
func (q *Queue[T]) clearLocked() {
	var zero T
	for i := range q.buf {
		q.buf[i] = zero
	}
	q.head = 0
	q.tail = 0
	q.count = 0
}

// growLocked replaces the ring buffer with a larger one, preserving order
// (must hold mu).
func (q *Queue[T]) growLocked(n int) {
	nb := make([]T, n)
	for i := 0; i < q.count; i++ {
		nb[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = nb
	q.head = 0
	q.tail = q.count % n
}

// updateStats safely updates activity counters.
func (q *Queue[T]) updateStats(updater func(*Stats)) {
	q.statsMu.Lock()
	defer q.statsMu.Unlock()
	updater(&q.stats)
}

// Interface checks.
var (
	_ stream.ReadStream[int]     = (*Queue[int])(nil)
	_ stream.WriteStream[int]    = (*Queue[int])(nil)
	_ stream.MutableQueuedStream = (*Queue[int])(nil)
)
