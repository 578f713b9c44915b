package stream

import (
	"context"
	"math"
	"sync"

	aserrors "github.com/termermc/asyncstream/pkg/common/errors"
)

// SliceReader is a finite ReadStream backed by an in-memory slice. It is
// the canonical bounded source: ReadAll is always permitted because the
// total size is known up front.
//
// SliceReader is safe for concurrent use, though the contract only assumes
// a single reader.
type SliceReader[T any] struct {
	mu    sync.Mutex
	items []T
	pos   int
}

// FromSlice creates a ReadStream that produces the elements of items in order.
func FromSlice[T any](items []T) *SliceReader[T] {
	return &SliceReader[T]{items: items}
}

// Read implements ReadStream.Read.
func (s *SliceReader[T]) Read(ctx context.Context) ReadResult[T] {
	select {
	case <-ctx.Done():
		return ReadFailed[T](ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.items) {
		return Finished[T]()
	}

	item := s.items[s.pos]
	s.pos++
	return Data(item)
}

// ReadN implements ReadStream.ReadN.
func (s *SliceReader[T]) ReadN(ctx context.Context, n int) ReadResult[[]T] {
	select {
	case <-ctx.Done():
		return ReadFailed[[]T](ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.items) {
		return Finished[[]T]()
	}
	if n < 1 {
		return Data([]T{})
	}

	end := s.pos + n
	if end > len(s.items) {
		end = len(s.items)
	}

	batch := make([]T, end-s.pos)
	copy(batch, s.items[s.pos:end])
	s.pos = end
	return Data(batch)
}

// ReadAll implements ReadStream.ReadAll. The source is bounded, so draining
// is always permitted.
func (s *SliceReader[T]) ReadAll(ctx context.Context) ReadResult[[]T] {
	select {
	case <-ctx.Done():
		return ReadFailed[[]T](ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.items) {
		return Finished[[]T]()
	}

	rest := make([]T, len(s.items)-s.pos)
	copy(rest, s.items[s.pos:])
	s.pos = len(s.items)
	return Data(rest)
}

// IsFinished implements Status.IsFinished.
func (s *SliceReader[T]) IsFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos >= len(s.items)
}

// IsFailed implements Status.IsFailed. A slice source cannot fail.
func (s *SliceReader[T]) IsFailed() bool { return false }

// Err implements Status.Err.
func (s *SliceReader[T]) Err() error { return nil }

// CanRead implements ReadStream.CanRead.
func (s *SliceReader[T]) CanRead() bool {
	return !s.IsFinished()
}

// Remaining returns the number of unread items.
func (s *SliceReader[T]) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) - s.pos
}

// Collector is a gathering WriteStream that stores every accepted item in
// memory. With a positive capacity it behaves as a bounded queue and
// implements the QueuedStream capability; with capacity 0 it is unbounded.
//
// Collector is safe for concurrent use.
type Collector[T any] struct {
	mu        sync.Mutex
	items     []T
	maxLen    int // 0 means unbounded
	completed bool
	failed    bool
	err       error
}

// NewCollector creates an unbounded Collector.
func NewCollector[T any]() *Collector[T] {
	return &Collector[T]{}
}

// NewCollectorWithCapacity creates a Collector that rejects writes beyond
// capacity with Full. capacity must be positive.
func NewCollectorWithCapacity[T any](capacity int) *Collector[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Collector[T]{maxLen: capacity}
}

// Write implements WriteStream.Write.
func (c *Collector[T]) Write(ctx context.Context, item T) WriteResult {
	return c.WriteBatch(ctx, []T{item})
}

// WriteBatch implements WriteStream.WriteBatch. The batch is accepted in
// full or not at all.
func (c *Collector[T]) WriteBatch(ctx context.Context, items []T) WriteResult {
	select {
	case <-ctx.Done():
		return WriteFailed(ctx.Err())
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failed {
		return WriteFailed(c.err)
	}
	if c.completed {
		return WriteFailed(aserrors.ErrFinished)
	}
	if c.maxLen > 0 && len(c.items)+len(items) > c.maxLen {
		return WriteFull()
	}

	c.items = append(c.items, items...)
	return WriteOK()
}

// Complete implements WriteStream.Complete. Stored items remain readable
// through Items after completion.
func (c *Collector[T]) Complete(ctx context.Context) CompleteResult {
	select {
	case <-ctx.Done():
		return CompleteFailed(ctx.Err())
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failed {
		return CompleteFailed(c.err)
	}
	c.completed = true
	return CompleteOK()
}

// CompleteWith implements WriteStream.CompleteWith.
func (c *Collector[T]) CompleteWith(ctx context.Context, item T) WriteResult {
	return c.CompleteWithBatch(ctx, []T{item})
}

// CompleteWithBatch implements WriteStream.CompleteWithBatch. Written is
// returned only once both the write and the finish transition succeeded.
func (c *Collector[T]) CompleteWithBatch(ctx context.Context, items []T) WriteResult {
	res := c.WriteBatch(ctx, items)
	if !res.IsWritten() {
		return res
	}
	if cres := c.Complete(ctx); cres.IsError() {
		return WriteFailed(cres.Err)
	}
	return WriteOK()
}

// IsFinished implements Status.IsFinished.
func (c *Collector[T]) IsFinished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed || c.failed
}

// IsFailed implements Status.IsFailed.
func (c *Collector[T]) IsFailed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

// Err implements Status.Err.
func (c *Collector[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// CanWrite implements WriteStream.CanWrite.
func (c *Collector[T]) CanWrite() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.completed || c.failed {
		return false
	}
	return c.maxLen == 0 || len(c.items) < c.maxLen
}

// Fail transitions the collector to the failed terminal state. Intended for
// tests and for owners embedding a collector behind a transport.
func (c *Collector[T]) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.completed || c.failed {
		return
	}
	c.failed = true
	c.completed = true
	c.err = err
}

// Items returns a snapshot of all accepted items in write order.
func (c *Collector[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Drain removes and returns up to n items from the front of the collector.
// It models a downstream consumer making room in a bounded sink.
func (c *Collector[T]) Drain(n int) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > len(c.items) {
		n = len(c.items)
	}
	if n < 1 {
		return nil
	}
	out := make([]T, n)
	copy(out, c.items[:n])
	c.items = append(c.items[:0], c.items[n:]...)
	return out
}

// QueueLen implements QueuedStream.QueueLen.
func (c *Collector[T]) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// MaxQueueLen implements QueuedStream.MaxQueueLen. Unbounded collectors
// report math.MaxInt: any batch fits, so callers sizing writes against
// the capacity are never throttled.
func (c *Collector[T]) MaxQueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxLen > 0 {
		return c.maxLen
	}
	return math.MaxInt
}

// QueueEmpty implements QueuedStream.QueueEmpty.
func (c *Collector[T]) QueueEmpty() bool {
	return c.QueueLen() == 0
}

// QueueFull implements QueuedStream.QueueFull.
func (c *Collector[T]) QueueFull() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxLen > 0 && len(c.items) >= c.maxLen
}
