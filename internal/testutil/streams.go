package testutil

import (
	"context"
	"sync"

	"github.com/termermc/asyncstream/pkg/streaming/stream"
)

// FlakySink wraps a WriteStream and rejects every nth write attempt with
// Full, simulating a sink under intermittent backpressure. The wrapped
// sink never sees the rejected attempts, so ordering through the inner
// sink is preserved.
type FlakySink[T any] struct {
	Inner stream.WriteStream[T]

	// FullEvery rejects every FullEvery-th write attempt. 0 disables.
	FullEvery int

	mu       sync.Mutex
	attempts int
}

// Write implements WriteStream.Write.
func (f *FlakySink[T]) Write(ctx context.Context, item T) stream.WriteResult {
	return f.WriteBatch(ctx, []T{item})
}

// WriteBatch implements WriteStream.WriteBatch.
func (f *FlakySink[T]) WriteBatch(ctx context.Context, items []T) stream.WriteResult {
	f.mu.Lock()
	f.attempts++
	reject := f.FullEvery > 0 && f.attempts%f.FullEvery == 0
	f.mu.Unlock()

	if reject {
		return stream.WriteFull()
	}
	return f.Inner.WriteBatch(ctx, items)
}

// Complete implements WriteStream.Complete.
func (f *FlakySink[T]) Complete(ctx context.Context) stream.CompleteResult {
	return f.Inner.Complete(ctx)
}

// CompleteWith implements WriteStream.CompleteWith.
func (f *FlakySink[T]) CompleteWith(ctx context.Context, item T) stream.WriteResult {
	if res := f.Write(ctx, item); !res.IsWritten() {
		return res
	}
	if cres := f.Complete(ctx); cres.IsError() {
		return stream.WriteFailed(cres.Err)
	}
	return stream.WriteOK()
}

// CompleteWithBatch implements WriteStream.CompleteWithBatch.
func (f *FlakySink[T]) CompleteWithBatch(ctx context.Context, items []T) stream.WriteResult {
	if res := f.WriteBatch(ctx, items); !res.IsWritten() {
		return res
	}
	if cres := f.Complete(ctx); cres.IsError() {
		return stream.WriteFailed(cres.Err)
	}
	return stream.WriteOK()
}

// IsFinished implements Status.IsFinished.
func (f *FlakySink[T]) IsFinished() bool { return f.Inner.IsFinished() }

// IsFailed implements Status.IsFailed.
func (f *FlakySink[T]) IsFailed() bool { return f.Inner.IsFailed() }

// Err implements Status.Err.
func (f *FlakySink[T]) Err() error { return f.Inner.Err() }

// CanWrite implements WriteStream.CanWrite.
func (f *FlakySink[T]) CanWrite() bool { return f.Inner.CanWrite() }

// Attempts returns the total number of write attempts seen.
func (f *FlakySink[T]) Attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

// FailingReader yields the given items and then reports the given error,
// simulating a source whose transport faults mid-stream.
type FailingReader[T any] struct {
	mu     sync.Mutex
	items  []T
	pos    int
	cause  error
	failed bool
}

// NewFailingReader creates a FailingReader that fails with cause after
// producing all items.
func NewFailingReader[T any](items []T, cause error) *FailingReader[T] {
	return &FailingReader[T]{items: items, cause: cause}
}

// Read implements ReadStream.Read.
func (r *FailingReader[T]) Read(ctx context.Context) stream.ReadResult[T] {
	res := r.ReadN(ctx, 1)
	if !res.IsData() {
		return stream.ReadResult[T]{Kind: res.Kind, Err: res.Err}
	}
	return stream.Data(res.Value[0])
}

// ReadN implements ReadStream.ReadN.
func (r *FailingReader[T]) ReadN(_ context.Context, n int) stream.ReadResult[[]T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failed {
		return stream.ReadFailed[[]T](r.cause)
	}
	if n < 1 {
		return stream.Data([]T{})
	}
	if r.pos >= len(r.items) {
		r.failed = true
		return stream.ReadFailed[[]T](r.cause)
	}

	end := r.pos + n
	if end > len(r.items) {
		end = len(r.items)
	}
	batch := make([]T, end-r.pos)
	copy(batch, r.items[r.pos:end])
	r.pos = end
	return stream.Data(batch)
}

// ReadAll implements ReadStream.ReadAll; it always ends in failure.
func (r *FailingReader[T]) ReadAll(ctx context.Context) stream.ReadResult[[]T] {
	var all []T
	for {
		res := r.ReadN(ctx, len(r.items)+1)
		if !res.IsData() {
			return stream.ReadResult[[]T]{Kind: res.Kind, Err: res.Err}
		}
		all = append(all, res.Value...)
	}
}

// IsFinished implements Status.IsFinished.
func (r *FailingReader[T]) IsFinished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// IsFailed implements Status.IsFailed.
func (r *FailingReader[T]) IsFailed() bool {
	return r.IsFinished()
}

// Err implements Status.Err.
func (r *FailingReader[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed {
		return r.cause
	}
	return nil
}

// CanRead implements ReadStream.CanRead.
func (r *FailingReader[T]) CanRead() bool {
	return !r.IsFinished()
}

// FailingSink rejects every write with the given error and transitions to
// the failed state on first use, simulating a faulted transport sink.
type FailingSink[T any] struct {
	mu     sync.Mutex
	cause  error
	failed bool
}

// NewFailingSink creates a FailingSink failing with cause.
func NewFailingSink[T any](cause error) *FailingSink[T] {
	return &FailingSink[T]{cause: cause}
}

func (s *FailingSink[T]) fail() stream.WriteResult {
	s.mu.Lock()
	s.failed = true
	s.mu.Unlock()
	return stream.WriteFailed(s.cause)
}

// Write implements WriteStream.Write.
func (s *FailingSink[T]) Write(context.Context, T) stream.WriteResult { return s.fail() }

// WriteBatch implements WriteStream.WriteBatch.
func (s *FailingSink[T]) WriteBatch(context.Context, []T) stream.WriteResult { return s.fail() }

// Complete implements WriteStream.Complete.
func (s *FailingSink[T]) Complete(context.Context) stream.CompleteResult {
	s.mu.Lock()
	s.failed = true
	s.mu.Unlock()
	return stream.CompleteFailed(s.cause)
}

// CompleteWith implements WriteStream.CompleteWith.
func (s *FailingSink[T]) CompleteWith(context.Context, T) stream.WriteResult { return s.fail() }

// CompleteWithBatch implements WriteStream.CompleteWithBatch.
func (s *FailingSink[T]) CompleteWithBatch(context.Context, []T) stream.WriteResult {
	return s.fail()
}

// IsFinished implements Status.IsFinished.
func (s *FailingSink[T]) IsFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// IsFailed implements Status.IsFailed.
func (s *FailingSink[T]) IsFailed() bool { return s.IsFinished() }

// Err implements Status.Err.
func (s *FailingSink[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return s.cause
	}
	return nil
}

// CanWrite implements WriteStream.CanWrite.
func (s *FailingSink[T]) CanWrite() bool { return !s.IsFinished() }

// Interface checks for the test doubles.
var (
	_ stream.WriteStream[int] = (*FlakySink[int])(nil)
	_ stream.ReadStream[int]  = (*FailingReader[int])(nil)
	_ stream.WriteStream[int] = (*FailingSink[int])(nil)
)
