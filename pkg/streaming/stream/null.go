package stream

import (
	"context"

	aserrors "github.com/termermc/asyncstream/pkg/common/errors"
)

// NullReadStream is a trivial always-finished source. It carries no runtime
// behavior and exists to verify that a type satisfies the read-side
// capability set and to serve as a placeholder source.
type NullReadStream[T any] struct{}

// Read always reports end of stream.
func (NullReadStream[T]) Read(context.Context) ReadResult[T] { return Finished[T]() }

// ReadN always reports end of stream.
func (NullReadStream[T]) ReadN(context.Context, int) ReadResult[[]T] { return Finished[[]T]() }

// ReadAll always reports end of stream.
func (NullReadStream[T]) ReadAll(context.Context) ReadResult[[]T] { return Finished[[]T]() }

// IsFinished is always true.
func (NullReadStream[T]) IsFinished() bool { return true }

// IsFailed is always false.
func (NullReadStream[T]) IsFailed() bool { return false }

// Err is always nil.
func (NullReadStream[T]) Err() error { return nil }

// CanRead is always false.
func (NullReadStream[T]) CanRead() bool { return false }

// NullWriteStream is a trivial sink that never accepts I/O. Writes are
// rejected with the terminal error; completion succeeds immediately.
type NullWriteStream[T any] struct{}

// Write rejects the item; the stream is already finished.
func (NullWriteStream[T]) Write(context.Context, T) WriteResult {
	return WriteFailed(aserrors.ErrFinished)
}

// WriteBatch rejects the batch; the stream is already finished.
func (NullWriteStream[T]) WriteBatch(context.Context, []T) WriteResult {
	return WriteFailed(aserrors.ErrFinished)
}

// Complete succeeds immediately; there is nothing to flush.
func (NullWriteStream[T]) Complete(context.Context) CompleteResult { return CompleteOK() }

// CompleteWith rejects the item; the stream is already finished.
func (NullWriteStream[T]) CompleteWith(context.Context, T) WriteResult {
	return WriteFailed(aserrors.ErrFinished)
}

// CompleteWithBatch rejects the batch; the stream is already finished.
func (NullWriteStream[T]) CompleteWithBatch(context.Context, []T) WriteResult {
	return WriteFailed(aserrors.ErrFinished)
}

// IsFinished is always true.
func (NullWriteStream[T]) IsFinished() bool { return true }

// IsFailed is always false.
func (NullWriteStream[T]) IsFailed() bool { return false }

// Err is always nil.
func (NullWriteStream[T]) Err() error { return nil }

// CanWrite is always false.
func (NullWriteStream[T]) CanWrite() bool { return false }

// Compile-time contract checks for the types in this package.
var (
	_ ReadStream[int]  = NullReadStream[int]{}
	_ WriteStream[int] = NullWriteStream[int]{}
	_ ReadStream[int]  = (*SliceReader[int])(nil)
	_ WriteStream[int] = (*Collector[int])(nil)
	_ QueuedStream     = (*Collector[int])(nil)
)
