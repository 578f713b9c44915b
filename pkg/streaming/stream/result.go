package stream

// ReadKind discriminates the variants of a ReadResult.
type ReadKind int

const (
	// ReadData indicates that the read produced one or more items.
	ReadData ReadKind = iota

	// ReadFinished indicates that no more data will ever be produced.
	ReadFinished

	// ReadError indicates that the read failed. The stream is failed unless
	// the error originated from the caller's context.
	ReadError
)

// ReadResult is the outcome of a read operation. Failure is reported as a
// value, never as a panic, so every call site can inspect the outcome.
type ReadResult[T any] struct {
	Kind  ReadKind
	Value T
	Err   error
}

// Data creates a successful ReadResult carrying a value.
func Data[T any](value T) ReadResult[T] {
	return ReadResult[T]{Kind: ReadData, Value: value}
}

// Finished creates a ReadResult indicating end of stream.
func Finished[T any]() ReadResult[T] {
	return ReadResult[T]{Kind: ReadFinished}
}

// ReadFailed creates a ReadResult carrying a failure cause.
func ReadFailed[T any](err error) ReadResult[T] {
	return ReadResult[T]{Kind: ReadError, Err: err}
}

// IsData returns true if the result carries data.
func (r ReadResult[T]) IsData() bool { return r.Kind == ReadData }

// IsFinished returns true if the result indicates end of stream.
func (r ReadResult[T]) IsFinished() bool { return r.Kind == ReadFinished }

// IsError returns true if the result carries a failure.
func (r ReadResult[T]) IsError() bool { return r.Kind == ReadError }

// WriteKind discriminates the variants of a WriteResult.
type WriteKind int

const (
	// Written indicates that the item or batch was accepted in full.
	Written WriteKind = iota

	// Full indicates that queue capacity was insufficient. Nothing was
	// accepted; this is a recoverable backpressure signal, not a fault.
	Full

	// WriteError indicates a lower-level failure.
	WriteError
)

// WriteResult is the outcome of a write operation.
type WriteResult struct {
	Kind WriteKind
	Err  error
}

// WriteOK creates a WriteResult indicating full acceptance.
func WriteOK() WriteResult {
	return WriteResult{Kind: Written}
}

// WriteFull creates a WriteResult indicating insufficient capacity.
func WriteFull() WriteResult {
	return WriteResult{Kind: Full}
}

// WriteFailed creates a WriteResult carrying a failure cause.
func WriteFailed(err error) WriteResult {
	return WriteResult{Kind: WriteError, Err: err}
}

// IsWritten returns true if the write was accepted.
func (r WriteResult) IsWritten() bool { return r.Kind == Written }

// IsFull returns true if the write was rejected for capacity.
func (r WriteResult) IsFull() bool { return r.Kind == Full }

// IsError returns true if the write failed.
func (r WriteResult) IsError() bool { return r.Kind == WriteError }

// CompleteKind discriminates the variants of a CompleteResult.
type CompleteKind int

const (
	// Completed indicates a clean shutdown.
	Completed CompleteKind = iota

	// CompleteError indicates that the shutdown outcome is indeterminate;
	// the stream's finished flag must be polled to learn the true state.
	CompleteError
)

// CompleteResult is the outcome of a completion operation.
type CompleteResult struct {
	Kind CompleteKind
	Err  error
}

// CompleteOK creates a CompleteResult indicating clean shutdown.
func CompleteOK() CompleteResult {
	return CompleteResult{Kind: Completed}
}

// CompleteFailed creates a CompleteResult carrying a failure cause.
func CompleteFailed(err error) CompleteResult {
	return CompleteResult{Kind: CompleteError, Err: err}
}

// IsCompleted returns true if the shutdown was clean.
func (r CompleteResult) IsCompleted() bool { return r.Kind == Completed }

// IsError returns true if the shutdown outcome is indeterminate.
func (r CompleteResult) IsError() bool { return r.Kind == CompleteError }
