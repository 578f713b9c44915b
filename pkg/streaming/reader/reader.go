package reader

import (
	"context"
	"errors"
	"io"
	"sync"

	aserrors "github.com/termermc/asyncstream/pkg/common/errors"
	"github.com/termermc/asyncstream/pkg/common/validation"
	"github.com/termermc/asyncstream/pkg/streaming/stream"
)

// Reader is a read-side stream endpoint over an io.Reader. Each item is a
// chunk of at most ChunkSize bytes; io.EOF maps to the Finished variant
// and any other underlying error fails the stream.
//
// Reader assumes a single reader goroutine per the stream contract.
type Reader struct {
	underlying io.Reader
	config     Config

	mu       sync.Mutex
	finished bool
	failed   bool
	err      error
}

// Config holds configuration for a Reader.
type Config struct {
	// ChunkSize is the maximum number of bytes per chunk. Must be
	// positive. Default: 32KB.
	ChunkSize int

	// AllowReadAll permits ReadAll to buffer the entire source in memory.
	// The source size is unknown in general, so draining is refused
	// unless the caller opts in. Default: false.
	AllowReadAll bool
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize: 32 * 1024,
	}
}

// New creates a Reader over r with default configuration.
func New(r io.Reader) *Reader {
	rd, _ := NewWithConfig(r, DefaultConfig())
	return rd
}

// NewWithConfig creates a Reader over r with the specified configuration.
func NewWithConfig(r io.Reader, config Config) (*Reader, error) {
	if err := validation.ValidateNotNil("reader", "underlying", r); err != nil {
		return nil, err
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultConfig().ChunkSize
	}

	return &Reader{
		underlying: r,
		config:     config,
	}, nil
}

// Read implements stream.ReadStream.Read. It produces one chunk of at most
// ChunkSize bytes, blocking on the underlying reader as needed.
func (r *Reader) Read(ctx context.Context) stream.ReadResult[[]byte] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failed {
		return stream.ReadFailed[[]byte](r.err)
	}
	if r.finished {
		return stream.Finished[[]byte]()
	}
	if err := ctx.Err(); err != nil {
		return stream.ReadFailed[[]byte](err)
	}

	chunk := make([]byte, r.config.ChunkSize)
	n, err := r.underlying.Read(chunk)
	if n > 0 {
		// Data before error per the io.Reader contract; the terminal
		// state surfaces on the next call.
		if err != nil {
			r.recordLocked(err)
		}
		return stream.Data(chunk[:n])
	}
	if err == nil {
		// A (0, nil) read means nothing was available; report the empty
		// chunk rather than spinning.
		return stream.Data([]byte{})
	}

	r.recordLocked(err)
	if r.failed {
		return stream.ReadFailed[[]byte](r.err)
	}
	return stream.Finished[[]byte]()
}

// ReadN implements stream.ReadStream.ReadN. It produces at most n chunks,
// each of at most ChunkSize bytes, reading eagerly only while the first
// chunk is outstanding.
func (r *Reader) ReadN(ctx context.Context, n int) stream.ReadResult[[][]byte] {
	if n < 1 {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.failed {
			return stream.ReadFailed[[][]byte](r.err)
		}
		if r.finished {
			return stream.Finished[[][]byte]()
		}
		return stream.Data([][]byte{})
	}

	var chunks [][]byte
	for len(chunks) < n {
		res := r.Read(ctx)
		switch {
		case res.IsData():
			chunks = append(chunks, res.Value)
			// A short underlying read means the source is not keeping
			// up; hand back what we have instead of blocking for more.
			if len(res.Value) < r.config.ChunkSize {
				return stream.Data(chunks)
			}
		case res.IsFinished():
			if len(chunks) == 0 {
				return stream.Finished[[][]byte]()
			}
			return stream.Data(chunks)
		default:
			if len(chunks) == 0 {
				return stream.ReadFailed[[][]byte](res.Err)
			}
			return stream.Data(chunks)
		}
	}
	return stream.Data(chunks)
}

// ReadAll implements stream.ReadStream.ReadAll. The underlying source size
// is unknown, so draining is refused with ErrReadAllUnsupported unless the
// Reader was configured with AllowReadAll.
func (r *Reader) ReadAll(ctx context.Context) stream.ReadResult[[][]byte] {
	if !r.config.AllowReadAll {
		return stream.ReadFailed[[][]byte](aserrors.ErrReadAllUnsupported)
	}

	var all [][]byte
	for {
		res := r.Read(ctx)
		switch {
		case res.IsData():
			if len(res.Value) > 0 {
				all = append(all, res.Value)
			}
		case res.IsFinished():
			if len(all) == 0 {
				return stream.Finished[[][]byte]()
			}
			return stream.Data(all)
		default:
			return stream.ReadFailed[[][]byte](res.Err)
		}
	}
}

// IsFinished implements stream.Status.IsFinished.
func (r *Reader) IsFinished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// IsFailed implements stream.Status.IsFailed.
func (r *Reader) IsFailed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// Err implements stream.Status.Err.
func (r *Reader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// CanRead implements stream.ReadStream.CanRead. Whether the underlying
// reader would block is unknowable in general, so this reports only the
// terminal state.
func (r *Reader) CanRead() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.finished
}

// recordLocked maps an underlying read error to the terminal state
// (must hold mu). io.EOF is a clean finish; anything else is a failure.
func (r *Reader) recordLocked(err error) {
	r.finished = true
	if !errors.Is(err, io.EOF) {
		r.failed = true
		r.err = err
	}
}

// Interface check.
var _ stream.ReadStream[[]byte] = (*Reader)(nil)
