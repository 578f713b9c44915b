package redisqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	asctx "github.com/termermc/asyncstream/pkg/common/context"
	aserrors "github.com/termermc/asyncstream/pkg/common/errors"
	"github.com/termermc/asyncstream/pkg/common/validation"
	"github.com/termermc/asyncstream/pkg/streaming/stream"
)

// Queue is a stream endpoint backed by a Redis list, letting producers and
// consumers in different processes share one bounded queue through the
// stream contract.
//
// The list at Config.Key holds the items; a companion key marks the
// completed flag. Both sides of each operation run as one Lua script, so
// capacity checks, batch pushes, and the pop-plus-completed read are
// atomic even with many writers and readers racing on the same key.
//
// Reads poll: an empty, uncompleted queue is re-checked every
// PollInterval until data arrives, the flag appears, or ctx is canceled.
// Transport errors fail the endpoint locally with the cause; the Redis
// state is left untouched for other participants.
type Queue struct {
	config       Config
	listKey      string
	completedKey string

	pushScript *redis.Script
	popScript  *redis.Script

	// maxLen is the local capacity bound passed to the push script per
	// call; lastLen caches the list length most recently observed by any
	// script.
	maxLen  atomic.Int64
	lastLen atomic.Int64

	// completed is set when this endpoint observes or performs the
	// completion; finished is set once a completed queue has also been
	// seen empty.
	mu        sync.Mutex
	completed bool
	finished  bool
	failed    bool
	err       error
}

// Config holds configuration for a Redis-backed queue.
type Config struct {
	// Redis is the client used for all operations.
	Redis redis.UniversalClient

	// Key is the Redis key of the list. The completed flag lives at
	// Key + ":completed".
	Key string

	// Capacity is the maximum queue length enforced by this endpoint.
	// Must be positive. Default: 1000.
	Capacity int

	// PollInterval is how often an empty queue is re-checked by a
	// blocked read. Default: 50ms.
	PollInterval time.Duration

	// RedisTimeout bounds each individual Redis operation.
	// Default: 500ms.
	RedisTimeout time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:     1000,
		PollInterval: 50 * time.Millisecond,
		RedisTimeout: 500 * time.Millisecond,
	}
}

// TransportError wraps a Redis operation failure.
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return "redis error in " + e.Operation + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// New creates a Queue over the given Redis key.
func New(config Config) (*Queue, error) {
	if err := validation.ValidateNotNil("redisqueue", "redis", config.Redis); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotEmpty("redisqueue", "key", config.Key); err != nil {
		return nil, err
	}
	if config.Capacity == 0 {
		config.Capacity = DefaultConfig().Capacity
	}
	if err := validation.ValidatePositive("redisqueue", "capacity", config.Capacity); err != nil {
		return nil, err
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	if config.RedisTimeout <= 0 {
		config.RedisTimeout = DefaultConfig().RedisTimeout
	}

	q := &Queue{
		config:       config,
		listKey:      config.Key,
		completedKey: config.Key + ":completed",
		pushScript:   redis.NewScript(luaPush),
		popScript:    redis.NewScript(luaPop),
	}
	q.maxLen.Store(int64(config.Capacity))
	return q, nil
}

// Write implements stream.WriteStream.Write.
func (q *Queue) Write(ctx context.Context, item string) stream.WriteResult {
	return q.WriteBatch(ctx, []string{item})
}

// WriteBatch implements stream.WriteStream.WriteBatch. The whole batch is
// pushed atomically or rejected with Full; a concurrent writer can never
// observe a partial batch.
func (q *Queue) WriteBatch(ctx context.Context, items []string) stream.WriteResult {
	if err := q.writeErr(); err != nil {
		return stream.WriteFailed(err)
	}
	if len(items) == 0 {
		return stream.WriteOK()
	}

	opCtx, cancel := context.WithTimeout(ctx, q.config.RedisTimeout)
	defer cancel()

	argv := make([]interface{}, 0, len(items)+1)
	argv = append(argv, q.maxLen.Load())
	for _, item := range items {
		argv = append(argv, item)
	}

	result, err := q.pushScript.Run(opCtx, q.config.Redis,
		[]string{q.listKey, q.completedKey}, argv...).Result()
	if err != nil {
		terr := q.transportErr("push", opCtx, ctx, err)
		q.fail(terr)
		return stream.WriteFailed(terr)
	}

	code, length, _, perr := parseScriptReply(result)
	if perr != nil {
		q.fail(perr)
		return stream.WriteFailed(perr)
	}
	q.lastLen.Store(length)

	switch code {
	case pushAccepted:
		return stream.WriteOK()
	case pushFull:
		return stream.WriteFull()
	default:
		// Completed flag present; the write side is locked everywhere.
		q.mu.Lock()
		q.completed = true
		q.mu.Unlock()
		return stream.WriteFailed(aserrors.ErrFinished)
	}
}

// Read implements stream.ReadStream.Read.
func (q *Queue) Read(ctx context.Context) stream.ReadResult[string] {
	res := q.ReadN(ctx, 1)
	if !res.IsData() {
		return stream.ReadResult[string]{Kind: res.Kind, Err: res.Err}
	}
	return stream.Data(res.Value[0])
}

// ReadN implements stream.ReadStream.ReadN. An empty, uncompleted queue is
// polled every PollInterval until items arrive or ctx is canceled.
func (q *Queue) ReadN(ctx context.Context, n int) stream.ReadResult[[]string] {
	if err := q.terminalErr(); err != nil {
		if q.IsFailed() {
			return stream.ReadFailed[[]string](err)
		}
		return stream.Finished[[]string]()
	}
	if n < 1 {
		return stream.Data([]string{})
	}

	for {
		items, completed, err := q.pop(ctx, n)
		if err != nil {
			q.fail(err)
			return stream.ReadFailed[[]string](err)
		}
		if len(items) > 0 {
			return stream.Data(items)
		}
		if completed {
			q.mu.Lock()
			q.completed = true
			q.finished = true
			q.mu.Unlock()
			return stream.Finished[[]string]()
		}
		if serr := asctx.Sleep(ctx, q.config.PollInterval); serr != nil {
			return stream.ReadFailed[[]string](serr)
		}
	}
}

// ReadAll implements stream.ReadStream.ReadAll, polling until the
// completed flag appears. The caller accepts unbounded memory use.
func (q *Queue) ReadAll(ctx context.Context) stream.ReadResult[[]string] {
	var all []string
	for {
		res := q.ReadN(ctx, q.MaxQueueLen())
		switch {
		case res.IsData():
			all = append(all, res.Value...)
		case res.IsFinished():
			if len(all) == 0 {
				return stream.Finished[[]string]()
			}
			return stream.Data(all)
		default:
			return res
		}
	}
}

// Complete implements stream.WriteStream.Complete by setting the
// completed flag. Queued items stay readable; every participant's write
// side is locked from this point on, and this endpoint reports finished
// once the queue is also empty.
func (q *Queue) Complete(ctx context.Context) stream.CompleteResult {
	q.mu.Lock()
	if q.failed {
		err := q.err
		q.mu.Unlock()
		return stream.CompleteFailed(err)
	}
	if q.completed {
		q.mu.Unlock()
		return stream.CompleteOK()
	}
	q.mu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, q.config.RedisTimeout)
	defer cancel()

	if err := q.config.Redis.Set(opCtx, q.completedKey, "1", 0).Err(); err != nil {
		// The flag may or may not have been set on the server.
		terr := q.transportErr("complete", opCtx, ctx, err)
		return stream.CompleteFailed(fmt.Errorf("%w: %w", aserrors.ErrIndeterminate, terr))
	}

	q.mu.Lock()
	q.completed = true
	q.mu.Unlock()
	return stream.CompleteOK()
}

// CompleteWith implements stream.WriteStream.CompleteWith.
func (q *Queue) CompleteWith(ctx context.Context, item string) stream.WriteResult {
	return q.CompleteWithBatch(ctx, []string{item})
}

// CompleteWithBatch implements stream.WriteStream.CompleteWithBatch.
func (q *Queue) CompleteWithBatch(ctx context.Context, items []string) stream.WriteResult {
	res := q.WriteBatch(ctx, items)
	if !res.IsWritten() {
		return res
	}
	if cres := q.Complete(ctx); cres.IsError() {
		return stream.WriteFailed(cres.Err)
	}
	return stream.WriteOK()
}

// Reset deletes the list and the completed flag, restoring the key to an
// empty writable queue for every participant. Intended for tests and
// administrative cleanup.
func (q *Queue) Reset(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, q.config.RedisTimeout)
	defer cancel()

	if err := q.config.Redis.Del(opCtx, q.listKey, q.completedKey).Err(); err != nil {
		return &TransportError{"reset", err}
	}

	q.mu.Lock()
	q.completed = false
	q.finished = false
	q.failed = false
	q.err = nil
	q.mu.Unlock()
	q.lastLen.Store(0)
	return nil
}

// IsFinished implements stream.Status.IsFinished. It reflects the state
// most recently observed by an operation; a completed flag set by another
// process is noticed by the next read. A locally completed queue is
// finished once its last observed length is zero.
func (q *Queue) IsFinished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.finished || q.failed || (q.completed && q.lastLen.Load() == 0)
}

// IsFailed implements stream.Status.IsFailed.
func (q *Queue) IsFailed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.failed
}

// Err implements stream.Status.Err.
func (q *Queue) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// CanRead implements stream.ReadStream.CanRead based on the last observed
// queue length.
func (q *Queue) CanRead() bool {
	return !q.IsFinished() && q.lastLen.Load() > 0
}

// CanWrite implements stream.WriteStream.CanWrite based on the last
// observed queue length. Completion locks the write side even while
// queued items remain readable.
func (q *Queue) CanWrite() bool {
	return q.writeErr() == nil && q.lastLen.Load() < q.maxLen.Load()
}

// QueueLen implements stream.QueuedStream.QueueLen. It serves the length
// most recently observed by a script rather than issuing a round trip.
func (q *Queue) QueueLen() int {
	return int(q.lastLen.Load())
}

// MaxQueueLen implements stream.QueuedStream.MaxQueueLen.
func (q *Queue) MaxQueueLen() int {
	return int(q.maxLen.Load())
}

// QueueEmpty implements stream.QueuedStream.QueueEmpty.
func (q *Queue) QueueEmpty() bool {
	return q.QueueLen() == 0
}

// QueueFull implements stream.QueuedStream.QueueFull.
func (q *Queue) QueueFull() bool {
	return q.lastLen.Load() >= q.maxLen.Load()
}

// SetMaxQueueLen implements stream.MutableQueuedStream.SetMaxQueueLen.
// The bound is local to this endpoint and applies to its subsequent
// writes; other participants keep their own bounds.
func (q *Queue) SetMaxQueueLen(n int) error {
	if err := validation.ValidatePositive("redisqueue", "maxQueueLen", n); err != nil {
		return err
	}
	q.maxLen.Store(int64(n))
	return nil
}

// pop runs the pop script and parses its reply.
func (q *Queue) pop(ctx context.Context, n int) ([]string, bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, q.config.RedisTimeout)
	defer cancel()

	result, err := q.popScript.Run(opCtx, q.config.Redis,
		[]string{q.listKey, q.completedKey}, n).Result()
	if err != nil {
		return nil, false, q.transportErr("pop", opCtx, ctx, err)
	}

	code, length, items, perr := parseScriptReply(result)
	if perr != nil {
		return nil, false, perr
	}
	q.lastLen.Store(length)
	return items, code == 1, nil
}

// terminalErr returns the error to report for reads on a terminal
// endpoint, or nil if the endpoint is still live. A completed queue with
// items still observed is not terminal for readers.
func (q *Queue) terminalErr() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failed {
		return q.err
	}
	if q.finished {
		return aserrors.ErrFinished
	}
	return nil
}

// writeErr is terminalErr for the write side: completion locks writes
// immediately, whether or not queued items remain.
func (q *Queue) writeErr() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failed {
		return q.err
	}
	if q.finished || q.completed {
		return aserrors.ErrFinished
	}
	return nil
}

// transportErr wraps a Redis operation failure. An expired per-operation
// deadline while the caller's context is still live is a transport
// timeout, not a cancellation, and is marked retryable via ErrTimeout.
func (q *Queue) transportErr(op string, opCtx, ctx context.Context, err error) error {
	if asctx.IsTimedOut(opCtx) && !asctx.IsCanceled(ctx) {
		err = fmt.Errorf("%w after %v: %v", aserrors.ErrTimeout, q.config.RedisTimeout, err)
	}
	return &TransportError{op, err}
}

// fail records a local terminal failure. Context cancellation is the
// caller's signal, not an endpoint fault, and is never recorded.
func (q *Queue) fail(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failed {
		return
	}
	q.failed = true
	q.err = err
}

// Push script reply codes.
const (
	pushFull     = 0
	pushAccepted = 1
	pushLocked   = -1
)

// parseScriptReply decodes the {code, len, items...} array both scripts
// return.
func parseScriptReply(result interface{}) (code int64, length int64, items []string, err error) {
	reply, ok := result.([]interface{})
	if !ok || len(reply) < 2 {
		return 0, 0, nil, fmt.Errorf("unexpected script reply %T", result)
	}

	code, ok = reply[0].(int64)
	if !ok {
		return 0, 0, nil, fmt.Errorf("unexpected script reply code %T", reply[0])
	}
	length, ok = reply[1].(int64)
	if !ok {
		return 0, 0, nil, fmt.Errorf("unexpected script reply length %T", reply[1])
	}

	if len(reply) > 2 {
		raw, ok := reply[2].([]interface{})
		if !ok {
			return 0, 0, nil, fmt.Errorf("unexpected script reply items %T", reply[2])
		}
		items = make([]string, 0, len(raw))
		for _, it := range raw {
			s, ok := it.(string)
			if !ok {
				return 0, 0, nil, fmt.Errorf("unexpected script reply item %T", it)
			}
			items = append(items, s)
		}
	}
	return code, length, items, nil
}

// Lua scripts for atomic operations.

const luaPush = `
-- KEYS[1]: list key
-- KEYS[2]: completed flag key
-- ARGV[1]: capacity
-- ARGV[2..]: items

if redis.call('EXISTS', KEYS[2]) == 1 then
    return {-1, redis.call('LLEN', KEYS[1])}
end

local len = redis.call('LLEN', KEYS[1])
local count = #ARGV - 1
local capacity = tonumber(ARGV[1])

if len + count > capacity then
    return {0, len}
end

for i = 2, #ARGV do
    redis.call('RPUSH', KEYS[1], ARGV[i])
end

return {1, len + count}
`

const luaPop = `
-- KEYS[1]: list key
-- KEYS[2]: completed flag key
-- ARGV[1]: max items
-- Returns {completed, remaining_len, items}

local items = {}
for i = 1, tonumber(ARGV[1]) do
    local item = redis.call('LPOP', KEYS[1])
    if item == false then
        break
    end
    items[#items + 1] = item
end

local completed = redis.call('EXISTS', KEYS[2])
local len = redis.call('LLEN', KEYS[1])

return {completed, len, items}
`

// Interface checks.
var (
	_ stream.ReadStream[string]  = (*Queue)(nil)
	_ stream.WriteStream[string] = (*Queue)(nil)
	_ stream.MutableQueuedStream = (*Queue)(nil)
)
