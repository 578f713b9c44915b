/*
Package redisqueue implements the stream contract over a Redis list,
so producers and consumers in different processes can share a bounded
queue without any direct connection between them.

Every mutation runs as a single Lua script: the push script checks the
completed flag and the remaining capacity and pushes the whole batch or
none of it, the pop script takes up to n items and reports the completed
flag and remaining length in the same round trip. Concurrent endpoints on
the same key therefore never see partial batches or miss a completion.

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	q, err := redisqueue.New(redisqueue.Config{
		Redis:    client,
		Key:      "jobs:incoming",
		Capacity: 10000,
	})
	if err != nil {
		return err
	}

	// producer process
	q.WriteBatch(ctx, []string{"job-1", "job-2"})
	q.Complete(ctx)

	// consumer process, same key
	for {
		res := q.ReadN(ctx, 100)
		if !res.IsData() {
			break
		}
		handle(res.Value)
	}

Reads poll rather than block server-side: an empty, uncompleted queue is
re-checked every PollInterval. Completion follows the same policy as the
in-memory queue: the flag locks every participant's write side at once,
queued items stay readable, and readers observe Finished after draining.

Transport failures are local. A network error fails this endpoint and is
reported by its subsequent operations, but the Redis state is untouched
and other participants continue unaffected.
*/
package redisqueue
