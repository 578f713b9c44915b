package queue

import (
	"context"
	"fmt"
)

// Example demonstrates basic queue endpoint usage.
func Example() {
	ctx := context.Background()
	q := New[int](3)

	q.WriteBatch(ctx, []int{1, 2, 3})
	fmt.Printf("queued: %d/%d\n", q.QueueLen(), q.MaxQueueLen())

	// The queue is full: the whole batch is rejected, nothing is dropped.
	res := q.WriteBatch(ctx, []int{4})
	fmt.Println("full:", res.IsFull())

	q.Complete(ctx)

	all := q.ReadAll(ctx)
	fmt.Println("drained:", all.Value)
	fmt.Println("finished:", q.IsFinished())

	// Output:
	// queued: 3/3
	// full: true
	// drained: [1 2 3]
	// finished: true
}

// Example_backpressure demonstrates polling the queue state before writing
// to avoid Full rejections.
func Example_backpressure() {
	ctx := context.Background()
	q := New[string](2)

	write := func(s string) {
		if q.QueueFull() {
			q.Read(ctx) // consumer makes room
		}
		q.Write(ctx, s)
	}

	write("a")
	write("b")
	write("c")

	fmt.Println("rejections:", q.Stats().FullRejections)
	fmt.Println("queued:", q.QueueLen())

	// Output:
	// rejections: 0
	// queued: 2
}

// Example_mutableCapacity demonstrates runtime capacity changes.
func Example_mutableCapacity() {
	ctx := context.Background()
	q := New[int](2)

	q.WriteBatch(ctx, []int{1, 2})
	fmt.Println("full:", q.QueueFull())

	q.SetMaxQueueLen(4)
	fmt.Println("grown:", q.Write(ctx, 3).IsWritten())

	// Shrinking never rejects already-queued items.
	q.SetMaxQueueLen(1)
	fmt.Println("queued after shrink:", q.QueueLen())

	// Output:
	// full: true
	// grown: true
	// queued after shrink: 3
}
