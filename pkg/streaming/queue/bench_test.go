package queue

import (
	"context"
	"strconv"
	"testing"
)

// BenchmarkWrite measures single-item write throughput with a draining
// consumer.
func BenchmarkWrite(b *testing.B) {
	capacities := []int{10, 100, 1000}

	for _, capacity := range capacities {
		b.Run("cap"+strconv.Itoa(capacity), func(b *testing.B) {
			q := New[int](capacity)
			ctx := context.Background()

			done := make(chan struct{})
			go func() {
				defer close(done)
				for {
					res := q.ReadN(ctx, 64)
					if !res.IsData() {
						return
					}
				}
			}()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				for q.Write(ctx, i).IsFull() {
				}
			}
			b.StopTimer()

			q.Complete(ctx)
			<-done
		})
	}
}

// BenchmarkWriteBatch measures batched write throughput.
func BenchmarkWriteBatch(b *testing.B) {
	batchSizes := []int{8, 64}

	for _, size := range batchSizes {
		b.Run("batch"+strconv.Itoa(size), func(b *testing.B) {
			q := New[int](size * 16)
			ctx := context.Background()
			batch := make([]int, size)

			done := make(chan struct{})
			go func() {
				defer close(done)
				for {
					res := q.ReadN(ctx, size*4)
					if !res.IsData() {
						return
					}
				}
			}()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				for q.WriteBatch(ctx, batch).IsFull() {
				}
			}
			b.StopTimer()

			q.Complete(ctx)
			<-done
		})
	}
}
