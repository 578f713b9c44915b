package queue

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain enables goroutine leak detection for all tests in this package.
// This catches any reader goroutine left blocked on the queue condition.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
