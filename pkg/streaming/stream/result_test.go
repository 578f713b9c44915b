package stream_test

import (
	"errors"
	"testing"

	"github.com/termermc/asyncstream/internal/testutil"
	. "github.com/termermc/asyncstream/pkg/streaming/stream"
)

func TestReadResultVariants(t *testing.T) {
	data := Data(42)
	testutil.AssertEqual(t, data.Kind, ReadData)
	testutil.AssertEqual(t, data.Value, 42)
	testutil.AssertEqual(t, data.IsData(), true)
	testutil.AssertEqual(t, data.IsFinished(), false)
	testutil.AssertEqual(t, data.IsError(), false)

	fin := Finished[int]()
	testutil.AssertEqual(t, fin.Kind, ReadFinished)
	testutil.AssertEqual(t, fin.IsFinished(), true)

	cause := errors.New("boom")
	failed := ReadFailed[int](cause)
	testutil.AssertEqual(t, failed.Kind, ReadError)
	testutil.AssertEqual(t, failed.IsError(), true)
	testutil.AssertEqual(t, failed.Err, cause)
}

func TestWriteResultVariants(t *testing.T) {
	ok := WriteOK()
	testutil.AssertEqual(t, ok.Kind, Written)
	testutil.AssertEqual(t, ok.IsWritten(), true)
	testutil.AssertEqual(t, ok.IsFull(), false)

	full := WriteFull()
	testutil.AssertEqual(t, full.Kind, Full)
	testutil.AssertEqual(t, full.IsFull(), true)
	if full.Err != nil {
		t.Error("Full is a backpressure signal, not a fault; Err should be nil")
	}

	cause := errors.New("transport fault")
	failed := WriteFailed(cause)
	testutil.AssertEqual(t, failed.Kind, WriteError)
	testutil.AssertEqual(t, failed.IsError(), true)
	testutil.AssertEqual(t, failed.Err, cause)
}

func TestCompleteResultVariants(t *testing.T) {
	ok := CompleteOK()
	testutil.AssertEqual(t, ok.Kind, Completed)
	testutil.AssertEqual(t, ok.IsCompleted(), true)

	cause := errors.New("flush failed")
	failed := CompleteFailed(cause)
	testutil.AssertEqual(t, failed.Kind, CompleteError)
	testutil.AssertEqual(t, failed.IsError(), true)
	testutil.AssertEqual(t, failed.Err, cause)
}
