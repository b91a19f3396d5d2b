package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAllocation(t *testing.T) {
	RecordAllocation(4096, 3)
	if got := testutil.ToFloat64(ArrayAllocatedBytes); got != 4096 {
		t.Errorf("expected 4096 bytes, got %v", got)
	}
	if got := testutil.ToFloat64(ArraysLive); got != 3 {
		t.Errorf("expected 3 live arrays, got %v", got)
	}

	RecordAllocation(0, 0)
	if got := testutil.ToFloat64(ArrayAllocatedBytes); got != 0 {
		t.Errorf("gauge should follow the latest value, got %v", got)
	}
}

func TestRecordArrayCreated(t *testing.T) {
	before := testutil.ToFloat64(ArraysCreated.WithLabelValues("int8"))
	RecordArrayCreated("int8")
	RecordArrayCreated("int8")
	if got := testutil.ToFloat64(ArraysCreated.WithLabelValues("int8")); got != before+2 {
		t.Errorf("expected %v, got %v", before+2, got)
	}
}

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(Operations.WithLabelValues("matmul"))
	RecordOperation("matmul", 5*time.Microsecond)
	RecordOperation("matmul", 10*time.Microsecond)
	if got := testutil.ToFloat64(Operations.WithLabelValues("matmul")); got != before+2 {
		t.Errorf("expected %v, got %v", before+2, got)
	}
	if n := testutil.CollectAndCount(OperationDuration); n == 0 {
		t.Error("expected duration histogram to have series")
	}
}

func TestRecordQuantization(t *testing.T) {
	elems := testutil.ToFloat64(QuantizedElements)
	low := testutil.ToFloat64(QuantizationClamped.WithLabelValues("low"))
	high := testutil.ToFloat64(QuantizationClamped.WithLabelValues("high"))

	RecordQuantization(8, 1, 2)
	RecordQuantization(4, 0, 0)

	if got := testutil.ToFloat64(QuantizedElements); got != elems+12 {
		t.Errorf("expected %v elements, got %v", elems+12, got)
	}
	if got := testutil.ToFloat64(QuantizationClamped.WithLabelValues("low")); got != low+1 {
		t.Errorf("expected %v low clamps, got %v", low+1, got)
	}
	if got := testutil.ToFloat64(QuantizationClamped.WithLabelValues("high")); got != high+2 {
		t.Errorf("expected %v high clamps, got %v", high+2, got)
	}
}

func TestRecordValidationError(t *testing.T) {
	before := testutil.ToFloat64(ValidationErrors.WithLabelValues("quantize", "invalid_operation"))
	RecordValidationError("quantize", "invalid_operation")
	if got := testutil.ToFloat64(ValidationErrors.WithLabelValues("quantize", "invalid_operation")); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}
}
