package tensor

import (
	"sync/atomic"

	"github.com/23skdu/longbow-tinytensor/internal/metrics"
)

// DefaultMaxBytes is the per-array allocation ceiling applied until SetMaxBytes is called.
const DefaultMaxBytes int64 = 1 << 30

var (
	liveBytes  atomic.Int64
	liveArrays atomic.Int64
	maxBytes   atomic.Int64
)

func init() {
	maxBytes.Store(DefaultMaxBytes)
}

// SetMaxBytes sets the largest buffer, in bytes, a single array may own.
// Non-positive values restore DefaultMaxBytes.
func SetMaxBytes(n int64) {
	if n <= 0 {
		n = DefaultMaxBytes
	}
	maxBytes.Store(n)
}

func MaxBytes() int64 {
	return maxBytes.Load()
}

// AllocatedBytes returns the bytes held by arrays that have not been released.
func AllocatedBytes() int64 {
	return liveBytes.Load()
}

// LiveArrays returns the number of arrays that have not been released.
func LiveArrays() int64 {
	return liveArrays.Load()
}

func traceAlloc(delta int64, arrays int64) {
	b := liveBytes.Add(delta)
	n := liveArrays.Add(arrays)
	metrics.RecordAllocation(b, n)
}
