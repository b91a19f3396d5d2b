package tensor

import (
	"time"

	"github.com/chewxy/math32"

	"github.com/23skdu/longbow-tinytensor/internal/metrics"
)

// ReducedScale is the fixed-point factor of the reduced-float code word.
// This is not IEEE-754 half precision.
const ReducedScale = 1000

// ToReduced encodes v as round(v*1000) in an unsigned 16-bit code word.
//
// Only [0, 65.535] round-trips. Negative values and magnitudes above that
// range wrap modulo 2^16 (ToReduced(-1.5) == 64036, ToReduced(70) == 4464).
// NaN, ±Inf and scaled magnitudes of 2^62 or more encode to 0.
func ToReduced(v float32) uint16 {
	r := math32.Round(v * ReducedScale)
	if math32.IsNaN(r) || math32.Abs(r) >= 1<<62 {
		return 0
	}
	return uint16(int64(r))
}

// FromReduced decodes a code word as code/1000.
func FromReduced(code uint16) float32 {
	return float32(code) / ReducedScale
}

// Reduce returns a new reduced-float array holding the decoded values of src.
func Reduce(src *Array) (*Array, error) {
	start := time.Now()
	if err := src.live("reduce"); err != nil {
		return nil, err
	}
	dst, err := newArray("reduce", src.rows, src.cols, ReducedFloat, 1.0, 0)
	if err != nil {
		return nil, err
	}
	codes := dst.buf.(reducedBuffer)
	for i := range codes {
		codes[i] = ToReduced(src.decode(i))
	}
	metrics.RecordOperation("reduce", time.Since(start))
	return dst, nil
}
