package tensor

import (
	"math"
	"time"

	"github.com/chewxy/math32"

	"github.com/23skdu/longbow-tinytensor/internal/logger"
	"github.com/23skdu/longbow-tinytensor/internal/metrics"
)

// QuantizeValue computes round(v/scale + zeroPoint) clamped to [-128, 127].
// Out of range values saturate; they never wrap. A NaN input maps to the
// clamped zero point. scale must be non-zero.
func QuantizeValue(v float32, scale float32, zeroPoint int) int8 {
	q, _ := quantizeValue(v, scale, zeroPoint)
	return q
}

func quantizeValue(v float32, scale float32, zeroPoint int) (int8, int) {
	q := math32.Round(v/scale + float32(zeroPoint))
	if math32.IsNaN(q) {
		q = float32(zeroPoint)
	}
	if q > math.MaxInt8 {
		return math.MaxInt8, 1
	}
	if q < math.MinInt8 {
		return math.MinInt8, -1
	}
	return int8(q), 0
}

// DequantizeValue computes (q - zeroPoint) * scale. The difference is taken in
// float64 so zero points near the int limits cannot wrap around.
func DequantizeValue(q int8, scale float32, zeroPoint int) float32 {
	return float32((float64(q) - float64(zeroPoint)) * float64(scale))
}

func checkScale(op string, scale float32) error {
	if scale == 0 {
		return opError(op, ErrInvalidOperation, "scale must be non-zero")
	}
	if math32.IsNaN(scale) || math32.IsInf(scale, 0) {
		return opError(op, ErrInvalidOperation, "scale must be finite, got %v", scale)
	}
	return nil
}

// Quantize returns a new int8 array holding the affine quantization of a
// float32 source. The result records scale and zeroPoint for dequantization.
// On error no array is produced.
func Quantize(src *Array, scale float32, zeroPoint int) (*Array, error) {
	start := time.Now()
	if err := src.live("quantize"); err != nil {
		return nil, err
	}
	if src.repr != Float32 {
		return nil, opError("quantize", ErrInvalidOperation, "source must be float32, got %s", src.repr)
	}
	if err := checkScale("quantize", scale); err != nil {
		return nil, err
	}
	in := src.buf.(float32Buffer)
	for i, v := range in {
		if math32.IsNaN(v) {
			return nil, opError("quantize", ErrInvalidOperation, "NaN at element %d", i)
		}
	}

	dst, err := newArray("quantize", src.rows, src.cols, QuantizedInt8, scale, zeroPoint)
	if err != nil {
		return nil, err
	}
	out := dst.buf.(int8Buffer)
	var low, high int
	for i, v := range in {
		q, bound := quantizeValue(v, scale, zeroPoint)
		out[i] = q
		switch bound {
		case -1:
			low++
		case 1:
			high++
		}
	}

	metrics.RecordQuantization(len(in), low, high)
	metrics.RecordOperation("quantize", time.Since(start))
	if low+high > 0 {
		logger.Log.Debug("quantization clamped", "elements", len(in), "low", low, "high", high, "scale", scale, "zero_point", zeroPoint)
	}
	return dst, nil
}

// DequantizeElement decodes linear element index of a quantized array.
func DequantizeElement(a *Array, index int) (float32, error) {
	if err := a.expect("dequantize", QuantizedInt8); err != nil {
		return 0, err
	}
	if index < 0 || index >= a.buf.len() {
		return 0, opError("dequantize", ErrIndexOutOfRange, "index %d outside %d elements", index, a.buf.len())
	}
	return a.decode(index), nil
}

// Dequantize returns a new float32 array holding the decoded values of src.
// It accepts any representation.
func Dequantize(src *Array) (*Array, error) {
	start := time.Now()
	if err := src.live("dequantize"); err != nil {
		return nil, err
	}
	dst, err := newArray("dequantize", src.rows, src.cols, Float32, 1.0, 0)
	if err != nil {
		return nil, err
	}
	out := dst.buf.(float32Buffer)
	for i := range out {
		out[i] = src.decode(i)
	}
	metrics.RecordOperation("dequantize", time.Since(start))
	return dst, nil
}
