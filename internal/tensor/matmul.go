package tensor

import (
	"time"

	"github.com/23skdu/longbow-tinytensor/internal/logger"
	"github.com/23skdu/longbow-tinytensor/internal/metrics"
)

// MatMul computes c = a × b. a and b may each be in any representation and
// are decoded element by element with their own quantization parameters.
// c must be a float32 array of shape a.Rows()×b.Cols() that is neither a nor b.
// Products are accumulated in float32. On error c is left untouched.
func MatMul(a, b, c *Array) error {
	if err := checkMatMul("matmul", a, b, c); err != nil {
		return err
	}
	start := time.Now()
	matmul[float32](a, b, c)
	metrics.RecordOperation("matmul", time.Since(start))
	return nil
}

// MatMulWide is MatMul with a float64 accumulator; only the final sum is
// rounded to float32.
func MatMulWide(a, b, c *Array) error {
	if err := checkMatMul("matmul_wide", a, b, c); err != nil {
		return err
	}
	start := time.Now()
	matmul[float64](a, b, c)
	metrics.RecordOperation("matmul_wide", time.Since(start))
	return nil
}

func checkMatMul(op string, a, b, c *Array) error {
	for _, t := range []*Array{a, b, c} {
		if err := t.live(op); err != nil {
			return err
		}
	}
	if a.cols != b.rows {
		return opError(op, ErrDimensionMismatch, "A[%d,%d] * B[%d,%d]", a.rows, a.cols, b.rows, b.cols)
	}
	if c.repr != Float32 {
		return opError(op, ErrTypeMismatch, "output must be float32, got %s", c.repr)
	}
	if c.rows != a.rows || c.cols != b.cols {
		return opError(op, ErrDimensionMismatch, "output is %dx%d, want %dx%d", c.rows, c.cols, a.rows, b.cols)
	}
	if c == a || c == b {
		return opError(op, ErrInvalidOperation, "output aliases an operand")
	}
	logger.Log.Debug("matmul", "op", op, "m", a.rows, "k", a.cols, "n", b.cols,
		"a", a.repr.String(), "b", b.repr.String())
	return nil
}

func matmul[T float32 | float64](a, b, c *Array) {
	out := c.buf.(float32Buffer)
	pa, pb := a.params(), b.params()
	for i := 0; i < a.rows; i++ {
		for j := 0; j < b.cols; j++ {
			var sum T
			for k := 0; k < a.cols; k++ {
				x := T(a.buf.decode(i*a.cols+k, pa))
				y := T(b.buf.decode(k*b.cols+j, pb))
				sum += x * y
			}
			out[i*c.cols+j] = float32(sum)
		}
	}
}
