package tensor

import (
	"math"

	"github.com/23skdu/longbow-tinytensor/internal/logger"
	"github.com/23skdu/longbow-tinytensor/internal/metrics"
)

// Array is a row-major rows×cols matrix whose elements are stored in one
// representation. The array exclusively owns its buffer; accessors copy in and
// out of it and never hand out the buffer itself.
//
// An Array must be released exactly once with Release, typically via defer.
// Release is idempotent and every later operation reports ErrReleased.
type Array struct {
	rows, cols int
	repr       Representation
	scale      float32
	zeroPoint  int
	buf        storage
}

// New allocates a rows×cols array in the given representation with scale 1
// and zero point 0. Elements start at the zero code word of the representation.
// Zero rows or columns are allowed and produce an empty buffer.
func New(rows, cols int, repr Representation) (*Array, error) {
	return newArray("create", rows, cols, repr, 1.0, 0)
}

// NewQuantized allocates an int8 array carrying the given affine parameters.
func NewQuantized(rows, cols int, scale float32, zeroPoint int) (*Array, error) {
	if err := checkScale("create", scale); err != nil {
		return nil, err
	}
	return newArray("create", rows, cols, QuantizedInt8, scale, zeroPoint)
}

func newArray(op string, rows, cols int, repr Representation, scale float32, zeroPoint int) (*Array, error) {
	if !repr.Valid() {
		return nil, opError(op, ErrInvalidOperation, "unknown representation %d", repr)
	}
	if rows < 0 || cols < 0 {
		return nil, opError(op, ErrInvalidOperation, "negative dimensions %dx%d", rows, cols)
	}
	if cols != 0 && rows > math.MaxInt/cols {
		return nil, opError(op, ErrAllocation, "element count %dx%d overflows", rows, cols)
	}
	n := rows * cols
	width := repr.Size()
	if n > math.MaxInt/width || int64(n*width) > MaxBytes() {
		return nil, opError(op, ErrAllocation, "%dx%d %s array exceeds the %d byte ceiling", rows, cols, repr, MaxBytes())
	}

	a := &Array{
		rows:      rows,
		cols:      cols,
		repr:      repr,
		scale:     scale,
		zeroPoint: zeroPoint,
		buf:       newStorage(repr, n),
	}
	traceAlloc(int64(n*width), 1)
	metrics.RecordArrayCreated(repr.String())
	logger.Log.Debug("array allocated", "rows", rows, "cols", cols, "representation", repr.String(), "bytes", n*width)
	return a, nil
}

func (a *Array) Rows() int                      { return a.rows }
func (a *Array) Cols() int                      { return a.cols }
func (a *Array) Len() int                       { return a.rows * a.cols }
func (a *Array) Representation() Representation { return a.repr }

// Scale is the quantization scale; 1 for non-quantized arrays.
func (a *Array) Scale() float32 { return a.scale }

// ZeroPoint is the quantization zero point; 0 for non-quantized arrays.
func (a *Array) ZeroPoint() int { return a.zeroPoint }

// Released reports whether Release has been called.
func (a *Array) Released() bool { return a.buf == nil }

// Release drops the buffer and its allocation accounting. Calling it again is a no-op.
func (a *Array) Release() {
	if a == nil || a.buf == nil {
		return
	}
	a.buf = nil
	traceAlloc(-int64(ByteSize(a)), -1)
}

func (a *Array) params() quantParams {
	return quantParams{scale: a.scale, zeroPoint: a.zeroPoint}
}

func (a *Array) live(op string) error {
	if a == nil {
		return opError(op, ErrInvalidOperation, "nil array")
	}
	if a.buf == nil {
		return opError(op, ErrReleased, "%dx%d %s array", a.rows, a.cols, a.repr)
	}
	return nil
}

// Index maps (i, j) to the row-major linear index i*cols + j after bounds checking.
func (a *Array) Index(i, j int) (int, error) {
	if err := a.live("index"); err != nil {
		return 0, err
	}
	if i < 0 || i >= a.rows || j < 0 || j >= a.cols {
		return 0, opError("index", ErrIndexOutOfRange, "(%d, %d) outside %dx%d", i, j, a.rows, a.cols)
	}
	return i*a.cols + j, nil
}

// At returns element (i, j) decoded to float32.
func (a *Array) At(i, j int) (float32, error) {
	idx, err := a.Index(i, j)
	if err != nil {
		return 0, err
	}
	return a.buf.decode(idx, a.params()), nil
}

// Set encodes v into element (i, j) using the array's own representation.
// Quantized arrays clamp to [-128, 127].
func (a *Array) Set(i, j int, v float32) error {
	idx, err := a.Index(i, j)
	if err != nil {
		return err
	}
	a.buf.encode(idx, v, a.params())
	return nil
}

// Fill encodes values, in row-major order, into every element.
func (a *Array) Fill(values []float32) error {
	if err := a.live("fill"); err != nil {
		return err
	}
	if len(values) != a.buf.len() {
		return opError("fill", ErrDimensionMismatch, "%d values for %dx%d array", len(values), a.rows, a.cols)
	}
	p := a.params()
	for i, v := range values {
		a.buf.encode(i, v, p)
	}
	return nil
}

// Values returns a copy of every element decoded to float32, row-major.
func (a *Array) Values() ([]float32, error) {
	if err := a.live("values"); err != nil {
		return nil, err
	}
	out := make([]float32, a.buf.len())
	p := a.params()
	for i := range out {
		out[i] = a.buf.decode(i, p)
	}
	return out, nil
}

// decode reads linear element i; callers have already checked liveness and bounds.
func (a *Array) decode(i int) float32 {
	return a.buf.decode(i, a.params())
}

// ByteSize returns rows*cols*width(representation). It does not depend on the
// buffer, so it is also defined for released arrays. A nil array has size 0.
func ByteSize(a *Array) int {
	if a == nil {
		return 0
	}
	return a.rows * a.cols * a.repr.Size()
}
