package tensor

import (
	"gonum.org/v1/gonum/mat"
)

// Dense decodes a into a new gonum matrix. gonum has no empty matrices, so
// arrays with a zero dimension are rejected.
func Dense(a *Array) (*mat.Dense, error) {
	if err := a.live("dense"); err != nil {
		return nil, err
	}
	if a.rows == 0 || a.cols == 0 {
		return nil, opError("dense", ErrInvalidOperation, "empty %dx%d array", a.rows, a.cols)
	}
	data := make([]float64, a.buf.len())
	p := a.params()
	for i := range data {
		data[i] = float64(a.buf.decode(i, p))
	}
	return mat.NewDense(a.rows, a.cols, data), nil
}

// FromDense encodes a gonum matrix into a new array of the given representation.
// Quantized results use scale 1 and zero point 0; use Quantize for other parameters.
func FromDense(m mat.Matrix, repr Representation) (*Array, error) {
	r, c := m.Dims()
	a, err := newArray("dense", r, c, repr, 1.0, 0)
	if err != nil {
		return nil, err
	}
	p := a.params()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			a.buf.encode(i*c+j, float32(m.At(i, j)), p)
		}
	}
	return a, nil
}
