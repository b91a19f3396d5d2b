package tensor

import (
	"errors"
	"math"
	"testing"
)

func assertClose(t *testing.T, got, want []float32, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > tol {
			t.Errorf("element %d = %v, want %v (tol %v)", i, got[i], want[i], tol)
		}
	}
}

func newOutput(t *testing.T, rows, cols int) *Array {
	t.Helper()
	c, err := New(rows, cols, Float32)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestMatMulSample(t *testing.T) {
	a := newSample(t)
	defer a.Release()
	c := newOutput(t, 2, 2)
	defer c.Release()

	if err := MatMul(a, a, c); err != nil {
		t.Fatalf("MatMul: %v", err)
	}
	got, _ := c.Float32s()
	want := []float32{9.25, 11.0, 19.25, 23.0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("C[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMatMulMixedRepresentations(t *testing.T) {
	a := newSample(t)
	defer a.Release()
	h, err := Reduce(a)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()
	q, err := Quantize(a, 0.1, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer q.Release()
	// Different parameters on the second quantized operand.
	q2, err := Quantize(a, 0.05, -20)
	if err != nil {
		t.Fatal(err)
	}
	defer q2.Release()

	want := []float32{9.25, 11.0, 19.25, 23.0}
	operands := map[string]*Array{"float32": a, "reduced": h, "int8": q, "int8_zp": q2}

	for na, x := range operands {
		for nb, y := range operands {
			t.Run(na+"x"+nb, func(t *testing.T) {
				c := newOutput(t, 2, 2)
				defer c.Release()
				if err := MatMul(x, y, c); err != nil {
					t.Fatalf("MatMul: %v", err)
				}
				got, _ := c.Float32s()
				assertClose(t, got, want, 1e-4)
			})
		}
	}
}

func TestMatMulRectangular(t *testing.T) {
	a, _ := NewFloat32From(2, 3, []float32{1, 2, 3, 4, 5, 6})
	defer a.Release()
	b, _ := NewFloat32From(3, 1, []float32{1, 0, -1})
	defer b.Release()
	c := newOutput(t, 2, 1)
	defer c.Release()

	if err := MatMul(a, b, c); err != nil {
		t.Fatal(err)
	}
	got, _ := c.Float32s()
	assertClose(t, got, []float32{-2, -2}, 0)
}

func TestMatMulEmptyInner(t *testing.T) {
	a := newOutput(t, 2, 0)
	defer a.Release()
	b := newOutput(t, 0, 3)
	defer b.Release()
	c, _ := NewFloat32From(2, 3, []float32{9, 9, 9, 9, 9, 9})
	defer c.Release()

	if err := MatMul(a, b, c); err != nil {
		t.Fatal(err)
	}
	got, _ := c.Float32s()
	assertClose(t, got, make([]float32, 6), 0)
}

func TestMatMulRejects(t *testing.T) {
	a := newSample(t)
	defer a.Release()
	wide := newOutput(t, 3, 2)
	defer wide.Release()
	qOut, _ := New(2, 2, QuantizedInt8)
	defer qOut.Release()
	badShape := newOutput(t, 2, 3)
	defer badShape.Release()
	out := newOutput(t, 2, 2)
	defer out.Release()
	released := newOutput(t, 2, 2)
	released.Release()

	tests := []struct {
		name    string
		a, b, c *Array
		want    error
	}{
		{"inner mismatch", a, wide, out, ErrDimensionMismatch},
		{"output representation", a, a, qOut, ErrTypeMismatch},
		{"output shape", a, a, badShape, ErrDimensionMismatch},
		{"output aliases a", a, a, a, ErrInvalidOperation},
		{"released operand", released, a, out, ErrReleased},
		{"released output", a, a, released, ErrReleased},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.c.repr == Float32 && !tt.c.Released() && tt.c != tt.a {
				_ = tt.c.Fill([]float32{-1, -1, -1, -1, -1, -1}[:tt.c.Len()])
			}
			before, _ := tt.c.Values()

			err := MatMul(tt.a, tt.b, tt.c)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var opErr *OpError
			if !errors.As(err, &opErr) || opErr.Op != "matmul" {
				t.Errorf("expected *OpError for matmul, got %#v", err)
			}

			after, _ := tt.c.Values()
			for i := range before {
				if before[i] != after[i] {
					t.Errorf("output mutated at %d: %v -> %v", i, before[i], after[i])
				}
			}
		})
	}
}

func TestMatMulWide(t *testing.T) {
	a := newSample(t)
	defer a.Release()
	c := newOutput(t, 2, 2)
	defer c.Release()

	if err := MatMulWide(a, a, c); err != nil {
		t.Fatal(err)
	}
	got, _ := c.Float32s()
	assertClose(t, got, []float32{9.25, 11.0, 19.25, 23.0}, 0)

	// A long dot product of small terms where a float64 accumulator stays closer to the exact sum.
	const n = 1 << 14
	row := make([]float32, n)
	col := make([]float32, n)
	for i := range row {
		row[i] = 0.1
		col[i] = 1
	}
	x, _ := NewFloat32From(1, n, row)
	defer x.Release()
	y, _ := NewFloat32From(n, 1, col)
	defer y.Release()
	narrow := newOutput(t, 1, 1)
	defer narrow.Release()
	wide := newOutput(t, 1, 1)
	defer wide.Release()

	if err := MatMul(x, y, narrow); err != nil {
		t.Fatal(err)
	}
	if err := MatMulWide(x, y, wide); err != nil {
		t.Fatal(err)
	}
	exact := float64(n) * float64(float32(0.1))
	n32, _ := narrow.At(0, 0)
	w32, _ := wide.At(0, 0)
	if math.Abs(float64(w32)-exact) > math.Abs(float64(n32)-exact) {
		t.Errorf("wide accumulator error %v exceeds float32 error %v", math.Abs(float64(w32)-exact), math.Abs(float64(n32)-exact))
	}
	if math.Abs(float64(w32)-exact) > 1e-3 {
		t.Errorf("wide result %v too far from %v", w32, exact)
	}

	if err := MatMulWide(a, x, c); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}
