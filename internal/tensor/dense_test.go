package tensor

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDense(t *testing.T) {
	a := newSample(t)
	defer a.Release()
	q, _ := Quantize(a, 0.1, 0)
	defer q.Release()

	d, err := Dense(q)
	if err != nil {
		t.Fatal(err)
	}
	r, c := d.Dims()
	if r != 2 || c != 2 {
		t.Fatalf("Dims = %d, %d", r, c)
	}
	want := mat.NewDense(2, 2, []float64{1.5, 2, 3.5, 4})
	if !mat.EqualApprox(d, want, 1e-6) {
		t.Errorf("Dense = %v, want %v", mat.Formatted(d), mat.Formatted(want))
	}

	empty, _ := New(0, 2, Float32)
	defer empty.Release()
	if _, err := Dense(empty); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("expected ErrInvalidOperation, got %v", err)
	}
}

// MatMul over mixed representations agrees with gonum on the decoded operands.
func TestMatMulAgreesWithGonum(t *testing.T) {
	av := []float32{0.5, -1.25, 2, 3.75, 0, 1, -2.5, 4, 1.5, 0.25, -0.75, 3}
	bv := []float32{1, 2, 0.5, -1, 3, 0.25, 2.5, -0.5, 1.75, 0, 1.25, -2}

	a, _ := NewFloat32From(3, 4, av)
	defer a.Release()
	bf, _ := NewFloat32From(4, 3, bv)
	defer bf.Release()
	b, err := Quantize(bf, 0.05, 5)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Release()
	h, _ := Reduce(bf)
	defer h.Release()

	for _, rhs := range []*Array{bf, b, h} {
		c := newOutput(t, 3, 3)
		if err := MatMul(a, rhs, c); err != nil {
			t.Fatal(err)
		}

		da, _ := Dense(a)
		db, _ := Dense(rhs)
		var ref mat.Dense
		ref.Mul(da, db)

		dc, _ := Dense(c)
		if !mat.EqualApprox(dc, &ref, 1e-4) {
			t.Errorf("%s: MatMul =\n%v\ngonum =\n%v", rhs.Representation(), mat.Formatted(dc), mat.Formatted(&ref))
		}
		c.Release()
	}
}

func TestFromDense(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1.5, 2, 3.5, 4})

	for _, repr := range []Representation{Float32, ReducedFloat, QuantizedInt8} {
		a, err := FromDense(m, repr)
		if err != nil {
			t.Fatal(err)
		}
		got, _ := a.Values()
		want := []float32{1.5, 2, 3.5, 4}
		if repr == QuantizedInt8 {
			want = []float32{2, 2, 4, 4} // scale 1 rounds half away from zero
		}
		assertClose(t, got, want, 1e-6)
		a.Release()
	}
}
