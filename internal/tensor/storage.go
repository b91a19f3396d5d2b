package tensor

// quantParams carries the affine parameters of the owning array to its storage.
type quantParams struct {
	scale     float32
	zeroPoint int
}

// storage is the closed set of element buffers. Each representation has exactly
// one implementation, so a new representation cannot compile until it supplies
// every operation below.
type storage interface {
	len() int
	decode(i int, p quantParams) float32
	// encode stores v at i and reports the clamp bound hit (-1 low, +1 high, 0 none).
	encode(i int, v float32, p quantParams) int
}

type float32Buffer []float32

func (b float32Buffer) len() int { return len(b) }

func (b float32Buffer) decode(i int, _ quantParams) float32 { return b[i] }

func (b float32Buffer) encode(i int, v float32, _ quantParams) int {
	b[i] = v
	return 0
}

type reducedBuffer []uint16

func (b reducedBuffer) len() int { return len(b) }

func (b reducedBuffer) decode(i int, _ quantParams) float32 { return FromReduced(b[i]) }

func (b reducedBuffer) encode(i int, v float32, _ quantParams) int {
	b[i] = ToReduced(v)
	return 0
}

type int8Buffer []int8

func (b int8Buffer) len() int { return len(b) }

func (b int8Buffer) decode(i int, p quantParams) float32 {
	return DequantizeValue(b[i], p.scale, p.zeroPoint)
}

func (b int8Buffer) encode(i int, v float32, p quantParams) int {
	q, bound := quantizeValue(v, p.scale, p.zeroPoint)
	b[i] = q
	return bound
}

func newStorage(r Representation, n int) storage {
	switch r {
	case Float32:
		return make(float32Buffer, n)
	case ReducedFloat:
		return make(reducedBuffer, n)
	case QuantizedInt8:
		return make(int8Buffer, n)
	}
	return nil
}
