package tensor

// Raw access to stored code words. Every function copies, so no caller can
// alias an array's buffer.

// NewFloat32From allocates a float32 array holding a copy of data.
func NewFloat32From(rows, cols int, data []float32) (*Array, error) {
	a, err := fromRaw(rows, cols, Float32, 1, 0, len(data))
	if err != nil {
		return nil, err
	}
	copy(a.buf.(float32Buffer), data)
	return a, nil
}

// NewReducedFrom allocates a reduced-float array holding a copy of the code words.
func NewReducedFrom(rows, cols int, codes []uint16) (*Array, error) {
	a, err := fromRaw(rows, cols, ReducedFloat, 1, 0, len(codes))
	if err != nil {
		return nil, err
	}
	copy(a.buf.(reducedBuffer), codes)
	return a, nil
}

// NewQuantizedFrom allocates an int8 array holding a copy of already quantized values.
func NewQuantizedFrom(rows, cols int, data []int8, scale float32, zeroPoint int) (*Array, error) {
	if err := checkScale("create", scale); err != nil {
		return nil, err
	}
	a, err := fromRaw(rows, cols, QuantizedInt8, scale, zeroPoint, len(data))
	if err != nil {
		return nil, err
	}
	copy(a.buf.(int8Buffer), data)
	return a, nil
}

func fromRaw(rows, cols int, repr Representation, scale float32, zeroPoint int, n int) (*Array, error) {
	if rows >= 0 && cols >= 0 && rows*cols != n {
		return nil, opError("create", ErrDimensionMismatch, "%d elements for %dx%d array", n, rows, cols)
	}
	return newArray("create", rows, cols, repr, scale, zeroPoint)
}

// Float32s returns a copy of the stored values of a float32 array.
func (a *Array) Float32s() ([]float32, error) {
	if err := a.expect("raw", Float32); err != nil {
		return nil, err
	}
	return append([]float32(nil), a.buf.(float32Buffer)...), nil
}

// ReducedCodes returns a copy of the stored code words of a reduced-float array.
func (a *Array) ReducedCodes() ([]uint16, error) {
	if err := a.expect("raw", ReducedFloat); err != nil {
		return nil, err
	}
	return append([]uint16(nil), a.buf.(reducedBuffer)...), nil
}

// Int8s returns a copy of the stored values of a quantized array.
func (a *Array) Int8s() ([]int8, error) {
	if err := a.expect("raw", QuantizedInt8); err != nil {
		return nil, err
	}
	return append([]int8(nil), a.buf.(int8Buffer)...), nil
}

// Int8At returns the stored, not dequantized, value at (i, j).
func (a *Array) Int8At(i, j int) (int8, error) {
	if err := a.expect("raw", QuantizedInt8); err != nil {
		return 0, err
	}
	idx, err := a.Index(i, j)
	if err != nil {
		return 0, err
	}
	return a.buf.(int8Buffer)[idx], nil
}

// ReducedAt returns the stored code word at (i, j).
func (a *Array) ReducedAt(i, j int) (uint16, error) {
	if err := a.expect("raw", ReducedFloat); err != nil {
		return 0, err
	}
	idx, err := a.Index(i, j)
	if err != nil {
		return 0, err
	}
	return a.buf.(reducedBuffer)[idx], nil
}

func (a *Array) expect(op string, repr Representation) error {
	if err := a.live(op); err != nil {
		return err
	}
	if a.repr != repr {
		return opError(op, ErrTypeMismatch, "want %s array, got %s", repr, a.repr)
	}
	return nil
}
