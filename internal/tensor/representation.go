package tensor

// Representation is the storage encoding of an array's elements.
type Representation uint8

const (
	// Float32 stores IEEE-754 single precision values, 4 bytes each.
	Float32 Representation = iota + 1
	// ReducedFloat stores round(v*1000) as a 16-bit code word, 2 bytes each.
	ReducedFloat
	// QuantizedInt8 stores affine-quantized signed bytes, 1 byte each.
	QuantizedInt8
)

var (
	representationToString = [...]string{
		Float32:       "float32",
		ReducedFloat:  "reduced",
		QuantizedInt8: "int8",
	}
	representationToSize = [...]int{
		Float32:       4,
		ReducedFloat:  2,
		QuantizedInt8: 1,
	}
)

// Valid reports whether r is one of the known representations.
func (r Representation) Valid() bool {
	return r >= Float32 && r <= QuantizedInt8
}

// Size returns the element width in bytes, or 0 for an unknown representation.
func (r Representation) Size() int {
	if !r.Valid() {
		return 0
	}
	return representationToSize[r]
}

func (r Representation) String() string {
	if !r.Valid() {
		return "unknown"
	}
	return representationToString[r]
}

// ParseRepresentation is the inverse of Representation.String.
func ParseRepresentation(s string) (Representation, bool) {
	for r := Float32; r <= QuantizedInt8; r++ {
		if representationToString[r] == s {
			return r, true
		}
	}
	return 0, false
}
