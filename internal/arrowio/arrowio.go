// Package arrowio moves arrays in and out of Apache Arrow records.
//
// An array becomes a single-column record: one FixedSizeList row per matrix
// row, with a child type that matches the stored code words (float32, uint16
// or int8). Arrow has no zero-width fixed size lists, so arrays without
// columns use a List column of empty rows instead. The representation, column
// count and quantization parameters travel in the schema metadata so the
// exact stored values round-trip.
package arrowio

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/longbow-tinytensor/internal/logger"
	"github.com/23skdu/longbow-tinytensor/internal/tensor"
)

const (
	ColumnName = "row"

	MetaRepresentation = "tinytensor.representation"
	MetaCols           = "tinytensor.cols"
	MetaScale          = "tinytensor.scale"
	MetaZeroPoint      = "tinytensor.zero_point"
)

// ErrSchema is returned for records that were not produced by ToRecord.
var ErrSchema = errors.New("arrowio: unsupported schema")

func elementType(r tensor.Representation) (arrow.DataType, error) {
	switch r {
	case tensor.Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case tensor.ReducedFloat:
		return arrow.PrimitiveTypes.Uint16, nil
	case tensor.QuantizedInt8:
		return arrow.PrimitiveTypes.Int8, nil
	}
	return nil, fmt.Errorf("%w: representation %s", ErrSchema, r)
}

// Schema returns the record schema used for a.
func Schema(a *tensor.Array) (*arrow.Schema, error) {
	elem, err := elementType(a.Representation())
	if err != nil {
		return nil, err
	}
	md := arrow.NewMetadata(
		[]string{MetaRepresentation, MetaCols, MetaScale, MetaZeroPoint},
		[]string{
			a.Representation().String(),
			strconv.Itoa(a.Cols()),
			strconv.FormatFloat(float64(a.Scale()), 'g', -1, 32),
			strconv.Itoa(a.ZeroPoint()),
		},
	)
	var rowType arrow.DataType = arrow.ListOf(elem)
	if a.Cols() > 0 {
		rowType = arrow.FixedSizeListOf(int32(a.Cols()), elem)
	}
	return arrow.NewSchema([]arrow.Field{{Name: ColumnName, Type: rowType}}, &md), nil
}

// rowBuilder is satisfied by both the fixed size and the variable list builders.
type rowBuilder interface {
	Append(v bool)
	ValueBuilder() array.Builder
}

// ToRecord copies a into a new record allocated from mem. The caller must Release it.
func ToRecord(mem memory.Allocator, a *tensor.Array) (arrow.Record, error) {
	schema, err := Schema(a)
	if err != nil {
		return nil, err
	}

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	lb := b.Field(0).(rowBuilder)

	switch vb := lb.ValueBuilder().(type) {
	case *array.Float32Builder:
		vals, err := a.Float32s()
		if err != nil {
			return nil, err
		}
		vb.AppendValues(vals, nil)
	case *array.Uint16Builder:
		vals, err := a.ReducedCodes()
		if err != nil {
			return nil, err
		}
		vb.AppendValues(vals, nil)
	case *array.Int8Builder:
		vals, err := a.Int8s()
		if err != nil {
			return nil, err
		}
		vb.AppendValues(vals, nil)
	}
	for i := 0; i < a.Rows(); i++ {
		lb.Append(true)
	}

	rec := b.NewRecord()
	logger.Log.Debug("array exported to arrow", "rows", a.Rows(), "cols", a.Cols(), "representation", a.Representation().String())
	return rec, nil
}

// FromRecord rebuilds an array from a record produced by ToRecord.
// The record is only read; the caller keeps ownership of it.
func FromRecord(rec arrow.Record) (*tensor.Array, error) {
	if rec.NumCols() != 1 {
		return nil, fmt.Errorf("%w: want 1 column, got %d", ErrSchema, rec.NumCols())
	}
	repr, cols, scale, zeroPoint, err := readMetadata(rec.Schema().Metadata())
	if err != nil {
		return nil, err
	}

	col := rec.Column(0)
	if col.NullN() > 0 {
		return nil, fmt.Errorf("%w: %d null rows", ErrSchema, col.NullN())
	}
	rows := col.Len()
	var (
		values     arrow.Array
		start, end int
	)
	switch lst := col.(type) {
	case *array.FixedSizeList:
		if n := int(lst.DataType().(*arrow.FixedSizeListType).Len()); n != cols {
			return nil, fmt.Errorf("%w: rows hold %d values, metadata says %d columns", ErrSchema, n, cols)
		}
		values = lst.ListValues()
		start, end = lst.Offset()*cols, (lst.Offset()+rows)*cols
	case *array.List:
		values = lst.ListValues()
		if cols != 0 || values.Len() != 0 {
			return nil, fmt.Errorf("%w: list rows are only used for arrays without columns", ErrSchema)
		}
	default:
		return nil, fmt.Errorf("%w: column is %s, want fixed_size_list or list", ErrSchema, col.DataType())
	}
	if values.NullN() > 0 {
		return nil, fmt.Errorf("%w: null elements", ErrSchema)
	}
	switch repr {
	case tensor.Float32:
		vals, ok := values.(*array.Float32)
		if !ok {
			return nil, typeError(repr, values)
		}
		return tensor.NewFloat32From(rows, cols, vals.Float32Values()[start:end])
	case tensor.ReducedFloat:
		vals, ok := values.(*array.Uint16)
		if !ok {
			return nil, typeError(repr, values)
		}
		return tensor.NewReducedFrom(rows, cols, vals.Uint16Values()[start:end])
	case tensor.QuantizedInt8:
		vals, ok := values.(*array.Int8)
		if !ok {
			return nil, typeError(repr, values)
		}
		return tensor.NewQuantizedFrom(rows, cols, vals.Int8Values()[start:end], scale, zeroPoint)
	}
	return nil, fmt.Errorf("%w: representation %s", ErrSchema, repr)
}

func typeError(repr tensor.Representation, values arrow.Array) error {
	return fmt.Errorf("%w: %s array stored as %s", ErrSchema, repr, values.DataType())
}

func readMetadata(md arrow.Metadata) (repr tensor.Representation, cols int, scale float32, zeroPoint int, err error) {
	get := func(key string) (string, error) {
		i := md.FindKey(key)
		if i < 0 {
			return "", fmt.Errorf("%w: missing metadata %q", ErrSchema, key)
		}
		return md.Values()[i], nil
	}

	name, err := get(MetaRepresentation)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	repr, ok := tensor.ParseRepresentation(name)
	if !ok {
		return 0, 0, 0, 0, fmt.Errorf("%w: unknown representation %q", ErrSchema, name)
	}
	rawCols, err := get(MetaCols)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	cols, err = strconv.Atoi(rawCols)
	if err != nil || cols < 0 {
		return 0, 0, 0, 0, fmt.Errorf("%w: column count %q", ErrSchema, rawCols)
	}
	rawScale, err := get(MetaScale)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	s, err := strconv.ParseFloat(rawScale, 32)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("%w: scale %q: %v", ErrSchema, rawScale, err)
	}
	rawZP, err := get(MetaZeroPoint)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	zeroPoint, err = strconv.Atoi(rawZP)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("%w: zero point %q: %v", ErrSchema, rawZP, err)
	}
	return repr, cols, float32(s), zeroPoint, nil
}

// WriteStream writes a as a single-record Arrow IPC stream.
func WriteStream(w io.Writer, mem memory.Allocator, a *tensor.Array) error {
	rec, err := ToRecord(mem, a)
	if err != nil {
		return err
	}
	defer rec.Release()

	iw := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err := iw.Write(rec); err != nil {
		_ = iw.Close()
		return fmt.Errorf("arrowio: write record: %w", err)
	}
	if err := iw.Close(); err != nil {
		return fmt.Errorf("arrowio: close stream: %w", err)
	}
	return nil
}

// ReadStream reads the first record of an Arrow IPC stream written by WriteStream.
func ReadStream(r io.Reader, mem memory.Allocator) (*tensor.Array, error) {
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, fmt.Errorf("arrowio: open stream: %w", err)
	}
	defer rdr.Release()

	if !rdr.Next() {
		if err := rdr.Err(); err != nil {
			return nil, fmt.Errorf("arrowio: read record: %w", err)
		}
		return nil, fmt.Errorf("%w: empty stream", ErrSchema)
	}
	return FromRecord(rdr.Record())
}
