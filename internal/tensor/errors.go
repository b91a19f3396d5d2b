package tensor

import (
	"errors"
	"fmt"

	"github.com/23skdu/longbow-tinytensor/internal/logger"
	"github.com/23skdu/longbow-tinytensor/internal/metrics"
)

var (
	// ErrAllocation is returned when the backing buffer of an array cannot be obtained.
	ErrAllocation = errors.New("allocation failed")
	// ErrInvalidOperation is returned when a representation or parameter precondition is violated.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrDimensionMismatch is returned when operand shapes are incompatible.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrTypeMismatch is returned when an array has the wrong representation for its role.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrIndexOutOfRange is returned by checked element access.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrReleased is returned when an array is used after Release.
	ErrReleased = errors.New("array released")
)

var errorKinds = map[error]string{
	ErrAllocation:        "allocation",
	ErrInvalidOperation:  "invalid_operation",
	ErrDimensionMismatch: "dimension_mismatch",
	ErrTypeMismatch:      "type_mismatch",
	ErrIndexOutOfRange:   "index_out_of_range",
	ErrReleased:          "released",
}

// OpError describes a rejected array operation. It unwraps to one of the Err* sentinels.
type OpError struct {
	Op  string
	Err error
	Msg string
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Msg)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// opError builds an OpError and reports it to logs and metrics.
func opError(op string, kind error, format string, args ...interface{}) *OpError {
	e := &OpError{Op: op, Err: kind, Msg: fmt.Sprintf(format, args...)}
	metrics.RecordValidationError(op, errorKinds[kind])
	logger.Log.Warn("array operation rejected", "op", op, "error", e.Msg, "kind", errorKinds[kind])
	return e
}
