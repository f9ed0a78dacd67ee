package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Wire format error kinds. Every failure surfaced by this package wraps one
// of these sentinels, so callers can test with errors.Is.
var (
	ErrInvalidFieldNumber    = errors.New("invalid field number")
	ErrInvalidWireType       = errors.New("invalid wire type")
	ErrTruncatedInput        = errors.New("truncated input")
	ErrVarintTooLong         = errors.New("varint too long")
	ErrVarintOutOfRange      = errors.New("varint out of range")
	ErrInvalidUTF8           = errors.New("invalid utf-8 in string field")
	ErrInvalidBool           = errors.New("invalid bool payload")
	ErrSchemaMismatch        = errors.New("field not present in schema")
	ErrInvalidMapEntry       = errors.New("invalid map entry")
	ErrMergeTypeConflict     = errors.New("merge type conflict")
	ErrHeterogeneousRepeated = errors.New("heterogeneous repeated value")
	ErrWireValueMismatch     = errors.New("value has no wire type mapping")
	ErrDepthExceeded         = errors.New("nesting depth exceeded")
	ErrLengthExceeded        = errors.New("length prefix exceeds limit")
)

// FieldError carries the field-number path to a nested failure, e.g.
// "at field 9 -> 2: invalid utf-8 in string field".
type FieldError struct {
	FieldPath []FieldNumber
	Err       error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}
	parts := make([]string, len(e.FieldPath))
	for i, fn := range e.FieldPath {
		parts[i] = strconv.Itoa(int(fn))
	}
	return fmt.Sprintf("at field %s: %v", strings.Join(parts, " -> "), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for compatibility.
func (e *FieldError) Is(target error) bool {
	_, ok := target.(*FieldError)
	return ok
}

// wrapWithField prepends a field number to the error's path.
func wrapWithField(err error, fieldNumber FieldNumber) error {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*FieldError); ok {
		return &FieldError{
			FieldPath: append([]FieldNumber{fieldNumber}, fe.FieldPath...),
			Err:       fe.Err,
		}
	}
	return &FieldError{
		FieldPath: []FieldNumber{fieldNumber},
		Err:       err,
	}
}
