// Package wirebuf converts between a structured in-memory representation of
// protobuf messages and the proto3 binary wire encoding. Schemas are
// supplied as in-memory field type lists; no .proto parsing or generated
// code is involved.
//
// Singular fields that appear more than once on the wire are preserved by
// promotion to a repeated value rather than collapsed to the last
// occurrence. Callers wanting proto3 last-wins semantics take the final
// element of the repeated result.
package wirebuf

import (
	"io"

	"github.com/pkg/errors"

	"github.com/edjCase/wirebuf/schema"
	"github.com/edjCase/wirebuf/wire"
)

// ErrInvalidArgument reports an out-of-range or malformed input to a public
// function, e.g. a schema with duplicate field numbers.
var ErrInvalidArgument = errors.New("invalid argument")

// Option configures resource limits for a single call.
type Option func(*options)

type options struct {
	limits wire.Limits
}

// WithMaxDepth caps message/map nesting on encode and decode.
// The default is wire.DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.limits.MaxDepth = n
	}
}

// WithMaxLength rejects wire length prefixes larger than n bytes.
// The default is unlimited.
func WithMaxLength(n int) Option {
	return func(o *options) {
		o.limits.MaxLength = n
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ===== ENCODING =====

// ToBytes serializes typed fields into the protobuf wire format.
func ToBytes(fields []schema.Field, opts ...Option) ([]byte, error) {
	o := buildOptions(opts)
	return wire.EncodeMessage(fields, o.limits)
}

// ToBytesInto serializes typed fields into the given sink and returns the
// number of bytes written.
func ToBytesInto(w io.Writer, fields []schema.Field, opts ...Option) (int, error) {
	data, err := ToBytes(fields, opts...)
	if err != nil {
		return 0, err
	}
	return w.Write(data)
}

// ===== DECODING =====

// FromRawBytes parses a wire byte stream into raw fields without a schema.
func FromRawBytes(data []byte, opts ...Option) ([]wire.RawField, error) {
	o := buildOptions(opts)
	return wire.DecodeRaw(data, o.limits)
}

// FromBytes parses a wire byte stream and interprets it under the schema,
// returning typed fields in schema declaration order.
func FromBytes(data []byte, fieldTypes []schema.FieldType, opts ...Option) ([]schema.Field, error) {
	o := buildOptions(opts)
	if err := validateSchema(fieldTypes, o.limits); err != nil {
		return nil, err
	}
	return wire.DecodeMessage(data, fieldTypes, o.limits)
}

// FromRawFields interprets already-parsed raw fields under the schema.
func FromRawFields(raws []wire.RawField, fieldTypes []schema.FieldType, opts ...Option) ([]schema.Field, error) {
	o := buildOptions(opts)
	if err := validateSchema(fieldTypes, o.limits); err != nil {
		return nil, err
	}
	return wire.DecodeFromRaw(raws, fieldTypes, o.limits)
}

// FromReader drains the reader and decodes its contents under the schema.
func FromReader(r io.Reader, fieldTypes []schema.FieldType, opts ...Option) ([]schema.Field, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return FromBytes(data, fieldTypes, opts...)
}

// ===== CANONICALIZATION =====

// Canonicalize reorders fields to schema declaration order and merges
// duplicate field numbers, producing the same result decoding the encoded
// form would. ToBytes of the result is the canonical wire encoding.
func Canonicalize(fields []schema.Field, fieldTypes []schema.FieldType, opts ...Option) ([]schema.Field, error) {
	data, err := ToBytes(fields, opts...)
	if err != nil {
		return nil, err
	}
	return FromBytes(data, fieldTypes, opts...)
}

// ===== SCHEMA VALIDATION =====

// validateSchema enforces the schema invariants: field numbers unique and
// in range, map keys restricted to scalar/string/bytes kinds, map values
// not repeated or map. The recursion cap only terminates validation of
// cyclic schemas; it is at least the default depth so a small wire
// MaxDepth does not reject deep schemas whose inner fields never appear.
func validateSchema(fieldTypes []schema.FieldType, limits wire.Limits) error {
	maxDepth := limits.MaxDepth
	if maxDepth < wire.DefaultMaxDepth {
		maxDepth = wire.DefaultMaxDepth
	}
	return validateFieldTypes(fieldTypes, maxDepth)
}

func validateFieldTypes(fieldTypes []schema.FieldType, depthLeft int) error {
	if depthLeft < 0 {
		return errors.Wrap(ErrInvalidArgument, "schema nesting too deep")
	}

	seen := make(map[int32]struct{}, len(fieldTypes))
	for _, ft := range fieldTypes {
		if !wire.FieldNumber(ft.Number).IsValid() {
			return errors.Wrapf(ErrInvalidArgument, "field number %d out of range", ft.Number)
		}
		if _, dup := seen[ft.Number]; dup {
			return errors.Wrapf(ErrInvalidArgument, "duplicate field number %d in schema", ft.Number)
		}
		seen[ft.Number] = struct{}{}

		if err := validateValueType(&ft.Type, depthLeft-1); err != nil {
			return errors.Wrapf(err, "field %d", ft.Number)
		}
	}
	return nil
}

func validateValueType(t *schema.ValueType, depthLeft int) error {
	if depthLeft < 0 {
		return errors.Wrap(ErrInvalidArgument, "schema nesting too deep")
	}

	switch t.Kind {
	case schema.KindMessage:
		return validateFieldTypes(t.Message, depthLeft)
	case schema.KindRepeated:
		if t.Element == nil {
			return errors.Wrap(ErrInvalidArgument, "repeated type missing element type")
		}
		return validateValueType(t.Element, depthLeft-1)
	case schema.KindMap:
		if t.MapKey == nil || t.MapValue == nil {
			return errors.Wrap(ErrInvalidArgument, "map type missing key or value type")
		}
		if !schema.IsValidMapKey(t.MapKey.Kind) {
			return errors.Wrapf(ErrInvalidArgument, "%s is not a valid map key type", t.MapKey.Kind)
		}
		if t.MapValue.Kind == schema.KindRepeated || t.MapValue.Kind == schema.KindMap {
			return errors.Wrapf(ErrInvalidArgument, "%s is not a valid map value type", t.MapValue.Kind)
		}
		return validateValueType(t.MapValue, depthLeft-1)
	default:
		if _, ok := wire.WireTypeForKind(t.Kind); !ok {
			return errors.Wrapf(ErrInvalidArgument, "unknown kind %q", t.Kind)
		}
		return nil
	}
}
