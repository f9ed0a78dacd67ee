package wire

import (
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/edjCase/wirebuf/schema"
)

// Encoder handles low-level protobuf wire format encoding
type Encoder struct {
	buf    []byte
	limits Limits
	depth  int
}

// NewEncoder creates a new wire format encoder
func NewEncoder() *Encoder {
	return &Encoder{
		buf: make([]byte, 0),
	}
}

// NewEncoderWithLimits creates an encoder with resource limits
func NewEncoderWithLimits(limits Limits) *Encoder {
	return &Encoder{
		buf:    make([]byte, 0),
		limits: limits,
	}
}

// Bytes returns the encoded bytes
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Reset clears the encoder buffer
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// staging creates a scratch encoder for a length-prefixed construct, one
// nesting level down.
func (e *Encoder) staging() *Encoder {
	return &Encoder{
		limits: e.limits,
		depth:  e.depth + 1,
	}
}

// EncodeMessage serializes typed fields into the wire format - main entry
// point.
func EncodeMessage(fields []schema.Field, limits Limits) ([]byte, error) {
	e := NewEncoderWithLimits(limits)
	if err := e.EncodeFields(fields); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// EncodeFields encodes fields in input order.
func (e *Encoder) EncodeFields(fields []schema.Field) error {
	for _, field := range fields {
		if err := e.EncodeField(field); err != nil {
			return err
		}
	}
	return nil
}

// EncodeField encodes a single field: tag then payload, with the repeated
// packing policy and per-pair map entries applied where they fit.
func (e *Encoder) EncodeField(field schema.Field) error {
	fieldNumber := FieldNumber(field.Number)
	if !fieldNumber.IsValid() {
		return errors.Wrapf(ErrInvalidFieldNumber, "%d", field.Number)
	}

	var err error
	switch field.Value.Kind {
	case schema.KindRepeated:
		err = e.encodeRepeated(fieldNumber, field.Value.Elems)
	case schema.KindMap:
		me := NewMapEncoder(e)
		err = me.EncodeMap(fieldNumber, field.Value.Pairs)
	default:
		err = e.encodeTagged(fieldNumber, field.Value)
	}
	return wrapWithField(err, fieldNumber)
}

// encodeTagged emits tag + payload for a non-repeated value.
func (e *Encoder) encodeTagged(fieldNumber FieldNumber, value schema.Value) error {
	wireType, ok := WireTypeForKind(value.Kind)
	if !ok {
		return errors.Wrapf(ErrWireValueMismatch, "kind %s", value.Kind)
	}

	ve := NewVarintEncoder(e)
	ve.EncodeVarint(uint64(MakeTag(fieldNumber, wireType)))
	return e.encodePayload(value)
}

// encodePayload emits the payload of a non-repeated value.
func (e *Encoder) encodePayload(value schema.Value) error {
	switch value.Kind {
	case schema.KindString:
		if !utf8.ValidString(value.Str) {
			return ErrInvalidUTF8
		}
		be := NewBytesEncoder(e)
		be.EncodeString(value.Str)
		return nil
	case schema.KindBytes:
		be := NewBytesEncoder(e)
		be.EncodeBytes(value.Bytes)
		return nil
	case schema.KindMessage:
		me := NewMessageEncoder(e)
		return me.EncodeMessage(value.Message)
	case schema.KindRepeated, schema.KindMap:
		return errors.Wrapf(ErrWireValueMismatch, "%s has no standalone payload", value.Kind)
	default:
		return e.encodeScalarPayload(value)
	}
}

// encodeScalarPayload emits a self-contained value without a tag. Shared by
// singular scalars and packed array elements.
func (e *Encoder) encodeScalarPayload(value schema.Value) error {
	ve := NewVarintEncoder(e)
	fe := NewFixedEncoder(e)

	switch value.Kind {
	case schema.KindInt32:
		ve.EncodeInt32(value.Int32)
	case schema.KindInt64:
		ve.EncodeInt64(value.Int64)
	case schema.KindUint32:
		ve.EncodeUint32(value.Uint32)
	case schema.KindUint64:
		ve.EncodeUint64(value.Uint64)
	case schema.KindSint32:
		ve.EncodeSint32(value.Int32)
	case schema.KindSint64:
		ve.EncodeSint64(value.Int64)
	case schema.KindBool:
		ve.EncodeBool(value.Bool)
	case schema.KindEnum:
		ve.EncodeEnum(value.Int32)
	case schema.KindFixed32:
		fe.EncodeFixed32(value.Uint32)
	case schema.KindSfixed32:
		fe.EncodeSfixed32(value.Int32)
	case schema.KindFloat:
		fe.EncodeFloat32(value.Float)
	case schema.KindFixed64:
		fe.EncodeFixed64(value.Uint64)
	case schema.KindSfixed64:
		fe.EncodeSfixed64(value.Int64)
	case schema.KindDouble:
		fe.EncodeFloat64(value.Double)
	default:
		return errors.Wrapf(ErrWireValueMismatch, "kind %s is not self-contained", value.Kind)
	}
	return nil
}

// encodeRepeated applies the packing policy:
//   - empty: a single zero-length length-delimited entry
//   - one element: emitted as the element would be standalone
//   - two or more self-contained elements: packed
//   - otherwise: unpacked, one tagged entry per element
func (e *Encoder) encodeRepeated(fieldNumber FieldNumber, elems []schema.Value) error {
	if !schema.Homogeneous(elems) {
		return errors.Wrapf(ErrHeterogeneousRepeated, "field %d", fieldNumber)
	}

	ve := NewVarintEncoder(e)
	switch {
	case len(elems) == 0:
		ve.EncodeVarint(uint64(MakeTag(fieldNumber, WireBytes)))
		ve.EncodeVarint(0)
		return nil

	case len(elems) == 1:
		return e.encodeElement(fieldNumber, elems[0])

	case schema.IsSelfContained(elems[0].Kind):
		packed := e.staging()
		for _, elem := range elems {
			if err := packed.encodeScalarPayload(elem); err != nil {
				return err
			}
		}
		ve.EncodeVarint(uint64(MakeTag(fieldNumber, WireBytes)))
		be := NewBytesEncoder(e)
		be.EncodeBytes(packed.Bytes())
		return nil

	default:
		for _, elem := range elems {
			if err := e.encodeElement(fieldNumber, elem); err != nil {
				return err
			}
		}
		return nil
	}
}

// encodeElement emits one repeated element under the shared field number.
func (e *Encoder) encodeElement(fieldNumber FieldNumber, elem schema.Value) error {
	switch elem.Kind {
	case schema.KindRepeated:
		if e.depth+1 > e.limits.maxDepth() {
			return errors.Wrapf(ErrDepthExceeded, "depth %d", e.depth+1)
		}
		e.depth++
		err := e.encodeRepeated(fieldNumber, elem.Elems)
		e.depth--
		return err
	case schema.KindMap:
		me := NewMapEncoder(e)
		return me.EncodeMap(fieldNumber, elem.Pairs)
	default:
		return e.encodeTagged(fieldNumber, elem)
	}
}
