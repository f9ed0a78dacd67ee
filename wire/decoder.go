package wire

import (
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/edjCase/wirebuf/schema"
)

// Decoder handles low-level protobuf wire format decoding
type Decoder struct {
	buf    []byte
	pos    int
	limits Limits
	depth  int
}

// NewDecoder creates a new wire format decoder
func NewDecoder(data []byte) *Decoder {
	return &Decoder{
		buf: data,
		pos: 0,
	}
}

// NewDecoderWithLimits creates a decoder with resource limits
func NewDecoderWithLimits(data []byte, limits Limits) *Decoder {
	return &Decoder{
		buf:    data,
		pos:    0,
		limits: limits,
	}
}

// child creates a sub-decoder over a payload slice, carrying limits and the
// current nesting depth.
func (d *Decoder) child(data []byte) *Decoder {
	return &Decoder{
		buf:    data,
		limits: d.limits,
		depth:  d.depth,
	}
}

// ===== RAW DECODING (C4, schemaless) =====

// DecodeRaw parses a byte stream into raw fields without a schema -
// main entry point for schemaless inspection.
func DecodeRaw(data []byte, limits Limits) ([]RawField, error) {
	d := NewDecoderWithLimits(data, limits)
	return d.DecodeRawFields()
}

// DecodeRawFields consumes the remaining input as a sequence of raw fields,
// in stream order. Clean end of stream terminates successfully; a partial
// tag or payload is an error.
func (d *Decoder) DecodeRawFields() ([]RawField, error) {
	var fields []RawField
	for {
		rf, err := d.DecodeRawField()
		if err != nil {
			return nil, err
		}
		if rf == nil {
			return fields, nil
		}
		fields = append(fields, *rf)
	}
}

// DecodeRawField decodes a single raw field from the current position.
// Returns (nil, nil) on clean end of stream.
func (d *Decoder) DecodeRawField() (*RawField, error) {
	if d.pos >= len(d.buf) {
		return nil, nil
	}

	tag, err := d.DecodeVarint()
	if err != nil {
		return nil, errors.Wrap(err, "field tag")
	}

	rawNumber := tag >> 3
	wireType := WireType(tag & 0x7)

	if rawNumber < uint64(MinFieldNumber) || rawNumber > uint64(MaxFieldNumber) {
		return nil, errors.Wrapf(ErrInvalidFieldNumber, "%d", rawNumber)
	}
	if !wireType.IsValid() {
		return nil, errors.Wrapf(ErrInvalidWireType, "wire code %d", wireType)
	}
	fieldNumber := FieldNumber(rawNumber)

	var data []byte
	switch wireType {
	case WireVarint:
		vd := NewVarintDecoder(d)
		data, err = vd.DecodeRawVarint()
	case WireFixed64:
		data, err = d.readRaw(8)
	case WireBytes:
		bd := NewBytesDecoder(d)
		data, err = bd.DecodeRawBytes()
	case WireFixed32:
		data, err = d.readRaw(4)
	}
	if err != nil {
		return nil, wrapWithField(err, fieldNumber)
	}

	return &RawField{
		FieldNumber: fieldNumber,
		WireType:    wireType,
		Data:        data,
	}, nil
}

// readRaw returns the next n bytes without copying.
func (d *Decoder) readRaw(n int) ([]byte, error) {
	if d.pos+n > len(d.buf) {
		return nil, errors.Wrapf(ErrTruncatedInput, "need %d bytes, have %d", n, len(d.buf)-d.pos)
	}
	data := d.buf[d.pos : d.pos+n]
	d.pos += n
	return data, nil
}

// SkipField skips a field payload based on wire type
func (d *Decoder) SkipField(wireType WireType) error {
	switch wireType {
	case WireVarint:
		vd := NewVarintDecoder(d)
		return vd.SkipVarint()
	case WireFixed64:
		_, err := d.readRaw(8)
		return err
	case WireBytes:
		bd := NewBytesDecoder(d)
		return bd.SkipBytes()
	case WireFixed32:
		_, err := d.readRaw(4)
		return err
	default:
		return errors.Wrapf(ErrInvalidWireType, "wire code %d", wireType)
	}
}

// ===== TYPED DECODING (C5, schema-directed) =====

// DecodeMessage decodes protobuf bytes using schema - main entry point
func DecodeMessage(data []byte, fieldTypes []schema.FieldType, limits Limits) ([]schema.Field, error) {
	d := NewDecoderWithLimits(data, limits)
	return d.DecodeWithSchema(fieldTypes)
}

// DecodeFromRaw interprets already-parsed raw fields against a schema.
func DecodeFromRaw(raws []RawField, fieldTypes []schema.FieldType, limits Limits) ([]schema.Field, error) {
	d := NewDecoderWithLimits(nil, limits)
	return d.decodeTyped(raws, fieldTypes)
}

// DecodeWithSchema parses the remaining input and interprets it under the
// given schema, returning fields in schema declaration order.
func (d *Decoder) DecodeWithSchema(fieldTypes []schema.FieldType) ([]schema.Field, error) {
	raws, err := d.DecodeRawFields()
	if err != nil {
		return nil, err
	}
	return d.decodeTyped(raws, fieldTypes)
}

// accEntry is the merge accumulator for one field number.
type accEntry struct {
	value schema.Value
}

func (d *Decoder) decodeTyped(raws []RawField, fieldTypes []schema.FieldType) ([]schema.Field, error) {
	acc := make(map[int32]*accEntry)

	for _, raw := range raws {
		// Find field in schema
		var fieldType *schema.FieldType
		for i := range fieldTypes {
			if fieldTypes[i].Number == int32(raw.FieldNumber) {
				fieldType = &fieldTypes[i]
				break
			}
		}
		if fieldType == nil {
			return nil, wrapWithField(errors.Wrapf(ErrSchemaMismatch, "field %d", raw.FieldNumber), raw.FieldNumber)
		}

		value, err := d.interpretRaw(raw, &fieldType.Type)
		if err != nil {
			return nil, wrapWithField(err, raw.FieldNumber)
		}

		// Merging rule - combine with any existing entry for this number.
		entry, ok := acc[fieldType.Number]
		if !ok {
			acc[fieldType.Number] = &accEntry{value: value}
			continue
		}
		merged, err := mergeValues(entry.value, value, &fieldType.Type)
		if err != nil {
			return nil, wrapWithField(err, raw.FieldNumber)
		}
		entry.value = merged
	}

	// Output in schema declaration order, omitting absent numbers.
	var fields []schema.Field
	for _, ft := range fieldTypes {
		if entry, ok := acc[ft.Number]; ok {
			fields = append(fields, schema.Field{Number: ft.Number, Value: entry.value})
		}
	}
	return fields, nil
}

// mergeValues combines two occurrences of the same field number.
// Repeated and map fields concatenate; singular fields promote to repeated
// so every wire occurrence is preserved.
func mergeValues(old, next schema.Value, t *schema.ValueType) (schema.Value, error) {
	switch t.Kind {
	case schema.KindRepeated:
		old.Elems = append(old.Elems, next.Elems...)
		return old, nil
	case schema.KindMap:
		old.Pairs = append(old.Pairs, next.Pairs...)
		return old, nil
	default:
		if old.Kind == schema.KindRepeated {
			if len(old.Elems) > 0 && !schema.SameShape(old.Elems[0], next) {
				return schema.Value{}, errors.Wrapf(ErrMergeTypeConflict, "%s vs %s", old.Elems[0].Kind, next.Kind)
			}
			old.Elems = append(old.Elems, next)
			return old, nil
		}
		if !schema.SameShape(old, next) {
			return schema.Value{}, errors.Wrapf(ErrMergeTypeConflict, "%s vs %s", old.Kind, next.Kind)
		}
		return schema.RepeatedValue([]schema.Value{old, next}), nil
	}
}

// interpretRaw interprets a raw payload under the schema's value type.
func (d *Decoder) interpretRaw(raw RawField, t *schema.ValueType) (schema.Value, error) {
	switch t.Kind {
	case schema.KindRepeated:
		return d.interpretRepeated(raw, t.Element)

	case schema.KindMap:
		if raw.WireType != WireBytes {
			return schema.Value{}, errors.Wrapf(ErrInvalidWireType, "map requires length-delimited, got wire code %d", raw.WireType)
		}
		md := NewMapDecoder(d)
		pair, err := md.DecodeMapEntry(raw.Data, t.MapKey, t.MapValue)
		if err != nil {
			return schema.Value{}, err
		}
		return schema.MapValue([]schema.MapPair{pair}), nil

	case schema.KindMessage:
		if raw.WireType != WireBytes {
			return schema.Value{}, errors.Wrapf(ErrInvalidWireType, "message requires length-delimited, got wire code %d", raw.WireType)
		}
		md := NewMessageDecoder(d)
		fields, err := md.DecodeMessage(raw.Data, t.Message)
		if err != nil {
			return schema.Value{}, err
		}
		return schema.MessageValue(fields), nil

	case schema.KindString:
		if raw.WireType != WireBytes {
			return schema.Value{}, errors.Wrapf(ErrInvalidWireType, "string requires length-delimited, got wire code %d", raw.WireType)
		}
		if !utf8.Valid(raw.Data) {
			return schema.Value{}, ErrInvalidUTF8
		}
		return schema.StringValue(string(raw.Data)), nil

	case schema.KindBytes:
		if raw.WireType != WireBytes {
			return schema.Value{}, errors.Wrapf(ErrInvalidWireType, "bytes requires length-delimited, got wire code %d", raw.WireType)
		}
		data := make([]byte, len(raw.Data))
		copy(data, raw.Data)
		return schema.BytesValue(data), nil

	default:
		return d.interpretScalar(raw, t.Kind)
	}
}

// interpretRepeated handles both wire encodings of a repeated field:
// packed (one length-delimited payload of concatenated elements) and
// unpacked (one tagged entry per element).
func (d *Decoder) interpretRepeated(raw RawField, element *schema.ValueType) (schema.Value, error) {
	if schema.IsSelfContained(element.Kind) && raw.WireType == WireBytes {
		// Packed array: decode elements until the payload is exhausted.
		sub := d.child(raw.Data)
		elems := []schema.Value{}
		for sub.pos < len(sub.buf) {
			v, err := sub.decodeScalarElement(element.Kind)
			if err != nil {
				return schema.Value{}, errors.Wrap(err, "packed element")
			}
			elems = append(elems, v)
		}
		return schema.RepeatedValue(elems), nil
	}

	// Unpacked: the payload carries exactly one element.
	v, err := d.interpretRaw(raw, element)
	if err != nil {
		return schema.Value{}, err
	}
	return schema.RepeatedValue([]schema.Value{v}), nil
}

// interpretScalar interprets a self-contained scalar payload, checking
// wire-type compatibility first.
func (d *Decoder) interpretScalar(raw RawField, kind schema.Kind) (schema.Value, error) {
	expected, ok := WireTypeForKind(kind)
	if !ok {
		return schema.Value{}, errors.Wrapf(ErrWireValueMismatch, "kind %s", kind)
	}
	if raw.WireType != expected {
		return schema.Value{}, errors.Wrapf(ErrInvalidWireType, "%s requires wire code %d, got %d", kind, expected, raw.WireType)
	}
	sub := d.child(raw.Data)
	return sub.decodeScalarElement(kind)
}

// decodeScalarElement decodes one self-contained value from the current
// position. Used for singular scalars and for packed array elements.
func (d *Decoder) decodeScalarElement(kind schema.Kind) (schema.Value, error) {
	if schema.IsVarintKind(kind) {
		raw, err := d.DecodeVarint()
		if err != nil {
			return schema.Value{}, err
		}
		return convertVarint(kind, raw)
	}

	fd := NewFixedDecoder(d)
	switch kind {
	case schema.KindFixed32:
		v, err := fd.DecodeFixed32()
		if err != nil {
			return schema.Value{}, err
		}
		return schema.Fixed32Value(v), nil
	case schema.KindSfixed32:
		v, err := fd.DecodeSfixed32()
		if err != nil {
			return schema.Value{}, err
		}
		return schema.Sfixed32Value(v), nil
	case schema.KindFloat:
		v, err := fd.DecodeFloat32()
		if err != nil {
			return schema.Value{}, err
		}
		return schema.FloatValue(v), nil
	case schema.KindFixed64:
		v, err := fd.DecodeFixed64()
		if err != nil {
			return schema.Value{}, err
		}
		return schema.Fixed64Value(v), nil
	case schema.KindSfixed64:
		v, err := fd.DecodeSfixed64()
		if err != nil {
			return schema.Value{}, err
		}
		return schema.Sfixed64Value(v), nil
	case schema.KindDouble:
		v, err := fd.DecodeFloat64()
		if err != nil {
			return schema.Value{}, err
		}
		return schema.DoubleValue(v), nil
	default:
		return schema.Value{}, errors.Wrapf(ErrWireValueMismatch, "kind %s is not self-contained", kind)
	}
}

// convertVarint dispatches a raw unsigned varint to its schema-declared
// varint-class type with range and domain checks.
func convertVarint(kind schema.Kind, raw uint64) (schema.Value, error) {
	switch kind {
	case schema.KindInt32, schema.KindEnum:
		v, err := varintToInt32(raw)
		if err != nil {
			return schema.Value{}, err
		}
		if kind == schema.KindEnum {
			return schema.EnumValue(v), nil
		}
		return schema.Int32Value(v), nil
	case schema.KindInt64:
		return schema.Int64Value(int64(raw)), nil
	case schema.KindUint32:
		if raw > 0xFFFFFFFF {
			return schema.Value{}, errors.Wrapf(ErrVarintOutOfRange, "uint32 payload %d", raw)
		}
		return schema.Uint32Value(uint32(raw)), nil
	case schema.KindUint64:
		return schema.Uint64Value(raw), nil
	case schema.KindSint32:
		if raw > 0xFFFFFFFF {
			return schema.Value{}, errors.Wrapf(ErrVarintOutOfRange, "sint32 payload %d", raw)
		}
		return schema.Sint32Value(DecodeZigZag32(raw)), nil
	case schema.KindSint64:
		return schema.Sint64Value(DecodeZigZag64(raw)), nil
	case schema.KindBool:
		if raw > 1 {
			return schema.Value{}, errors.Wrapf(ErrInvalidBool, "payload %d", raw)
		}
		return schema.BoolValue(raw == 1), nil
	default:
		return schema.Value{}, errors.Wrapf(ErrWireValueMismatch, "kind %s is not a varint type", kind)
	}
}

// varintToInt32 accepts either a plain 32-bit payload or the 64-bit
// sign-extended form the reference encoder emits for negatives, and
// reinterprets the low 32 bits as two's complement.
func varintToInt32(raw uint64) (int32, error) {
	if signed := int64(raw); signed >= -0x80000000 && signed <= 0x7FFFFFFF {
		return int32(signed), nil
	}
	if raw <= 0xFFFFFFFF {
		return int32(uint32(raw)), nil
	}
	return 0, errors.Wrapf(ErrVarintOutOfRange, "int32 payload %d", raw)
}
