package wire

import (
	"github.com/pkg/errors"

	"github.com/edjCase/wirebuf/schema"
)

// Map entries are length-delimited submessages holding exactly a key at
// field number 1 and a value at field number 2.
const (
	mapKeyFieldNumber   FieldNumber = 1
	mapValueFieldNumber FieldNumber = 2
)

// MapDecoder handles map entry decoding operations
type MapDecoder struct {
	decoder *Decoder
}

// MapEncoder handles map entry encoding operations
type MapEncoder struct {
	encoder *Encoder
}

// NewMapDecoder creates a new map decoder
func NewMapDecoder(d *Decoder) *MapDecoder {
	return &MapDecoder{decoder: d}
}

// NewMapEncoder creates a new map encoder
func NewMapEncoder(e *Encoder) *MapEncoder {
	return &MapEncoder{encoder: e}
}

// DECODER METHODS

// DecodeMapEntry decodes one map entry payload. A missing key or value
// field defaults to the zero value of its type; any other field number in
// the entry is rejected.
func (md *MapDecoder) DecodeMapEntry(data []byte, keyType, valueType *schema.ValueType) (schema.MapPair, error) {
	d := md.decoder
	if d.depth+1 > d.limits.maxDepth() {
		return schema.MapPair{}, errors.Wrapf(ErrDepthExceeded, "depth %d", d.depth+1)
	}
	if !schema.IsValidMapKey(keyType.Kind) {
		return schema.MapPair{}, errors.Wrapf(ErrInvalidMapEntry, "%s is not a valid map key type", keyType.Kind)
	}

	entry := d.child(data)
	entry.depth++

	var key, value *schema.Value

	for entry.pos < len(entry.buf) {
		raw, err := entry.DecodeRawField()
		if err != nil {
			return schema.MapPair{}, errors.Wrap(err, "map entry")
		}
		if raw == nil {
			break
		}

		switch raw.FieldNumber {
		case mapKeyFieldNumber:
			v, err := entry.interpretRaw(*raw, keyType)
			if err != nil {
				return schema.MapPair{}, errors.Wrap(err, "map key")
			}
			key = &v
		case mapValueFieldNumber:
			v, err := entry.interpretRaw(*raw, valueType)
			if err != nil {
				return schema.MapPair{}, errors.Wrap(err, "map value")
			}
			value = &v
		default:
			return schema.MapPair{}, errors.Wrapf(ErrInvalidMapEntry, "unexpected field %d in map entry", raw.FieldNumber)
		}
	}

	if key == nil {
		zero := schema.ZeroValue(*keyType)
		key = &zero
	}
	if value == nil {
		zero := schema.ZeroValue(*valueType)
		value = &zero
	}

	return schema.MapPair{Key: *key, Value: *value}, nil
}

// ENCODER METHODS

// EncodeMap emits one length-delimited entry per pair, all under the same
// field number, preserving input order.
func (me *MapEncoder) EncodeMap(fieldNumber FieldNumber, pairs []schema.MapPair) error {
	for _, pair := range pairs {
		if err := me.EncodeMapEntry(fieldNumber, pair); err != nil {
			return err
		}
	}
	return nil
}

// EncodeMapEntry encodes a single key/value pair as a map entry submessage.
func (me *MapEncoder) EncodeMapEntry(fieldNumber FieldNumber, pair schema.MapPair) error {
	e := me.encoder
	if e.depth+1 > e.limits.maxDepth() {
		return errors.Wrapf(ErrDepthExceeded, "depth %d", e.depth+1)
	}
	if !schema.IsValidMapKey(pair.Key.Kind) {
		return errors.Wrapf(ErrInvalidMapEntry, "%s is not a valid map key type", pair.Key.Kind)
	}
	if pair.Value.Kind == schema.KindRepeated || pair.Value.Kind == schema.KindMap {
		return errors.Wrapf(ErrInvalidMapEntry, "%s is not a valid map value type", pair.Value.Kind)
	}

	entry := e.staging()
	if err := entry.encodeTagged(mapKeyFieldNumber, pair.Key); err != nil {
		return errors.Wrap(err, "map key")
	}
	if err := entry.encodeTagged(mapValueFieldNumber, pair.Value); err != nil {
		return errors.Wrap(err, "map value")
	}

	ve := NewVarintEncoder(e)
	ve.EncodeVarint(uint64(MakeTag(fieldNumber, WireBytes)))
	be := NewBytesEncoder(e)
	be.EncodeBytes(entry.Bytes())
	return nil
}
