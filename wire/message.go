package wire

import (
	"github.com/pkg/errors"

	"github.com/edjCase/wirebuf/schema"
)

// MessageDecoder handles nested message decoding operations
type MessageDecoder struct {
	decoder *Decoder
}

// MessageEncoder handles nested message encoding operations
type MessageEncoder struct {
	encoder *Encoder
}

// NewMessageDecoder creates a new message decoder
func NewMessageDecoder(d *Decoder) *MessageDecoder {
	return &MessageDecoder{decoder: d}
}

// NewMessageEncoder creates a new message encoder
func NewMessageEncoder(e *Encoder) *MessageEncoder {
	return &MessageEncoder{encoder: e}
}

// DECODER METHODS

// DecodeMessage decodes a nested message payload under its nested schema.
func (md *MessageDecoder) DecodeMessage(data []byte, fieldTypes []schema.FieldType) ([]schema.Field, error) {
	d := md.decoder
	if d.depth+1 > d.limits.maxDepth() {
		return nil, errors.Wrapf(ErrDepthExceeded, "depth %d", d.depth+1)
	}

	nested := d.child(data)
	nested.depth++
	return nested.DecodeWithSchema(fieldTypes)
}

// ENCODER METHODS

// EncodeMessage encodes nested fields as a length-delimited payload.
// The fields are staged into a scratch encoder first so the length prefix
// is known before emission.
func (me *MessageEncoder) EncodeMessage(fields []schema.Field) error {
	e := me.encoder
	if e.depth+1 > e.limits.maxDepth() {
		return errors.Wrapf(ErrDepthExceeded, "depth %d", e.depth+1)
	}

	staging := e.staging()
	if err := staging.EncodeFields(fields); err != nil {
		return err
	}

	be := NewBytesEncoder(e)
	be.EncodeBytes(staging.Bytes())
	return nil
}
