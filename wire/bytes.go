package wire

import (
	"github.com/pkg/errors"
)

// BytesDecoder handles length-delimited bytes decoding operations
type BytesDecoder struct {
	decoder *Decoder
}

// BytesEncoder handles length-delimited bytes encoding operations
type BytesEncoder struct {
	encoder *Encoder
}

// NewBytesDecoder creates a new bytes decoder
func NewBytesDecoder(d *Decoder) *BytesDecoder {
	return &BytesDecoder{decoder: d}
}

// NewBytesEncoder creates a new bytes encoder
func NewBytesEncoder(e *Encoder) *BytesEncoder {
	return &BytesEncoder{encoder: e}
}

// DECODER METHODS

// readLength consumes a length prefix and validates it against the
// remaining input and the configured limit.
func (bd *BytesDecoder) readLength() (int, error) {
	vd := NewVarintDecoder(bd.decoder)
	length, err := vd.DecodeVarint()
	if err != nil {
		return 0, errors.Wrap(err, "length prefix")
	}

	d := bd.decoder
	if max := d.limits.MaxLength; max > 0 && length > uint64(max) {
		return 0, errors.Wrapf(ErrLengthExceeded, "length %d exceeds limit %d", length, max)
	}
	if length > uint64(len(d.buf)-d.pos) {
		return 0, errors.Wrapf(ErrTruncatedInput, "need %d bytes, have %d", length, len(d.buf)-d.pos)
	}
	return int(length), nil
}

// DecodeBytes decodes a length-delimited byte array. The payload is copied
// so the result does not alias the input buffer.
func (bd *BytesDecoder) DecodeBytes() ([]byte, error) {
	length, err := bd.readLength()
	if err != nil {
		return nil, err
	}

	d := bd.decoder
	data := make([]byte, length)
	copy(data, d.buf[d.pos:d.pos+length])
	d.pos += length

	return data, nil
}

// DecodeRawBytes decodes bytes without copying (shares buffer)
func (bd *BytesDecoder) DecodeRawBytes() ([]byte, error) {
	length, err := bd.readLength()
	if err != nil {
		return nil, err
	}

	d := bd.decoder
	data := d.buf[d.pos : d.pos+length]
	d.pos += length

	return data, nil
}

// SkipBytes skips over a length-delimited byte array
func (bd *BytesDecoder) SkipBytes() error {
	length, err := bd.readLength()
	if err != nil {
		return err
	}
	bd.decoder.pos += length
	return nil
}

// ENCODER METHODS

// EncodeBytes encodes a byte array as length-delimited
func (be *BytesEncoder) EncodeBytes(data []byte) {
	ve := NewVarintEncoder(be.encoder)
	ve.EncodeVarint(uint64(len(data)))
	be.encoder.buf = append(be.encoder.buf, data...)
}

// EncodeString encodes a string as length-delimited bytes
func (be *BytesEncoder) EncodeString(s string) {
	ve := NewVarintEncoder(be.encoder)
	ve.EncodeVarint(uint64(len(s)))
	be.encoder.buf = append(be.encoder.buf, s...)
}

// UTILITY FUNCTIONS

// BytesSize returns the size needed to encode the given bytes
func BytesSize(data []byte) int {
	return VarintSize(uint64(len(data))) + len(data)
}

// StringSize returns the size needed to encode the given string
func StringSize(s string) int {
	return VarintSize(uint64(len(s))) + len(s)
}

// Convenience methods for direct access

// DecodeBytes - convenience method for main decoder
func (d *Decoder) DecodeBytes() ([]byte, error) {
	bd := NewBytesDecoder(d)
	return bd.DecodeBytes()
}

// EncodeBytes - convenience method for main encoder
func (e *Encoder) EncodeBytes(data []byte) {
	be := NewBytesEncoder(e)
	be.EncodeBytes(data)
}

// EncodeString - convenience method for main encoder
func (e *Encoder) EncodeString(s string) {
	be := NewBytesEncoder(e)
	be.EncodeString(s)
}
