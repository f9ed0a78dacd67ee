package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edjCase/wirebuf/schema"
)

func TestEncodeMessage_SingleScalar(t *testing.T) {
	data, err := EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.Uint64Value(2)},
	}, Limits{})
	require.NoError(t, err)
	require.Equal(t, []byte{0x08, 0x02}, data)
}

func TestEncodeMessage_StringAndBytes(t *testing.T) {
	data, err := EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.StringValue("test")},
		{Number: 2, Value: schema.BytesValue([]byte{0xFF, 0x0F})},
		{Number: 3, Value: schema.Uint64Value(2)},
		{Number: 4, Value: schema.BytesValue([]byte{0x02, 0x04})},
	}, Limits{})
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x0A, 0x04, 0x74, 0x65, 0x73, 0x74,
		0x12, 0x02, 0xFF, 0x0F,
		0x18, 0x02,
		0x22, 0x02, 0x02, 0x04,
	}, data)
}

func TestEncodeMessage_Sint32Boundaries(t *testing.T) {
	data, err := EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.Sint32Value(-1)},
	}, Limits{})
	require.NoError(t, err)
	require.Equal(t, []byte{0x08, 0x01}, data)

	data, err = EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.Sint32Value(2147483647)},
	}, Limits{})
	require.NoError(t, err)
	require.Equal(t, []byte{0x08, 0xFE, 0xFF, 0xFF, 0xFF, 0x0F}, data)
}

func TestEncodeMessage_PackedRepeated(t *testing.T) {
	data, err := EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.RepeatedValue([]schema.Value{
			schema.Int32Value(1), schema.Int32Value(2), schema.Int32Value(3),
		})},
	}, Limits{})
	require.NoError(t, err)
	require.Equal(t, []byte{0x0A, 0x03, 0x01, 0x02, 0x03}, data)
}

func TestEncodeMessage_RepeatedPolicy(t *testing.T) {
	// Empty: one zero-length length-delimited entry.
	data, err := EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.RepeatedValue(nil)},
	}, Limits{})
	require.NoError(t, err)
	require.Equal(t, []byte{0x0A, 0x00}, data)

	// Single element: emitted standalone, no length prefix overhead.
	data, err = EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.RepeatedValue([]schema.Value{schema.Int32Value(7)})},
	}, Limits{})
	require.NoError(t, err)
	require.Equal(t, []byte{0x08, 0x07}, data)

	// Composite elements: unpacked, one tagged entry per element.
	data, err = EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.RepeatedValue([]schema.Value{
			schema.StringValue("ab"), schema.StringValue("cd"),
		})},
	}, Limits{})
	require.NoError(t, err)
	require.Equal(t, []byte{0x0A, 0x02, 'a', 'b', 0x0A, 0x02, 'c', 'd'}, data)
}

func TestEncodeMessage_Map(t *testing.T) {
	data, err := EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.MapValue([]schema.MapPair{
			{Key: schema.Int32Value(1), Value: schema.StringValue("value1")},
			{Key: schema.Int32Value(2), Value: schema.StringValue("value2")},
		})},
	}, Limits{})
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x0A, 0x0A, 0x08, 0x01, 0x12, 0x06, 0x76, 0x61, 0x6C, 0x75, 0x65, 0x31,
		0x0A, 0x0A, 0x08, 0x02, 0x12, 0x06, 0x76, 0x61, 0x6C, 0x75, 0x65, 0x32,
	}, data)
}

func TestEncodeMessage_NestedMessageLengthPrefix(t *testing.T) {
	data, err := EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.MessageValue([]schema.Field{
			{Number: 1, Value: schema.Uint64Value(150)},
		})},
	}, Limits{})
	require.NoError(t, err)
	require.Equal(t, []byte{0x0A, 0x03, 0x08, 0x96, 0x01}, data)
}

func TestEncodeMessage_Errors(t *testing.T) {
	tests := []struct {
		name   string
		fields []schema.Field
		want   error
	}{
		{
			"field number zero",
			[]schema.Field{{Number: 0, Value: schema.Uint64Value(1)}},
			ErrInvalidFieldNumber,
		},
		{
			"field number too large",
			[]schema.Field{{Number: 1 << 29, Value: schema.Uint64Value(1)}},
			ErrInvalidFieldNumber,
		},
		{
			"heterogeneous repeated",
			[]schema.Field{{Number: 1, Value: schema.RepeatedValue([]schema.Value{
				schema.Int32Value(1), schema.StringValue("x"),
			})}},
			ErrHeterogeneousRepeated,
		},
		{
			"unknown value kind",
			[]schema.Field{{Number: 1, Value: schema.Value{Kind: "bogus"}}},
			ErrWireValueMismatch,
		},
		{
			"invalid utf-8 string",
			[]schema.Field{{Number: 1, Value: schema.StringValue(string([]byte{0xFF, 0xFE}))}},
			ErrInvalidUTF8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeMessage(tt.fields, Limits{})
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncodeMessage_EnumTwosComplement(t *testing.T) {
	data, err := EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.EnumValue(-1)},
	}, Limits{})
	require.NoError(t, err)
	// Negative enum values occupy the full 10 bytes.
	require.Equal(t, []byte{
		0x08, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01,
	}, data)
}

func TestEncodeMessage_DeterministicOrder(t *testing.T) {
	fields := []schema.Field{
		{Number: 3, Value: schema.Uint64Value(3)},
		{Number: 1, Value: schema.Uint64Value(1)},
		{Number: 2, Value: schema.Uint64Value(2)},
	}

	// Tag order follows input order, not field number order.
	data, err := EncodeMessage(fields, Limits{})
	require.NoError(t, err)
	require.Equal(t, []byte{0x18, 0x03, 0x08, 0x01, 0x10, 0x02}, data)

	again, err := EncodeMessage(fields, Limits{})
	require.NoError(t, err)
	require.Equal(t, data, again)
}

func TestEncodeMessage_DepthGuard(t *testing.T) {
	field := schema.Field{Number: 1, Value: schema.Uint64Value(1)}
	for i := 0; i < 10; i++ {
		field = schema.Field{Number: 1, Value: schema.MessageValue([]schema.Field{field})}
	}

	_, err := EncodeMessage([]schema.Field{field}, Limits{MaxDepth: 5})
	require.ErrorIs(t, err, ErrDepthExceeded)

	_, err = EncodeMessage([]schema.Field{field}, Limits{MaxDepth: 11})
	require.NoError(t, err)
}

func TestEncodeMessage_PackedFixedWidth(t *testing.T) {
	data, err := EncodeMessage([]schema.Field{
		{Number: 2, Value: schema.RepeatedValue([]schema.Value{
			schema.Fixed32Value(1), schema.Fixed32Value(2),
		})},
	}, Limits{})
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x12, 0x08,
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
	}, data)
}
