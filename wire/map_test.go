package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edjCase/wirebuf/schema"
)

func mapInt32StringSchema() []schema.FieldType {
	return []schema.FieldType{
		{Number: 1, Type: schema.MapType(
			schema.ScalarType(schema.KindInt32),
			schema.ScalarType(schema.KindString),
		)},
	}
}

func TestMap_RoundTrip(t *testing.T) {
	input := []schema.Field{
		{Number: 1, Value: schema.MapValue([]schema.MapPair{
			{Key: schema.Int32Value(1), Value: schema.StringValue("value1")},
			{Key: schema.Int32Value(2), Value: schema.StringValue("value2")},
		})},
	}

	data, err := EncodeMessage(input, Limits{})
	require.NoError(t, err)

	fields, err := DecodeMessage(data, mapInt32StringSchema(), Limits{})
	require.NoError(t, err)
	require.Equal(t, input, fields)
}

func TestMap_MissingKeyAndValueDefault(t *testing.T) {
	// An empty entry submessage yields zero key and zero value.
	input := []byte{0x0A, 0x00}

	fields, err := DecodeMessage(input, mapInt32StringSchema(), Limits{})
	require.NoError(t, err)
	require.Equal(t, []schema.Field{
		{Number: 1, Value: schema.MapValue([]schema.MapPair{
			{Key: schema.Int32Value(0), Value: schema.StringValue("")},
		})},
	}, fields)

	// Key only: value defaults.
	input = []byte{0x0A, 0x02, 0x08, 0x07}
	fields, err = DecodeMessage(input, mapInt32StringSchema(), Limits{})
	require.NoError(t, err)
	require.Equal(t, schema.MapValue([]schema.MapPair{
		{Key: schema.Int32Value(7), Value: schema.StringValue("")},
	}), fields[0].Value)
}

func TestMap_UnknownEntryFieldRejected(t *testing.T) {
	// Entry contains field 3, which map entries may not carry.
	input := []byte{0x0A, 0x02, 0x18, 0x01}

	_, err := DecodeMessage(input, mapInt32StringSchema(), Limits{})
	require.ErrorIs(t, err, ErrInvalidMapEntry)
}

func TestMap_DuplicateKeysPreservedInOrder(t *testing.T) {
	// Two entries with the same key are both retained, wire order kept.
	input := []schema.Field{
		{Number: 1, Value: schema.MapValue([]schema.MapPair{
			{Key: schema.Int32Value(1), Value: schema.StringValue("first")},
			{Key: schema.Int32Value(1), Value: schema.StringValue("second")},
		})},
	}

	data, err := EncodeMessage(input, Limits{})
	require.NoError(t, err)

	fields, err := DecodeMessage(data, mapInt32StringSchema(), Limits{})
	require.NoError(t, err)
	require.Equal(t, input, fields)
}

func TestMap_MergeAcrossWireOccurrences(t *testing.T) {
	// Map entries for one field number spread across the stream concatenate.
	one, err := EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.MapValue([]schema.MapPair{
			{Key: schema.Int32Value(1), Value: schema.StringValue("a")},
		})},
	}, Limits{})
	require.NoError(t, err)

	two, err := EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.MapValue([]schema.MapPair{
			{Key: schema.Int32Value(2), Value: schema.StringValue("b")},
		})},
	}, Limits{})
	require.NoError(t, err)

	fields, err := DecodeMessage(append(one, two...), mapInt32StringSchema(), Limits{})
	require.NoError(t, err)
	require.Equal(t, []schema.Field{
		{Number: 1, Value: schema.MapValue([]schema.MapPair{
			{Key: schema.Int32Value(1), Value: schema.StringValue("a")},
			{Key: schema.Int32Value(2), Value: schema.StringValue("b")},
		})},
	}, fields)
}

func TestMap_MessageValues(t *testing.T) {
	inner := []schema.FieldType{
		{Number: 1, Type: schema.ScalarType(schema.KindUint64)},
	}
	fieldTypes := []schema.FieldType{
		{Number: 4, Type: schema.MapType(
			schema.ScalarType(schema.KindString),
			schema.MessageType(inner),
		)},
	}

	input := []schema.Field{
		{Number: 4, Value: schema.MapValue([]schema.MapPair{
			{
				Key: schema.StringValue("k"),
				Value: schema.MessageValue([]schema.Field{
					{Number: 1, Value: schema.Uint64Value(42)},
				}),
			},
		})},
	}

	data, err := EncodeMessage(input, Limits{})
	require.NoError(t, err)

	fields, err := DecodeMessage(data, fieldTypes, Limits{})
	require.NoError(t, err)
	require.Equal(t, input, fields)
}

func TestMap_EncodeInvalidShapes(t *testing.T) {
	// Message keys are not legal.
	_, err := EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.MapValue([]schema.MapPair{
			{Key: schema.MessageValue(nil), Value: schema.StringValue("x")},
		})},
	}, Limits{})
	require.ErrorIs(t, err, ErrInvalidMapEntry)

	// Nested repeated values are not legal.
	_, err = EncodeMessage([]schema.Field{
		{Number: 1, Value: schema.MapValue([]schema.MapPair{
			{Key: schema.Int32Value(1), Value: schema.RepeatedValue(nil)},
		})},
	}, Limits{})
	require.ErrorIs(t, err, ErrInvalidMapEntry)
}

func TestMap_DecodeInvalidKeyType(t *testing.T) {
	fieldTypes := []schema.FieldType{
		{Number: 1, Type: schema.MapType(
			schema.MessageType(nil),
			schema.ScalarType(schema.KindString),
		)},
	}

	input := []byte{0x0A, 0x00}
	_, err := DecodeMessage(input, fieldTypes, Limits{})
	require.ErrorIs(t, err, ErrInvalidMapEntry)
}
