package schema

// Kind identifies the concrete type carried by a Value or ValueType.
type Kind string

const (
	KindInt32    Kind = "int32"
	KindInt64    Kind = "int64"
	KindUint32   Kind = "uint32"
	KindUint64   Kind = "uint64"
	KindSint32   Kind = "sint32"
	KindSint64   Kind = "sint64"
	KindBool     Kind = "bool"
	KindEnum     Kind = "enum"
	KindFixed32  Kind = "fixed32"
	KindSfixed32 Kind = "sfixed32"
	KindFloat    Kind = "float"
	KindFixed64  Kind = "fixed64"
	KindSfixed64 Kind = "sfixed64"
	KindDouble   Kind = "double"
	KindString   Kind = "string"
	KindBytes    Kind = "bytes"
	KindMessage  Kind = "message"
	KindRepeated Kind = "repeated"
	KindMap      Kind = "map"
)

// Value is a decoded or to-be-encoded protobuf value. Exactly one of the
// payload fields is meaningful, selected by Kind:
//
//	Int32   - int32, sint32, sfixed32, enum
//	Int64   - int64, sint64, sfixed64
//	Uint32  - uint32, fixed32
//	Uint64  - uint64, fixed64
//	Float   - float
//	Double  - double
//	Bool    - bool
//	Str     - string (must be well-formed UTF-8)
//	Bytes   - bytes
//	Message - message (ordered fields)
//	Elems   - repeated (homogeneous elements)
//	Pairs   - map (ordered key/value pairs)
type Value struct {
	Kind    Kind
	Int32   int32
	Int64   int64
	Uint32  uint32
	Uint64  uint64
	Float   float32
	Double  float64
	Bool    bool
	Str     string
	Bytes   []byte
	Message []Field
	Elems   []Value
	Pairs   []MapPair
}

// MapPair is one entry of a map value, in wire or input order.
type MapPair struct {
	Key   Value
	Value Value
}

// ValueType mirrors Value but carries only type structure.
type ValueType struct {
	Kind     Kind
	Message  []FieldType // for KindMessage: nested schema
	Element  *ValueType  // for KindRepeated: element type
	MapKey   *ValueType  // for KindMap
	MapValue *ValueType  // for KindMap
}

// Field pairs a field number with a value.
type Field struct {
	Number int32
	Value  Value
}

// FieldType pairs a field number with a value type.
type FieldType struct {
	Number int32
	Type   ValueType
}

// ===== CONSTRUCTORS =====

func Int32Value(v int32) Value    { return Value{Kind: KindInt32, Int32: v} }
func Int64Value(v int64) Value    { return Value{Kind: KindInt64, Int64: v} }
func Uint32Value(v uint32) Value  { return Value{Kind: KindUint32, Uint32: v} }
func Uint64Value(v uint64) Value  { return Value{Kind: KindUint64, Uint64: v} }
func Sint32Value(v int32) Value   { return Value{Kind: KindSint32, Int32: v} }
func Sint64Value(v int64) Value   { return Value{Kind: KindSint64, Int64: v} }
func BoolValue(v bool) Value      { return Value{Kind: KindBool, Bool: v} }
func EnumValue(v int32) Value     { return Value{Kind: KindEnum, Int32: v} }
func Fixed32Value(v uint32) Value { return Value{Kind: KindFixed32, Uint32: v} }
func Sfixed32Value(v int32) Value { return Value{Kind: KindSfixed32, Int32: v} }
func FloatValue(v float32) Value  { return Value{Kind: KindFloat, Float: v} }
func Fixed64Value(v uint64) Value { return Value{Kind: KindFixed64, Uint64: v} }
func Sfixed64Value(v int64) Value { return Value{Kind: KindSfixed64, Int64: v} }
func DoubleValue(v float64) Value { return Value{Kind: KindDouble, Double: v} }
func StringValue(v string) Value  { return Value{Kind: KindString, Str: v} }
func BytesValue(v []byte) Value   { return Value{Kind: KindBytes, Bytes: v} }

func MessageValue(fields []Field) Value { return Value{Kind: KindMessage, Message: fields} }
func RepeatedValue(elems []Value) Value { return Value{Kind: KindRepeated, Elems: elems} }
func MapValue(pairs []MapPair) Value    { return Value{Kind: KindMap, Pairs: pairs} }

func ScalarType(kind Kind) ValueType { return ValueType{Kind: kind} }

func MessageType(fields []FieldType) ValueType {
	return ValueType{Kind: KindMessage, Message: fields}
}

func RepeatedType(element ValueType) ValueType {
	return ValueType{Kind: KindRepeated, Element: &element}
}

func MapType(key, value ValueType) ValueType {
	return ValueType{Kind: KindMap, MapKey: &key, MapValue: &value}
}

// ===== KIND PREDICATES =====

var selfContained = map[Kind]struct{}{
	KindInt32:    {},
	KindInt64:    {},
	KindUint32:   {},
	KindUint64:   {},
	KindSint32:   {},
	KindSint64:   {},
	KindBool:     {},
	KindEnum:     {},
	KindFixed32:  {},
	KindSfixed32: {},
	KindFloat:    {},
	KindFixed64:  {},
	KindSfixed64: {},
	KindDouble:   {},
}

// IsSelfContained reports whether values of this kind encode without a
// length prefix and are therefore legal inside packed arrays.
func IsSelfContained(k Kind) bool {
	_, ok := selfContained[k]
	return ok
}

var varintKinds = map[Kind]struct{}{
	KindInt32:  {},
	KindInt64:  {},
	KindUint32: {},
	KindUint64: {},
	KindSint32: {},
	KindSint64: {},
	KindBool:   {},
	KindEnum:   {},
}

// IsVarintKind reports whether the kind rides the varint wire type.
func IsVarintKind(k Kind) bool {
	_, ok := varintKinds[k]
	return ok
}

// IsValidMapKey reports whether the kind may serve as a map key. Map keys
// must be self-contained scalars, strings or bytes.
func IsValidMapKey(k Kind) bool {
	if IsSelfContained(k) {
		return true
	}
	return k == KindString || k == KindBytes
}

// ===== SHAPE AND EQUALITY =====

// SameShape reports whether two values share a discriminant and,
// recursively, the same structure for maps and nested repeateds (compared
// by their first pair or element). Messages compare by discriminant only;
// their fields are not inspected. It is the homogeneity test for repeated
// values.
func SameShape(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindRepeated:
		if len(a.Elems) == 0 || len(b.Elems) == 0 {
			return true
		}
		return SameShape(a.Elems[0], b.Elems[0])
	case KindMap:
		if len(a.Pairs) == 0 || len(b.Pairs) == 0 {
			return true
		}
		return SameShape(a.Pairs[0].Key, b.Pairs[0].Key) &&
			SameShape(a.Pairs[0].Value, b.Pairs[0].Value)
	default:
		return true
	}
}

// Homogeneous reports whether all elements of a repeated value share the
// same shape. Zero- and one-element slices are trivially homogeneous.
func Homogeneous(elems []Value) bool {
	for i := 1; i < len(elems); i++ {
		if !SameShape(elems[0], elems[i]) {
			return false
		}
	}
	return true
}

// ZeroValue returns the proto3 zero value for a type. Used for map entries
// whose key or value field is absent on the wire.
func ZeroValue(t ValueType) Value {
	switch t.Kind {
	case KindMessage:
		return Value{Kind: KindMessage}
	case KindRepeated:
		return Value{Kind: KindRepeated}
	case KindMap:
		return Value{Kind: KindMap}
	case KindBytes:
		return Value{Kind: KindBytes, Bytes: []byte{}}
	default:
		return Value{Kind: t.Kind}
	}
}
