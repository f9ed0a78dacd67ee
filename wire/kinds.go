package wire

import (
	"github.com/edjCase/wirebuf/schema"
)

// WireTypeForKind maps a value discriminant to the wire type it encodes
// under. Repeated has no single mapping (the packing policy decides) and
// reports false; map entries always ride WireBytes per entry.
func WireTypeForKind(kind schema.Kind) (WireType, bool) {
	switch kind {
	case schema.KindInt32, schema.KindInt64, schema.KindUint32, schema.KindUint64,
		schema.KindSint32, schema.KindSint64, schema.KindBool, schema.KindEnum:
		return WireVarint, true
	case schema.KindFixed32, schema.KindSfixed32, schema.KindFloat:
		return WireFixed32, true
	case schema.KindFixed64, schema.KindSfixed64, schema.KindDouble:
		return WireFixed64, true
	case schema.KindString, schema.KindBytes, schema.KindMessage, schema.KindMap:
		return WireBytes, true
	default:
		return 0, false
	}
}
