package protocol

import (
	"encoding/json"
	"math"
	"strconv"
)

type FieldKind int

const (
	KindUint FieldKind = iota
	KindString
	KindBytes
	// KindOther holds values with no numeric meaning: negative or fractional
	// numbers, null, objects and arrays that are not byte lists.
	KindOther
)

func (k FieldKind) String() string {
	switch k {
	case KindUint:
		return "uint"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// FieldValue is a message field value classified at load time.
type FieldValue struct {
	Kind  FieldKind
	num   uint64
	text  string
	raw   []byte
	other any
}

func UintField(v uint64) FieldValue {
	return FieldValue{Kind: KindUint, num: v}
}

func StringField(s string) FieldValue {
	return FieldValue{Kind: KindString, text: s}
}

func BytesField(b []byte) FieldValue {
	return FieldValue{Kind: KindBytes, raw: append([]byte(nil), b...)}
}

// OtherField keeps v for display only; it encodes as zero.
func OtherField(v any) FieldValue {
	return FieldValue{Kind: KindOther, other: v}
}

// Uint returns the numeric value. Non-numeric kinds encode as zero.
func (f FieldValue) Uint() uint64 {
	if f.Kind == KindUint {
		return f.num
	}
	return 0
}

// Str returns the string value, or "" for other kinds.
func (f FieldValue) Str() string {
	return f.text
}

// Bytes returns a copy of the byte array value.
func (f FieldValue) Bytes() []byte {
	return append([]byte(nil), f.raw...)
}

func (f FieldValue) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case KindString:
		return json.Marshal(f.text)
	case KindBytes:
		ints := make([]int, len(f.raw))
		for i, b := range f.raw {
			ints[i] = int(b)
		}
		return json.Marshal(ints)
	case KindOther:
		return json.Marshal(f.other)
	default:
		return json.Marshal(f.num)
	}
}

// ParseFieldValue classifies a decoded JSON/YAML value. It never fails:
// anything that is not an unsigned integer, a string or a list of bytes
// becomes KindOther.
func ParseFieldValue(v any) FieldValue {
	switch val := v.(type) {
	case string:
		return StringField(val)
	case bool:
		if val {
			return UintField(1)
		}
		return UintField(0)
	case []any:
		buf := make([]byte, 0, len(val))
		for _, item := range val {
			n, ok := parseUint(item)
			if !ok || n > math.MaxUint8 {
				return OtherField(v)
			}
			buf = append(buf, byte(n))
		}
		return FieldValue{Kind: KindBytes, raw: buf}
	default:
		if n, ok := parseUint(v); ok {
			return UintField(n)
		}
		return OtherField(v)
	}
}

func parseUint(v any) (uint64, bool) {
	switch n := v.(type) {
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		return u, err == nil
	case float64:
		if n < 0 || n != math.Trunc(n) || n >= math.MaxUint64 {
			return 0, false
		}
		return uint64(n), true
	case int:
		return uint64(n), n >= 0
	case int64:
		return uint64(n), n >= 0
	case uint:
		return uint64(n), true
	case uint64:
		return n, true
	default:
		return 0, false
	}
}
