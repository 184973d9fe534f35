package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Item is the generic record shape stored by the engine: a schema-less JSON
// object. The primary key lives inside the item, at the store's key-path.
type Item = map[string]any

// Keys are encoded with a leading type tag so numeric and string keys can
// coexist in one bucket. Numbers are stored as order-preserving big-endian
// float bits.
const (
	keyTagNumber byte = 0x01
	keyTagString byte = 0x02
)

// encodeKey converts a key value into its stored byte representation.
// Numeric keys of any Go integer or float type collapse to float64, matching
// the round-trip behavior of JSON-decoded records.
func encodeKey(v any) ([]byte, error) {
	switch k := v.(type) {
	case string:
		return append([]byte{keyTagString}, k...), nil
	case float64:
		return encodeNumberKey(k), nil
	case float32:
		return encodeNumberKey(float64(k)), nil
	case int:
		return encodeNumberKey(float64(k)), nil
	case int8:
		return encodeNumberKey(float64(k)), nil
	case int16:
		return encodeNumberKey(float64(k)), nil
	case int32:
		return encodeNumberKey(float64(k)), nil
	case int64:
		return encodeNumberKey(float64(k)), nil
	case uint:
		return encodeNumberKey(float64(k)), nil
	case uint8:
		return encodeNumberKey(float64(k)), nil
	case uint16:
		return encodeNumberKey(float64(k)), nil
	case uint32:
		return encodeNumberKey(float64(k)), nil
	case uint64:
		return encodeNumberKey(float64(k)), nil
	default:
		return nil, fmt.Errorf("unsupported key type %T", v)
	}
}

// encodeNumberKey stores a float64 so that byte order matches numeric order:
// the sign bit is flipped for non-negative values, all bits for negative ones.
func encodeNumberKey(f float64) []byte {
	bits := math.Float64bits(f)
	if f >= 0 {
		bits |= 1 << 63
	} else {
		bits = ^bits
	}
	buf := make([]byte, 9)
	buf[0] = keyTagNumber
	binary.BigEndian.PutUint64(buf[1:], bits)
	return buf
}

// keyValue extracts the key-path value from an item. ok is false when the
// field is absent, nil, or a zero value eligible for auto-increment.
func keyValue(item Item, keyPath string) (any, bool) {
	v, present := item[keyPath]
	if !present || v == nil {
		return nil, false
	}
	switch k := v.(type) {
	case string:
		if k == "" {
			return nil, false
		}
	case float64:
		if k == 0 {
			return nil, false
		}
	}
	return v, true
}
