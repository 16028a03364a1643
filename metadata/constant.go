package metadata

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"
)

// Constant is a literal value in ECMA-335 blob encoding: little-endian
// integers and floats, UTF-16LE strings, and a 4-byte zero for null references.
type Constant struct {
	Blob []byte
	Type ElementType
}

// Value decodes the blob into a Go value:
// bool, uint16 (char), int8..int64, uint8..uint64, float32, float64, string,
// or nil for a null reference.
func (c Constant) Value() (any, error) {
	need := func(n int) error {
		if len(c.Blob) < n {
			return fmt.Errorf("constant %s: need %d bytes, have %d", c.Type, n, len(c.Blob))
		}
		return nil
	}

	switch c.Type {
	case ElementBoolean:
		if err := need(1); err != nil {
			return nil, err
		}
		return c.Blob[0] != 0, nil
	case ElementChar:
		if err := need(2); err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint16(c.Blob), nil
	case ElementI1:
		if err := need(1); err != nil {
			return nil, err
		}
		return int8(c.Blob[0]), nil
	case ElementU1:
		if err := need(1); err != nil {
			return nil, err
		}
		return c.Blob[0], nil
	case ElementI2:
		if err := need(2); err != nil {
			return nil, err
		}
		return int16(binary.LittleEndian.Uint16(c.Blob)), nil
	case ElementU2:
		if err := need(2); err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint16(c.Blob), nil
	case ElementI4:
		if err := need(4); err != nil {
			return nil, err
		}
		return int32(binary.LittleEndian.Uint32(c.Blob)), nil
	case ElementU4:
		if err := need(4); err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint32(c.Blob), nil
	case ElementI8:
		if err := need(8); err != nil {
			return nil, err
		}
		return int64(binary.LittleEndian.Uint64(c.Blob)), nil
	case ElementU8:
		if err := need(8); err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint64(c.Blob), nil
	case ElementR4:
		if err := need(4); err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(c.Blob)), nil
	case ElementR8:
		if err := need(8); err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(c.Blob)), nil
	case ElementString:
		if len(c.Blob)%2 != 0 {
			return nil, fmt.Errorf("constant string: odd blob length %d", len(c.Blob))
		}
		units := make([]uint16, len(c.Blob)/2)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(c.Blob[2*i:])
		}
		return string(utf16.Decode(units)), nil
	case ElementClass:
		if err := need(4); err != nil {
			return nil, err
		}
		if binary.LittleEndian.Uint32(c.Blob) != 0 {
			return nil, fmt.Errorf("constant class: non-null reference")
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("constant: unsupported element type %s", c.Type)
	}
}

// NewConstant encodes a Go value. Supported kinds mirror Value; a nil v
// produces a null class constant.
func NewConstant(v any) (Constant, error) {
	switch x := v.(type) {
	case nil:
		return Constant{Type: ElementClass, Blob: []byte{0, 0, 0, 0}}, nil
	case bool:
		if x {
			return Constant{Type: ElementBoolean, Blob: []byte{1}}, nil
		}
		return Constant{Type: ElementBoolean, Blob: []byte{0}}, nil
	case int8:
		return Constant{Type: ElementI1, Blob: []byte{byte(x)}}, nil
	case uint8:
		return Constant{Type: ElementU1, Blob: []byte{x}}, nil
	case int16:
		return Constant{Type: ElementI2, Blob: binary.LittleEndian.AppendUint16(nil, uint16(x))}, nil
	case uint16:
		return Constant{Type: ElementU2, Blob: binary.LittleEndian.AppendUint16(nil, x)}, nil
	case int32:
		return Constant{Type: ElementI4, Blob: binary.LittleEndian.AppendUint32(nil, uint32(x))}, nil
	case uint32:
		return Constant{Type: ElementU4, Blob: binary.LittleEndian.AppendUint32(nil, x)}, nil
	case int64:
		return Constant{Type: ElementI8, Blob: binary.LittleEndian.AppendUint64(nil, uint64(x))}, nil
	case uint64:
		return Constant{Type: ElementU8, Blob: binary.LittleEndian.AppendUint64(nil, x)}, nil
	case float32:
		return Constant{Type: ElementR4, Blob: binary.LittleEndian.AppendUint32(nil, math.Float32bits(x))}, nil
	case float64:
		return Constant{Type: ElementR8, Blob: binary.LittleEndian.AppendUint64(nil, math.Float64bits(x))}, nil
	case string:
		units := utf16.Encode([]rune(x))
		blob := make([]byte, 0, 2*len(units))
		for _, u := range units {
			blob = binary.LittleEndian.AppendUint16(blob, u)
		}
		return Constant{Type: ElementString, Blob: blob}, nil
	default:
		return Constant{}, fmt.Errorf("constant: unsupported Go type %T", v)
	}
}

// MustConstant is NewConstant for values known to be encodable.
func MustConstant(v any) Constant {
	c, err := NewConstant(v)
	if err != nil {
		panic(err)
	}
	return c
}

// CharConstant encodes a UTF-16 code unit as a char constant.
func CharConstant(r uint16) Constant {
	return Constant{Type: ElementChar, Blob: binary.LittleEndian.AppendUint16(nil, r)}
}
