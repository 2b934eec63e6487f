package raster

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// DType is the storage type of raster pixels.
type DType uint8

const (
	Unknown DType = iota
	Uint8
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Float32
	Float64
)

var dtypeNames = [...]string{
	Unknown: "unknown",
	Uint8:   "uint8",
	Int8:    "int8",
	Uint16:  "uint16",
	Int16:   "int16",
	Uint32:  "uint32",
	Int32:   "int32",
	Float32: "float32",
	Float64: "float64",
}

// String implements fmt.Stringer.
func (d DType) String() string {
	if int(d) < len(dtypeNames) {
		return dtypeNames[d]
	}
	return fmt.Sprintf("DType(%d)", d)
}

// ParseDType parses a data type name. GDAL names (Byte, Float32, ...) are
// accepted as well as the lower-case names returned by String.
func ParseDType(s string) (DType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uint8", "byte", "u1":
		return Uint8, nil
	case "int8", "i1":
		return Int8, nil
	case "uint16", "u2":
		return Uint16, nil
	case "int16", "i2":
		return Int16, nil
	case "uint32", "u4":
		return Uint32, nil
	case "int32", "i4":
		return Int32, nil
	case "float32", "f4":
		return Float32, nil
	case "float64", "f8", "double":
		return Float64, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownDType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (d DType) MarshalText() ([]byte, error) {
	if d == Unknown || int(d) >= len(dtypeNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDType, d)
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DType) UnmarshalText(b []byte) error {
	v, err := ParseDType(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Size returns the number of bytes of one pixel value.
func (d DType) Size() int {
	switch d {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Float64:
		return 8
	}
	return 0
}

// IsInteger reports whether the type holds integers.
func (d DType) IsInteger() bool {
	return d >= Uint8 && d <= Int32
}

// Range returns the smallest and largest values representable by the type.
func (d DType) Range() (lo, hi float64) {
	switch d {
	case Uint8:
		return 0, math.MaxUint8
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Uint16:
		return 0, math.MaxUint16
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Uint32:
		return 0, math.MaxUint32
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Float32:
		return -math.MaxFloat32, math.MaxFloat32
	}
	return math.Inf(-1), math.Inf(1)
}

// Cast converts v to the nearest value the type can hold. Integer types
// truncate toward zero and saturate at their range; NaN becomes 0.
// Float32 rounds to single precision.
func (d DType) Cast(v float64) float64 {
	switch {
	case d.IsInteger():
		if math.IsNaN(v) {
			return 0
		}
		lo, hi := d.Range()
		return math.Max(lo, math.Min(hi, math.Trunc(v)))
	case d == Float32:
		return float64(float32(v))
	}
	return v
}

// Put encodes v, already cast to the type, into b using little-endian order.
// b must hold at least Size bytes.
func (d DType) Put(b []byte, v float64) {
	switch d {
	case Uint8:
		b[0] = uint8(v)
	case Int8:
		b[0] = uint8(int8(v))
	case Uint16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case Int16:
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
	case Uint32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case Int32:
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	case Float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
}

// Get decodes one little-endian value of the type from b.
func (d DType) Get(b []byte) float64 {
	switch d {
	case Uint8:
		return float64(b[0])
	case Int8:
		return float64(int8(b[0]))
	case Uint16:
		return float64(binary.LittleEndian.Uint16(b))
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case Uint32:
		return float64(binary.LittleEndian.Uint32(b))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return 0
}
