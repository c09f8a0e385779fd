// Package wire implements the low-level byte encoding shared by the
// PROTON codec: base-128 varints, zigzag mapping for signed values,
// little-endian fixed-width integers, and field tag packing.
//
// The encoding matches the standard Protocol Buffers binary wire
// format, so bytes produced here interoperate with any conforming
// implementation.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Type is the 3-bit wire type stored in the low bits of a field tag.
type Type uint8

const (
	TypeVarint  Type = 0 // varint scalars, bools, enums
	TypeFixed64 Type = 1 // fixed64, sfixed64, double
	TypeBytes   Type = 2 // strings, bytes, embedded messages
	TypeFixed32 Type = 5 // fixed32, sfixed32, float
)

// String returns the wire type name.
func (t Type) String() string {
	switch t {
	case TypeVarint:
		return "varint"
	case TypeFixed64:
		return "fixed64"
	case TypeBytes:
		return "bytes"
	case TypeFixed32:
		return "fixed32"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// MaxVarintLen is the maximum encoded size of a 64-bit varint.
const MaxVarintLen = 10

var (
	// ErrMalformedVarint reports a varint that does not terminate
	// within MaxVarintLen bytes or overflows 64 bits.
	ErrMalformedVarint = errors.New("wire: malformed varint")

	// ErrTruncated reports input that ends in the middle of a value.
	ErrTruncated = errors.New("wire: truncated input")

	// ErrUnsupportedType reports a tag carrying a wire type this codec
	// does not handle (the legacy group markers 3 and 4, or the
	// undefined values 6 and 7).
	ErrUnsupportedType = errors.New("wire: unsupported wire type")

	// ErrInvalidNumber reports a tag whose field number is zero or
	// above the 29-bit maximum.
	ErrInvalidNumber = errors.New("wire: field number out of range")
)

// MaxFieldNumber is the largest field number a tag can carry: the tag
// varint holds the number in its upper bits, three bits go to the
// wire type, and tags are capped at 32 bits.
const MaxFieldNumber = 1<<29 - 1

// ============================================================
// Varints
// ============================================================

// AppendVarint appends v in base-128 encoding, least-significant
// group first, continuation bit in the high bit of each byte.
func AppendVarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

// Varint decodes a varint from the front of b, returning the value
// and the number of bytes consumed.
//
// Fails with ErrTruncated if b ends mid-sequence and with
// ErrMalformedVarint if the sequence runs past MaxVarintLen bytes or
// does not fit in 64 bits.
func Varint(b []byte) (uint64, int, error) {
	var v uint64
	for i := 0; i < MaxVarintLen; i++ {
		if i >= len(b) {
			return 0, 0, ErrTruncated
		}
		c := b[i]
		if i == MaxVarintLen-1 && c > 1 {
			// The tenth byte may only contribute the top bit of a
			// 64-bit value.
			return 0, 0, ErrMalformedVarint
		}
		v |= uint64(c&0x7f) << (7 * i)
		if c < 0x80 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrMalformedVarint
}

// ============================================================
// Zigzag
// ============================================================

// ZigzagEncode64 maps a signed 64-bit value to an unsigned one so
// that small magnitudes of either sign stay short under varint
// encoding: 0→0, -1→1, 1→2, -2→3, ...
func ZigzagEncode64(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

// ZigzagDecode64 reverses ZigzagEncode64.
func ZigzagDecode64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// ZigzagEncode32 is the 32-bit analogue of ZigzagEncode64.
func ZigzagEncode32(v int32) uint32 {
	return uint32(v<<1) ^ uint32(v>>31)
}

// ZigzagDecode32 reverses ZigzagEncode32.
func ZigzagDecode32(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

// ============================================================
// Fixed-width
// ============================================================

// AppendFixed32 appends v as 4 little-endian bytes.
func AppendFixed32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

// Fixed32 decodes 4 little-endian bytes from the front of b.
func Fixed32(b []byte) (uint32, int, error) {
	if len(b) < 4 {
		return 0, 0, ErrTruncated
	}
	return binary.LittleEndian.Uint32(b), 4, nil
}

// AppendFixed64 appends v as 8 little-endian bytes.
func AppendFixed64(b []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(b, v)
}

// Fixed64 decodes 8 little-endian bytes from the front of b.
func Fixed64(b []byte) (uint64, int, error) {
	if len(b) < 8 {
		return 0, 0, ErrTruncated
	}
	return binary.LittleEndian.Uint64(b), 8, nil
}

// ============================================================
// Tags
// ============================================================

// MakeTag packs a field number and wire type into a tag value.
func MakeTag(number int32, t Type) uint64 {
	return uint64(number)<<3 | uint64(t)
}

// SplitTag unpacks a tag into its field number and wire type.
// Wire types 3 and 4 (group markers) and the undefined values 6 and 7
// fail with ErrUnsupportedType; a field number of zero or above
// MaxFieldNumber fails with ErrInvalidNumber.
func SplitTag(tag uint64) (int32, Type, error) {
	t := Type(tag & 0x7)
	switch t {
	case TypeVarint, TypeFixed64, TypeBytes, TypeFixed32:
	default:
		return 0, 0, fmt.Errorf("%w: %d", ErrUnsupportedType, uint8(t))
	}
	number := tag >> 3
	if number == 0 || number > MaxFieldNumber {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidNumber, number)
	}
	return int32(number), t, nil
}

// AppendTag appends the packed tag for a field number and wire type.
func AppendTag(b []byte, number int32, t Type) []byte {
	return AppendVarint(b, MakeTag(number, t))
}

// ConsumeTag decodes a tag from the front of b, returning the field
// number, wire type, and bytes consumed.
func ConsumeTag(b []byte) (int32, Type, int, error) {
	tag, n, err := Varint(b)
	if err != nil {
		return 0, 0, 0, err
	}
	number, t, err := SplitTag(tag)
	if err != nil {
		return 0, 0, 0, err
	}
	return number, t, n, nil
}
