package proton

import (
	"github.com/Neumenon/proton/wire"
)

// Kind identifies the declared type of a field's values.
type Kind uint8

const (
	KindInt32    Kind = iota // two's-complement varint
	KindInt64                // two's-complement varint
	KindUint32               // varint
	KindUint64               // varint
	KindSint32               // zigzag varint
	KindSint64               // zigzag varint
	KindFixed32              // 4-byte little-endian
	KindFixed64              // 8-byte little-endian
	KindSfixed32             // 4-byte little-endian, signed
	KindSfixed64             // 8-byte little-endian, signed
	KindBool                 // varint 0/1
	KindFloat                // 4-byte IEEE 754
	KindDouble               // 8-byte IEEE 754
	KindString               // length-delimited UTF-8
	KindBytes                // length-delimited raw bytes
	KindEnum                 // varint of the underlying integer
	KindMessage              // length-delimited embedded message
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindSint32:
		return "sint32"
	case KindSint64:
		return "sint64"
	case KindFixed32:
		return "fixed32"
	case KindFixed64:
		return "fixed64"
	case KindSfixed32:
		return "sfixed32"
	case KindSfixed64:
		return "sfixed64"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindEnum:
		return "enum"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

// wireType returns the wire type a kind encodes with.
func (k Kind) wireType() wire.Type {
	switch k {
	case KindFixed64, KindSfixed64, KindDouble:
		return wire.TypeFixed64
	case KindFixed32, KindSfixed32, KindFloat:
		return wire.TypeFixed32
	case KindString, KindBytes, KindMessage:
		return wire.TypeBytes
	default:
		return wire.TypeVarint
	}
}

// Label describes a field's cardinality and presence contract.
type Label uint8

const (
	LabelRequired Label = iota // must be set before encode
	LabelOptional              // explicit presence, default fallback
	LabelRepeated              // ordered sequence, zero or more
)

// String returns the label name.
func (l Label) String() string {
	switch l {
	case LabelRequired:
		return "required"
	case LabelOptional:
		return "optional"
	case LabelRepeated:
		return "repeated"
	default:
		return "unknown"
	}
}
