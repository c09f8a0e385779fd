package proton

import (
	"fmt"
	"math"

	"github.com/Neumenon/proton/wire"
)

// Parse decodes wire bytes into a new message, consuming the entire
// input left to right in a single pass.
//
// Tags with no descriptor in the schema are never an error: their
// value bytes are captured verbatim on the unknown-field list and
// re-emitted by Marshal. A known field carried on an incompatible
// wire type fails with ErrWireTypeMismatch; input ending mid-field
// fails with ErrTruncated. On any failure no message is returned.
//
// Parse does not validate required fields — call ValidateRequired on
// the result when structural completeness matters.
func Parse(data []byte, s *Schema) (*Message, error) {
	if !s.final {
		return nil, fmt.Errorf("%w: %s", errNotFinalized, s.name)
	}

	m := NewMessage(s)
	for len(data) > 0 {
		number, wt, n, err := wire.ConsumeTag(data)
		if err != nil {
			return nil, fmt.Errorf("proton: %s: reading tag: %w", s.name, err)
		}
		data = data[n:]

		fd, ok := s.byNumber[number]
		if !ok {
			raw, n, err := consumeRaw(data, wt)
			if err != nil {
				return nil, fmt.Errorf("proton: %s: field %d: %w", s.name, number, err)
			}
			m.unknown = append(m.unknown, UnknownField{
				Number: number,
				Type:   wt,
				Data:   append([]byte(nil), raw...),
			})
			data = data[n:]
			continue
		}

		if wt != fd.Kind.wireType() {
			return nil, fmt.Errorf("%w: %s.%s is %s (wire %s), got wire %s",
				ErrWireTypeMismatch, s.name, fd.Name, fd.Kind, fd.Kind.wireType(), wt)
		}

		v, n, err := decodeValue(data, fd)
		if err != nil {
			return nil, fmt.Errorf("proton: %s.%s: %w", s.name, fd.Name, err)
		}
		data = data[n:]

		if fd.Label == LabelRepeated {
			err = m.Append(fd.Number, v)
		} else {
			// A scalar field appearing twice keeps the last value,
			// matching the interoperable format.
			err = m.Set(fd.Number, v)
		}
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// decodeValue decodes one value of the field's kind from the front
// of data, returning the value and bytes consumed.
func decodeValue(data []byte, fd *FieldDef) (any, int, error) {
	switch fd.Kind {
	case KindInt32, KindEnum:
		v, n, err := wire.Varint(data)
		if err != nil {
			return nil, 0, err
		}
		return int32(v), n, nil
	case KindInt64:
		v, n, err := wire.Varint(data)
		if err != nil {
			return nil, 0, err
		}
		return int64(v), n, nil
	case KindUint32:
		v, n, err := wire.Varint(data)
		if err != nil {
			return nil, 0, err
		}
		return uint32(v), n, nil
	case KindUint64:
		v, n, err := wire.Varint(data)
		if err != nil {
			return nil, 0, err
		}
		return v, n, nil
	case KindSint32:
		v, n, err := wire.Varint(data)
		if err != nil {
			return nil, 0, err
		}
		return wire.ZigzagDecode32(uint32(v)), n, nil
	case KindSint64:
		v, n, err := wire.Varint(data)
		if err != nil {
			return nil, 0, err
		}
		return wire.ZigzagDecode64(v), n, nil
	case KindBool:
		v, n, err := wire.Varint(data)
		if err != nil {
			return nil, 0, err
		}
		return v != 0, n, nil
	case KindFixed32:
		v, n, err := wire.Fixed32(data)
		if err != nil {
			return nil, 0, err
		}
		return v, n, nil
	case KindSfixed32:
		v, n, err := wire.Fixed32(data)
		if err != nil {
			return nil, 0, err
		}
		return int32(v), n, nil
	case KindFixed64:
		v, n, err := wire.Fixed64(data)
		if err != nil {
			return nil, 0, err
		}
		return v, n, nil
	case KindSfixed64:
		v, n, err := wire.Fixed64(data)
		if err != nil {
			return nil, 0, err
		}
		return int64(v), n, nil
	case KindFloat:
		v, n, err := wire.Fixed32(data)
		if err != nil {
			return nil, 0, err
		}
		return math.Float32frombits(v), n, nil
	case KindDouble:
		v, n, err := wire.Fixed64(data)
		if err != nil {
			return nil, 0, err
		}
		return math.Float64frombits(v), n, nil
	case KindString:
		b, n, err := consumeDelimited(data)
		if err != nil {
			return nil, 0, err
		}
		return string(b), n, nil
	case KindBytes:
		b, n, err := consumeDelimited(data)
		if err != nil {
			return nil, 0, err
		}
		return append([]byte(nil), b...), n, nil
	case KindMessage:
		b, n, err := consumeDelimited(data)
		if err != nil {
			return nil, 0, err
		}
		sub, err := Parse(b, fd.Message)
		if err != nil {
			return nil, 0, err
		}
		return sub, n, nil
	default:
		return nil, 0, fmt.Errorf("unsupported kind %s", fd.Kind)
	}
}

// consumeDelimited reads a varint length prefix and returns that
// many following bytes.
func consumeDelimited(data []byte) ([]byte, int, error) {
	size, n, err := wire.Varint(data)
	if err != nil {
		return nil, 0, err
	}
	if size > uint64(len(data)-n) {
		return nil, 0, wire.ErrTruncated
	}
	return data[n : n+int(size)], n + int(size), nil
}

// consumeRaw measures the value bytes belonging to a field of the
// given wire type without interpreting them. Used for unknown-field
// capture; for length-delimited values the returned bytes include
// the length prefix so re-encoding is a straight copy.
func consumeRaw(data []byte, wt wire.Type) ([]byte, int, error) {
	switch wt {
	case wire.TypeVarint:
		_, n, err := wire.Varint(data)
		if err != nil {
			return nil, 0, err
		}
		return data[:n], n, nil
	case wire.TypeFixed32:
		if len(data) < 4 {
			return nil, 0, wire.ErrTruncated
		}
		return data[:4], 4, nil
	case wire.TypeFixed64:
		if len(data) < 8 {
			return nil, 0, wire.ErrTruncated
		}
		return data[:8], 8, nil
	case wire.TypeBytes:
		_, n, err := consumeDelimited(data)
		if err != nil {
			return nil, 0, err
		}
		return data[:n], n, nil
	default:
		return nil, 0, wire.ErrUnsupportedType
	}
}
