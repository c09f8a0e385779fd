package proton

import (
	"fmt"
	"io"
	"math"

	"github.com/Neumenon/proton/wire"
)

// Marshal serializes the message to wire bytes.
//
// Emission order is ascending field number — not required by the
// format, but pinned for deterministic, testable output — followed
// by the unknown-field list verbatim. Optional fields are emitted
// only when set; repeated fields once per element, in insertion
// order. Embedded messages are length-prefixed recursive encodings.
//
// Fails with ErrMissingRequired before producing any bytes if a
// required field (at any nesting depth) is unset.
func (m *Message) Marshal() ([]byte, error) {
	if !m.schema.final {
		return nil, fmt.Errorf("%w: %s", errNotFinalized, m.schema.name)
	}
	if err := m.ValidateRequired(); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 64)
	for _, fd := range m.schema.ordered {
		fs := m.values[fd.Number]
		switch fd.Label {
		case LabelRepeated:
			if fs == nil {
				continue
			}
			for _, v := range fs.list {
				var err error
				buf, err = appendField(buf, fd, v)
				if err != nil {
					return nil, err
				}
			}
		default:
			if fs == nil || fs.value == nil {
				// Required absence was caught by ValidateRequired;
				// unset optionals stay off the wire.
				continue
			}
			var err error
			buf, err = appendField(buf, fd, fs.value)
			if err != nil {
				return nil, err
			}
		}
	}

	// Unknown fields: re-pack the tag from the stored number and
	// wire type, copy the captured value bytes unchanged.
	for _, u := range m.unknown {
		buf = wire.AppendTag(buf, u.Number, u.Type)
		buf = append(buf, u.Data...)
	}

	return buf, nil
}

// MarshalTo serializes the message to w, returning the number of
// bytes written.
func (m *Message) MarshalTo(w io.Writer) (int, error) {
	b, err := m.Marshal()
	if err != nil {
		return 0, err
	}
	return w.Write(b)
}

// appendField emits one tag/value pair for a present field.
func appendField(buf []byte, fd *FieldDef, v any) ([]byte, error) {
	buf = wire.AppendTag(buf, fd.Number, fd.Kind.wireType())

	switch fd.Kind {
	case KindInt32, KindEnum:
		// Two's complement reinterpreted as unsigned: negative
		// values sign-extend to ten bytes, matching the
		// interoperable format.
		buf = wire.AppendVarint(buf, uint64(int64(v.(int32))))
	case KindInt64:
		buf = wire.AppendVarint(buf, uint64(v.(int64)))
	case KindUint32:
		buf = wire.AppendVarint(buf, uint64(v.(uint32)))
	case KindUint64:
		buf = wire.AppendVarint(buf, v.(uint64))
	case KindSint32:
		buf = wire.AppendVarint(buf, uint64(wire.ZigzagEncode32(v.(int32))))
	case KindSint64:
		buf = wire.AppendVarint(buf, wire.ZigzagEncode64(v.(int64)))
	case KindBool:
		if v.(bool) {
			buf = wire.AppendVarint(buf, 1)
		} else {
			buf = wire.AppendVarint(buf, 0)
		}
	case KindFixed32:
		buf = wire.AppendFixed32(buf, v.(uint32))
	case KindSfixed32:
		buf = wire.AppendFixed32(buf, uint32(v.(int32)))
	case KindFixed64:
		buf = wire.AppendFixed64(buf, v.(uint64))
	case KindSfixed64:
		buf = wire.AppendFixed64(buf, uint64(v.(int64)))
	case KindFloat:
		buf = wire.AppendFixed32(buf, math.Float32bits(v.(float32)))
	case KindDouble:
		buf = wire.AppendFixed64(buf, math.Float64bits(v.(float64)))
	case KindString:
		s := v.(string)
		buf = wire.AppendVarint(buf, uint64(len(s)))
		buf = append(buf, s...)
	case KindBytes:
		b := v.([]byte)
		buf = wire.AppendVarint(buf, uint64(len(b)))
		buf = append(buf, b...)
	case KindMessage:
		sub, err := v.(*Message).Marshal()
		if err != nil {
			return nil, err
		}
		buf = wire.AppendVarint(buf, uint64(len(sub)))
		buf = append(buf, sub...)
	default:
		return nil, fmt.Errorf("proton: field %s has unsupported kind %s", fd.Name, fd.Kind)
	}

	return buf, nil
}
