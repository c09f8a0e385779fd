package proton

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
)

// ============================================================
// Map / JSON / CBOR Bridge
// ============================================================
//
// Renders messages into plain Go maps for logging, debugging, and
// handoff to generic tooling. The bridge is one-way: the wire format
// is the canonical encoding, and bridged output drops schema
// information (field numbers, kinds) that a round trip would need.

// ToMap renders the message as a map keyed by field name. Enum
// values with a declared name render as that name, unmapped ones as
// their raw integer. Embedded messages become nested maps, repeated
// fields become []any. Unknown fields, if any, appear under the
// "@unknown" key as {number, wire, data} entries.
func (m *Message) ToMap() map[string]any {
	out := make(map[string]any, len(m.schema.fields))
	for _, fd := range m.schema.fields {
		if fd.Label == LabelRepeated {
			fs := m.values[fd.Number]
			if fs == nil || len(fs.list) == 0 {
				continue
			}
			elems := make([]any, 0, len(fs.list))
			for _, v := range fs.list {
				elems = append(elems, bridgeValue(fd, v))
			}
			out[fd.Name] = elems
			continue
		}
		if !m.IsSet(fd.Number) {
			continue
		}
		out[fd.Name] = bridgeValue(fd, m.values[fd.Number].value)
	}
	if len(m.unknown) > 0 {
		unknown := make([]any, 0, len(m.unknown))
		for _, u := range m.unknown {
			unknown = append(unknown, map[string]any{
				"number": u.Number,
				"wire":   u.Type.String(),
				"data":   u.Data,
			})
		}
		out["@unknown"] = unknown
	}
	return out
}

func bridgeValue(fd *FieldDef, v any) any {
	switch fd.Kind {
	case KindEnum:
		if name, ok := fd.Enum.NameOf(v.(int32)); ok {
			return name
		}
		return v
	case KindMessage:
		return v.(*Message).ToMap()
	default:
		return v
	}
}

// MarshalJSON renders the message as a JSON object via ToMap, so
// messages drop into encoding/json marshalling directly. Bytes
// fields follow encoding/json's base64 convention.
func (m *Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToMap())
}

// MarshalCBOR renders the message as a CBOR map via ToMap.
func (m *Message) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(m.ToMap())
}
