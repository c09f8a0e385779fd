package proton

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Neumenon/proton/wire"
)

// UnknownField is one tag the decoder encountered with no descriptor
// in the schema. Data holds the value bytes exactly as captured from
// the wire (for length-delimited fields this includes the varint
// length prefix), so re-encoding copies them back verbatim.
type UnknownField struct {
	Number int32
	Type   wire.Type
	Data   []byte
}

// fieldState is the per-number storage slot of a message.
type fieldState struct {
	value any   // scalar kinds, set when present
	list  []any // repeated kinds, insertion order
}

// Message is the mutable per-instance value container for one
// schema. It tracks explicit presence for optional fields, keeps
// repeated fields in insertion order, and carries an append-only
// unknown-field list populated by the decoder.
//
// A message is exclusively owned: concurrent mutation requires
// external synchronization by the caller. The schema itself is
// read-only and freely shared.
type Message struct {
	schema  *Schema
	values  map[int32]*fieldState
	unknown []UnknownField
}

// NewMessage creates an empty message for a schema. All optional and
// repeated fields start absent and the unknown list starts empty.
func NewMessage(s *Schema) *Message {
	return &Message{
		schema: s,
		values: make(map[int32]*fieldState),
	}
}

// FromMap constructs a message from field values keyed by field
// name. Repeated fields take []any; embedded messages take either a
// *Message or a nested map[string]any.
func FromMap(s *Schema, fields map[string]any) (*Message, error) {
	m := NewMessage(s)
	// Walk the schema, not the map, so errors surface in a
	// deterministic order.
	for _, fd := range s.fields {
		v, ok := fields[fd.Name]
		if !ok {
			continue
		}
		if fd.Label == LabelRepeated {
			elems, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: field %s.%s expects []any, got %T",
					ErrTypeMismatch, s.name, fd.Name, v)
			}
			for _, elem := range elems {
				if err := m.Append(fd.Number, elem); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := m.Set(fd.Number, v); err != nil {
			return nil, err
		}
	}
	for name := range fields {
		if _, ok := s.byName[name]; !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, s.name, name)
		}
	}
	return m, nil
}

// Schema returns the schema this message is an instance of.
func (m *Message) Schema() *Schema {
	return m.schema
}

// ============================================================
// Mutators
// ============================================================

// Set assigns a scalar field value. Fails with ErrUnknownField if
// the schema has no descriptor for the number and ErrTypeMismatch if
// the value's type disagrees with the field's kind, or if the field
// is repeated (use Append).
func (m *Message) Set(number int32, v any) error {
	fd, ok := m.schema.byNumber[number]
	if !ok {
		return fmt.Errorf("%w: %s field %d", ErrUnknownField, m.schema.name, number)
	}
	if fd.Label == LabelRepeated {
		return fmt.Errorf("%w: %s.%s is repeated, use Append", ErrTypeMismatch, m.schema.name, fd.Name)
	}
	val, err := coerceScalar(fd, v)
	if err != nil {
		return err
	}
	m.state(number).value = val
	return nil
}

// Append pushes a value onto a repeated field's sequence. The same
// ErrUnknownField and ErrTypeMismatch rules as Set apply.
func (m *Message) Append(number int32, v any) error {
	fd, ok := m.schema.byNumber[number]
	if !ok {
		return fmt.Errorf("%w: %s field %d", ErrUnknownField, m.schema.name, number)
	}
	if fd.Label != LabelRepeated {
		return fmt.Errorf("%w: %s.%s is not repeated", ErrTypeMismatch, m.schema.name, fd.Name)
	}
	val, err := coerceScalar(fd, v)
	if err != nil {
		return err
	}
	fs := m.state(number)
	fs.list = append(fs.list, val)
	return nil
}

// Clear removes a field's value, returning it to the absent state.
func (m *Message) Clear(number int32) {
	delete(m.values, number)
}

func (m *Message) state(number int32) *fieldState {
	fs, ok := m.values[number]
	if !ok {
		fs = &fieldState{}
		m.values[number] = fs
	}
	return fs
}

// ============================================================
// Accessors
// ============================================================

// Get returns a field's value. Absent optional fields read as their
// declared default, or the kind's zero value if none was declared.
// Absent required fields fail with ErrFieldNotSet. Repeated fields
// return the backing []any sequence, which callers must not modify.
func (m *Message) Get(number int32) (any, error) {
	fd, ok := m.schema.byNumber[number]
	if !ok {
		return nil, fmt.Errorf("%w: %s field %d", ErrUnknownField, m.schema.name, number)
	}
	fs := m.values[number]
	if fd.Label == LabelRepeated {
		if fs == nil {
			return []any(nil), nil
		}
		return fs.list, nil
	}
	if fs == nil || fs.value == nil {
		if fd.Label == LabelRequired {
			return nil, fmt.Errorf("%w: %s.%s", ErrFieldNotSet, m.schema.name, fd.Name)
		}
		if fd.Default != nil {
			return fd.Default, nil
		}
		return zeroValue(fd), nil
	}
	return fs.value, nil
}

// GetInt32 returns an int32-valued field (int32, sint32, sfixed32,
// or enum kinds).
func (m *Message) GetInt32(number int32) (int32, error) {
	v, err := m.Get(number)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int32)
	if !ok {
		return 0, fmt.Errorf("%w: field %d holds %T, not int32", ErrTypeMismatch, number, v)
	}
	return n, nil
}

// GetInt64 returns an int64-valued field.
func (m *Message) GetInt64(number int32) (int64, error) {
	v, err := m.Get(number)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%w: field %d holds %T, not int64", ErrTypeMismatch, number, v)
	}
	return n, nil
}

// GetUint32 returns a uint32-valued field.
func (m *Message) GetUint32(number int32) (uint32, error) {
	v, err := m.Get(number)
	if err != nil {
		return 0, err
	}
	n, ok := v.(uint32)
	if !ok {
		return 0, fmt.Errorf("%w: field %d holds %T, not uint32", ErrTypeMismatch, number, v)
	}
	return n, nil
}

// GetUint64 returns a uint64-valued field.
func (m *Message) GetUint64(number int32) (uint64, error) {
	v, err := m.Get(number)
	if err != nil {
		return 0, err
	}
	n, ok := v.(uint64)
	if !ok {
		return 0, fmt.Errorf("%w: field %d holds %T, not uint64", ErrTypeMismatch, number, v)
	}
	return n, nil
}

// GetBool returns a bool-valued field.
func (m *Message) GetBool(number int32) (bool, error) {
	v, err := m.Get(number)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: field %d holds %T, not bool", ErrTypeMismatch, number, v)
	}
	return b, nil
}

// GetFloat returns a float-valued field.
func (m *Message) GetFloat(number int32) (float32, error) {
	v, err := m.Get(number)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float32)
	if !ok {
		return 0, fmt.Errorf("%w: field %d holds %T, not float32", ErrTypeMismatch, number, v)
	}
	return f, nil
}

// GetDouble returns a double-valued field.
func (m *Message) GetDouble(number int32) (float64, error) {
	v, err := m.Get(number)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: field %d holds %T, not float64", ErrTypeMismatch, number, v)
	}
	return f, nil
}

// GetString returns a string-valued field.
func (m *Message) GetString(number int32) (string, error) {
	v, err := m.Get(number)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %d holds %T, not string", ErrTypeMismatch, number, v)
	}
	return s, nil
}

// GetBytes returns a bytes-valued field.
func (m *Message) GetBytes(number int32) ([]byte, error) {
	v, err := m.Get(number)
	if err != nil {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: field %d holds %T, not []byte", ErrTypeMismatch, number, v)
	}
	return b, nil
}

// GetMessage returns an embedded-message field. Absent optional
// fields return nil.
func (m *Message) GetMessage(number int32) (*Message, error) {
	v, err := m.Get(number)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	sub, ok := v.(*Message)
	if !ok {
		return nil, fmt.Errorf("%w: field %d holds %T, not *Message", ErrTypeMismatch, number, v)
	}
	return sub, nil
}

// Repeated returns a repeated field's sequence in insertion order.
// The returned slice is the backing storage; callers must not modify
// it.
func (m *Message) Repeated(number int32) ([]any, error) {
	fd, ok := m.schema.byNumber[number]
	if !ok {
		return nil, fmt.Errorf("%w: %s field %d", ErrUnknownField, m.schema.name, number)
	}
	if fd.Label != LabelRepeated {
		return nil, fmt.Errorf("%w: %s.%s is not repeated", ErrTypeMismatch, m.schema.name, fd.Name)
	}
	if fs := m.values[number]; fs != nil {
		return fs.list, nil
	}
	return nil, nil
}

// Len returns the element count of a repeated field, or 0 for any
// other field.
func (m *Message) Len(number int32) int {
	if fs := m.values[number]; fs != nil {
		return len(fs.list)
	}
	return 0
}

// IsSet reports whether a field has an explicit value: a scalar that
// was assigned, or a repeated field with at least one element.
func (m *Message) IsSet(number int32) bool {
	fs := m.values[number]
	if fs == nil {
		return false
	}
	return fs.value != nil || len(fs.list) > 0
}

// Unknown returns the unknown-field list in wire order. Populated
// only by the decoder; read-only to callers.
func (m *Message) Unknown() []UnknownField {
	return m.unknown
}

// ============================================================
// Validation
// ============================================================

// ValidateRequired fails with ErrMissingRequired if any required
// field is unset, naming every missing field in ascending number
// order. Required-ness is a serialize-time and explicit-validate
// contract: partially built messages are fine until then.
func (m *Message) ValidateRequired() error {
	fields := m.schema.ordered
	if !m.schema.final {
		fields = m.schema.fields
	}
	var missing []string
	for _, fd := range fields {
		if fd.Label == LabelRequired && !m.IsSet(fd.Number) {
			missing = append(missing, fmt.Sprintf("%s.%s", m.schema.name, fd.Name))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}
	return nil
}

// ============================================================
// Equality
// ============================================================

// Equal reports structural equality: same schema, same presence,
// equal values (repeated order matters), and an identical
// unknown-field list.
func (m *Message) Equal(o *Message) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.schema != o.schema {
		return false
	}
	for _, fd := range m.schema.fields {
		if fd.Label == LabelRepeated {
			a, _ := m.Repeated(fd.Number)
			b, _ := o.Repeated(fd.Number)
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if !valueEqual(a[i], b[i]) {
					return false
				}
			}
			continue
		}
		if m.IsSet(fd.Number) != o.IsSet(fd.Number) {
			return false
		}
		if !m.IsSet(fd.Number) {
			continue
		}
		av := m.values[fd.Number].value
		bv := o.values[fd.Number].value
		if !valueEqual(av, bv) {
			return false
		}
	}
	if len(m.unknown) != len(o.unknown) {
		return false
	}
	for i := range m.unknown {
		a, b := m.unknown[i], o.unknown[i]
		if a.Number != b.Number || a.Type != b.Type || !bytes.Equal(a.Data, b.Data) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case *Message:
		bv, ok := b.(*Message)
		return ok && av.Equal(bv)
	default:
		return a == b
	}
}

// ============================================================
// Value coercion
// ============================================================

// coerceScalar checks a value against a field's kind and normalizes
// it to the kind's canonical storage type. Plain Go ints are
// accepted for the integer kinds when they fit; enum fields accept
// symbolic names alongside raw integers.
func coerceScalar(fd *FieldDef, v any) (any, error) {
	switch fd.Kind {
	case KindInt32, KindSint32, KindSfixed32:
		switch n := v.(type) {
		case int32:
			return n, nil
		case int:
			if n < -1<<31 || n > 1<<31-1 {
				return nil, rangeErr(fd, v)
			}
			return int32(n), nil
		case int64:
			if n < -1<<31 || n > 1<<31-1 {
				return nil, rangeErr(fd, v)
			}
			return int32(n), nil
		}

	case KindInt64, KindSint64, KindSfixed64:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		}

	case KindUint32, KindFixed32:
		switch n := v.(type) {
		case uint32:
			return n, nil
		case int:
			if n < 0 || int64(n) > 1<<32-1 {
				return nil, rangeErr(fd, v)
			}
			return uint32(n), nil
		case uint64:
			if n > 1<<32-1 {
				return nil, rangeErr(fd, v)
			}
			return uint32(n), nil
		}

	case KindUint64, KindFixed64:
		switch n := v.(type) {
		case uint64:
			return n, nil
		case uint32:
			return uint64(n), nil
		case int:
			if n < 0 {
				return nil, rangeErr(fd, v)
			}
			return uint64(n), nil
		case int64:
			if n < 0 {
				return nil, rangeErr(fd, v)
			}
			return uint64(n), nil
		}

	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}

	case KindFloat:
		switch f := v.(type) {
		case float32:
			return f, nil
		case float64:
			return float32(f), nil
		}

	case KindDouble:
		switch f := v.(type) {
		case float64:
			return f, nil
		case float32:
			return float64(f), nil
		}

	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}

	case KindBytes:
		if b, ok := v.([]byte); ok {
			return b, nil
		}

	case KindEnum:
		switch n := v.(type) {
		case int32:
			return n, nil
		case int:
			if n < -1<<31 || n > 1<<31-1 {
				return nil, rangeErr(fd, v)
			}
			return int32(n), nil
		case string:
			if num, ok := fd.Enum.ValueOf(n); ok {
				return num, nil
			}
			return nil, fmt.Errorf("%w: %q is not a value of enum %s",
				ErrTypeMismatch, n, fd.Enum.Name())
		}

	case KindMessage:
		if sub, ok := v.(*Message); ok && sub != nil {
			if sub.schema != fd.Message {
				return nil, fmt.Errorf("%w: field %s expects message %s, got %s",
					ErrTypeMismatch, fd.Name, fd.Message.Name(), sub.schema.Name())
			}
			return sub, nil
		}
		if fields, ok := v.(map[string]any); ok {
			return FromMap(fd.Message, fields)
		}
	}

	return nil, fmt.Errorf("%w: field %s expects %s, got %T", ErrTypeMismatch, fd.Name, fd.Kind, v)
}

func rangeErr(fd *FieldDef, v any) error {
	return fmt.Errorf("%w: value %v out of range for %s field %s", ErrTypeMismatch, v, fd.Kind, fd.Name)
}

// zeroValue returns the kind's zero value for default-less optional
// reads.
func zeroValue(fd *FieldDef) any {
	switch fd.Kind {
	case KindInt32, KindSint32, KindSfixed32, KindEnum:
		return int32(0)
	case KindInt64, KindSint64, KindSfixed64:
		return int64(0)
	case KindUint32, KindFixed32:
		return uint32(0)
	case KindUint64, KindFixed64:
		return uint64(0)
	case KindBool:
		return false
	case KindFloat:
		return float32(0)
	case KindDouble:
		return float64(0)
	case KindString:
		return ""
	case KindBytes:
		return []byte(nil)
	case KindMessage:
		return (*Message)(nil)
	default:
		return nil
	}
}
