package proton

import (
	"fmt"
	"sort"

	"github.com/Neumenon/proton/wire"
)

// Field number limits. The wire format packs the number into the
// high bits of a varint tag, capping it at 2^29-1, and reserves
// 19000–19999 for its own use.
const (
	MaxFieldNumber     int32 = wire.MaxFieldNumber
	reservedRangeStart int32 = 19000
	reservedRangeEnd   int32 = 19999
)

// FieldDef describes one field of a schema. Immutable once added.
type FieldDef struct {
	Name    string
	Number  int32
	Label   Label
	Kind    Kind
	Message *Schema  // for Kind == KindMessage
	Enum    *EnumDef // for Kind == KindEnum
	Default any      // optional fields only
}

// Schema is the field layout of one message type: an ordered
// sequence of field definitions plus number and name lookups.
//
// A schema is built once — New, Add per field, Finalize — and is
// immutable and safe for unsynchronized concurrent reads after
// Finalize. The handle returned by New is usable immediately as an
// embedded-message target, so mutually recursive and self-recursive
// types register naturally: identity is fixed at first reference,
// the field list fills in later.
type Schema struct {
	name     string
	fields   []*FieldDef // declaration order
	ordered  []*FieldDef // ascending field number, built by Finalize
	byNumber map[int32]*FieldDef
	byName   map[string]*FieldDef
	final    bool
}

// New begins a schema for the given qualified type name. The handle
// may be referenced by message fields before any of its own fields
// exist.
func New(name string) *Schema {
	return &Schema{
		name:     name,
		byNumber: make(map[int32]*FieldDef),
		byName:   make(map[string]*FieldDef),
	}
}

// Name returns the schema's qualified type name.
func (s *Schema) Name() string {
	return s.name
}

// Add registers a field definition. Fails with ErrInvalidFieldNumber
// for non-positive, oversized, or reserved numbers, with
// ErrDuplicateFieldNumber for a number already registered, and with
// ErrSchemaFinalized after Finalize. On failure the schema is
// unchanged.
func (s *Schema) Add(fd *FieldDef) error {
	if s.final {
		return fmt.Errorf("%w: %s", ErrSchemaFinalized, s.name)
	}
	if fd.Number <= 0 || fd.Number > MaxFieldNumber {
		return fmt.Errorf("%w: %s.%s = %d", ErrInvalidFieldNumber, s.name, fd.Name, fd.Number)
	}
	if fd.Number >= reservedRangeStart && fd.Number <= reservedRangeEnd {
		return fmt.Errorf("%w: %s.%s = %d is in the reserved range %d-%d",
			ErrInvalidFieldNumber, s.name, fd.Name, fd.Number, reservedRangeStart, reservedRangeEnd)
	}
	if _, ok := s.byNumber[fd.Number]; ok {
		return fmt.Errorf("%w: %s.%s = %d", ErrDuplicateFieldNumber, s.name, fd.Name, fd.Number)
	}
	if fd.Kind == KindMessage && fd.Message == nil {
		return fmt.Errorf("proton: message field %s.%s has no schema", s.name, fd.Name)
	}
	if fd.Kind == KindEnum && fd.Enum == nil {
		return fmt.Errorf("proton: enum field %s.%s has no enum definition", s.name, fd.Name)
	}
	if fd.Default != nil {
		if fd.Label != LabelOptional {
			return fmt.Errorf("proton: default on non-optional field %s.%s", s.name, fd.Name)
		}
		v, err := coerceScalar(fd, fd.Default)
		if err != nil {
			return fmt.Errorf("proton: default for %s.%s: %w", s.name, fd.Name, err)
		}
		fd.Default = v
	}

	s.fields = append(s.fields, fd)
	s.byNumber[fd.Number] = fd
	s.byName[fd.Name] = fd
	return nil
}

// MustAdd is Add for declaration-time registration: it panics on
// error and returns the schema for chaining. This is the form
// generated field-registration code uses.
func (s *Schema) MustAdd(fd *FieldDef) *Schema {
	if err := s.Add(fd); err != nil {
		panic(err)
	}
	return s
}

// Finalize closes the schema for further additions and fixes the
// encoder's emission order (ascending field number). Idempotent, and
// returns the schema for chaining.
func (s *Schema) Finalize() *Schema {
	if s.final {
		return s
	}
	s.ordered = make([]*FieldDef, len(s.fields))
	copy(s.ordered, s.fields)
	sort.Slice(s.ordered, func(i, j int) bool {
		return s.ordered[i].Number < s.ordered[j].Number
	})
	s.final = true
	return s
}

// Finalized reports whether the schema is closed.
func (s *Schema) Finalized() bool {
	return s.final
}

// ByNumber returns the field definition registered under a number.
func (s *Schema) ByNumber(number int32) (*FieldDef, bool) {
	fd, ok := s.byNumber[number]
	return fd, ok
}

// ByName returns the field definition registered under a name.
func (s *Schema) ByName(name string) (*FieldDef, bool) {
	fd, ok := s.byName[name]
	return fd, ok
}

// Fields returns the field definitions in declaration order.
func (s *Schema) Fields() []*FieldDef {
	return s.fields
}

// ============================================================
// Field Builder
// ============================================================

// FieldOption is a function that modifies a field definition.
type FieldOption func(*FieldDef)

// Optional marks a field as optional: unset instances fall back to
// the default and are absent from wire output.
func Optional() FieldOption {
	return func(fd *FieldDef) {
		fd.Label = LabelOptional
	}
}

// Repeated marks a field as an ordered, growable sequence.
func Repeated() FieldOption {
	return func(fd *FieldDef) {
		fd.Label = LabelRepeated
	}
}

// WithDefault sets the value an unset optional field reads as.
func WithDefault(v any) FieldOption {
	return func(fd *FieldDef) {
		fd.Default = v
	}
}

// Field creates a scalar field definition. Fields are required
// unless an Optional or Repeated option says otherwise.
func Field(name string, number int32, kind Kind, opts ...FieldOption) *FieldDef {
	fd := &FieldDef{Name: name, Number: number, Label: LabelRequired, Kind: kind}
	for _, opt := range opts {
		opt(fd)
	}
	return fd
}

// MessageField creates an embedded-message field referencing another
// (possibly not yet finalized) schema.
func MessageField(name string, number int32, schema *Schema, opts ...FieldOption) *FieldDef {
	fd := &FieldDef{Name: name, Number: number, Label: LabelRequired, Kind: KindMessage, Message: schema}
	for _, opt := range opts {
		opt(fd)
	}
	return fd
}

// EnumField creates a field holding values of an enum definition.
func EnumField(name string, number int32, enum *EnumDef, opts ...FieldOption) *FieldDef {
	fd := &FieldDef{Name: name, Number: number, Label: LabelRequired, Kind: KindEnum, Enum: enum}
	for _, opt := range opts {
		opt(fd)
	}
	return fd
}
