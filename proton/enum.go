package proton

// EnumValue is one declared name/number pair of an enum definition.
type EnumValue struct {
	Name   string
	Number int32
}

// Value creates an EnumValue, for use in NewEnum declarations.
func Value(name string, number int32) EnumValue {
	return EnumValue{Name: name, Number: number}
}

// EnumDef maps symbolic names to signed 32-bit values. Numbers need
// not be unique across names (aliases are allowed); NameOf resolves
// to the first declared name for a number.
//
// Integers with no declared name are not errors anywhere in the
// codec: they are carried as-is and round-trip through encode and
// decode, so one side of a connection can grow new values before the
// other side learns their names.
type EnumDef struct {
	name   string
	values []EnumValue
	byName map[string]int32
	names  map[int32]string
}

// NewEnum creates an enum definition from ordered name/number pairs.
func NewEnum(name string, values ...EnumValue) *EnumDef {
	e := &EnumDef{
		name:   name,
		values: values,
		byName: make(map[string]int32, len(values)),
		names:  make(map[int32]string, len(values)),
	}
	for _, v := range values {
		if _, ok := e.byName[v.Name]; !ok {
			e.byName[v.Name] = v.Number
		}
		if _, ok := e.names[v.Number]; !ok {
			e.names[v.Number] = v.Name
		}
	}
	return e
}

// Name returns the enum's qualified name.
func (e *EnumDef) Name() string {
	return e.name
}

// ValueOf returns the number declared for a symbolic name.
func (e *EnumDef) ValueOf(name string) (int32, bool) {
	n, ok := e.byName[name]
	return n, ok
}

// NameOf returns the first declared name for a number.
func (e *EnumDef) NameOf(number int32) (string, bool) {
	s, ok := e.names[number]
	return s, ok
}

// Has reports whether any declared name carries the number.
func (e *EnumDef) Has(number int32) bool {
	_, ok := e.names[number]
	return ok
}

// Values returns the declared pairs in declaration order.
func (e *EnumDef) Values() []EnumValue {
	return e.values
}
