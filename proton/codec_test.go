package proton

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/proton/wire"
)

// TestMarshal_PinnedBytes pins the wire output of the canonical
// scenario: required string name = 1; required string email = 2;
// optional int32 logins = 3.
func TestMarshal_PinnedBytes(t *testing.T) {
	m, err := FromMap(personSchema(), map[string]any{"name": "a", "email": "b"})
	require.NoError(t, err)

	data, err := m.Marshal()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x01, 0x61, 0x12, 0x01, 0x62}, data)

	back, err := Parse(data, m.Schema())
	require.NoError(t, err)
	assert.False(t, back.IsSet(3), "logins must decode as absent")
	logins, err := back.GetInt32(3)
	require.NoError(t, err)
	assert.Equal(t, int32(0), logins)
}

func allKindsSchema() (*Schema, *EnumDef) {
	color := NewEnum("test.Color", Value("RED", 0), Value("GREEN", 1), Value("BLUE", 2))
	s := New("test.Everything").
		MustAdd(Field("i32", 1, KindInt32, Optional())).
		MustAdd(Field("i64", 2, KindInt64, Optional())).
		MustAdd(Field("u32", 3, KindUint32, Optional())).
		MustAdd(Field("u64", 4, KindUint64, Optional())).
		MustAdd(Field("s32", 5, KindSint32, Optional())).
		MustAdd(Field("s64", 6, KindSint64, Optional())).
		MustAdd(Field("f32", 7, KindFixed32, Optional())).
		MustAdd(Field("f64", 8, KindFixed64, Optional())).
		MustAdd(Field("sf32", 9, KindSfixed32, Optional())).
		MustAdd(Field("sf64", 10, KindSfixed64, Optional())).
		MustAdd(Field("flag", 11, KindBool, Optional())).
		MustAdd(Field("flt", 12, KindFloat, Optional())).
		MustAdd(Field("dbl", 13, KindDouble, Optional())).
		MustAdd(Field("str", 14, KindString, Optional())).
		MustAdd(Field("raw", 15, KindBytes, Optional())).
		MustAdd(EnumField("color", 16, color, Optional())).
		Finalize()
	return s, color
}

func TestRoundTrip_AllKinds(t *testing.T) {
	s, _ := allKindsSchema()
	m, err := FromMap(s, map[string]any{
		"i32":   int32(-42),
		"i64":   int64(-1),
		"u32":   uint32(4294967295),
		"u64":   uint64(1<<63 - 1),
		"s32":   int32(-64),
		"s64":   int64(-1 << 40),
		"f32":   uint32(0xdeadbeef),
		"f64":   uint64(0x0102030405060708),
		"sf32":  int32(-7),
		"sf64":  int64(-9),
		"flag":  true,
		"flt":   float32(1.5),
		"dbl":   3.25,
		"str":   "héllo",
		"raw":   []byte{0, 1, 2, 0xff},
		"color": "BLUE",
	})
	require.NoError(t, err)

	data, err := m.Marshal()
	require.NoError(t, err)

	back, err := Parse(data, s)
	require.NoError(t, err)
	assert.True(t, m.Equal(back), "round trip lost data")

	// Spot-check the trickier kinds.
	i64, _ := back.GetInt64(2)
	assert.Equal(t, int64(-1), i64)
	s64, _ := back.GetInt64(6)
	assert.Equal(t, int64(-1<<40), s64)
	sf64, _ := back.GetInt64(10)
	assert.Equal(t, int64(-9), sf64)
	color, _ := back.GetInt32(16)
	assert.Equal(t, int32(2), color)
}

// TestMarshal_VarintBoundaries pins wire bytes at the varint
// boundary values, including negative int64 as ten sign-extended
// bytes.
func TestMarshal_VarintBoundaries(t *testing.T) {
	s := New("test.V").
		MustAdd(Field("v", 1, KindInt64, Optional())).
		Finalize()
	tests := []struct {
		value    int64
		expected []byte
	}{
		{0, []byte{0x08, 0x00}},
		{127, []byte{0x08, 0x7f}},
		{128, []byte{0x08, 0x80, 0x01}},
		{1<<32 - 1, []byte{0x08, 0xff, 0xff, 0xff, 0xff, 0x0f}},
		{1<<63 - 1, []byte{0x08, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}},
		{-1, []byte{0x08, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
	}

	for _, tt := range tests {
		m := NewMessage(s)
		require.NoError(t, m.Set(1, tt.value))
		data, err := m.Marshal()
		require.NoError(t, err)
		assert.Equal(t, tt.expected, data, "value %d", tt.value)

		back, err := Parse(data, s)
		require.NoError(t, err)
		got, err := back.GetInt64(1)
		require.NoError(t, err)
		assert.Equal(t, tt.value, got)
	}
}

func TestMarshal_MissingRequired(t *testing.T) {
	m := NewMessage(personSchema())
	m.Set(1, "only the name")

	data, err := m.Marshal()
	assert.ErrorIs(t, err, ErrMissingRequired)
	assert.Nil(t, data, "no bytes may be returned on a failed encode")
}

func TestMarshal_MissingRequiredNested(t *testing.T) {
	inner := New("test.Inner").
		MustAdd(Field("must", 1, KindString)).
		Finalize()
	outer := New("test.Outer").
		MustAdd(MessageField("in", 1, inner, Optional())).
		Finalize()

	m := NewMessage(outer)
	require.NoError(t, m.Set(1, NewMessage(inner)))

	data, err := m.Marshal()
	assert.ErrorIs(t, err, ErrMissingRequired)
	assert.Nil(t, data)
}

func TestRoundTrip_Nested(t *testing.T) {
	node := New("test.Node")
	node.MustAdd(Field("value", 1, KindInt32)).
		MustAdd(MessageField("next", 2, node, Optional())).
		Finalize()

	// Three-deep linked list through the self-referential schema.
	tail := NewMessage(node)
	require.NoError(t, tail.Set(1, 3))
	mid := NewMessage(node)
	require.NoError(t, mid.Set(1, 2))
	require.NoError(t, mid.Set(2, tail))
	head := NewMessage(node)
	require.NoError(t, head.Set(1, 1))
	require.NoError(t, head.Set(2, mid))

	data, err := head.Marshal()
	require.NoError(t, err)

	back, err := Parse(data, node)
	require.NoError(t, err)
	require.True(t, head.Equal(back))

	level2, err := back.GetMessage(2)
	require.NoError(t, err)
	level3, err := level2.GetMessage(2)
	require.NoError(t, err)
	v, err := level3.GetInt32(1)
	require.NoError(t, err)
	assert.Equal(t, int32(3), v)
}

func TestRoundTrip_RepeatedMessages(t *testing.T) {
	item := New("test.Item").
		MustAdd(Field("sku", 1, KindString)).
		Finalize()
	order := New("test.Order").
		MustAdd(MessageField("items", 1, item, Repeated())).
		Finalize()

	m := NewMessage(order)
	for _, sku := range []string{"b", "a", "c"} {
		sub := NewMessage(item)
		require.NoError(t, sub.Set(1, sku))
		require.NoError(t, m.Append(1, sub))
	}

	data, err := m.Marshal()
	require.NoError(t, err)
	back, err := Parse(data, order)
	require.NoError(t, err)
	require.True(t, m.Equal(back))

	list, err := back.Repeated(1)
	require.NoError(t, err)
	require.Len(t, list, 3)
	sku, _ := list[0].(*Message).GetString(1)
	assert.Equal(t, "b", sku, "repeated order must survive the wire")
}

func TestDecode_UnknownFieldPreserved(t *testing.T) {
	// Writer knows fields the reader's schema lacks.
	wide := New("test.Wide").
		MustAdd(Field("name", 1, KindString)).
		MustAdd(Field("extra", 5, KindInt32, Optional())).
		MustAdd(Field("blob", 6, KindBytes, Optional())).
		Finalize()
	narrow := New("test.Narrow").
		MustAdd(Field("name", 1, KindString)).
		Finalize()

	src, err := FromMap(wide, map[string]any{
		"name":  "n",
		"extra": int32(300),
		"blob":  []byte{9, 8, 7},
	})
	require.NoError(t, err)
	wireBytes, err := src.Marshal()
	require.NoError(t, err)

	m, err := Parse(wireBytes, narrow)
	require.NoError(t, err)

	unknown := m.Unknown()
	require.Len(t, unknown, 2)
	assert.Equal(t, int32(5), unknown[0].Number)
	assert.Equal(t, wire.TypeVarint, unknown[0].Type)
	assert.Equal(t, int32(6), unknown[1].Number)
	assert.Equal(t, wire.TypeBytes, unknown[1].Type)

	// Re-encode: the unknown tag+payload bytes reappear unchanged.
	out, err := m.Marshal()
	require.NoError(t, err)
	assert.Equal(t, wireBytes, out)

	// And survive a second trip through the full schema.
	full, err := Parse(out, wide)
	require.NoError(t, err)
	extra, err := full.GetInt32(5)
	require.NoError(t, err)
	assert.Equal(t, int32(300), extra)
}

func TestDecode_ReencodeIdempotent(t *testing.T) {
	s, _ := allKindsSchema()
	m, err := FromMap(s, map[string]any{"str": "x", "i32": int32(7), "dbl": 2.5})
	require.NoError(t, err)

	b, err := m.Marshal()
	require.NoError(t, err)
	once, err := Parse(b, s)
	require.NoError(t, err)
	b2, err := once.Marshal()
	require.NoError(t, err)
	twice, err := Parse(b2, s)
	require.NoError(t, err)
	assert.True(t, once.Equal(twice))
	assert.Equal(t, b, b2)
}

func TestDecode_WireTypeMismatch(t *testing.T) {
	s := New("test.Strict").
		MustAdd(Field("n", 1, KindInt32, Optional())).
		Finalize()

	// Field 1 as LENGTH_DELIMITED against a varint kind.
	data := []byte{0x0a, 0x01, 0x61}
	_, err := Parse(data, s)
	assert.ErrorIs(t, err, ErrWireTypeMismatch)
}

func TestDecode_PackedRepeatedRejected(t *testing.T) {
	// Packed encoding is unsupported: a length-delimited block for a
	// repeated varint kind must fail predictably, not misparse.
	s := New("test.Packed").
		MustAdd(Field("ns", 1, KindInt32, Repeated())).
		Finalize()

	data := []byte{0x0a, 0x02, 0x01, 0x02}
	_, err := Parse(data, s)
	assert.ErrorIs(t, err, ErrWireTypeMismatch)
}

func TestDecode_Truncated(t *testing.T) {
	s := personSchema()
	tests := []struct {
		name string
		data []byte
	}{
		{"mid_tag", []byte{0x80}},
		{"missing_len", []byte{0x0a}},
		{"short_payload", []byte{0x0a, 0x05, 0x61}},
		{"mid_varint", []byte{0x18, 0x80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data, s)
			assert.ErrorIs(t, err, wire.ErrTruncated)
		})
	}
}

func TestDecode_GroupWireTypesRejected(t *testing.T) {
	s := personSchema()
	for _, wt := range []byte{3, 4} {
		data := []byte{1<<3 | wt}
		_, err := Parse(data, s)
		assert.ErrorIs(t, err, wire.ErrUnsupportedType, "wire type %d", wt)
	}
}

func TestDecode_BadFieldNumbersRejected(t *testing.T) {
	s := personSchema()

	// Tag number 2^31: overflows int32, must fail rather than wrap
	// negative on the unknown list and re-encode differently.
	data := []byte{0x80, 0x80, 0x80, 0x80, 0x40, 0x01}
	_, err := Parse(data, s)
	assert.ErrorIs(t, err, wire.ErrInvalidNumber)

	// Tag number 0.
	_, err = Parse([]byte{0x00, 0x01}, s)
	assert.ErrorIs(t, err, wire.ErrInvalidNumber)

	// One past the 29-bit cap.
	data = wire.AppendVarint(nil, uint64(MaxFieldNumber+1)<<3)
	data = append(data, 0x01)
	_, err = Parse(data, s)
	assert.ErrorIs(t, err, wire.ErrInvalidNumber)
}

func TestDecode_LastValueWins(t *testing.T) {
	s := New("test.Twice").
		MustAdd(Field("n", 1, KindInt32, Optional())).
		Finalize()

	// Field 1 appears twice: 1 then 2.
	data := []byte{0x08, 0x01, 0x08, 0x02}
	m, err := Parse(data, s)
	require.NoError(t, err)
	n, err := m.GetInt32(1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), n)
}

func TestDecode_DoesNotValidateRequired(t *testing.T) {
	// An empty input decodes fine even though required fields are
	// missing; validation is the caller's separate step.
	m, err := Parse(nil, personSchema())
	require.NoError(t, err)
	assert.ErrorIs(t, m.ValidateRequired(), ErrMissingRequired)
}

func TestRoundTrip_UnmappedEnum(t *testing.T) {
	s, _ := allKindsSchema()
	m := NewMessage(s)
	require.NoError(t, m.Set(16, int32(99)), "unmapped enum integers are legal")

	data, err := m.Marshal()
	require.NoError(t, err)
	back, err := Parse(data, s)
	require.NoError(t, err)
	v, err := back.GetInt32(16)
	require.NoError(t, err)
	assert.Equal(t, int32(99), v)
}

func TestParse_RequiresFinalizedSchema(t *testing.T) {
	open := New("test.Open")
	open.MustAdd(Field("a", 1, KindInt32))

	_, err := Parse(nil, open)
	assert.Error(t, err)
	m := NewMessage(open)
	m.Set(1, 1)
	_, err = m.Marshal()
	assert.Error(t, err)
}

func TestMarshalTo(t *testing.T) {
	m, err := FromMap(personSchema(), map[string]any{"name": "a", "email": "b"})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := m.MarshalTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, []byte{0x0a, 0x01, 0x61, 0x12, 0x01, 0x62}, buf.Bytes())
}

func TestDecode_NoPartialMessageOnFailure(t *testing.T) {
	s := personSchema()
	// Valid name field followed by a truncated email field.
	data := []byte{0x0a, 0x01, 0x61, 0x12, 0x05, 0x62}
	m, err := Parse(data, s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wire.ErrTruncated))
	assert.Nil(t, m)
}
