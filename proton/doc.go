// Package proton implements PROTON, a schema-driven tag-length-value
// binary codec compatible with the Protocol Buffers wire format.
//
// PROTON is designed to be:
//   - Registry-driven (schemas declared at runtime, no code generation
//     required)
//   - Wire-compatible (bytes interoperate with standard protobuf
//     implementations)
//   - Forward-compatible (unknown fields are captured and re-emitted
//     verbatim; unmapped enum integers round-trip)
//   - Deterministic (fields emit in ascending number order)
//
// # Declaring Schemas
//
// A schema is built once with the registration contract — begin, add
// fields, finalize — and is immutable and freely shared afterwards:
//
//	user := proton.New("demo.User").
//		MustAdd(proton.Field("name", 1, proton.KindString)).
//		MustAdd(proton.Field("email", 2, proton.KindString)).
//		MustAdd(proton.Field("logins", 3, proton.KindInt32, proton.Optional())).
//		Finalize()
//
// Self- and mutually-recursive types work through forward references:
// the handle returned by New is a valid embedding target before its
// own fields are added.
//
// # Messages
//
// A Message is the per-instance value container: typed setters and
// getters addressed by field number, explicit presence for optional
// fields, insertion-ordered repeated fields, and an unknown-field
// side table preserved through decode/encode round trips.
//
//	m := proton.NewMessage(user)
//	m.Set(1, "a")
//	m.Set(2, "b")
//	data, err := m.Marshal()
//	back, err := proton.Parse(data, user)
//
// # Unsupported Constructs
//
// Extension fields, packed repeated encoding, custom wire options,
// and the legacy group wire types are not supported and fail with
// structured errors rather than guessing.
package proton
