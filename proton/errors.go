package proton

import (
	"errors"
)

// Schema construction errors. These are fatal for the registration
// call that raised them; the schema is left unchanged.
var (
	// ErrInvalidFieldNumber reports a field number that is not
	// strictly positive, exceeds MaxFieldNumber, or falls in the
	// range the wire format reserves for itself.
	ErrInvalidFieldNumber = errors.New("proton: invalid field number")

	// ErrDuplicateFieldNumber reports a field number already
	// registered on the schema.
	ErrDuplicateFieldNumber = errors.New("proton: duplicate field number")

	// ErrSchemaFinalized reports a mutation attempted after
	// Finalize.
	ErrSchemaFinalized = errors.New("proton: schema is finalized")
)

// Container errors. Recoverable: the message is left unchanged.
var (
	// ErrTypeMismatch reports a value whose type disagrees with the
	// field's declared kind or label.
	ErrTypeMismatch = errors.New("proton: type mismatch")

	// ErrUnknownField reports a field number with no descriptor in
	// the schema.
	ErrUnknownField = errors.New("proton: unknown field")

	// ErrFieldNotSet reports a read of a required field that has not
	// been set.
	ErrFieldNotSet = errors.New("proton: required field not set")
)

// Encode/validate errors.
var (
	// ErrMissingRequired is raised by ValidateRequired and by Marshal
	// before any bytes are produced. The wrapped message names every
	// unset required field in ascending number order.
	ErrMissingRequired = errors.New("proton: missing required field")
)

// Decode errors. Fatal for the decode call: no partial message is
// returned.
var (
	// ErrWireTypeMismatch reports a known field encoded with a wire
	// type incompatible with its declared kind.
	ErrWireTypeMismatch = errors.New("proton: wire type mismatch")
)

// errNotFinalized guards encode/decode against schemas still under
// construction.
var errNotFinalized = errors.New("proton: schema not finalized")
