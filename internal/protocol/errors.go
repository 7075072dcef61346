package protocol

import "errors"

// Errors returned by the codec. All of them are recoverable at the frame
// stream layer by resynchronising on the byte buffer; none of them are
// meant to reach a library caller directly.
var (
	ErrFrameTooShort        = errors.New("protocol: frame too short")
	ErrBadMagic             = errors.New("protocol: bad header or trailer magic")
	ErrPayloadSchemaMismatch = errors.New("protocol: payload does not match expected schema")
	ErrTruncatedPayload     = errors.New("protocol: truncated payload")
)
