package dlt

import "errors"

var (
	ErrMalformedHeader  = errors.New("dlt: malformed header")
	ErrTruncatedPayload = errors.New("dlt: truncated payload")
	ErrCorruptFraming   = errors.New("dlt: corrupt framing")
	ErrFrameTooLarge    = errors.New("dlt: frame exceeds length field range")
	ErrInvalidConfig    = errors.New("dlt: invalid log message config")
)
