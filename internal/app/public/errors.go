package public

import "errors"

// Sentinel errors the transport layer maps onto HTTP status codes.
var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
)
