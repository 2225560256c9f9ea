package playstore

import "errors"

// Sentinel kinds for review collaborator errors.
var (
	ErrMalformedPayload = errors.New("malformed review payload")
	ErrUnavailable      = errors.New("review source unavailable")
)
