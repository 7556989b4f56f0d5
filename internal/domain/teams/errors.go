package teams

import "errors"

// Sentinel kinds for team organization errors.
var (
	ErrMalformedMatch = errors.New("malformed match")
)
