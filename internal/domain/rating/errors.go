package rating

import "errors"

// Sentinel kinds for rating errors.
var (
	ErrUnknownPlayer = errors.New("player has no rating")
)
