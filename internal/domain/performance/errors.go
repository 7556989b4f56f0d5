package performance

import "errors"

// Sentinel kinds for performance evaluation errors.
var (
	ErrInsufficientData = errors.New("insufficient data")
)
