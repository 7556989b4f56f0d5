package types

import "errors"

// Errors shared by the service and its transports.
var (
	ErrDuplicateMatch = errors.New("match already submitted")
	ErrBackpressure   = errors.New("backpressure")
	ErrProcessTimeout = errors.New("match not rated in time")
	ErrNotStarted     = errors.New("service not started")
)

// TimeoutError reports a match that was accepted but not rated before the
// caller stopped waiting. The match stays queued and is still rated, so a
// retry must reuse MatchID.
type TimeoutError struct {
	MatchID string
}

func (e *TimeoutError) Error() string {
	return ErrProcessTimeout.Error() + ": " + e.MatchID
}

func (e *TimeoutError) Unwrap() error { return ErrProcessTimeout }
