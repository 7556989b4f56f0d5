package worker

import "errors"

var (
	ErrShutdownTimeout = errors.New("worker shutdown timed out")
	ErrProcessorPanic  = errors.New("match processor panicked")
)
