package config

import "errors"

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading or decoding a config source.
	ErrLoadConfig = errors.New("load config failed")
)
