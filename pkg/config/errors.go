package config

import "errors"

var (
	// ErrParsingConfig wraps env parsing failures.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrNilPointer is returned when Load receives a nil destination.
	ErrNilPointer = errors.New("nil pointer provided to config loader")

	// ErrLoadingEnvFile wraps .env file read failures.
	ErrLoadingEnvFile = errors.New("failed to load env file")
)
