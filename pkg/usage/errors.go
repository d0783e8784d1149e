package usage

import "errors"

var (
	// ErrCountFailed wraps the underlying store error when a raw count
	// cannot be computed. The accountant turns it into an unavailable
	// snapshot; it never becomes a silent zero.
	ErrCountFailed = errors.New("usage: failed to count resource usage")
)
