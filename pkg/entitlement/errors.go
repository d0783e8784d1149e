package entitlement

import "errors"

var (
	// ErrConfiguration marks programming or configuration mistakes:
	// an undefined limit or permission key, a non-positive amount, a
	// plan that does not resolve. Never shown to end users; a denial is
	// a result value, never this error.
	ErrConfiguration = errors.New("entitlement: configuration error")

	// ErrStoreClosed is returned by store operations after logout
	// teardown.
	ErrStoreClosed = errors.New("entitlement: store closed")
)
