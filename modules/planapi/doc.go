// Package planapi is the HTTP surface of the entitlement engine: the
// public plan catalog plus per-user limits, permissions, usage and
// pre-flight limit checks for the authenticated user.
package planapi
