// Package billing receives Stripe webhook events and translates paid
// checkouts and subscription lifecycle changes into plan assignments,
// refreshing any active entitlement session for the affected user.
package billing
