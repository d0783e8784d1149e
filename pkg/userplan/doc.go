// Package userplan owns the user -> subscription plan binding. Every user
// row references exactly one plan (defaulted to free at registration); the
// binding changes only on a confirmed payment or an administrative action.
package userplan
