// Package email sends transactional email through Postmark, with a
// disk-backed sender for local development and a quota alerter that warns
// users approaching their plan limits.
package email
