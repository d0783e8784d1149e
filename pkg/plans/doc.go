// Package plans is the plan catalog: the static definition of subscription
// tiers, the quota each tier grants per metered resource, and the capability
// flags each tier includes.
//
// Quotas follow one convention everywhere: 0 means zero allowance and -1
// (Unlimited) means no cap. Limit and permission keys are closed
// enumerations; asking the catalog about an unknown key is a configuration
// error, never an implicit allow.
//
// The catalog performs no I/O after the initial Source load and is safe for
// concurrent use.
package plans
