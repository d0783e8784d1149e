// Package usage is the accountant for metered resources: it turns raw
// per-user record counts into snapshots of used / limit / remaining
// capacity, resolving the limit from the user's current plan on every call.
//
// Counting is delegated to CounterFuncs registered per limit key, so the
// package owns aggregation and window math while repositories own SQL.
// Monthly-cadence keys are counted from the first of the current calendar
// month in the user's timezone; lifetime keys are counted in full.
//
// A counter failure makes that key's snapshot Unavailable. Callers decide
// whether to fail open or closed; for finite quotas the entitlement
// evaluator fails closed.
package usage
