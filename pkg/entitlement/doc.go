// Package entitlement decides whether a user may perform a gated action
// and keeps each session's entitlement state warm.
//
// The Evaluator answers point-in-time questions: CanPerform checks a
// metered limit against current usage (fail-closed when usage cannot be
// counted), CanPerformAll checks a batch atomically, and HasPermission
// checks boolean plan capabilities. Decisions are advisory snapshots;
// persistence layers still enforce their own constraints.
//
// The Store caches the authoritative State for one session and broadcasts
// every change to subscribers, replaying the latest state to late joiners.
// Concurrent refreshes coalesce into a single reload, and a failed reload
// keeps the last known good state. Sessions is the process-wide registry
// mapping users to their stores.
package entitlement
