// Package broadcast provides an in-process latest-value publisher used to
// push entitlement state to UI-facing consumers.
//
// Unlike a plain fan-out channel, the broadcaster replays the most recent
// value to every new subscriber synchronously on Subscribe, which is the
// contract session state observers rely on: nobody should see "nothing"
// while waiting for an unrelated trigger. Slow subscribers are dropped
// rather than allowed to block the publisher.
package broadcast
