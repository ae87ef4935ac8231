// Package registry holds the gateway's routing topology: endpoints, the
// providers behind them, and each provider's mutable liveness state.
//
// The topology is built once at startup from configuration and is
// immutable thereafter; only three per-provider fields change at runtime
// (dead flag, last-used timestamp, last-failed timestamp), mutated
// concurrently by the dispatcher and the recovery prober under a
// per-provider lock. There is no cross-provider transaction: failover
// logic only ever reads the current snapshot of a single provider's
// state and tolerates staleness.
package registry
