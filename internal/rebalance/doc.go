// Package rebalance migrates idle sessions away from overloaded providers.
//
// The rebalancer consumes the analyzer's migration opportunities and executes
// a bounded subset of them against the session store, under two safety
// constraints: only sessions idle for at least the configured threshold are
// eligible, and both endpoints of every migration are re-verified as active
// immediately before the write. Each migration is a compare-and-swap on the
// session record; a session that turns active between analysis and execution
// wins the race and stays where it is.
package rebalance
