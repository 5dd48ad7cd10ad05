// Package orchestrator fans sessions out across the account × route matrix.
//
// Direct mode starts exactly one session per account on the direct route.
// Routed mode starts one session per (account, route) cell — the full
// cross-product — after verifying there are at least as many routes as
// accounts. All sessions start concurrently under one errgroup and run until
// the root context is cancelled.
package orchestrator
