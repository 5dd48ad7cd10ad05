// Package metrics exposes the client's session and task counters in
// Prometheus text exposition format.
//
// Registry is written to by session goroutines (open/close, reconnects,
// heartbeats, task outcomes, per-account points) and serves the snapshot
// over HTTP when metrics.listen_addr is configured. Disabled entirely when
// the address is empty.
package metrics
