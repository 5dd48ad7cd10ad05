// Package session manages one persistent gateway connection per
// (account, route) pair.
//
// A Session authenticates once, then loops: dial the wss gateway through its
// route's proxy, announce itself with a register message, heartbeat every
// interval (ping + reward-points poll), and answer server-issued relay
// tasks. When the channel closes or errors it waits a fixed delay and dials
// again — forever, until the process exits.
//
// Invariants the package keeps:
//   - the device id is generated once per Session and survives reconnects
//   - register is written before the heartbeat ticker starts
//   - the heartbeat ticker's lifetime is bound to its connection; a closed
//     channel never leaves a ticker running
//   - at most one connection attempt owns a slot at a time (atomic CAS)
//   - every relay task yields exactly one response or error message
//   - no failure inside a session ever escapes to a sibling session
package session
