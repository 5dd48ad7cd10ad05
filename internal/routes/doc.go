// Package routes loads and normalizes egress proxy endpoints.
//
// The route file is line-oriented: one proxy endpoint per line, blank lines
// dropped. Entries without an http:// or https:// prefix get http://
// prepended (Normalize, which is idempotent).
//
// Route models one egress path; the zero value is the direct (proxyless)
// route. Route.ProxyFunc() plugs into http.Transport.Proxy and
// websocket.Dialer.Proxy so the same route drives both the platform HTTP
// client and the gateway WebSocket dial.
package routes
