// Package config loads and watches the streamnode configuration file
// (config.yaml).
//
// Top-level types:
//   - Config{Platform, Client, Metrics} — full config tree parsed from YAML
//   - PlatformConfig — api_base (HTTP API root), gateway_url (wss endpoint)
//   - ClientConfig — accounts_file, routes_file, use_routes,
//     heartbeat_interval, reconnect_delay
//   - MetricsConfig — listen_addr for the optional Prometheus text endpoint
//
// Load(path) reads the YAML file, applies defaults (production platform
// endpoints, accounts.txt/proxy.txt, 60s heartbeat, 5s reconnect), then
// validates required fields and URL schemes.
//
// Watch(ctx, path, log, onChange) uses fsnotify to detect file changes and
// calls onChange with the newly parsed Config. It handles the rename→create
// pattern used by atomic-save editors (vim, VS Code) by re-adding the watch
// after a rename event.
package config
