// Package web serves the read-only status endpoints for the monitor.
//
// The server exposes the latest health snapshot on GET / and GET /health,
// answering 200 while the monitor is healthy and 503 once it has degraded,
// plus GET /items as a debug view over the persisted per-item states. It
// never mutates monitor state.
package web
