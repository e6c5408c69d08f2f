// Package http exposes the speed-dating event core over a JSON HTTP API:
// participant registration, schedule generation and lookup, the round timer
// operations, and a server-sent event stream of timer snapshots.
package http
