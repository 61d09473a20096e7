// Package api provides the parley HTTP API: chat turns, session document and
// voice controls, the memory read path, speech artifacts, metrics and MCP.
package api

import "time"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8082")
	ListenAddr string

	// BodyLimit caps request bodies, which bounds document uploads.
	// Defaults to 16 MiB.
	BodyLimit int

	// ShutdownTimeout bounds graceful shutdown. Defaults to 10s.
	ShutdownTimeout time.Duration
}
