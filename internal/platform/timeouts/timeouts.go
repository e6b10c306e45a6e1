// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing the backend health endpoint.
const GRPCDial = 2 * time.Second

// BackendRequest caps a single REST call from a client to the backend.
const BackendRequest = 10 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long a server waits for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// SessionTTL is the lifetime of a bearer token issued by the backend.
const SessionTTL = 12 * time.Hour
