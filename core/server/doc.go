// Package server holds configuration for the HTTP API server.
//
// The Fiber application itself is assembled in cmd/start.go; this package
// only carries the settings it is built from (listen port, API key).
package server
