// Package api defines the transport DTOs shared by the daemon's HTTP server
// and the CLI, plus the loan service that maps store and tracker results into
// them.
package api
