// Package daemon hosts the long-running stagegate process: it enforces
// single-instance execution with a file lock, owns the store and tracker
// lifecycles, and serves the HTTP API.
package daemon
