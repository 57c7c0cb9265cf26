// Package config loads, normalizes, and validates the stagegate TOML
// configuration shared by the daemon and CLI.
package config
