// Package logging builds the slog loggers shared by the daemon and CLI.
// It provides a console handler for interactive use, a JSON handler for
// machine consumption, and small attribute helpers so call sites stay
// consistent about field names.
package logging
