// Package logging assembles the structured slog loggers used by dubmux.
//
// It owns the console and JSON handlers, the optional rotating log file, and
// the context helpers that tag log lines with the batch run ID and episode
// key. A no-op logger is provided for tests and for wiring code that has no
// logger to hand.
package logging
