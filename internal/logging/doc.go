// Package logging assembles the structured slog loggers shared by the
// ncmirtools commands.
//
// It owns the console and JSON handlers, routes output to stderr and an
// optional size-rotated log file, and tags every line written during a single
// invocation with a run identifier so transfers from concurrent kiosk runs can
// be told apart. A no-op logger is provided for tests and wiring code.
package logging
