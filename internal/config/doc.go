// Package config loads, merges, and validates ncmirtools configuration data.
//
// It supplies repository defaults, reads the system-wide and per-user TOML
// files (later files override earlier ones), expands user paths including
// tilde shortcuts, and honours environment fallbacks for secrets such as
// NCMIR_CIL_PASSWORD. The Config type is populated once per process and passed
// by reference into every component; components never re-read files.
//
// Required options are checked through the typed accessors (DataServer,
// SFTPSettings, DatabaseSettings) which report a *MissingOptionError naming the
// section and option instead of panicking, so callers can run several
// precondition checks before any network I/O.
package config
