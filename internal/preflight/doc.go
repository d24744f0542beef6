// Package preflight provides readiness checks for the filesystem paths and
// remote services the transfer tools depend on.
//
// The CLI "ncmirtool preflight" command runs RunAll and prints one status line
// per check. Each check is gated by its configuration section: tools that are
// not configured are skipped rather than reported as failures.
package preflight
