// Package notifications alerts operators about transfer outcomes.
//
// The default implementation publishes to ntfy using the topic configured in
// the [notifications] section and degrades to a no-op when no topic is set.
// Delivery failures are returned to the caller, which logs them and carries
// on; a missed alert never changes a transfer's outcome.
package notifications
