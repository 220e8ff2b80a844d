// Package notifications delivers job events via ntfy.
//
// Workflow code depends only on the Service interface. NewService returns a
// no-op implementation when no topic is configured, and the per-event toggles
// in the [notifications] config section silence individual events.
package notifications
