// Package preflight provides readiness checks for the external tools,
// services, and filesystem paths voxpipe depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll and CheckSystemDeps at startup and refuses to
//     start when a required tool or the storage directory is unusable.
//   - The CLI "voxpipe status" command uses individual check functions
//     (CheckDirectoryAccess, CheckNotificationsFromConfig) to display health.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
