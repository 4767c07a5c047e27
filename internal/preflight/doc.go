// Package preflight provides readiness checks for the external tooling and
// filesystem paths the camera daemon depends on.
//
// The checks run in two contexts:
//   - The daemon runs them once at startup and logs failures before the
//     capture loop starts, so a missing camera binary is visible immediately.
//   - The CLI "birdhouse status" command displays them as service health.
//
// The upload destination check never fails hard; an unmounted share is a
// normal condition the sync layer tolerates.
package preflight
