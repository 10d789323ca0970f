// Package timer implements the state machine for the remote Hakuna timer.
//
// The machine has two states, Idle and Running, derived from the settled
// snapshot provided by a Source (the coordinator). It holds no timer state
// of its own. Transitions are serialized, each one first waits for any
// in-flight refresh to settle, and after every transition that reached the
// remote timer the AfterTransition hook runs so the coordinator can re-sync
// its snapshot.
//
// Races with other clients are expected and reconciled rather than
// reported:
//   - start while the remote already runs: adopt the remote timer
//   - stop or cancel while the remote is idle: settle on Idle
//
// Start arguments are resolved against the task and project catalog: an
// empty task selects the default task, numeric strings are IDs and other
// strings match names case-insensitively.
package timer
