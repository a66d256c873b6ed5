// Package reconcile keeps a deployed platform converged on its declared
// plan. A Reconciler sweeps the plan's phases in rollout order on a fixed
// interval: each descriptor is fetched live and compared against the fields
// its declaration names, and drifted or missing objects are reapplied.
// Apply conflicts recover by delete and recreate. Sweep failures are logged
// and counted, never fatal; the next tick tries again.
//
// The CLI's converge mode runs the loop with a console observer. The
// ldp-reconciler daemon runs it under a controller-runtime manager with
// structured logging, prometheus metrics and health probes.
package reconcile
