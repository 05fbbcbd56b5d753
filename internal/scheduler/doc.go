// Package scheduler maintains the in-process daily triggers behind the
// reminder subsystem.
//
// Every trigger is registered under a deterministic job id and the service
// guarantees at most one live trigger per id: ScheduleDaily cancels any
// previous registration for the id before adding the new one, and Cancel is
// idempotent. The scheduler holds no authoritative state; the full trigger
// set is rebuilt from the reminder store on startup by the reconciler.
//
// Time semantics are wall-clock in the single configured IANA timezone.
// A fire that would have happened while the process was down is not made up;
// the next fire is simply the next calendar day at the configured time.
//
// Fires are enqueued onto a small worker pool. Each run gets a per-fire
// timeout and panic recovery; a run executes to completion and is never
// retried within the same fire.
//
// Single-process only: running two processes against one reminder store would
// double-deliver, and nothing here coordinates that.
package scheduler
