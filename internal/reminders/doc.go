// Package reminders keeps the persisted reminder set and the in-process
// trigger set consistent with each other.
//
// Three actors share that job:
//
//   - Manager is what the conversation layer calls when a user sets, lists,
//     or removes a reminder.
//   - Worker is the callback a trigger runs at fire time; it sends the
//     notification and silently removes reminders that can never deliver.
//   - Reconciler runs once at startup, rebuilding the trigger set from the
//     store and pruning reminders whose habit no longer exists.
//
// The scheduler holds no authoritative state. Anything it knows must be
// reconstructible from the store, which is why every trigger lives under the
// deterministic job id derived from its (user, habit) pair.
package reminders
