// Package storage is the durable side of the reminder subsystem: sqlite-backed
// reminder rows plus the minimal user/habit tables they reference.
//
// Error policy: every mutating or reading operation recovers failures locally,
// logs them, and surfaces a bool or an empty result. Callers (the manager,
// the reconciler, the delivery worker) must keep functioning for other
// reminders even when one store call fails, so nothing propagates.
//
// Concurrency: sqlite prefers a single writer, so the pool is pinned to one
// connection; concurrent callers serialize on it. Every operation additionally
// runs under a short per-operation deadline so a wedged filesystem cannot
// stall scheduler housekeeping indefinitely.
package storage
