// Package domain holds the reminder subsystem's core types.
//
// A Reminder is a persisted instruction to notify a user about one habit once
// per day. At most one reminder exists per habit, and its scheduler slot is
// the deterministic JobID derived from the (user, habit) pair.
package domain

// Reminder is the sole persisted entity of the subsystem.
type Reminder struct {
	UserID  int64
	HabitID int64
	At      TimeOfDay
	JobID   JobID
}

// Payload is what a daily trigger carries to the delivery callback.
// HabitName is cached at registration time so a fire normally needs no
// habit lookup; an empty name means "re-fetch at fire time".
type Payload struct {
	UserID    int64
	HabitID   int64
	HabitName string
}
