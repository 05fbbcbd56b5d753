package reminders

import (
	"context"

	"habitbot/internal/domain"
	"habitbot/internal/scheduler"
)

// Store is the slice of the persistence layer this package needs.
// *storage.Store satisfies it.
type Store interface {
	UpsertReminder(ctx context.Context, r domain.Reminder) bool
	Reminders(ctx context.Context) []domain.Reminder
	RemindersByUser(ctx context.Context, userID int64) []domain.Reminder
	ReminderByHabit(ctx context.Context, habitID int64) (domain.Reminder, bool)
	RemoveReminderByHabit(ctx context.Context, habitID int64) (domain.JobID, bool)
}

// HabitDirectory resolves habit names and existence.
//
// found=false with nil error means the habit is gone; a non-nil error means
// the lookup failed and existence is unknown.
type HabitDirectory interface {
	HabitName(ctx context.Context, habitID int64) (name string, found bool, err error)
}

// Scheduler is the narrow trigger surface; *scheduler.Service satisfies it.
// Keeping it an interface makes the concrete engine swappable without
// touching reconciliation or delivery.
type Scheduler interface {
	ScheduleDaily(id domain.JobID, at domain.TimeOfDay, job scheduler.Job) bool
	Cancel(id domain.JobID) bool
}

// Channel delivers one notification; *telegram.Channel satisfies it.
type Channel interface {
	Send(ctx context.Context, userID int64, text string) domain.Outcome
}

// Stats summarizes one reconciliation sweep.
type Stats struct {
	Scheduled int
	Orphans   int
	Failed    int
}

// DeliveryEvent is the payload of reminder.* eventbus events.
type DeliveryEvent struct {
	UserID    int64
	HabitID   int64
	HabitName string
	Reason    string
}
