package reminders

import (
	"context"

	"habitbot/internal/domain"
	"habitbot/pkg/logx"
)

// Manager is the surface the conversation layer calls when a user sets,
// lists, or deletes a reminder. Every operation reports success as a bool;
// failures are already logged by the time a caller sees false.
type Manager struct {
	store  Store
	sched  Scheduler
	habits HabitDirectory
	worker *Worker
	log    logx.Logger
}

func NewManager(store Store, sched Scheduler, habits HabitDirectory, worker *Worker, log logx.Logger) *Manager {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Manager{store: store, sched: sched, habits: habits, worker: worker, log: log}
}

// Set creates or replaces the reminder for a habit.
//
// The trigger is registered first and the row persisted second; if the
// persist fails the trigger is rolled back, so the scheduler never runs a
// reminder the store does not know about.
func (m *Manager) Set(ctx context.Context, userID, habitID int64, at domain.TimeOfDay) bool {
	name, found, err := m.habits.HabitName(ctx, habitID)
	if err != nil || !found {
		m.log.Warn("set reminder rejected: habit unavailable",
			logx.Int64("habit_id", habitID), logx.Int64("user_id", userID), logx.Err(err))
		return false
	}

	id := domain.MakeJobID(userID, habitID)
	payload := domain.Payload{UserID: userID, HabitID: habitID, HabitName: name}
	if !m.sched.ScheduleDaily(id, at, m.worker.Job(payload)) {
		m.log.Error("set reminder: trigger registration failed", logx.Stringer("job_id", id))
		return false
	}

	rem := domain.Reminder{UserID: userID, HabitID: habitID, At: at, JobID: id}
	if !m.store.UpsertReminder(ctx, rem) {
		m.log.Error("set reminder: persist failed; rolling trigger back", logx.Stringer("job_id", id))
		m.sched.Cancel(id)
		return false
	}
	m.log.Info("reminder set",
		logx.Int64("user_id", userID), logx.Int64("habit_id", habitID), logx.Stringer("at", at))
	return true
}

// Remove deletes the reminder for a habit and cancels its trigger.
// Removing a habit with no reminder returns false without error.
func (m *Manager) Remove(ctx context.Context, habitID int64) bool {
	jobID, ok := m.store.RemoveReminderByHabit(ctx, habitID)
	if !ok {
		return false
	}
	if !m.sched.Cancel(jobID) {
		m.log.Warn("reminder removed from store but no live trigger existed",
			logx.Stringer("job_id", jobID))
	}
	return true
}

// ListByUser returns the user's reminders ordered by time of day.
func (m *Manager) ListByUser(ctx context.Context, userID int64) []domain.Reminder {
	return m.store.RemindersByUser(ctx, userID)
}
