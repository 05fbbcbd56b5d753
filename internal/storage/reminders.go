package storage

import (
	"context"
	"database/sql"
	"errors"

	"habitbot/internal/domain"
	"habitbot/pkg/logx"
)

// UpsertReminder inserts the reminder or, when a row for the habit already
// exists, replaces its time and job id. It never produces a second row for
// the same habit.
//
// It fails closed when the habit does not belong to the given user, so a
// caller can never attach a reminder to someone else's habit.
func (s *Store) UpsertReminder(ctx context.Context, r domain.Reminder) bool {
	owner, found, err := s.habitOwner(ctx, r.HabitID)
	if err != nil {
		s.log.Error("upsert reminder: owner check failed", logx.Int64("habit_id", r.HabitID), logx.Err(err))
		return false
	}
	if !found || owner != r.UserID {
		s.log.Warn("upsert reminder rejected: habit missing or owner mismatch",
			logx.Int64("habit_id", r.HabitID), logx.Int64("user_id", r.UserID))
		return false
	}
	if !s.EnsureUser(ctx, r.UserID) {
		return false
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reminders(user_id, habit_id, reminder_time, job_id) VALUES(?,?,?,?)
		 ON CONFLICT(habit_id) DO UPDATE SET
		     reminder_time = excluded.reminder_time,
		     job_id        = excluded.job_id,
		     user_id       = excluded.user_id`,
		r.UserID, r.HabitID, r.At.String(), r.JobID.String())
	if err != nil {
		s.log.Error("upsert reminder failed", logx.Int64("habit_id", r.HabitID), logx.Err(err))
		return false
	}
	s.log.Info("reminder stored",
		logx.Int64("habit_id", r.HabitID), logx.Int64("user_id", r.UserID),
		logx.Stringer("at", r.At), logx.Stringer("job_id", r.JobID))
	return true
}

// ReminderByHabit fetches the single reminder for a habit, if any.
func (s *Store) ReminderByHabit(ctx context.Context, habitID int64) (domain.Reminder, bool) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var (
		r  domain.Reminder
		ts string
		id string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, habit_id, reminder_time, job_id FROM reminders WHERE habit_id = ?`,
		habitID).Scan(&r.UserID, &r.HabitID, &ts, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reminder{}, false
	}
	if err != nil {
		s.log.Error("reminder lookup failed", logx.Int64("habit_id", habitID), logx.Err(err))
		return domain.Reminder{}, false
	}
	at, err := domain.ParseTimeOfDay(ts)
	if err != nil {
		s.log.Error("reminder has invalid stored time", logx.Int64("habit_id", habitID), logx.String("time", ts))
		return domain.Reminder{}, false
	}
	r.At = at
	r.JobID = domain.JobID(id)
	return r, true
}

// Reminders returns every stored reminder. Rows with an unparseable time are
// skipped with a warning rather than failing the whole read.
func (s *Store) Reminders(ctx context.Context) []domain.Reminder {
	return s.queryReminders(ctx,
		`SELECT user_id, habit_id, reminder_time, job_id FROM reminders ORDER BY user_id, reminder_time`)
}

// RemindersByUser returns the user's reminders ordered by time of day.
func (s *Store) RemindersByUser(ctx context.Context, userID int64) []domain.Reminder {
	return s.queryReminders(ctx,
		`SELECT user_id, habit_id, reminder_time, job_id FROM reminders WHERE user_id = ? ORDER BY reminder_time`,
		userID)
}

func (s *Store) queryReminders(ctx context.Context, query string, args ...any) []domain.Reminder {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.log.Error("reminder query failed", logx.Err(err))
		return nil
	}
	defer rows.Close()

	var out []domain.Reminder
	for rows.Next() {
		var (
			r  domain.Reminder
			ts string
			id string
		)
		if err := rows.Scan(&r.UserID, &r.HabitID, &ts, &id); err != nil {
			s.log.Error("reminder scan failed", logx.Err(err))
			continue
		}
		at, err := domain.ParseTimeOfDay(ts)
		if err != nil {
			s.log.Warn("skipping reminder with invalid stored time",
				logx.Int64("habit_id", r.HabitID), logx.String("time", ts))
			continue
		}
		r.At = at
		r.JobID = domain.JobID(id)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		s.log.Error("reminder query iteration failed", logx.Err(err))
	}
	return out
}

// RemoveReminderByHabit deletes the reminder row and returns its job id so
// the caller can cancel the matching trigger. A missing row is not an error.
func (s *Store) RemoveReminderByHabit(ctx context.Context, habitID int64) (domain.JobID, bool) {
	opctx, cancel := s.opCtx(ctx)
	defer cancel()

	var id string
	err := s.db.QueryRowContext(opctx,
		`DELETE FROM reminders WHERE habit_id = ? RETURNING job_id`, habitID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		s.log.Debug("remove reminder: nothing stored", logx.Int64("habit_id", habitID))
		return "", false
	}
	if err != nil {
		s.log.Error("remove reminder failed", logx.Int64("habit_id", habitID), logx.Err(err))
		return "", false
	}
	s.log.Info("reminder removed", logx.Int64("habit_id", habitID), logx.String("job_id", id))
	return domain.JobID(id), true
}
