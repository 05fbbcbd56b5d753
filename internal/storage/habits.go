package storage

import (
	"context"
	"database/sql"
	"errors"

	"habitbot/pkg/logx"
)

// EnsureUser inserts the user row if it does not exist yet.
func (s *Store) EnsureUser(ctx context.Context, userID int64) bool {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users(user_id) VALUES(?)`, userID)
	if err != nil {
		s.log.Error("ensure user failed", logx.Int64("user_id", userID), logx.Err(err))
		return false
	}
	return true
}

// CreateHabit inserts a habit for the user and returns its id.
// The conversation layer (and tests) use this; the reminder subsystem itself
// only ever reads habits.
func (s *Store) CreateHabit(ctx context.Context, userID int64, name, description, category string) (int64, bool) {
	if !s.EnsureUser(ctx, userID) {
		return 0, false
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO habits(user_id, name, description, category) VALUES(?,?,?,?)`,
		userID, name, nullStr(description), nullStr(category))
	if err != nil {
		s.log.Error("create habit failed", logx.Int64("user_id", userID), logx.String("name", name), logx.Err(err))
		return 0, false
	}
	id, err := res.LastInsertId()
	if err != nil {
		s.log.Error("create habit: no insert id", logx.Err(err))
		return 0, false
	}
	s.log.Info("habit created", logx.Int64("habit_id", id), logx.Int64("user_id", userID))
	return id, true
}

// DeleteHabit removes a habit owned by the user. The reminder row, if any,
// goes with it via ON DELETE CASCADE; the caller still has to cancel the
// scheduler trigger.
func (s *Store) DeleteHabit(ctx context.Context, habitID, userID int64) bool {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM habits WHERE habit_id = ? AND user_id = ?`, habitID, userID)
	if err != nil {
		s.log.Error("delete habit failed", logx.Int64("habit_id", habitID), logx.Err(err))
		return false
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		s.log.Warn("delete habit: not found or owner mismatch",
			logx.Int64("habit_id", habitID), logx.Int64("user_id", userID))
		return false
	}
	s.log.Info("habit deleted", logx.Int64("habit_id", habitID), logx.Int64("user_id", userID))
	return true
}

// HabitName resolves a habit's display name.
//
// found=false with a nil error means the habit is gone (an orphan signal);
// a non-nil error means the lookup itself failed and nothing can be concluded.
// The distinction matters: the reconciler prunes orphans but must not prune
// on infrastructure errors.
func (s *Store) HabitName(ctx context.Context, habitID int64) (name string, found bool, err error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	err = s.db.QueryRowContext(ctx,
		`SELECT name FROM habits WHERE habit_id = ?`, habitID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		s.log.Error("habit name lookup failed", logx.Int64("habit_id", habitID), logx.Err(err))
		return "", false, err
	}
	return name, true, nil
}

// habitOwner returns the owning user of a habit.
func (s *Store) habitOwner(ctx context.Context, habitID int64) (int64, bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var owner int64
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM habits WHERE habit_id = ?`, habitID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return owner, true, nil
}

func nullStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}
