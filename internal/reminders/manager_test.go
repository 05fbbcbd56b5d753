package reminders

import (
	"context"
	"testing"

	"habitbot/internal/domain"
	"habitbot/internal/scheduler"
	"habitbot/internal/storage"
	"habitbot/pkg/logx"
)

type managerEnv struct {
	mgr    *Manager
	habits *fakeHabits
	st     *storage.Store
	sched  *scheduler.Service
}

func newManagerEnv(t *testing.T) managerEnv {
	t.Helper()
	st := newTestStore(t)
	sched := newTestScheduler(t)
	habits := newFakeHabits()
	worker := NewWorker(st, sched, habits, &fakeChannel{}, nil, logx.Nop())
	mgr := NewManager(st, sched, habits, worker, logx.Nop())
	return managerEnv{mgr: mgr, habits: habits, st: st, sched: sched}
}

func mustSeedHabit(t *testing.T, env managerEnv, userID int64, name string) int64 {
	t.Helper()
	hid, ok := env.st.CreateHabit(context.Background(), userID, name, "", "")
	if !ok {
		t.Fatalf("CreateHabit(%q) failed", name)
	}
	env.habits.set(hid, name)
	return hid
}

func TestSetPersistsAndRegisters(t *testing.T) {
	env := newManagerEnv(t)
	ctx := context.Background()
	hid := mustSeedHabit(t, env, 42, "meditate")

	at := domain.TimeOfDay{Hour: 8, Minute: 30}
	if !env.mgr.Set(ctx, 42, hid, at) {
		t.Fatal("Set failed")
	}

	r, ok := env.st.ReminderByHabit(ctx, hid)
	if !ok {
		t.Fatal("reminder not persisted")
	}
	if r.At != at || r.JobID != domain.MakeJobID(42, hid) {
		t.Fatalf("persisted row wrong: %+v", r)
	}
	if !env.sched.Has(r.JobID) {
		t.Fatal("trigger not registered")
	}
}

func TestSetReplacesExistingReminder(t *testing.T) {
	env := newManagerEnv(t)
	ctx := context.Background()
	hid := mustSeedHabit(t, env, 42, "meditate")

	if !env.mgr.Set(ctx, 42, hid, domain.TimeOfDay{Hour: 8}) {
		t.Fatal("first Set failed")
	}
	if !env.mgr.Set(ctx, 42, hid, domain.TimeOfDay{Hour: 21}) {
		t.Fatal("second Set failed")
	}

	got := env.mgr.ListByUser(ctx, 42)
	if len(got) != 1 {
		t.Fatalf("expected one reminder after replace, got %d", len(got))
	}
	if got[0].At != (domain.TimeOfDay{Hour: 21}) {
		t.Fatalf("reminder kept stale time: %+v", got[0].At)
	}
	if snap := env.sched.Snapshot(); len(snap.Triggers) != 1 {
		t.Fatalf("expected one trigger after replace, got %d", len(snap.Triggers))
	}
}

func TestSetRejectsUnknownHabit(t *testing.T) {
	env := newManagerEnv(t)
	if env.mgr.Set(context.Background(), 42, 999, domain.TimeOfDay{Hour: 8}) {
		t.Fatal("Set accepted a habit that does not exist")
	}
	if env.sched.Has(domain.MakeJobID(42, 999)) {
		t.Fatal("rejected Set left a trigger behind")
	}
}

func TestSetRollsTriggerBackWhenPersistFails(t *testing.T) {
	env := newManagerEnv(t)
	ctx := context.Background()
	hid := mustSeedHabit(t, env, 42, "meditate")

	// User 99 passes the name lookup (the directory has no owner concept)
	// but the store's ownership check rejects the row, forcing the rollback.
	if env.mgr.Set(ctx, 99, hid, domain.TimeOfDay{Hour: 8}) {
		t.Fatal("Set accepted a habit owned by another user")
	}
	if env.sched.Has(domain.MakeJobID(99, hid)) {
		t.Fatal("trigger not rolled back after persist failure")
	}
	if _, ok := env.st.ReminderByHabit(ctx, hid); ok {
		t.Fatal("rejected Set left a row behind")
	}
}

func TestRemoveCancelsAndReportsOnce(t *testing.T) {
	env := newManagerEnv(t)
	ctx := context.Background()
	hid := mustSeedHabit(t, env, 42, "meditate")
	if !env.mgr.Set(ctx, 42, hid, domain.TimeOfDay{Hour: 8}) {
		t.Fatal("Set failed")
	}

	if !env.mgr.Remove(ctx, hid) {
		t.Fatal("Remove reported no reminder")
	}
	if env.sched.Has(domain.MakeJobID(42, hid)) {
		t.Fatal("trigger survived Remove")
	}
	// Second removal is a quiet no-op.
	if env.mgr.Remove(ctx, hid) {
		t.Fatal("second Remove reported a reminder")
	}
}

func TestListByUserOrdersByTime(t *testing.T) {
	env := newManagerEnv(t)
	ctx := context.Background()
	evening := mustSeedHabit(t, env, 42, "read")
	morning := mustSeedHabit(t, env, 42, "run")

	if !env.mgr.Set(ctx, 42, evening, domain.TimeOfDay{Hour: 21}) ||
		!env.mgr.Set(ctx, 42, morning, domain.TimeOfDay{Hour: 6, Minute: 45}) {
		t.Fatal("Set failed")
	}

	got := env.mgr.ListByUser(ctx, 42)
	if len(got) != 2 || got[0].HabitID != morning || got[1].HabitID != evening {
		t.Fatalf("reminders not ordered by time of day: %+v", got)
	}
}
