package reminders

import (
	"context"
	"errors"
	"testing"

	"habitbot/internal/domain"
	"habitbot/internal/scheduler"
	"habitbot/internal/storage"
	"habitbot/pkg/logx"
)

type reconcileEnv struct {
	rec    *Reconciler
	habits *fakeHabits
	ch     *fakeChannel
	st     *storage.Store
	sched  *scheduler.Service
}

func newReconcileEnv(t *testing.T) reconcileEnv {
	t.Helper()
	st := newTestStore(t)
	sched := newTestScheduler(t)
	habits := newFakeHabits()
	ch := &fakeChannel{}
	worker := NewWorker(st, sched, habits, ch, nil, logx.Nop())
	rec := NewReconciler(st, sched, habits, worker, nil, logx.Nop())
	return reconcileEnv{rec: rec, habits: habits, ch: ch, st: st, sched: sched}
}

func TestReconcileSchedulesStoredReminders(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	hid := seedReminder(t, env.st, env.habits, 42, "meditate", domain.TimeOfDay{Hour: 8, Minute: 30})

	stats := env.rec.Run(ctx)
	if stats.Scheduled != 1 || stats.Orphans != 0 || stats.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !env.sched.Has(domain.MakeJobID(42, hid)) {
		t.Fatalf("expected trigger under %s", domain.MakeJobID(42, hid))
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	seedReminder(t, env.st, env.habits, 42, "meditate", domain.TimeOfDay{Hour: 8, Minute: 30})
	seedReminder(t, env.st, env.habits, 7, "run", domain.TimeOfDay{Hour: 6})

	first := env.rec.Run(ctx)
	second := env.rec.Run(ctx)
	if first != second {
		t.Fatalf("stats differ across runs: %+v vs %+v", first, second)
	}
	if snap := env.sched.Snapshot(); len(snap.Triggers) != 2 {
		t.Fatalf("expected 2 triggers after double run, got %d", len(snap.Triggers))
	}
}

func TestReconcilePrunesOrphans(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	gone := seedReminder(t, env.st, env.habits, 42, "meditate", domain.TimeOfDay{Hour: 8, Minute: 30})
	keep := seedReminder(t, env.st, env.habits, 42, "read", domain.TimeOfDay{Hour: 21})

	before := env.rec.Run(ctx)
	if before.Scheduled != 2 {
		t.Fatalf("expected 2 scheduled, got %+v", before)
	}

	// Habit deleted behind the subsystem's back.
	env.habits.delete(gone)

	after := env.rec.Run(ctx)
	if after.Orphans != 1 || after.Scheduled != 1 {
		t.Fatalf("unexpected stats after orphaning: %+v", after)
	}
	if _, ok := env.st.ReminderByHabit(ctx, gone); ok {
		t.Fatal("orphan row still stored")
	}
	if env.sched.Has(domain.MakeJobID(42, gone)) {
		t.Fatal("orphan trigger still registered")
	}
	if !env.sched.Has(domain.MakeJobID(42, keep)) {
		t.Fatal("healthy trigger was pruned")
	}
}

func TestReconcileCancelsMismatchedStoredJobID(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	hid := seedReminder(t, env.st, env.habits, 42, "meditate", domain.TimeOfDay{Hour: 8})
	expected := domain.MakeJobID(42, hid)

	// Simulate a row written under an older naming scheme, with a live
	// trigger registered to match.
	legacy := domain.JobID("daily_" + expected.String())
	r, ok := env.st.ReminderByHabit(ctx, hid)
	if !ok {
		t.Fatal("seeded reminder missing")
	}
	r.JobID = legacy
	if !env.st.UpsertReminder(ctx, r) {
		t.Fatal("failed to store legacy job id")
	}
	if !env.sched.ScheduleDaily(legacy, r.At, func(ctx context.Context) error { return nil }) {
		t.Fatal("failed to register legacy trigger")
	}

	stats := env.rec.Run(ctx)
	if stats.Scheduled != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if env.sched.Has(legacy) {
		t.Fatal("legacy trigger survived reconciliation")
	}
	if !env.sched.Has(expected) {
		t.Fatal("expected trigger missing after reconciliation")
	}
}

func TestReconcileCountsLookupFailures(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	hid := seedReminder(t, env.st, env.habits, 42, "meditate", domain.TimeOfDay{Hour: 8})
	env.habits.fail(errors.New("directory down"))

	stats := env.rec.Run(ctx)
	if stats.Failed != 1 || stats.Orphans != 0 || stats.Scheduled != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	// The row must survive: existence was unknown, not negative.
	if _, ok := env.st.ReminderByHabit(ctx, hid); !ok {
		t.Fatal("row pruned on lookup failure")
	}
}
