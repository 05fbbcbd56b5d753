package reminders

import (
	"context"
	"time"

	"habitbot/internal/domain"
	"habitbot/internal/eventbus"
	"habitbot/pkg/logx"
)

// Reconciler rebuilds the scheduler's trigger set from the store on startup.
type Reconciler struct {
	store  Store
	sched  Scheduler
	habits HabitDirectory
	worker *Worker
	bus    eventbus.Bus
	log    logx.Logger
}

func NewReconciler(store Store, sched Scheduler, habits HabitDirectory, worker *Worker, bus eventbus.Bus, log logx.Logger) *Reconciler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Reconciler{store: store, sched: sched, habits: habits, worker: worker, bus: bus, log: log}
}

// Run sweeps every stored reminder once: orphans are deleted and their
// triggers cancelled, the rest are (re)registered under their expected job
// id. A fault on one row never stops the sweep; it is counted and the sweep
// moves on.
//
// Running it twice back-to-back with no store changes yields the same trigger
// set, with zero duplicates: ScheduleDaily cancels before registering, and
// cancelling an absent id is a no-op.
func (r *Reconciler) Run(ctx context.Context) Stats {
	var stats Stats

	rows := r.store.Reminders(ctx)
	if len(rows) == 0 {
		r.log.Info("no stored reminders to reconcile")
		r.publish(stats)
		return stats
	}
	r.log.Info("reconciling stored reminders", logx.Int("count", len(rows)))

	for _, rem := range rows {
		expected := domain.MakeJobID(rem.UserID, rem.HabitID)

		name, found, err := r.habits.HabitName(ctx, rem.HabitID)
		if err != nil {
			// Existence unknown; leave the row for the next run.
			r.log.Error("habit check failed; skipping row",
				logx.Int64("habit_id", rem.HabitID), logx.Err(err))
			stats.Failed++
			continue
		}
		if !found {
			r.log.Warn("habit gone; pruning orphaned reminder",
				logx.Int64("habit_id", rem.HabitID), logx.Int64("user_id", rem.UserID))
			stats.Orphans++
			r.store.RemoveReminderByHabit(ctx, rem.HabitID)
			// Double-cancel covers any historical mismatch between the stored
			// and the recomputed id. Why a mismatch would ever occur is an
			// open question; the cancel is cheap either way.
			r.sched.Cancel(expected)
			if rem.JobID != "" && rem.JobID != expected {
				r.sched.Cancel(rem.JobID)
			}
			continue
		}

		if rem.JobID != "" && rem.JobID != expected {
			r.log.Warn("stored job id differs from expected; cancelling both",
				logx.Stringer("stored", rem.JobID), logx.Stringer("expected", expected))
			r.sched.Cancel(rem.JobID)
		}
		// Cancel-then-schedule keeps a rerun within the same process from
		// stacking a second trigger under the id.
		r.sched.Cancel(expected)

		payload := domain.Payload{UserID: rem.UserID, HabitID: rem.HabitID, HabitName: name}
		if !r.sched.ScheduleDaily(expected, rem.At, r.worker.Job(payload)) {
			r.log.Error("trigger registration failed",
				logx.Stringer("job_id", expected), logx.Stringer("at", rem.At))
			stats.Failed++
			continue
		}
		stats.Scheduled++
	}

	r.log.Info("reconciliation finished",
		logx.Int("scheduled", stats.Scheduled),
		logx.Int("orphans", stats.Orphans),
		logx.Int("failed", stats.Failed))
	r.publish(stats)
	return stats
}

func (r *Reconciler) publish(stats Stats) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(eventbus.Event{Type: "reconcile.done", Time: time.Now(), Data: stats})
}
