package reminders

import (
	"context"
	"fmt"
	"time"

	"habitbot/internal/domain"
	"habitbot/internal/eventbus"
	"habitbot/internal/scheduler"
	"habitbot/pkg/logx"
)

const (
	// fallbackHabitName is used when the name lookup errors at fire time;
	// a degraded reminder still beats a silently skipped one.
	fallbackHabitName = "your habit"

	reminderTemplate = "⏰ Reminder: time for “%s”!"
)

// Worker is the delivery side of the subsystem: the body every daily trigger
// executes.
type Worker struct {
	store   Store
	sched   Scheduler
	habits  HabitDirectory
	channel Channel
	bus     eventbus.Bus
	log     logx.Logger
}

func NewWorker(store Store, sched Scheduler, habits HabitDirectory, channel Channel, bus eventbus.Bus, log logx.Logger) *Worker {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Worker{store: store, sched: sched, habits: habits, channel: channel, bus: bus, log: log}
}

// Job binds a payload into a scheduler callback.
func (w *Worker) Job(p domain.Payload) scheduler.Job {
	return func(ctx context.Context) error {
		return w.Deliver(ctx, p)
	}
}

// Deliver runs one fire to completion.
//
// An orphaned habit or a permanently undeliverable recipient removes the
// reminder on the spot; a transient failure leaves it untouched so the next
// day's fire retries naturally. Nothing here is ever surfaced to the user.
func (w *Worker) Deliver(ctx context.Context, p domain.Payload) error {
	name := p.HabitName
	if name == "" {
		var found bool
		var err error
		name, found, err = w.habits.HabitName(ctx, p.HabitID)
		if err != nil {
			// Existence unknown: do not prune, send a degraded message.
			w.log.Warn("habit name lookup failed at fire time; using fallback",
				logx.Int64("habit_id", p.HabitID), logx.Err(err))
			name = fallbackHabitName
		} else if !found {
			w.log.Warn("habit gone at fire time; pruning reminder",
				logx.Int64("habit_id", p.HabitID), logx.Int64("user_id", p.UserID))
			w.prune(ctx, p, "habit_deleted")
			return nil
		}
	}

	outcome := w.channel.Send(ctx, p.UserID, fmt.Sprintf(reminderTemplate, name))
	switch outcome {
	case domain.OutcomeDelivered:
		w.log.Info("reminder delivered",
			logx.Int64("user_id", p.UserID), logx.Int64("habit_id", p.HabitID))
		w.publish("reminder.sent", p, name, "")
		return nil
	case domain.OutcomePermanentFailure:
		// Self-heal: the same failure would repeat every day.
		w.log.Warn("recipient permanently unreachable; pruning reminder",
			logx.Int64("user_id", p.UserID), logx.Int64("habit_id", p.HabitID))
		w.prune(ctx, p, "permanent_delivery_failure")
		return nil
	default:
		w.publish("reminder.failed", p, name, "transient")
		return fmt.Errorf("reminder for habit %d: transient delivery failure", p.HabitID)
	}
}

// prune removes the reminder row and its trigger. The trigger is cancelled
// under both the stored job id and the expected one; they should always
// agree, but cancelling twice is free and tolerates a historical mismatch.
func (w *Worker) prune(ctx context.Context, p domain.Payload, reason string) {
	expected := domain.MakeJobID(p.UserID, p.HabitID)
	stored, ok := w.store.RemoveReminderByHabit(ctx, p.HabitID)
	if ok && stored != expected {
		w.log.Warn("stored job id differs from expected",
			logx.Stringer("stored", stored), logx.Stringer("expected", expected))
		w.sched.Cancel(stored)
	}
	w.sched.Cancel(expected)
	w.publish("reminder.pruned", p, p.HabitName, reason)
}

func (w *Worker) publish(typ string, p domain.Payload, name, reason string) {
	if w.bus == nil {
		return
	}
	w.bus.Publish(eventbus.Event{
		Type: typ,
		Time: time.Now(),
		Data: DeliveryEvent{UserID: p.UserID, HabitID: p.HabitID, HabitName: name, Reason: reason},
	})
}
