package reminders

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"habitbot/internal/domain"
	"habitbot/internal/scheduler"
	"habitbot/internal/storage"
	"habitbot/pkg/logx"
)

// fakeHabits stands in for the external Habit collaborator, so tests can
// delete a habit "behind the subsystem's back" without touching the store.
type fakeHabits struct {
	mu    sync.Mutex
	names map[int64]string
	err   error
}

func newFakeHabits() *fakeHabits {
	return &fakeHabits{names: map[int64]string{}}
}

func (f *fakeHabits) HabitName(ctx context.Context, habitID int64) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", false, f.err
	}
	name, ok := f.names[habitID]
	return name, ok, nil
}

func (f *fakeHabits) set(habitID int64, name string) {
	f.mu.Lock()
	f.names[habitID] = name
	f.mu.Unlock()
}

func (f *fakeHabits) delete(habitID int64) {
	f.mu.Lock()
	delete(f.names, habitID)
	f.mu.Unlock()
}

func (f *fakeHabits) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// fakeChannel records sends and returns a scripted outcome.
type fakeChannel struct {
	mu      sync.Mutex
	outcome domain.Outcome
	sent    []string
}

func (f *fakeChannel) Send(ctx context.Context, userID int64, text string) domain.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return f.outcome
}

func (f *fakeChannel) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "test.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestScheduler(t *testing.T) *scheduler.Service {
	t.Helper()
	// Not started: registrations are stored as definitions, which is all the
	// consistency assertions need.
	return scheduler.New(scheduler.Config{Timezone: "UTC", DeliveryTimeout: time.Second}, logx.Nop())
}

// seedReminder creates the habit row (store + collaborator) and the reminder
// row for it.
func seedReminder(t *testing.T, st *storage.Store, habits *fakeHabits, userID int64, name string, at domain.TimeOfDay) int64 {
	t.Helper()
	ctx := context.Background()
	hid, ok := st.CreateHabit(ctx, userID, name, "", "")
	if !ok {
		t.Fatalf("CreateHabit(%q) failed", name)
	}
	habits.set(hid, name)
	r := domain.Reminder{UserID: userID, HabitID: hid, At: at, JobID: domain.MakeJobID(userID, hid)}
	if !st.UpsertReminder(ctx, r) {
		t.Fatalf("UpsertReminder for habit %d failed", hid)
	}
	return hid
}
