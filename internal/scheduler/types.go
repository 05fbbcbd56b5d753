package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"habitbot/internal/domain"
)

// Config controls the scheduler service.
type Config struct {
	Timezone string // IANA TZ, e.g. "Asia/Jakarta"; empty means time.Local
	Workers  int
	// DeliveryTimeout bounds a single fire's callback run.
	DeliveryTimeout time.Duration
}

// Job is the callback body a trigger runs at fire time.
type Job func(ctx context.Context) error

// triggerDef is a persistent registration; entryID is zero while stopped.
type triggerDef struct {
	id      domain.JobID
	at      domain.TimeOfDay
	job     Job
	entryID cron.EntryID
}

type task struct {
	id      domain.JobID
	timeout time.Duration
	run     Job
}

// TriggerInfo describes one registered trigger for status and tests.
type TriggerInfo struct {
	ID   domain.JobID
	At   domain.TimeOfDay
	Next time.Time // zero while the scheduler is stopped
}

type Snapshot struct {
	Timezone string
	Running  bool
	Triggers []TriggerInfo
}
