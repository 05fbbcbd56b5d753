package scheduler

import (
	"fmt"

	"habitbot/internal/domain"
	"habitbot/pkg/logx"
)

// ScheduleDaily registers a trigger that runs job once every calendar day at
// the given wall-clock time, in the scheduler's timezone.
//
// If a trigger already exists under id it is fully cancelled first, so no two
// firings ever coexist under one id. Out-of-range times are rejected with
// false. Registration while the service is stopped is kept as a definition
// and becomes live on the next Start().
func (s *Service) ScheduleDaily(id domain.JobID, at domain.TimeOfDay, job Job) bool {
	if id == "" || job == nil {
		s.log.Error("schedule rejected: empty id or nil job")
		return false
	}
	if !at.Valid() {
		s.log.Error("schedule rejected: time out of range",
			logx.Stringer("job_id", id), logx.Any("at", at))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(id)
	d := &triggerDef{id: id, at: at, job: job}
	s.defs[id] = d
	if s.c == nil {
		s.log.Debug("trigger stored; scheduler not running yet", logx.Stringer("job_id", id))
		return true
	}
	if !s.addCronLocked(d) {
		delete(s.defs, id)
		return false
	}
	s.log.Debug("trigger registered",
		logx.Stringer("job_id", id), logx.Stringer("at", at),
		logx.Time("next", s.c.Entry(d.entryID).Next))
	return true
}

// Cancel removes every trigger registered under id. It is idempotent:
// cancelling an unknown id returns false and raises no error.
func (s *Service) Cancel(id domain.JobID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.cancelLocked(id)
	if removed {
		s.log.Debug("trigger cancelled", logx.Stringer("job_id", id))
	}
	return removed
}

func (s *Service) cancelLocked(id domain.JobID) bool {
	d, ok := s.defs[id]
	if !ok {
		return false
	}
	if s.c != nil && d.entryID != 0 {
		s.c.Remove(d.entryID)
	}
	delete(s.defs, id)
	return true
}

// addCronLocked registers the definition with the running cron instance.
// Call with s.mu held and s.c non-nil.
func (s *Service) addCronLocked(d *triggerDef) bool {
	spec := fmt.Sprintf("%d %d %d * * *", d.at.Second, d.at.Minute, d.at.Hour)
	timeout := s.cfg.DeliveryTimeout
	eid, err := s.c.AddFunc(spec, func() {
		s.enqueue(task{id: d.id, timeout: timeout, run: d.job})
	})
	if err != nil {
		s.log.Error("trigger register failed",
			logx.Stringer("job_id", d.id), logx.String("spec", spec), logx.Err(err))
		return false
	}
	d.entryID = eid
	return true
}

// Snapshot reports the registered triggers, for status surfaces and tests.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Timezone: s.cfg.Timezone,
		Running:  s.c != nil,
		Triggers: make([]TriggerInfo, 0, len(s.defs)),
	}
	for _, d := range s.defs {
		ti := TriggerInfo{ID: d.id, At: d.at}
		if s.c != nil && d.entryID != 0 {
			ti.Next = s.c.Entry(d.entryID).Next
		}
		snap.Triggers = append(snap.Triggers, ti)
	}
	return snap
}

// Has reports whether a trigger is registered under id.
func (s *Service) Has(id domain.JobID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.defs[id]
	return ok
}
