package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const jobIDPrefix = "reminder_"

// JobID is the deterministic scheduler key for a reminder.
//
// The same (user, habit) pair always encodes to the same id, so a trigger
// registered before a restart occupies the same slot after reconciliation.
type JobID string

// MakeJobID derives the scheduler key for a (user, habit) pair.
func MakeJobID(userID, habitID int64) JobID {
	return JobID(fmt.Sprintf("%s%d_%d", jobIDPrefix, userID, habitID))
}

// ParseJobID decodes a job id back into its (user, habit) pair.
func ParseJobID(id JobID) (userID, habitID int64, err error) {
	s := string(id)
	rest, ok := strings.CutPrefix(s, jobIDPrefix)
	if !ok {
		return 0, 0, fmt.Errorf("job id %q: missing %q prefix", s, jobIDPrefix)
	}
	us, hs, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, 0, fmt.Errorf("job id %q: expected reminder_<user>_<habit>", s)
	}
	userID, err = strconv.ParseInt(us, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("job id %q: bad user part: %w", s, err)
	}
	habitID, err = strconv.ParseInt(hs, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("job id %q: bad habit part: %w", s, err)
	}
	return userID, habitID, nil
}

func (id JobID) String() string { return string(id) }
