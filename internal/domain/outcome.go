package domain

// Outcome classifies a single notification send.
//
// Permanent failures (blocked bot, dead chat) will recur on every future
// attempt, so the owning reminder should be removed rather than retried.
// Transient failures are left alone; the next day's fire is the retry.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomePermanentFailure
	OutcomeTransientFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomePermanentFailure:
		return "permanent_failure"
	case OutcomeTransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}
