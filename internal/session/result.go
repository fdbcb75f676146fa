package session

import (
	"time"

	"github.com/wysokinskinorbert/BIAI-sub002/internal/db"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/llm"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/validator"
)

// Outcome is the terminal state of a session.
type Outcome int

// Terminal session outcomes. Aborted is reserved for infrastructure failures;
// it always travels with a non-nil error from Run.
const (
	OutcomeAborted Outcome = iota
	OutcomeSucceeded
	OutcomeExhausted
	OutcomeRefused
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeRefused:
		return "refused"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "aborted"
	}
}

// AttemptStatus records how far one attempt got.
type AttemptStatus string

// Attempt statuses.
const (
	StatusRefused   AttemptStatus = "refused"
	StatusRejected  AttemptStatus = "rejected"
	StatusExecError AttemptStatus = "exec_error"
	StatusSucceeded AttemptStatus = "succeeded"
)

// Attempt is one generation attempt with everything the audit trail needs.
type Attempt struct {
	Seq          int
	Prompt       string
	Reply        string
	Kind         llm.Kind
	SQL          string
	CanonicalSQL string
	Validation   validator.Outcome
	// Feedback is the correction text fed to the next attempt; empty for
	// refusals and for the final attempt.
	Feedback string
	Status   AttemptStatus
	Elapsed  time.Duration
}

// Result is the full record of one session.
type Result struct {
	Question string
	Outcome  Outcome
	// SQL is the canonical statement that succeeded; empty otherwise.
	SQL      string
	Rows     *db.ResultSet
	Attempts []Attempt
	Started  time.Time
	Elapsed  time.Duration
}

// FinalAttempt returns the last attempt, if any were made.
func (r *Result) FinalAttempt() (Attempt, bool) {
	if len(r.Attempts) == 0 {
		return Attempt{}, false
	}
	return r.Attempts[len(r.Attempts)-1], true
}
