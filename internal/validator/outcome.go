// Package validator is the layered safety gate for generated SQL: a lexical
// scan, a structural check over the parsed tree, and dialect transpilation.
// Each layer is a pure function over the candidate text; the first rejection
// wins and carries enough context to build correction feedback.
package validator

import "fmt"

// Stage identifies the validation layer that produced an outcome.
type Stage int

// Validation stages, in pipeline order.
const (
	StageLexical Stage = iota
	StageStructural
	StageTranspile
)

func (s Stage) String() string {
	switch s {
	case StageLexical:
		return "lexical"
	case StageStructural:
		return "structural"
	case StageTranspile:
		return "transpile"
	default:
		return "unknown"
	}
}

// Outcome is the discriminated result of validating one candidate query.
// It is immutable once returned.
type Outcome struct {
	OK     bool
	Stage  Stage
	Reason string
	// Fragment is the offending token or pattern, when one can be named.
	Fragment string
	// Pos is the byte offset of Fragment in the candidate, -1 when unknown.
	Pos int
	// CanonicalSQL is the exact string to execute; set only when OK.
	CanonicalSQL string
}

// Accepted builds a passing outcome carrying the canonical SQL.
func Accepted(canonicalSQL string) Outcome {
	return Outcome{OK: true, CanonicalSQL: canonicalSQL, Pos: -1}
}

// Rejected builds a failing outcome for the given stage.
func Rejected(stage Stage, reason string) Outcome {
	return Outcome{Stage: stage, Reason: reason, Pos: -1}
}

// RejectedAt builds a failing outcome that names the offending fragment.
func RejectedAt(stage Stage, reason, fragment string, pos int) Outcome {
	return Outcome{Stage: stage, Reason: reason, Fragment: fragment, Pos: pos}
}

// Describe renders the outcome as correction feedback text.
func (o Outcome) Describe() string {
	if o.OK {
		return "accepted"
	}
	if o.Fragment != "" {
		return fmt.Sprintf("rejected at %s stage: %s (near %q, offset %d)", o.Stage, o.Reason, o.Fragment, o.Pos)
	}
	return fmt.Sprintf("rejected at %s stage: %s", o.Stage, o.Reason)
}
