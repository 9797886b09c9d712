package dedup

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrStoreUnavailable means the contact store yielded no address books at
	// session start. Fatal; the session is never started.
	ErrStoreUnavailable = errors.New("contact store unavailable: no address books found")

	// ErrIterationLimitExceeded means the pair scan ran past its iteration
	// ceiling, which indicates a pointer-advance invariant violation. Fatal
	// for the session.
	ErrIterationLimitExceeded = errors.New("pair enumeration exceeded iteration ceiling")

	// ErrNoCurrentPair is returned by decision operations when no pair is
	// awaiting a decision.
	ErrNoCurrentPair = errors.New("no pair awaiting decision")

	// ErrSessionFinished is returned when an operation requires a running
	// session.
	ErrSessionFinished = errors.New("session already finished")
)

// PersistenceError reports a failed store mutation. The session survives it;
// the caller decides whether to retry the decision or skip the pair.
type PersistenceError struct {
	Op       string
	BookID   string
	RecordID string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed for record %s in book %s: %v", e.Op, e.RecordID, e.BookID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
