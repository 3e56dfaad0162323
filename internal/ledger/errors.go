package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateID is returned when an entity with the same id already exists.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrNotDurable marks a mutation that was applied in memory but not written.
	ErrNotDurable = errors.New("change applied in memory but not persisted")
)

// PersistError reports a failed write of one key. The in-memory state has
// already changed when this is returned.
type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{ErrNotDurable, e.Err}
}

// IsWarning reports whether err only signals lost durability. Callers treat
// such errors as a warning because the mutation itself succeeded.
func IsWarning(err error) bool {
	return err != nil && errors.Is(err, ErrNotDurable)
}

// Anomaly describes a stored entry that was skipped while loading.
type Anomaly struct {
	Key    string `json:"key"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func (a Anomaly) String() string {
	if a.Index < 0 {
		return fmt.Sprintf("%s: %s", a.Key, a.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", a.Key, a.Index, a.Reason)
}
