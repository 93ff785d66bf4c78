package board

import "fmt"

// ValidationError blocks a change before anything is applied or sent
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// FetchError means a full load failed; the store kept its previous contents
type FetchError struct {
	ParentID string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load board %q: %v", e.ParentID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MutationError reports a failed create/update/delete or bulk batch.
// Failed of Total requests failed; Resync is the outcome of the recovery load.
type MutationError struct {
	Op     string
	Failed int
	Total  int
	Err    error
	Resync error
}

func (e *MutationError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Op)
	if e.Total > 1 {
		msg = fmt.Sprintf("%s failed for %d of %d items", e.Op, e.Failed, e.Total)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Resync != nil {
		msg += " (resync also failed)"
	}
	return msg
}

func (e *MutationError) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Resync != nil {
		errs = append(errs, e.Resync)
	}
	return errs
}
