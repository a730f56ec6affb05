package models

import "fmt"

// ValidationError marks a row that cannot be turned into a Lead. It is
// local to that row: the batch keeps going and the row is counted as failed.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConflictError is returned by the store when an insert loses a uniqueness
// race on profile_url. The reconciliation engine recovers from it by
// retrying the row as an update against the now-existing lead.
type ConflictError struct {
	ProfileURL string
	Err        error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("lead with profile URL %s already exists: %v", e.ProfileURL, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}
