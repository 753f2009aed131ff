package repository

import "fmt"

// UnavailableError means the datastore could not be reached (connection,
// timeout, or a broken response stream).
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("datastore unavailable: %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// RejectedError means the datastore answered with a non-2xx status.
type RejectedError struct {
	Op     string
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("datastore rejected %s: status %d: %s", e.Op, e.Status, e.Body)
}
