package catalog

import (
	"errors"
	"fmt"
)

// ErrDuplicate is returned when a write would store a second photo for a
// source URL that is already catalogued.
var ErrDuplicate = errors.New("photo with this source url already exists")

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// NotFoundError reports a reference to an entity that does not exist.
type NotFoundError struct {
	What string
	ID   int
}

func (e *NotFoundError) Error() string {
	if e.ID > 0 {
		return fmt.Sprintf("%s %d does not exist", e.What, e.ID)
	}
	return fmt.Sprintf("%s does not exist", e.What)
}

// ExternalServiceError wraps a failure of the upstream photo API. It aborts
// a whole ingestion run.
type ExternalServiceError struct {
	Op  string
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("photo api %s: %v", e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// ItemError is a failure to process a single listing entry. It is logged
// and never surfaced to API callers.
type ItemError struct {
	URL   string
	Stage string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.URL, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsExternal(err error) bool {
	var ee *ExternalServiceError
	return errors.As(err, &ee)
}
