package engine

import (
	"errors"
	"fmt"
)

// NotFoundError reports that the target of an operation does not exist.
type NotFoundError struct {
	Kind string // "user", "video", "comment", "notification"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// SelfReferenceError reports an attempt to follow oneself.
type SelfReferenceError struct {
	UserID uint
}

func (e *SelfReferenceError) Error() string {
	return fmt.Sprintf("user %d cannot follow themselves", e.UserID)
}

// ConflictError reports that a concurrent toggle produced an unexpected
// state transition. The ledger retries these internally a bounded number
// of times before surfacing one to the caller.
type ConflictError struct {
	Op  string
	Err error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: concurrent state conflict: %v", e.Op, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// TimeoutError reports that a storage call exceeded its bound. Toggle
// semantics make it safe for the caller to retry the whole request.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: storage timeout: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
