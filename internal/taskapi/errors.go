package taskapi

import (
	"errors"
	"fmt"
)

// ErrorKind classifies task service failures.
type ErrorKind int

const (
	// KindUnavailable means the service could not be reached at all.
	KindUnavailable ErrorKind = iota
	// KindBadStatus means the service answered with an unexpected HTTP status.
	KindBadStatus
	// KindNotFound means the addressed task does not exist.
	KindNotFound
	// KindRejected means the service understood the request but refused it.
	KindRejected
)

// ServiceError is the typed result of a failed task service call.
type ServiceError struct {
	Kind     ErrorKind
	HTTPCode int
	Op       string
	Err      error
}

func (e *ServiceError) Error() string {
	switch e.Kind {
	case KindUnavailable:
		return fmt.Sprintf("taskapi: %s: service unavailable: %v", e.Op, e.Err)
	case KindBadStatus:
		return fmt.Sprintf("taskapi: %s: unexpected status %d", e.Op, e.HTTPCode)
	case KindNotFound:
		return fmt.Sprintf("taskapi: %s: task not found", e.Op)
	case KindRejected:
		return fmt.Sprintf("taskapi: %s: rejected by service (status %d)", e.Op, e.HTTPCode)
	default:
		return fmt.Sprintf("taskapi: %s: unknown error", e.Op)
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Code returns a stable machine-readable error code for handler summaries.
func (e *ServiceError) Code() string {
	switch e.Kind {
	case KindUnavailable:
		return "SERVICE_UNAVAILABLE"
	case KindBadStatus:
		return "BAD_STATUS"
	case KindNotFound:
		return "NOT_FOUND"
	case KindRejected:
		return "REJECTED_BY_SERVICE"
	default:
		return "UNKNOWN"
	}
}

// IsNotFound reports whether err is a ServiceError of kind NotFound.
func IsNotFound(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Kind == KindNotFound
}
