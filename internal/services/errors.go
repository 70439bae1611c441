package services

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow error so handlers can map it to an HTTP status
// without inspecting message text
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindPermissionDenied Kind = "permission_denied"
	KindInvalidArgument  Kind = "invalid_argument"
	KindConflict         Kind = "conflict"
	KindAlreadyExists    Kind = "already_exists"
	KindInternal         Kind = "internal"
)

// WorkflowError is the error type returned by service-layer operations for
// caller-visible failures. Infrastructure failures keep flowing as wrapped
// plain errors and map to KindInternal.
type WorkflowError struct {
	Kind    Kind
	Message string
}

func (e *WorkflowError) Error() string {
	return e.Message
}

// NotFoundError builds a not-found workflow error
func NotFoundError(format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// PermissionDeniedError builds a permission-denied workflow error
func PermissionDeniedError(format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgumentError builds an invalid-argument workflow error
func InvalidArgumentError(format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// ConflictError builds a conflict workflow error
func ConflictError(format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExistsError builds an already-exists workflow error
func AlreadyExistsError(format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Kind: KindAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from an error chain, defaulting to KindInternal
func KindOf(err error) Kind {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Kind
	}
	return KindInternal
}
