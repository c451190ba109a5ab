package engine

import (
	"errors"
	"fmt"
)

// Error represents a completion request failure with a stable code the
// caller can branch on.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ProjectID identifies the affected project.
	ProjectID string

	// LineItemID identifies the referenced line item, when relevant.
	LineItemID string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeTrackerNotFound indicates the project has no main tracker.
	// The workflow must be initialized first; not retryable without that.
	ErrCodeTrackerNotFound ErrorCode = "TRACKER_NOT_FOUND"

	// ErrCodeLineItemNotFound indicates the line item ID is not in the
	// hierarchy. Stale client reference; not retryable.
	ErrCodeLineItemNotFound ErrorCode = "LINE_ITEM_NOT_FOUND"

	// ErrCodeConflict indicates a concurrent writer advanced the tracker
	// first. Retryable with fresh state.
	ErrCodeConflict ErrorCode = "TRANSACTION_CONFLICT"

	// ErrCodeWorkflowExists indicates initialization was requested for a
	// project that already has a main tracker.
	ErrCodeWorkflowExists ErrorCode = "WORKFLOW_EXISTS"

	// ErrCodeEmptyWorkflow indicates the hierarchy has no active line
	// items to initialize a tracker against.
	ErrCodeEmptyWorkflow ErrorCode = "EMPTY_WORKFLOW"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.ProjectID != "" && e.LineItemID != "":
		return fmt.Sprintf("%s: %s (project=%s, line_item=%s)", e.Code, e.Message, e.ProjectID, e.LineItemID)
	case e.ProjectID != "":
		return fmt.Sprintf("%s: %s (project=%s)", e.Code, e.Message, e.ProjectID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the engine error code from err.
// Returns "" if err is not an engine Error. Uses errors.As to handle
// wrapped errors.
func CodeOf(err error) ErrorCode {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// IsTrackerNotFound reports whether err is a missing-tracker error.
func IsTrackerNotFound(err error) bool {
	return CodeOf(err) == ErrCodeTrackerNotFound
}

// IsLineItemNotFound reports whether err is an unknown-line-item error.
func IsLineItemNotFound(err error) bool {
	return CodeOf(err) == ErrCodeLineItemNotFound
}

// IsConflict reports whether err is a retryable transaction conflict.
func IsConflict(err error) bool {
	return CodeOf(err) == ErrCodeConflict
}

// NewTrackerNotFound creates a missing-tracker error.
func NewTrackerNotFound(projectID string) *Error {
	return &Error{
		Code:      ErrCodeTrackerNotFound,
		Message:   "no main workflow tracker exists; initialize the workflow first",
		ProjectID: projectID,
	}
}

// NewLineItemNotFound creates an unknown-line-item error.
func NewLineItemNotFound(projectID, lineItemID string) *Error {
	return &Error{
		Code:       ErrCodeLineItemNotFound,
		Message:    "line item does not exist in the workflow hierarchy",
		ProjectID:  projectID,
		LineItemID: lineItemID,
	}
}

// NewConflict creates a retryable transaction-conflict error.
func NewConflict(projectID, lineItemID string, err error) *Error {
	return &Error{
		Code:       ErrCodeConflict,
		Message:    "concurrent completion advanced the tracker; retry with fresh state",
		ProjectID:  projectID,
		LineItemID: lineItemID,
		Err:        err,
	}
}
