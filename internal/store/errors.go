package store

import "errors"

// Sentinel errors returned by ApplyCompletion. The engine maps these to
// its caller-facing error taxonomy.
var (
	// ErrAlreadyCompleted indicates the ledger already holds an entry for
	// this (tracker, line item) pair. Benign: the completion happened once.
	ErrAlreadyCompleted = errors.New("line item already completed for tracker")

	// ErrVersionConflict indicates a concurrent writer advanced the tracker
	// between read and write. Retryable with fresh state.
	ErrVersionConflict = errors.New("tracker version conflict")
)
