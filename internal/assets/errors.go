package assets

import (
	"errors"
	"fmt"
)

// ValidationError blocks an operation before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// TransportError wraps a network or transfer failure for a single file.
// It is recorded in that file's status and never aborts the batch.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CancellationError marks a file aborted by a cancellation request,
// distinct from a transport failure.
type CancellationError struct{}

func (e *CancellationError) Error() string { return "upload cancelled" }

// PartialSyncError means the asset is persisted remotely but the owning
// record's derived fields were not confirmed updated. Callers must surface
// this for reconciliation instead of folding it into success or failure.
type PartialSyncError struct {
	RecordID string
	Reason   string
}

func (e *PartialSyncError) Error() string {
	return fmt.Sprintf("asset stored but record %s not confirmed updated: %s", e.RecordID, e.Reason)
}

// IsCancellation reports whether err is (or wraps) a CancellationError.
func IsCancellation(err error) bool {
	var ce *CancellationError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPartialSync reports whether err is (or wraps) a PartialSyncError.
func IsPartialSync(err error) bool {
	var pe *PartialSyncError
	return errors.As(err, &pe)
}
