package practice

import (
	"errors"
	"fmt"
)

// ErrIdentityNotFound indicates the caller could not be mapped to a
// performer profile.
type ErrIdentityNotFound struct {
	Err error
}

func (e *ErrIdentityNotFound) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("performer not found: %v", e.Err)
	}
	return "performer not found"
}

func (e *ErrIdentityNotFound) Unwrap() error { return e.Err }

// ErrInvalidPiece indicates the piece is missing or not published.
type ErrInvalidPiece struct {
	PieceID string
}

func (e *ErrInvalidPiece) Error() string {
	return fmt.Sprintf("piece %q does not exist or is not published", e.PieceID)
}

// ErrValidation indicates a request field was rejected before any write.
type ErrValidation struct {
	Field  string
	Reason string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ErrStorage indicates a read or write against the store failed. Callers may
// retry the whole operation.
type ErrStorage struct {
	Op  string
	Err error
}

func (e *ErrStorage) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *ErrStorage) Unwrap() error { return e.Err }

// ErrPartialWrite indicates that one half of a two-write unit succeeded and
// the other failed. Callers should retry only the Failed half; HistoryID
// identifies the history entry that was already recorded.
type ErrPartialWrite struct {
	Succeeded string
	Failed    string
	HistoryID string
	Err       error
}

func (e *ErrPartialWrite) Error() string {
	return fmt.Sprintf("partial write: %s recorded (id %s) but %s failed: %v",
		e.Succeeded, e.HistoryID, e.Failed, e.Err)
}

func (e *ErrPartialWrite) Unwrap() error { return e.Err }

// Error kinds reported by Kind.
const (
	KindIdentityNotFound = "identity_not_found"
	KindInvalidPiece     = "invalid_piece"
	KindValidation       = "validation"
	KindStorage          = "storage"
	KindPartialWrite     = "partial_write"
	KindInternal         = "internal"
)

// Kind classifies err into one of the Kind* constants. A partial write is
// reported as such even though it wraps a storage error.
func Kind(err error) string {
	var (
		partial  *ErrPartialWrite
		identity *ErrIdentityNotFound
		piece    *ErrInvalidPiece
		invalid  *ErrValidation
		storage  *ErrStorage
	)
	switch {
	case errors.As(err, &partial):
		return KindPartialWrite
	case errors.As(err, &identity):
		return KindIdentityNotFound
	case errors.As(err, &piece):
		return KindInvalidPiece
	case errors.As(err, &invalid):
		return KindValidation
	case errors.As(err, &storage):
		return KindStorage
	default:
		return KindInternal
	}
}

// Retryable reports whether retrying the failed operation could succeed.
func Retryable(err error) bool {
	switch Kind(err) {
	case KindStorage, KindPartialWrite:
		return true
	default:
		return false
	}
}
