package weather

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a sync run ended.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindNetwork    ErrorKind = "network"
	KindNoData     ErrorKind = "no_data"
	KindStorage    ErrorKind = "storage"
	KindUnexpected ErrorKind = "unexpected"
)

// SyncError carries the kind and the pipeline operation that failed.
type SyncError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *SyncError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and operation name.
func NewError(kind ErrorKind, op string, err error) *SyncError {
	return &SyncError{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first SyncError in err's chain,
// KindUnexpected for any other non-nil error, and KindNone for nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnexpected
}

// wrapKind keeps the kind of an already classified error and
// classifies everything else as kind.
func wrapKind(kind ErrorKind, op string, err error) error {
	var se *SyncError
	if errors.As(err, &se) {
		return err
	}
	return NewError(kind, op, err)
}
