// Package apperr defines sentinel errors and the error kinds callers use to
// decide whether a run continues.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrMarkersNotFound = errors.New("markers not found")
)

// Kind classifies a failure by its continuation policy.
type Kind int

const (
	// KindFatal aborts the current command.
	KindFatal Kind = iota
	// KindSkip aborts only the current unit of work (one date, one entry).
	KindSkip
	// KindConfigMissing means a required setting is absent. Detected before
	// any network call.
	KindConfigMissing
)

func (k Kind) String() string {
	switch k {
	case KindSkip:
		return "skip"
	case KindConfigMissing:
		return "config-missing"
	default:
		return "fatal"
	}
}

// Error carries a Kind alongside the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Skip wraps err as a per-unit failure.
func Skip(op string, err error) error {
	return &Error{Kind: KindSkip, Op: op, Err: err}
}

// Fatal wraps err as a run-aborting failure.
func Fatal(op string, err error) error {
	return &Error{Kind: KindFatal, Op: op, Err: err}
}

// ConfigMissing reports an absent required setting.
func ConfigMissing(op, setting string) error {
	return &Error{Kind: KindConfigMissing, Op: op, Err: fmt.Errorf("%s is not configured", setting)}
}

// KindOf returns the Kind of the first *Error in err's chain. Errors without
// one are fatal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFatal
}

// IsSkip reports whether err only aborts its unit of work.
func IsSkip(err error) bool {
	return err != nil && KindOf(err) == KindSkip
}
