// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// Sentinel errors for the source failure taxonomy. An *Error matches the
// sentinel of its kind with errors.Is.
var (
	ErrUnavailable = errors.New("source unavailable")
	ErrTimeout     = errors.New("source timeout")
	ErrParse       = errors.New("source parse error")
	ErrCancelled   = errors.New("source call cancelled")
)

// Error is a classified failure of one source call.
type Error struct {
	Source types.Source
	Kind   types.ErrorKind
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Source, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := []error{sentinelFor(e.Kind)}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func sentinelFor(kind types.ErrorKind) error {
	switch kind {
	case types.KindTimeout:
		return ErrTimeout
	case types.KindParse:
		return ErrParse
	case types.KindCancelled:
		return ErrCancelled
	default:
		return ErrUnavailable
	}
}

// Unavailable wraps err as a transient transport failure of src.
func Unavailable(src types.Source, err error) *Error {
	return &Error{Source: src, Kind: types.KindUnavailable, Err: err}
}

// Timeout wraps err as a deadline failure of src.
func Timeout(src types.Source, err error) *Error {
	return &Error{Source: src, Kind: types.KindTimeout, Err: err}
}

// ParseError wraps err as a response-shape failure of src.
func ParseError(src types.Source, err error) *Error {
	return &Error{Source: src, Kind: types.KindParse, Err: err}
}

// Classify converts any error returned by an adapter into an *Error.
// Errors that are already classified keep their kind. A context deadline
// becomes a timeout, a context cancellation becomes cancelled, and
// everything else is treated as unavailable.
func Classify(src types.Source, err error) *Error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		if se.Source != "" || src == "" {
			return se
		}
		c := *se
		c.Source = src
		return &c
	}
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return Timeout(src, err)
	case errors.Is(err, ErrParse):
		return ParseError(src, err)
	case errors.Is(err, context.Canceled), errors.Is(err, ErrCancelled):
		return &Error{Source: src, Kind: types.KindCancelled, Err: err}
	default:
		return Unavailable(src, err)
	}
}

// KindOf returns the failure kind of err, or "" when err is nil.
func KindOf(err error) types.ErrorKind {
	if err == nil {
		return ""
	}
	return Classify("", err).Kind
}
