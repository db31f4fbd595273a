// Package dealerr defines the engine's error taxonomy.
//
// Fatal kinds (MissingCalibration, UnknownCountry, UnknownGenre, InvalidMix,
// InvalidInput) surface to the caller with the offending value in the
// message. Unconverged is non-fatal: callers degrade the affected metric to
// a zero-value/flagged result instead of failing the whole operation.
package dealerr

import (
	"errors"
	"fmt"
)

// Kind identifies which fatal/non-fatal category an error belongs to.
type Kind string

const (
	MissingCalibration Kind = "missing_calibration"
	UnknownCountry     Kind = "unknown_country"
	UnknownGenre       Kind = "unknown_genre"
	InvalidMix         Kind = "invalid_mix"
	InvalidInput       Kind = "invalid_input"
	Unconverged        Kind = "unconverged"
)

// Error wraps a Kind with the offending value and an optional cause.
type Error struct {
	Kind  Kind
	Value string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Value)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err (or anything it wraps) is a dealerr.Error of kind k.
func Is(err error, k Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == k
}

func New(kind Kind, value string) error {
	return &Error{Kind: kind, Value: value}
}

func Wrap(kind Kind, value string, cause error) error {
	return &Error{Kind: kind, Value: value, Err: cause}
}
