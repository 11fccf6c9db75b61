package mfe

import (
	"errors"
	"fmt"
)

// AppError is the diagnostic produced for every lifecycle failure. Its
// message is prefixed with the unit's identity and the status the unit was in
// when the failure happened. It is never modified after creation.
type AppError struct {
	// AppOrParcelName is the display name of the failing unit.
	AppOrParcelName string

	// Kind is the failing unit's kind.
	Kind UnitKind

	// Status is the status the unit was in when it failed.
	Status Status

	// Value holds the original failure when it was not an error value.
	Value any

	message string
	cause   error
}

func (e *AppError) Error() string {
	return e.message
}

// Unwrap returns the original error, or nil for non-error failures.
func (e *AppError) Unwrap() error {
	return e.cause
}

// UnserializableRejection is returned by the pipeline instead of an AppError
// when a unit fails with a non-error value that cannot be serialized into a
// message. Value is the original failure, untouched.
type UnserializableRejection struct {
	AppOrParcelName string
	Value           any
}

func (e *UnserializableRejection) Error() string {
	return fmt.Sprintf("%s failed with an unserializable %T value", e.AppOrParcelName, e.Value)
}

// AppOrParcelName returns the unit name attached to a diagnostic produced by
// the error pipeline, or "" when err carries none.
func AppOrParcelName(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.AppOrParcelName
	}
	var rejection *UnserializableRejection
	if errors.As(err, &rejection) {
		return rejection.AppOrParcelName
	}
	return ""
}

func diagnosticPrefix(u *Unit, status Status) string {
	return fmt.Sprintf("%s '%s' died in status %s: ", ObjectType(u), ToName(u), status)
}
