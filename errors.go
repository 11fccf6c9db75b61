package mfe

import (
	"errors"
)

// Runtime errors
var (
	// Unit construction errors
	ErrInvalidUnitName       = errors.New("application name must be a non-empty string")
	ErrMissingActiveWhen     = errors.New("application activeWhen must be a non-nil function")
	ErrMissingParcelUnmount  = errors.New("parcel unmount capability must be a non-nil function")
	ErrUnitAlreadyRegistered = errors.New("unit already registered")
	ErrUnitNil               = errors.New("unit is nil")
	ErrUnknownStatus         = errors.New("unknown status")

	// Lifecycle errors
	ErrStepNotAllowed   = errors.New("lifecycle step not allowed for unit kind")
	ErrUnknownStep      = errors.New("unknown lifecycle step")
	ErrLifecycleTimeout = errors.New("lifecycle function did not finish in time")

	// Observer errors
	ErrObserverNil = errors.New("observer is nil")

	// Error handler registry errors
	ErrInvalidErrorHandler = errors.New("error handler must be a non-nil pointer")

	// Error message parsing errors
	ErrNotFormattedMessage = errors.New("not a formatted error message")
	ErrInvalidErrorCode    = errors.New("invalid error code")

	// Configuration errors
	ErrConfigInvalidQueueSize = errors.New("unhandled queue size must be positive")
	ErrConfigInvalidTimeout   = errors.New("lifecycle timeout must not be negative")
	ErrConfigEmptyProduct     = errors.New("product name must not be empty")
	ErrConfigInvalidProduct   = errors.New("product name must not contain whitespace")
	ErrConfigInvalidDocsURL   = errors.New("docs base url is invalid")
)
