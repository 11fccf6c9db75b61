// Package mfe is the lifecycle runtime of a micro-frontend orchestrator.
//
// It tracks the status of independently loaded units (applications and
// parcels), decides which of them should be active for a navigation location,
// and funnels every lifecycle failure through an error pipeline that tags the
// failure with the unit's identity, forces the unit into an error status and
// dispatches the result to registered error handlers.
//
// Basic usage:
//
//	rt := mfe.NewRuntime(mfe.DefaultConfig(), logger)
//	defer rt.Close()
//
//	app, err := mfe.NewApplication("navbar", func(loc *url.URL) (bool, error) {
//		return true, nil
//	})
//	if err != nil {
//		return err
//	}
//	_ = rt.Add(app)
//	_ = rt.Errors().AddErrorHandler(mfe.NewFunctionalErrorHandler(func(err error) {
//		logger.Error("unit failed", "unit", mfe.AppOrParcelName(err), "error", err)
//	}))
package mfe

import (
	"fmt"
)

// Status is the lifecycle status of an application or parcel.
// The string values are a public contract: drivers and observers switch on
// the literal values, so they must never be renamed.
type Status string

const (
	StatusNotLoaded         Status = "NOT_LOADED"
	StatusLoadingSourceCode Status = "LOADING_SOURCE_CODE"
	StatusNotBootstrapped   Status = "NOT_BOOTSTRAPPED"
	StatusBootstrapping     Status = "BOOTSTRAPPING"
	StatusNotMounted        Status = "NOT_MOUNTED"
	StatusMounting          Status = "MOUNTING"
	StatusMounted           Status = "MOUNTED"
	StatusUpdating          Status = "UPDATING"
	StatusUnmounting        Status = "UNMOUNTING"
	StatusUnloading         Status = "UNLOADING"

	// StatusLoadError marks a unit whose code could not be loaded. Loading is
	// retried on a later navigation.
	StatusLoadError Status = "LOAD_ERROR"

	// StatusSkipBecauseBroken marks a unit that failed outside of loading.
	// It is never considered active again.
	StatusSkipBecauseBroken Status = "SKIP_BECAUSE_BROKEN"
)

var allStatuses = []Status{
	StatusNotLoaded,
	StatusLoadingSourceCode,
	StatusNotBootstrapped,
	StatusBootstrapping,
	StatusNotMounted,
	StatusMounting,
	StatusMounted,
	StatusUpdating,
	StatusUnmounting,
	StatusUnloading,
	StatusLoadError,
	StatusSkipBecauseBroken,
}

// Statuses returns every status in declaration order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// String returns the string representation of the Status.
func (s Status) String() string {
	return string(s)
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsError reports whether s is one of the two error statuses.
func (s Status) IsError() bool {
	return s == StatusLoadError || s == StatusSkipBecauseBroken
}

// ParseStatus converts a literal status value into a Status.
func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, value)
	}
	return s, nil
}
