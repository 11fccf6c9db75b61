package mfe

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// LifecycleStep names one lifecycle operation of a unit.
type LifecycleStep string

const (
	StepLoad      LifecycleStep = "load"
	StepBootstrap LifecycleStep = "bootstrap"
	StepMount     LifecycleStep = "mount"
	StepUnmount   LifecycleStep = "unmount"
	StepUpdate    LifecycleStep = "update"
	StepUnload    LifecycleStep = "unload"
)

// LifecycleFunc is a lifecycle function supplied by a unit.
type LifecycleFunc func(ctx context.Context) error

// transition describes the statuses a step moves a unit through.
type transition struct {
	from       []Status
	during     Status
	success    Status
	failure    Status
	parcelOnly bool
	verb       string
}

var transitions = map[LifecycleStep]transition{
	StepLoad: {
		from:    []Status{StatusNotLoaded, StatusLoadError},
		during:  StatusLoadingSourceCode,
		success: StatusNotBootstrapped,
		failure: StatusLoadError,
		verb:    "loading",
	},
	StepBootstrap: {
		from:    []Status{StatusNotBootstrapped},
		during:  StatusBootstrapping,
		success: StatusNotMounted,
		failure: StatusSkipBecauseBroken,
		verb:    "bootstrapping",
	},
	StepMount: {
		from:    []Status{StatusNotMounted},
		during:  StatusMounting,
		success: StatusMounted,
		failure: StatusSkipBecauseBroken,
		verb:    "mounting",
	},
	StepUnmount: {
		from:    []Status{StatusMounted},
		during:  StatusUnmounting,
		success: StatusNotMounted,
		failure: StatusSkipBecauseBroken,
		verb:    "unmounting",
	},
	StepUpdate: {
		from:       []Status{StatusMounted},
		during:     StatusUpdating,
		success:    StatusMounted,
		failure:    StatusSkipBecauseBroken,
		parcelOnly: true,
		verb:       "updating",
	},
	StepUnload: {
		from:    []Status{StatusNotBootstrapped, StatusNotMounted},
		during:  StatusUnloading,
		success: StatusNotLoaded,
		failure: StatusSkipBecauseBroken,
		verb:    "unloading",
	},
}

// RunStep drives u through one lifecycle step. If u is not in a status the
// step starts from, RunStep does nothing and returns nil. Otherwise u moves
// to the step's in-progress status while fn runs, then to the step's success
// status. A failure of fn (an error, a panic, or running past the configured
// lifecycle timeout) goes through HandleAppError with LOAD_ERROR for loading
// and SKIP_BECAUSE_BROKEN for every other step, and the diagnostic is
// returned.
//
// A nil fn for unmounting a parcel falls back to the parcel's own unmount
// capability; any other nil fn completes the step immediately.
func (rt *Runtime) RunStep(ctx context.Context, u *Unit, step LifecycleStep, fn LifecycleFunc) error {
	t, ok := transitions[step]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStep, step)
	}
	if t.parcelOnly && u.kind != KindParcel {
		return newCodedError(rt.formatter, CodeStepNotAllowed, ErrStepNotAllowed, step, u.name)
	}
	if fn == nil && step == StepUnmount && u.kind == KindParcel {
		fn = LifecycleFunc(u.unmount)
	}

	u.mu.Lock()
	if !slices.Contains(t.from, u.status) {
		current := u.status
		u.mu.Unlock()
		rt.logger.Debug("Skipping lifecycle step", "unit", u.name, "step", step, "status", current)
		return nil
	}
	from := u.forceStatus(t.during)
	u.mu.Unlock()
	rt.emitStatusChange(u, from, t.during)

	if failure := rt.invoke(ctx, u, t, fn); failure != nil {
		return rt.HandleAppError(failure, u, t.failure)
	}

	prev := u.Transition(t.success)
	rt.emitStatusChange(u, prev, t.success)
	return nil
}

// invoke runs fn and returns its failure: an error, a recovered panic value,
// or a timeout error. A lifecycle function that ignores its context keeps
// running in the background after a timeout.
func (rt *Runtime) invoke(ctx context.Context, u *Unit, t transition, fn LifecycleFunc) any {
	if fn == nil {
		return nil
	}

	timeout := rt.config.LifecycleTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan any, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- r
			}
		}()
		if err := fn(ctx); err != nil {
			done <- err
			return
		}
		done <- nil
	}()

	select {
	case failure := <-done:
		return failure
	case <-ctx.Done():
		if timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s '%s' took longer than %s", ErrLifecycleTimeout, t.verb, u.name, timeout)
		}
		return ctx.Err()
	}
}
