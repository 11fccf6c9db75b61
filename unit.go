package mfe

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// UnitKind distinguishes applications from parcels. It is fixed when the
// unit is constructed.
type UnitKind uint8

const (
	// KindApplication is a routable unit with its own activeWhen predicate.
	KindApplication UnitKind = iota
	// KindParcel is an embeddable unit activated by an external controller.
	KindParcel
)

// String returns the object type name used in diagnostics.
func (k UnitKind) String() string {
	if k == KindParcel {
		return "parcel"
	}
	return "application"
}

// ActivityFunc decides whether an application should be active for a
// navigation location. It may fail, either by returning an error or by
// panicking; both are contained by ShouldBeActive.
type ActivityFunc func(loc *url.URL) (bool, error)

// UnmountFunc unmounts a parcel from its parent.
type UnmountFunc func(ctx context.Context) error

var parcelCounter atomic.Uint64

// Unit is the runtime record of an application or a parcel.
// Its status is mutated in place; every read and write goes through the
// unit's lock.
type Unit struct {
	kind       UnitKind
	name       string
	activeWhen ActivityFunc
	unmount    UnmountFunc

	mu            sync.RWMutex
	status        Status
	loadErrorTime time.Time
}

// NewApplication creates an application record in the NOT_LOADED status.
func NewApplication(name string, activeWhen ActivityFunc) (*Unit, error) {
	if name == "" {
		return nil, newCodedError(nil, CodeInvalidApplicationName, ErrInvalidUnitName)
	}
	if activeWhen == nil {
		return nil, newCodedError(nil, CodeMissingActiveWhen, ErrMissingActiveWhen, name)
	}
	return &Unit{
		kind:       KindApplication,
		name:       name,
		activeWhen: activeWhen,
		status:     StatusNotLoaded,
	}, nil
}

// NewParcel creates a parcel record in the NOT_BOOTSTRAPPED status, since a
// parcel's code is handed over already loaded. An empty name is replaced by
// a generated "parcel-<n>" identity.
func NewParcel(name string, unmount UnmountFunc) (*Unit, error) {
	if name == "" {
		name = "parcel-" + strconv.FormatUint(parcelCounter.Add(1)-1, 10)
	}
	if unmount == nil {
		return nil, newCodedError(nil, CodeMissingParcelUnmount, ErrMissingParcelUnmount, name)
	}
	return &Unit{
		kind:    KindParcel,
		name:    name,
		unmount: unmount,
		status:  StatusNotBootstrapped,
	}, nil
}

// Name returns the unit's display name.
func (u *Unit) Name() string {
	return u.name
}

// Kind returns whether the unit is an application or a parcel.
func (u *Unit) Kind() UnitKind {
	return u.kind
}

// Status returns the current lifecycle status.
func (u *Unit) Status() Status {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.status
}

// LoadErrorTime returns when the unit last entered LOAD_ERROR, or the zero
// time if it never did.
func (u *Unit) LoadErrorTime() time.Time {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.loadErrorTime
}

// Unmount invokes the parcel's unmount capability. It returns
// ErrStepNotAllowed for applications.
func (u *Unit) Unmount(ctx context.Context) error {
	if u.kind != KindParcel {
		return newCodedError(nil, CodeStepNotAllowed, ErrStepNotAllowed, "unmountThisParcel", u.name)
	}
	return u.unmount(ctx)
}

// Transition assigns a new status and returns the previous one.
// Lifecycle drivers use it for every regular step; error statuses are
// normally assigned by the error pipeline instead.
func (u *Unit) Transition(to Status) Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.forceStatus(to)
}

// forceStatus must be called with u.mu held.
func (u *Unit) forceStatus(to Status) Status {
	from := u.status
	u.status = to
	if to == StatusLoadError {
		u.loadErrorTime = time.Now()
	}
	return from
}

// IsActive reports whether the unit is mounted.
func IsActive(u *Unit) bool {
	return u.Status() == StatusMounted
}

// IsParcel reports whether the unit is a parcel.
func IsParcel(u *Unit) bool {
	return u.kind == KindParcel
}

// ObjectType returns "parcel" or "application".
func ObjectType(u *Unit) string {
	return u.kind.String()
}

// ToName returns the unit's display name.
func ToName(u *Unit) string {
	return u.name
}

// AppErrorReporter receives lifecycle failures. Both ErrorPipeline and
// Runtime implement it.
type AppErrorReporter interface {
	HandleAppError(raw any, u *Unit, newStatus Status) error
}

// ShouldBeActive evaluates the application's activeWhen predicate for loc.
// A predicate that returns an error or panics is reported with
// SKIP_BECAUSE_BROKEN and the unit is treated as inactive; the failure never
// reaches the caller. Parcels have no predicate and are never route-active.
func ShouldBeActive(u *Unit, loc *url.URL, reporter AppErrorReporter) bool {
	if u.kind == KindParcel {
		return false
	}

	active, failure := evalActivity(u.activeWhen, loc)
	if failure != nil {
		_ = reporter.HandleAppError(failure, u, StatusSkipBecauseBroken)
		return false
	}
	return active
}

// evalActivity runs fn, turning a returned error or a panic into failure.
func evalActivity(fn ActivityFunc, loc *url.URL) (active bool, failure any) {
	defer func() {
		if r := recover(); r != nil {
			active, failure = false, r
		}
	}()

	active, err := fn(loc)
	if err != nil {
		return false, err
	}
	return active, nil
}
