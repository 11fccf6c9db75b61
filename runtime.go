package mfe

import (
	"context"
	"net/url"
	"sync"
	"time"
)

var (
	_ Subject          = (*Runtime)(nil)
	_ AppErrorReporter = (*Runtime)(nil)
	_ AppErrorReporter = (*ErrorPipeline)(nil)
)

// Runtime is one orchestrator instance: it holds the registered units, the
// error pipeline their failures go through, and the observers of their
// lifecycle events.
type Runtime struct {
	config    *Config
	logger    Logger
	formatter *ErrorFormatter
	errors    *ErrorPipeline
	queue     *SerialQueue
	now       func() time.Time

	mu     sync.RWMutex
	units  []*Unit
	byName map[string]*Unit

	observers     map[string]*observerRegistration
	observerMutex sync.RWMutex
}

// NewRuntime creates a runtime. A nil cfg uses DefaultConfig and a nil logger
// discards output. Pipeline options are applied after the runtime's own, so
// callers can replace the task queue or failure sink.
func NewRuntime(cfg *Config, logger Logger, opts ...PipelineOption) *Runtime {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = nopLogger{}
	}

	rt := &Runtime{
		config:    cfg,
		logger:    logger,
		formatter: cfg.Formatter(),
		queue:     NewSerialQueue(cfg.UnhandledQueueSize, logger),
		now:       time.Now,
		byName:    make(map[string]*Unit),
		observers: make(map[string]*observerRegistration),
	}

	base := []PipelineOption{
		WithPipelineLogger(logger),
		WithErrorFormatter(rt.formatter),
		WithTaskQueue(rt.queue),
		WithFailureSink(FailureSinkFunc(rt.reportUnhandled)),
	}
	rt.errors = NewErrorPipeline(append(base, opts...)...)
	return rt
}

// Errors returns the runtime's error pipeline, where error handlers are
// registered.
func (rt *Runtime) Errors() *ErrorPipeline {
	return rt.errors
}

// Config returns the runtime settings.
func (rt *Runtime) Config() *Config {
	return rt.config
}

// Close stops the queue used for unhandled failures after draining it.
func (rt *Runtime) Close() {
	rt.queue.Close()
}

// Add registers a unit. Unit names are unique within a runtime.
func (rt *Runtime) Add(u *Unit) error {
	if u == nil {
		return ErrUnitNil
	}

	rt.mu.Lock()
	if _, exists := rt.byName[u.name]; exists {
		rt.mu.Unlock()
		return newCodedError(rt.formatter, CodeDuplicateUnit, ErrUnitAlreadyRegistered, u.name)
	}
	rt.units = append(rt.units, u)
	rt.byName[u.name] = u
	rt.mu.Unlock()

	rt.logger.Info("Unit registered", "unit", u.name, "kind", u.kind.String())
	rt.emitEvent(context.Background(), EventTypeUnitRegistered, UnitEventData{
		Name: u.name,
		Kind: u.kind.String(),
		To:   u.Status(),
	})
	return nil
}

// Remove unregisters the unit with the given name and reports whether it
// was registered.
func (rt *Runtime) Remove(name string) bool {
	rt.mu.Lock()
	u, exists := rt.byName[name]
	if !exists {
		rt.mu.Unlock()
		return false
	}
	delete(rt.byName, name)
	for i, registered := range rt.units {
		if registered == u {
			rt.units = append(rt.units[:i], rt.units[i+1:]...)
			break
		}
	}
	rt.mu.Unlock()

	rt.logger.Info("Unit removed", "unit", name)
	rt.emitEvent(context.Background(), EventTypeUnitRemoved, UnitEventData{Name: name, Kind: u.kind.String()})
	return true
}

// Unit returns the unit registered under name.
func (rt *Runtime) Unit(name string) (*Unit, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	u, ok := rt.byName[name]
	return u, ok
}

// Units returns the registered units in registration order.
func (rt *Runtime) Units() []*Unit {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	out := make([]*Unit, len(rt.units))
	copy(out, rt.units)
	return out
}

// HandleAppError sends a lifecycle failure through the error pipeline and
// emits the matching failure and status events.
func (rt *Runtime) HandleAppError(raw any, u *Unit, newStatus Status) error {
	diag := rt.errors.HandleAppError(raw, u, newStatus)

	data := FailureEventData{
		Name:      u.name,
		Kind:      u.kind.String(),
		NewStatus: newStatus,
		Error:     diag.Error(),
	}
	if appErr, ok := diag.(*AppError); ok {
		data.Status = appErr.Status
		rt.emitStatusChange(u, appErr.Status, newStatus)
	}
	rt.emitEvent(context.Background(), EventTypeUnitFailed, data)
	return diag
}

// ShouldBeActive reports whether u should be active for loc, routing a
// failing predicate through the runtime's error pipeline.
func (rt *Runtime) ShouldBeActive(u *Unit, loc *url.URL) bool {
	return ShouldBeActive(u, loc, rt)
}

// AppChanges groups the applications whose status should change for a
// navigation.
type AppChanges struct {
	ToLoad    []*Unit
	ToMount   []*Unit
	ToUnmount []*Unit
}

// Empty reports whether no change is needed.
func (c AppChanges) Empty() bool {
	return len(c.ToLoad) == 0 && len(c.ToMount) == 0 && len(c.ToUnmount) == 0
}

// Changes decides which applications must be loaded, mounted or unmounted
// for loc. Broken applications are never active; applications that failed
// to load are retried once LoadErrorRetryDelay has passed. Parcels are
// controlled by their parent and never appear.
func (rt *Runtime) Changes(loc *url.URL) AppChanges {
	var changes AppChanges
	now := rt.now()

	for _, u := range rt.Units() {
		if u.kind == KindParcel {
			continue
		}

		if u.Status() == StatusSkipBecauseBroken {
			continue
		}
		active := rt.ShouldBeActive(u, loc)

		// A failing predicate has just moved u to SKIP_BECAUSE_BROKEN.
		switch u.Status() {
		case StatusLoadError:
			if active && now.Sub(u.LoadErrorTime()) >= rt.config.LoadErrorRetryDelay {
				changes.ToLoad = append(changes.ToLoad, u)
			}
		case StatusNotLoaded, StatusLoadingSourceCode:
			if active {
				changes.ToLoad = append(changes.ToLoad, u)
			}
		case StatusNotBootstrapped, StatusNotMounted:
			if active {
				changes.ToMount = append(changes.ToMount, u)
			}
		case StatusMounted:
			if !active {
				changes.ToUnmount = append(changes.ToUnmount, u)
			}
		}
	}
	return changes
}

// UnitSnapshot is a point-in-time view of a unit.
type UnitSnapshot struct {
	Name          string     `json:"name"`
	Kind          string     `json:"kind"`
	Status        Status     `json:"status"`
	Active        bool       `json:"active"`
	LoadErrorTime *time.Time `json:"loadErrorTime,omitempty"`
}

// Snapshot describes every registered unit in registration order.
func (rt *Runtime) Snapshot() []UnitSnapshot {
	units := rt.Units()
	out := make([]UnitSnapshot, 0, len(units))
	for _, u := range units {
		out = append(out, SnapshotOf(u))
	}
	return out
}

// SnapshotOf describes a single unit.
func SnapshotOf(u *Unit) UnitSnapshot {
	u.mu.RLock()
	defer u.mu.RUnlock()
	s := UnitSnapshot{
		Name:   u.name,
		Kind:   u.kind.String(),
		Status: u.status,
		Active: u.status == StatusMounted,
	}
	if !u.loadErrorTime.IsZero() {
		t := u.loadErrorTime
		s.LoadErrorTime = &t
	}
	return s
}

// reportUnhandled is the failure sink of the runtime's pipeline.
func (rt *Runtime) reportUnhandled(err error) {
	rt.logger.Error("Unhandled unit failure", "unit", AppOrParcelName(err), "error", err)
	rt.emitEvent(context.Background(), EventTypeErrorUnhandled, FailureEventData{
		Name:  AppOrParcelName(err),
		Error: err.Error(),
	})
}
