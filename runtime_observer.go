package mfe

import (
	"context"
	"reflect"
	"slices"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// observerRegistration is one observer and the event types it subscribed to.
// An empty filter matches every event.
type observerRegistration struct {
	observer     Observer
	filter       map[string]struct{}
	registeredAt time.Time
}

func (r *observerRegistration) wants(eventType string) bool {
	if len(r.filter) == 0 {
		return true
	}
	_, ok := r.filter[eventType]
	return ok
}

func nilObserver(o Observer) bool {
	if o == nil {
		return true
	}
	v := reflect.ValueOf(o)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// RegisterObserver subscribes observer to unit events of the given types, or
// to all of them when none are given. Registering an ID again replaces the
// earlier subscription.
func (rt *Runtime) RegisterObserver(observer Observer, eventTypes ...string) error {
	if nilObserver(observer) {
		return ErrObserverNil
	}

	filter := make(map[string]struct{}, len(eventTypes))
	for _, eventType := range eventTypes {
		filter[eventType] = struct{}{}
	}
	id := observer.ObserverID()

	rt.observerMutex.Lock()
	rt.observers[id] = &observerRegistration{
		observer:     observer,
		filter:       filter,
		registeredAt: rt.now(),
	}
	rt.observerMutex.Unlock()

	rt.logger.Debug("Observer registered", "observer", id, "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver drops the subscription with observer's ID. Unknown
// observers are ignored.
func (rt *Runtime) UnregisterObserver(observer Observer) error {
	if nilObserver(observer) {
		return ErrObserverNil
	}
	id := observer.ObserverID()

	rt.observerMutex.Lock()
	_, existed := rt.observers[id]
	delete(rt.observers, id)
	rt.observerMutex.Unlock()

	if existed {
		rt.logger.Debug("Observer unregistered", "observer", id)
	}
	return nil
}

// NotifyObservers validates event and hands it to every subscribed observer
// on a goroutine of its own. Observer failures are logged and never reach
// the runtime.
func (rt *Runtime) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(rt.now())
	}
	if err := ValidateCloudEvent(event); err != nil {
		rt.logger.Error("Invalid runtime event", "eventType", event.Type(), "error", err)
		return err
	}

	rt.observerMutex.RLock()
	targets := make([]Observer, 0, len(rt.observers))
	for _, registration := range rt.observers {
		if registration.wants(event.Type()) {
			targets = append(targets, registration.observer)
		}
	}
	rt.observerMutex.RUnlock()

	for _, observer := range targets {
		go rt.deliver(ctx, observer, event)
	}
	return nil
}

func (rt *Runtime) deliver(ctx context.Context, observer Observer, event cloudevents.Event) {
	defer func() {
		if r := recover(); r != nil {
			rt.logger.Error("Observer panicked", "observer", observer.ObserverID(), "eventType", event.Type(), "panic", r)
		}
	}()
	if err := observer.OnEvent(ctx, event); err != nil {
		rt.logger.Warn("Observer failed", "observer", observer.ObserverID(), "eventType", event.Type(), "error", err)
	}
}

// GetObservers lists the current subscriptions, oldest first.
func (rt *Runtime) GetObservers() []ObserverInfo {
	rt.observerMutex.RLock()
	infos := make([]ObserverInfo, 0, len(rt.observers))
	for id, registration := range rt.observers {
		eventTypes := make([]string, 0, len(registration.filter))
		for eventType := range registration.filter {
			eventTypes = append(eventTypes, eventType)
		}
		slices.Sort(eventTypes)
		infos = append(infos, ObserverInfo{
			ID:           id,
			EventTypes:   eventTypes,
			RegisteredAt: registration.registeredAt,
		})
	}
	rt.observerMutex.RUnlock()

	slices.SortFunc(infos, func(a, b ObserverInfo) int {
		if c := a.RegisteredAt.Compare(b.RegisteredAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return infos
}

// emitEvent builds a runtime event and notifies observers. Nothing is built
// when no observer is registered.
func (rt *Runtime) emitEvent(ctx context.Context, eventType string, data any) {
	rt.observerMutex.RLock()
	none := len(rt.observers) == 0
	rt.observerMutex.RUnlock()
	if none {
		return
	}

	event := NewCloudEvent(eventType, EventSource, data, nil)
	if err := rt.NotifyObservers(ctx, event); err != nil {
		rt.logger.Error("Failed to notify observers", "event", eventType, "error", err)
	}
}

func (rt *Runtime) emitStatusChange(u *Unit, from, to Status) {
	rt.logger.Debug("Unit status changed", "unit", u.name, "from", from, "to", to)
	rt.emitEvent(context.Background(), EventTypeUnitStatusChanged, UnitEventData{
		Name: u.name,
		Kind: u.kind.String(),
		From: from,
		To:   to,
	})
}
