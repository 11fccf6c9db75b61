package mfe

import (
	"reflect"
)

// ErrorHandler observes every diagnostic produced by the error pipeline.
// Handlers are identified by reference: implementations must be pointers, and
// removing a handler requires the same pointer that was added.
type ErrorHandler interface {
	// HandleError is called synchronously with the diagnostic. A panic is not
	// recovered and stops dispatch to the handlers registered after this one.
	HandleError(err error)
}

// FunctionalErrorHandler adapts a function to the ErrorHandler interface.
type FunctionalErrorHandler struct {
	fn func(err error)
}

// NewFunctionalErrorHandler creates a handler that calls fn. The returned
// pointer is the handler's identity for RemoveErrorHandler.
func NewFunctionalErrorHandler(fn func(err error)) *FunctionalErrorHandler {
	return &FunctionalErrorHandler{fn: fn}
}

// HandleError implements the ErrorHandler interface by calling the function.
func (h *FunctionalErrorHandler) HandleError(err error) {
	h.fn(err)
}

// validHandler reports whether h is a non-nil pointer. Pointers compare by
// address, so looking h up in the registry can never panic.
func validHandler(h ErrorHandler) bool {
	if h == nil {
		return false
	}
	v := reflect.ValueOf(h)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return false
	}
	if f, ok := h.(*FunctionalErrorHandler); ok && f.fn == nil {
		return false
	}
	return true
}

// FailureSink receives diagnostics that no handler was registered for.
type FailureSink interface {
	ReportUnhandled(err error)
}

// FailureSinkFunc adapts a function to the FailureSink interface.
type FailureSinkFunc func(err error)

// ReportUnhandled implements FailureSink.
func (f FailureSinkFunc) ReportUnhandled(err error) {
	f(err)
}

// LoggingFailureSink reports unhandled diagnostics at error level.
type LoggingFailureSink struct {
	Logger Logger
}

// ReportUnhandled implements FailureSink.
func (s LoggingFailureSink) ReportUnhandled(err error) {
	s.Logger.Error("Unhandled unit failure", "unit", AppOrParcelName(err), "error", err)
}
