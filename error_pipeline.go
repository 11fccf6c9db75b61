package mfe

import (
	"encoding/json"
	"sync"
)

// ErrorPipeline turns raw lifecycle failures into diagnostics, forces the
// failing unit into an error status, and dispatches the diagnostic to the
// registered error handlers. It replaces a process-wide handler list: each
// orchestrator owns its own pipeline.
type ErrorPipeline struct {
	mu       sync.RWMutex
	handlers []ErrorHandler

	logger    Logger
	queue     TaskQueue
	sink      FailureSink
	formatter *ErrorFormatter
}

// PipelineOption configures an ErrorPipeline.
type PipelineOption func(*ErrorPipeline)

// WithPipelineLogger sets the logger used for warnings about non-error failures.
func WithPipelineLogger(logger Logger) PipelineOption {
	return func(p *ErrorPipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTaskQueue sets where unhandled diagnostics are deferred to.
func WithTaskQueue(queue TaskQueue) PipelineOption {
	return func(p *ErrorPipeline) {
		if queue != nil {
			p.queue = queue
		}
	}
}

// WithFailureSink sets where unhandled diagnostics are reported.
func WithFailureSink(sink FailureSink) PipelineOption {
	return func(p *ErrorPipeline) {
		if sink != nil {
			p.sink = sink
		}
	}
}

// WithErrorFormatter sets the formatter for coded errors and warnings.
func WithErrorFormatter(f *ErrorFormatter) PipelineOption {
	return func(p *ErrorPipeline) {
		if f != nil {
			p.formatter = f
		}
	}
}

// NewErrorPipeline creates a pipeline with no handlers. Unless configured
// otherwise, unhandled diagnostics are logged from a separate goroutine.
func NewErrorPipeline(opts ...PipelineOption) *ErrorPipeline {
	p := &ErrorPipeline{
		logger:    nopLogger{},
		queue:     GoroutineQueue{},
		formatter: DefaultErrorFormatter(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.sink == nil {
		p.sink = LoggingFailureSink{Logger: p.logger}
	}
	return p
}

// AddErrorHandler appends h to the registry.
func (p *ErrorPipeline) AddErrorHandler(h ErrorHandler) error {
	if !validHandler(h) {
		return newCodedError(p.formatter, CodeInvalidAddErrorHandler, ErrInvalidErrorHandler)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, h)
	return nil
}

// RemoveErrorHandler removes every registration of h and reports whether
// anything was removed. Removing a handler that is not registered is a no-op.
func (p *ErrorPipeline) RemoveErrorHandler(h ErrorHandler) (bool, error) {
	if !validHandler(h) {
		return false, newCodedError(p.formatter, CodeInvalidRemoveHandler, ErrInvalidErrorHandler)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.handlers[:0]
	for _, registered := range p.handlers {
		if registered != h {
			kept = append(kept, registered)
		}
	}
	removed := len(kept) != len(p.handlers)
	for i := len(kept); i < len(p.handlers); i++ {
		p.handlers[i] = nil
	}
	p.handlers = kept
	return removed, nil
}

// HandlerCount returns the number of registered handlers.
func (p *ErrorPipeline) HandlerCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.handlers)
}

// HandleAppError is the entry point for lifecycle drivers. It transforms raw
// into a diagnostic, forces u into newStatus, and calls every handler in
// registration order. Dispatch iterates the registry as it stood when the
// call began: handlers added or removed by a handler take effect for the next
// failure. When no handler is registered the diagnostic is handed to the
// failure sink on a later turn of the task queue.
//
// The returned diagnostic is informational; it has already been dispatched.
func (p *ErrorPipeline) HandleAppError(raw any, u *Unit, newStatus Status) error {
	diag := p.TransformErr(raw, u, newStatus)

	p.mu.RLock()
	handlers := make([]ErrorHandler, len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.RUnlock()

	if len(handlers) == 0 {
		sink := p.sink
		p.queue.Defer(func() {
			sink.ReportUnhandled(diag)
		})
		return diag
	}

	for _, h := range handlers {
		h.HandleError(diag)
	}
	return diag
}

// TransformErr builds the diagnostic for raw and then assigns newStatus to
// u. The diagnostic always names the status u was in when it failed, never
// newStatus.
//
// Errors are wrapped with the identity prefix. An error that already is a
// diagnostic keeps its message. Other values are serialized into the message
// with a warning; if serialization fails the result is an
// *UnserializableRejection carrying the original value.
func (p *ErrorPipeline) TransformErr(raw any, u *Unit, newStatus Status) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	diag := p.diagnose(raw, u, u.status)
	u.forceStatus(newStatus)
	return diag
}

// diagnose must be called with u.mu held. It does not touch u's status.
func (p *ErrorPipeline) diagnose(raw any, u *Unit, status Status) error {
	prefix := diagnosticPrefix(u, status)

	if err, ok := raw.(error); ok {
		message := prefix + err.Error()
		if _, sealed := err.(*AppError); sealed {
			message = err.Error()
		}
		return &AppError{
			AppOrParcelName: u.name,
			Kind:            u.kind,
			Status:          status,
			message:         message,
			cause:           err,
		}
	}

	warning, _ := CatalogMessage(CodeNonErrorRejection, status, u.name)
	p.logger.Warn(p.formatter.Format(CodeNonErrorRejection, warning, status, u.name), "unit", u.name, "value", raw)

	serialized, err := json.Marshal(raw)
	if err != nil {
		p.logger.Debug("Failed to serialize non-error failure", "unit", u.name, "error", err)
		return &UnserializableRejection{AppOrParcelName: u.name, Value: raw}
	}

	return &AppError{
		AppOrParcelName: u.name,
		Kind:            u.kind,
		Status:          status,
		Value:           raw,
		message:         prefix + string(serialized),
	}
}
