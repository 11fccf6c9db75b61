package mfe

// Logger defines the interface for runtime logging.
// The runtime uses structured logging with key-value pairs, so unit
// transitions, handler registration and failures all show up in the host's
// own log output.
//
// The Logger interface uses variadic arguments in key-value pairs:
//
//	logger.Info("message", "key1", "value1", "key2", "value2")
//
// The logging package provides a zerolog backed implementation.
type Logger interface {
	// Info logs an informational message, like a unit being registered.
	Info(msg string, args ...any)

	// Error logs an error message, like an unhandled unit failure.
	Error(msg string, args ...any)

	// Warn logs a warning message, like a unit failing with a non-error value.
	Warn(msg string, args ...any)

	// Debug logs detailed diagnostic information such as status transitions.
	Debug(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
