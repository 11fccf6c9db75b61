package mfe

import (
	"context"
	"net/url"
	"sync"
	"testing"
)

type logEntry struct {
	Level   string
	Message string
	Args    []any
}

// recordingLogger keeps every log entry for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{Level: level, Message: msg, Args: args})
}

func (l *recordingLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.add("error", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }

func (l *recordingLogger) byLevel(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// manualQueue holds deferred tasks until the test runs them.
type manualQueue struct {
	mu    sync.Mutex
	tasks []func()
}

func (q *manualQueue) Defer(task func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
}

func (q *manualQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *manualQueue) runAll() {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()
	for _, task := range tasks {
		task()
	}
}

// recordingHandler counts the diagnostics it receives.
type recordingHandler struct {
	mu   sync.Mutex
	errs []error
}

func (h *recordingHandler) HandleError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func (h *recordingHandler) received() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]error, len(h.errs))
	copy(out, h.errs)
	return out
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func alwaysActive(*url.URL) (bool, error) { return true, nil }

func pathActive(path string) ActivityFunc {
	return func(loc *url.URL) (bool, error) {
		return loc.Path == path, nil
	}
}

func newTestApp(t *testing.T, name string, activeWhen ActivityFunc) *Unit {
	t.Helper()
	u, err := NewApplication(name, activeWhen)
	if err != nil {
		t.Fatalf("NewApplication(%q): %v", name, err)
	}
	return u
}

func newTestParcel(t *testing.T, name string) *Unit {
	t.Helper()
	u, err := NewParcel(name, func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("NewParcel(%q): %v", name, err)
	}
	return u
}
