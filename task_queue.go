package mfe

import (
	"sync"
)

// TaskQueue defers work to a later turn, outside the caller's control flow.
// The error pipeline uses it to report diagnostics nobody handled.
type TaskQueue interface {
	Defer(task func())
}

// GoroutineQueue runs every deferred task on its own goroutine.
type GoroutineQueue struct{}

// Defer implements TaskQueue.
func (GoroutineQueue) Defer(task func()) {
	go task()
}

// SerialQueue runs deferred tasks one at a time, in the order they were
// deferred, on a single worker goroutine. Defer never blocks and never drops
// a task: when the buffer is full the task runs on its own goroutine, out of
// order, and once the queue is closed it runs on the caller's goroutine.
type SerialQueue struct {
	tasks  chan func()
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
	logger Logger
}

// NewSerialQueue starts a queue that buffers up to size pending tasks.
func NewSerialQueue(size int, logger Logger) *SerialQueue {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = nopLogger{}
	}
	q := &SerialQueue{
		tasks:  make(chan func(), size),
		done:   make(chan struct{}),
		logger: logger,
	}
	go q.run()
	return q
}

func (q *SerialQueue) run() {
	defer close(q.done)
	for task := range q.tasks {
		q.runTask(task)
	}
}

func (q *SerialQueue) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Deferred task panicked", "panic", r)
		}
	}()
	task()
}

// Defer implements TaskQueue.
func (q *SerialQueue) Defer(task func()) {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		q.logger.Debug("Queue closed, running task inline")
		q.runTask(task)
		return
	}
	select {
	case q.tasks <- task:
		q.mu.RUnlock()
	default:
		q.mu.RUnlock()
		q.logger.Warn("Queue full, running task out of order", "size", cap(q.tasks))
		go q.runTask(task)
	}
}

// Close waits for the buffered tasks to finish. Tasks deferred afterwards
// run inline.
func (q *SerialQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()
	<-q.done
}
