package shortcut

import (
	"sync"

	"github.com/roach88/notedown/internal/delta"
	"github.com/roach88/notedown/internal/document"
)

// Trigger distinguishes the keystrokes that can fire a shortcut.
type Trigger int

const (
	// TriggerSpace fires when the user types a single space.
	TriggerSpace Trigger = iota + 1
	// TriggerEnter fires when the user types a single newline.
	TriggerEnter
)

func (t Trigger) String() string {
	switch t {
	case TriggerSpace:
		return "space"
	case TriggerEnter:
		return "enter"
	default:
		return "unknown"
	}
}

// task is a matched rule waiting to rewrite the document.
type task struct {
	rule    Rule
	trigger Trigger
	// anchor is the start of the matched line. Every document change
	// moves it so it keeps pointing at the same line.
	anchor int
	// sel is the selection at dispatch time, moved like anchor. On enter it
	// spans the typed newline.
	sel document.Selection
}

// taskQueue is a thread-safe FIFO queue of deferred rewrites.
//
// Dispatch happens inside the host's change notification; tasks run later
// from Drain or Run, in the order they were enqueued.
type taskQueue struct {
	mu     sync.Mutex
	tasks  []*task
	closed bool
	signal chan struct{} // buffered, size 1
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		tasks:  make([]*task, 0, 8),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a task to the back of the queue.
// Returns false if the queue is closed.
func (q *taskQueue) Enqueue(t *task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.tasks = append(q.tasks, t)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front task without blocking.
func (q *taskQueue) TryDequeue() (*task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}
	t := q.tasks[0]
	q.tasks[0] = nil
	if len(q.tasks) == 1 {
		q.tasks = q.tasks[:0]
	} else {
		q.tasks = q.tasks[1:]
	}
	return t, true
}

// Wait returns a channel that signals when tasks may be available. It is
// closed once the queue is closed.
func (q *taskQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending tasks.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Closed reports whether Close has been called.
func (q *taskQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// transform moves every pending anchor through a document change.
func (q *taskQueue) transform(change delta.Delta) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.tasks {
		t.anchor = delta.TransformPosition(t.anchor, change)
		t.sel.Index = delta.TransformPosition(t.sel.Index, change)
	}
}

// Close stops the queue, discards pending tasks and returns how many were
// discarded. Waiters are woken by closing the signal channel.
func (q *taskQueue) Close() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0
	}
	dropped := len(q.tasks)
	q.tasks = nil
	q.closed = true
	close(q.signal)
	return dropped
}
