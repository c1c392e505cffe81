package task

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

type Kind string

const (
	KindList   Kind = "list"
	KindUpload Kind = "upload"
)

type Status int32

const (
	StatusPending Status = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// Task is one unit of schedulable work. The pool owns it while it is running;
// everything else only reads it or requests cancellation.
type Task struct {
	ID   string
	Kind Kind
	Path string

	status   atomic.Int32
	cancelOn atomic.Bool
	attempts atomic.Int32
	sent     atomic.Int64
	total    atomic.Int64

	cancelOnce sync.Once
	cancelCh   chan struct{}
	doneOnce   sync.Once
	doneCh     chan struct{}
}

func New(kind Kind, path string) (*Task, error) {
	if path == "" {
		return nil, Errorf(InvalidArgument, "empty path")
	}
	return &Task{
		ID:       uuid.NewString(),
		Kind:     kind,
		Path:     path,
		cancelCh: make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

func (t *Task) Status() Status {
	return Status(t.status.Load())
}

// Start moves a pending task to running. It returns false when the task was
// cancelled (or otherwise left Pending) before pickup.
func (t *Task) Start() bool {
	return t.status.CompareAndSwap(int32(StatusPending), int32(StatusRunning))
}

// Finish moves a running task to the terminal status matching res. It returns
// false if the task was not running.
func (t *Task) Finish(res Result) bool {
	if !t.status.CompareAndSwap(int32(StatusRunning), int32(res.Status())) {
		return false
	}
	t.doneOnce.Do(func() { close(t.doneCh) })
	return true
}

// Cancel requests cancellation. A pending task becomes Cancelled immediately
// and reports true so the caller can publish its result; a running task sees
// the request at its next checkpoint.
func (t *Task) Cancel() bool {
	t.cancelOn.Store(true)
	t.cancelOnce.Do(func() { close(t.cancelCh) })
	if t.status.CompareAndSwap(int32(StatusPending), int32(StatusCancelled)) {
		t.doneOnce.Do(func() { close(t.doneCh) })
		return true
	}
	return false
}

func (t *Task) CancelRequested() bool {
	return t.cancelOn.Load()
}

// Cancelled is closed once Cancel has been called.
func (t *Task) Cancelled() <-chan struct{} {
	return t.cancelCh
}

// Done is closed once the task reaches a terminal status.
func (t *Task) Done() <-chan struct{} {
	return t.doneCh
}

// BeginAttempt records the start of an execution attempt and returns its
// 1-based number.
func (t *Task) BeginAttempt() int {
	return int(t.attempts.Add(1))
}

func (t *Task) Attempts() int {
	return int(t.attempts.Load())
}

func (t *Task) SetTotal(n int64) {
	t.total.Store(n)
	t.sent.Store(0)
}

func (t *Task) AddProgress(n int64) {
	t.sent.Add(n)
}

// Progress returns bytes transferred by the current attempt and the total.
func (t *Task) Progress() (done, total int64) {
	return t.sent.Load(), t.total.Load()
}
