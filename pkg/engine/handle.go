package engine

import (
	"context"

	"github.com/chenjianlong/filetask/pkg/pool"
	"github.com/chenjianlong/filetask/pkg/store"
	"github.com/chenjianlong/filetask/pkg/task"
)

// Handle is the caller's reference to a submitted task.
type Handle struct {
	t    *task.Task
	pool *pool.WorkerPool
}

func (h *Handle) ID() string { return h.t.ID }

func (h *Handle) Kind() task.Kind { return h.t.Kind }

func (h *Handle) Status() task.Status { return h.t.Status() }

// Cancel is best-effort: a queued task is cancelled at once, a running one
// stops before its next attempt.
func (h *Handle) Cancel() { h.pool.Cancel(h.t) }

// Poll returns the result if it is ready. It never blocks.
func (h *Handle) Poll() (task.Result, store.State) {
	return h.pool.Store().Get(h.t.ID)
}

// Wait blocks until the task's result is published or ctx ends.
func (h *Handle) Wait(ctx context.Context) (task.Result, error) {
	return h.pool.Store().Wait(ctx, h.t.ID)
}

func (h *Handle) Attempts() int { return h.t.Attempts() }

// Progress reports bytes sent by the current upload attempt and the total.
func (h *Handle) Progress() (done, total int64) { return h.t.Progress() }
