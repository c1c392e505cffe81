package engine

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/chenjianlong/filetask/pkg/conf"
	"github.com/chenjianlong/filetask/pkg/fsutil"
	"github.com/chenjianlong/filetask/pkg/pool"
	"github.com/chenjianlong/filetask/pkg/retry"
	"github.com/chenjianlong/filetask/pkg/store"
	"github.com/chenjianlong/filetask/pkg/task"
	"github.com/chenjianlong/filetask/pkg/transfer"
	"github.com/chenjianlong/filetask/pkg/watch"
)

type SettleFunc func(ctx context.Context, path string, quiet time.Duration) error

type Options struct {
	Config conf.Config
	// Fs is the local filesystem listed and uploaded from. Defaults to the OS.
	Fs       afero.Fs
	Uploader transfer.Uploader
	// Backend names the upload destination in log lines.
	Backend string
	Metrics *pool.Metrics
	Logger  *slog.Logger
	// Settle waits for a source to stop changing. Defaults to watch.Settle,
	// and only runs when Config.SettleDelay is positive.
	Settle SettleFunc
}

// Engine is the operation facade: it turns list and upload requests into
// tasks, runs them on a worker pool and hands back pollable handles.
type Engine struct {
	fs       afero.Fs
	uploader transfer.Uploader
	backend  string
	policy   retry.Policy
	settle   SettleFunc
	quiet    time.Duration
	pool     *pool.WorkerPool
	logger   *slog.Logger
}

func New(opts Options) *Engine {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Settle == nil {
		opts.Settle = watch.Settle
	}
	if opts.Uploader == nil {
		local := transfer.NewLocalTransfer(opts.Fs, opts.Config.Transfer.Local.Dir)
		opts.Uploader = local
		if opts.Backend == "" {
			opts.Backend = local.Name()
		}
	}

	e := &Engine{
		fs:       opts.Fs,
		uploader: opts.Uploader,
		backend:  opts.Backend,
		policy:   opts.Config.Retry,
		settle:   opts.Settle,
		quiet:    opts.Config.SettleDelay,
		logger:   opts.Logger,
	}
	e.pool = pool.New(pool.Options{
		MaxConcurrency: opts.Config.MaxConcurrency,
		QueueLimit:     opts.Config.QueueLimit,
		Timeout:        opts.Config.TaskTimeout,
		Store:          store.New(),
		Metrics:        opts.Metrics,
		Logger:         opts.Logger,
	}, e.run)
	return e
}

// ListFiles submits a task listing the directory at path.
func (e *Engine) ListFiles(path string) (*Handle, error) {
	t, err := task.New(task.KindList, path)
	if err != nil {
		return nil, err
	}
	return e.submit(t)
}

// UploadFile checks that path can be read and submits a task uploading it.
func (e *Engine) UploadFile(path string) (*Handle, error) {
	if path == "" {
		return nil, task.Errorf(task.InvalidArgument, "empty path")
	}
	if _, err := fsutil.Readable(e.fs, absPath(path)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, task.Errorf(task.NotFound, "not found")
		}
		return nil, task.Wrap(task.InvalidArgument, "not readable", err)
	}
	t, err := task.New(task.KindUpload, path)
	if err != nil {
		return nil, err
	}
	return e.submit(t)
}

func (e *Engine) submit(t *task.Task) (*Handle, error) {
	if err := e.pool.Submit(t); err != nil {
		return nil, err
	}
	return &Handle{t: t, pool: e.pool}, nil
}

// Result looks up a task's outcome by id.
func (e *Engine) Result(id string) (task.Result, store.State) {
	return e.pool.Store().Get(id)
}

// Evict drops a consumed result.
func (e *Engine) Evict(id string) bool {
	return e.pool.Store().Evict(id)
}

// Active returns the number of tasks running right now.
func (e *Engine) Active() int {
	return e.pool.Active()
}

// Close lets queued tasks finish and stops the workers.
func (e *Engine) Close() {
	e.pool.StopWait()
}

// Shutdown cancels queued and running tasks and stops the workers.
func (e *Engine) Shutdown() {
	e.pool.Stop()
}

func (e *Engine) run(ctx context.Context, t *task.Task) task.Result {
	if t.CancelRequested() {
		return task.Failure(t.ID, task.Errorf(task.Cancelled, "cancelled"))
	}
	switch t.Kind {
	case task.KindList:
		return e.list(ctx, t)
	case task.KindUpload:
		return e.upload(ctx, t)
	}
	return task.Failure(t.ID, task.Errorf(task.Internal, "unknown task kind %q", t.Kind))
}

// withCancelRequest returns a child of ctx that also ends when t.Cancel is
// called.
func withCancelRequest(ctx context.Context, t *task.Task) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-t.Cancelled():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// contextFailure maps an ended task context to its result.
func contextFailure(t *task.Task, err error) task.Result {
	if errors.Is(err, context.DeadlineExceeded) {
		return task.Failure(t.ID, task.Wrap(task.Timeout, "timed out", err))
	}
	return task.Failure(t.ID, task.Errorf(task.Cancelled, "cancelled"))
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
