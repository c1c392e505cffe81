package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/chenjianlong/filetask/pkg/fsutil"
	"github.com/chenjianlong/filetask/pkg/i18n"
	"github.com/chenjianlong/filetask/pkg/retry"
	"github.com/chenjianlong/filetask/pkg/task"
	"github.com/chenjianlong/filetask/pkg/transfer"
	"github.com/chenjianlong/filetask/pkg/ziputils"
)

func (e *Engine) upload(ctx context.Context, t *task.Task) task.Result {
	source := absPath(t.Path)

	// Settling and archiving happen before any attempt, so Cancel stops them
	// right away.
	prepCtx, stop := withCancelRequest(ctx, t)
	defer stop()

	if e.quiet > 0 {
		if err := e.settle(prepCtx, source, e.quiet); err != nil {
			if t.CancelRequested() {
				return task.Failure(t.ID, task.Errorf(task.Cancelled, "cancelled"))
			}
			if ctx.Err() != nil {
				return contextFailure(t, ctx.Err())
			}
			if errors.Is(err, fs.ErrNotExist) {
				return task.Failure(t.ID, task.Errorf(task.NotFound, "not found"))
			}
			e.logger.Warn("settle watch failed, uploading anyway", "task", t.ID, "path", source, "error", err)
		}
	}

	// A source that vanished is reported as NotFound by the first attempt.
	isDir, err := fsutil.IsDir(e.fs, source)
	if err != nil {
		return task.Failure(t.ID, task.Wrap(task.Internal, "cannot stat source", err))
	}

	remote := filepath.Base(source)
	if isDir {
		e.logger.Info(i18n.Message("ArchiveDir", map[string]interface{}{"Path": source}), "task", t.ID)
		archive, err := e.archive(prepCtx, source)
		if err != nil {
			if t.CancelRequested() {
				return task.Failure(t.ID, task.Errorf(task.Cancelled, "cancelled"))
			}
			if ctx.Err() != nil {
				return contextFailure(t, ctx.Err())
			}
			return task.Failure(t.ID, task.Wrap(task.Internal, "cannot archive directory", err))
		}
		defer func() {
			if err := e.fs.Remove(archive); err != nil {
				e.logger.Warn("failed to remove archive", "path", archive, "error", err)
			}
		}()
		source = archive
		remote += ".zip"
	}

	e.logger.Info(i18n.Message("UploadFile", map[string]interface{}{"Path": t.Path, "Backend": e.backend}), "task", t.ID)
	backoff := retry.BackoffExponential(e.policy.Backoff)
	attempts, err := retry.Do(ctx, e.policy, t.Cancelled(), t.CancelRequested, func(attempt int) error {
		t.BeginAttempt()
		err := e.uploadOnce(ctx, t, source, remote)
		if err == nil {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return &retry.Permanent{Err: task.Errorf(task.NotFound, "not found")}
		}
		if ctx.Err() != nil || !transfer.IsTransient(err) {
			return &retry.Permanent{Err: err}
		}
		if attempt < e.policy.Attempts {
			e.logger.Warn(i18n.Message("UploadRetry", map[string]interface{}{
				"Path":    t.Path,
				"Attempt": attempt,
				"Delay":   backoff(attempt),
			}), "task", t.ID, "error", err)
		}
		return err
	})

	var taskErr *task.Error
	switch {
	case err == nil:
		e.logger.Info(i18n.Message("UploadDone", map[string]interface{}{"Path": t.Path, "Remote": remote}), "task", t.ID, "attempts", attempts)
		return task.Ack(t.ID, "uploaded as "+remote)
	case errors.Is(err, retry.ErrCancelled):
		return task.Failure(t.ID, task.Errorf(task.Cancelled, "cancelled"))
	case ctx.Err() != nil:
		return contextFailure(t, ctx.Err())
	case errors.As(err, &taskErr):
		return task.Failure(t.ID, taskErr)
	}
	return task.Failure(t.ID, task.Wrap(task.TransferFailed, fmt.Sprintf("transfer failed after %d attempt(s)", attempts), err))
}

func (e *Engine) uploadOnce(ctx context.Context, t *task.Task, source, remote string) error {
	f, err := e.fs.Open(source)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	t.SetTotal(info.Size())
	return e.uploader.Upload(ctx, &progressReader{ctx: ctx, r: f, t: t}, info.Size(), remote)
}

// archive zips dir into a temporary file on the engine's filesystem and
// returns its path. The archive itself is skipped when dir contains the temp
// directory.
func (e *Engine) archive(ctx context.Context, dir string) (string, error) {
	tmp, err := afero.TempFile(e.fs, "", "filetask-*.zip")
	if err != nil {
		return "", err
	}
	err = ziputils.ZipSource(ctx, e.fs, dir, tmp, tmp.Name())
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = e.fs.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
