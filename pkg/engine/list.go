package engine

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/chenjianlong/filetask/pkg/i18n"
	"github.com/chenjianlong/filetask/pkg/task"
)

func (e *Engine) list(ctx context.Context, t *task.Task) task.Result {
	dir := absPath(t.Path)
	e.logger.Info(i18n.Message("ListDir", map[string]interface{}{"Path": dir}), "task", t.ID)
	t.BeginAttempt()

	info, err := e.fs.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return task.Failure(t.ID, task.Errorf(task.NotFound, "not found"))
		}
		return task.Failure(t.ID, task.Wrap(task.NotFound, "cannot access path", err))
	}
	if !info.IsDir() {
		return task.Failure(t.ID, task.Errorf(task.InvalidArgument, "not a directory"))
	}

	entries, err := afero.ReadDir(e.fs, dir)
	if err != nil {
		return task.Failure(t.ID, task.Wrap(task.NotFound, "cannot read directory", err))
	}
	if err := ctx.Err(); err != nil {
		return contextFailure(t, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return task.FileList(t.ID, files)
}
