package transfer

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalTransfer stores uploads under a directory of an afero filesystem.
type LocalTransfer struct {
	fs  afero.Fs
	dir string
}

func NewLocalTransfer(fs afero.Fs, dir string) *LocalTransfer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "filetask")
	}
	return &LocalTransfer{fs: fs, dir: dir}
}

func (t *LocalTransfer) Name() string {
	return "file://" + t.dir
}

func (t *LocalTransfer) Upload(ctx context.Context, r io.Reader, _ int64, remoteFile string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := filepath.Join(t.dir, filepath.FromSlash(remoteFile))
	if err := t.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	tmp, err := afero.TempFile(t.fs, filepath.Dir(target), ".upload-*")
	if err != nil {
		return err
	}
	_, err = io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = t.fs.Remove(tmp.Name())
		return err
	}
	return t.fs.Rename(tmp.Name(), target)
}

func (t *LocalTransfer) Close() error {
	return nil
}
