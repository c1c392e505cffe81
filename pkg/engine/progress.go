package engine

import (
	"context"
	"errors"
	"io"

	"github.com/chenjianlong/filetask/pkg/task"
)

// progressReader counts bytes into the task and stops reading once the
// task context ends.
type progressReader struct {
	ctx context.Context
	r   io.ReadSeeker
	t   *task.Task
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	p.t.AddProgress(int64(n))
	return n, err
}

func (p *progressReader) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekStart {
		return 0, errors.New("progress reader only seeks from start")
	}
	pos, err := p.r.Seek(offset, whence)
	if err == nil {
		_, total := p.t.Progress()
		p.t.SetTotal(total)
		p.t.AddProgress(pos)
	}
	return pos, err
}
