package transfer

import (
	"context"
	"errors"
	"io"
	"net/textproto"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

const ftpDialTimeout = 5 * time.Second

// FTPTransfer dials a fresh control connection per upload so a retry after a
// dropped connection does not reuse a dead one.
type FTPTransfer struct {
	cfg FTPConfig
}

func NewFTPTransfer(cfg FTPConfig) *FTPTransfer {
	return &FTPTransfer{cfg: cfg}
}

func (t *FTPTransfer) Name() string {
	return "ftp://" + path.Join(t.cfg.Addr, t.cfg.SubDir)
}

func (t *FTPTransfer) dial(ctx context.Context) (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(t.cfg.Addr, ftp.DialWithTimeout(ftpDialTimeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, err
	}
	if err = conn.Login(t.cfg.User, t.cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, err
	}
	return conn, nil
}

func (t *FTPTransfer) Upload(ctx context.Context, r io.Reader, _ int64, remoteFile string) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit()

	remoteFile = path.Join(t.cfg.SubDir, remoteFile)
	err = conn.Stor(remoteFile, r)
	if isFileUnavailable(err) {
		// The parent directory is missing: create it element by element and
		// try once more. MakeDir fails for directories that already exist.
		elements := strings.Split(remoteFile, "/")
		for i := 1; i < len(elements); i++ {
			remoteDir := path.Join(elements[:i]...)
			if remoteDir == "" {
				continue
			}
			_ = conn.MakeDir(remoteDir)
		}
		if seeker, ok := r.(io.Seeker); ok {
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return err
			}
		}
		err = conn.Stor(remoteFile, r)
	}
	return err
}

func (t *FTPTransfer) Close() error {
	return nil
}

func isFileUnavailable(err error) bool {
	var protoErr *textproto.Error
	return errors.As(err, &protoErr) && protoErr.Code == ftp.StatusFileUnavailable
}
