package transfer

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"

	"github.com/spf13/afero"
)

type Uploader interface {
	// Upload stores size bytes read from r under remoteFile. r is read from
	// its current position; implementations that retry internally seek it.
	Upload(ctx context.Context, r io.Reader, size int64, remoteFile string) error
}

type Transfer interface {
	Uploader
	Name() string
	Close() error
}

type Kind string

const (
	KindLocal Kind = "local"
	KindS3    Kind = "s3"
	KindFTP   Kind = "ftp"
)

type S3Config struct {
	Endpoint        string
	BucketName      string
	AccessKeyID     string
	SecretAccessKey string
	Secure          bool
	Prefix          string
}

type FTPConfig struct {
	Addr     string
	User     string
	Password string
	SubDir   string
}

type LocalConfig struct {
	Dir string
}

type Config struct {
	Kind  Kind
	S3    S3Config
	FTP   FTPConfig
	Local LocalConfig
}

// New builds the backend selected by cfg. fs is only used by the local backend.
func New(cfg Config, fs afero.Fs) (Transfer, error) {
	switch cfg.Kind {
	case KindS3:
		return NewS3Transfer(cfg.S3)
	case KindFTP:
		return NewFTPTransfer(cfg.FTP), nil
	case KindLocal, "":
		return NewLocalTransfer(fs, cfg.Local.Dir), nil
	}
	return nil, fmt.Errorf("unknown transfer backend %q", cfg.Kind)
}

func contentType(remoteFile string) string {
	ext := path.Ext(remoteFile)
	if ext == ".zip" {
		return "application/zip"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
