package transfer

import (
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Transfer struct {
	client     *minio.Client
	bucketName string
	prefix     string
}

func NewS3Transfer(cfg S3Config) (*S3Transfer, error) {
	s3Client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, err
	}

	transfer := new(S3Transfer)
	transfer.client = s3Client
	transfer.bucketName = cfg.BucketName
	transfer.prefix = cfg.Prefix
	return transfer, nil
}

func (t *S3Transfer) Name() string {
	return "s3://" + path.Join(t.bucketName, t.prefix)
}

func (t *S3Transfer) Upload(ctx context.Context, r io.Reader, size int64, remoteFile string) error {
	objectName := path.Join(t.prefix, remoteFile)
	_, err := t.client.PutObject(ctx, t.bucketName, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType(remoteFile),
	})
	return err
}

func (t *S3Transfer) Close() error {
	return nil
}
