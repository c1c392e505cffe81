package ziputils

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ZipSource writes every regular file under source into a zip archive on w.
// Entry names are relative to source and use forward slashes. Paths listed in
// skip are left out, which keeps an archive written inside source from
// reading itself. It stops with ctx.Err() once ctx ends.
func ZipSource(ctx context.Context, fs afero.Fs, source string, w io.Writer, skip ...string) (err error) {
	zw := zip.NewWriter(w)
	defer func() {
		if closeErr := zw.Close(); err == nil {
			err = closeErr
		}
	}()

	return afero.Walk(fs, source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		for _, p := range skip {
			if filepath.Clean(p) == filepath.Clean(path) {
				return nil
			}
		}

		if info.Mode().IsRegular() {
			return addFileToZip(ctx, fs, zw, path, source, info)
		}

		return nil
	})
}

func addFileToZip(ctx context.Context, fs afero.Fs, zipWriter *zip.Writer, filename, dirname string, info os.FileInfo) error {
	fileToZip, err := fs.Open(filename)
	if err != nil {
		return err
	}
	defer fileToZip.Close()

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	// FileInfoHeader only keeps the base name; keep the folder structure.
	if len(dirname) < len(filename) && strings.HasPrefix(filename, dirname) {
		name := strings.TrimPrefix(filename[len(dirname):], string(filepath.Separator))
		header.Name = filepath.ToSlash(name)
	} else {
		header.Name = filepath.Base(filename)
	}
	header.Method = zip.Deflate

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, &ctxReader{ctx: ctx, r: fileToZip})
	return err
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
