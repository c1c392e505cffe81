package fsutil

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

// IsDir reports whether path exists and is a directory. A missing path is not
// an error.
func IsDir(fsys afero.Fs, path string) (bool, error) {
	st, err := fsys.Stat(path)
	if err == nil {
		return st.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Readable opens path to prove it exists and can be read, and returns its
// info.
func Readable(fsys afero.Fs, path string) (os.FileInfo, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Stat()
}

func CheckError(err error) {
	if err != nil {
		panic(err)
	}
}
