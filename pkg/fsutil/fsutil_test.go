package fsutil

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDir(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/a/b", 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/a/f.txt", []byte("x"), 0o644))

	ok, err := IsDir(fsys, "/a/b")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsDir(fsys, "/a/f.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = IsDir(fsys, "/missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadable(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/f.txt", []byte("abc"), 0o644))

	info, err := Readable(fsys, "/f.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())

	_, err = Readable(fsys, "/missing")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestCheckError(t *testing.T) {
	assert.NotPanics(t, func() { CheckError(nil) })
	assert.Panics(t, func() { CheckError(errors.New("boom")) })
}
