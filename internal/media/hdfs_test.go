package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFS is an in-memory objectFS.
type memFS struct {
	files    map[string][]byte
	dirs     []string
	failCopy bool
}

func newMemFS() *memFS {
	return &memFS{files: map[string][]byte{}}
}

func (m *memFS) MkdirAll(dir string, _ os.FileMode) error {
	m.dirs = append(m.dirs, dir)
	return nil
}

func (m *memFS) Create(name string) (io.WriteCloser, error) {
	return &memWriter{fs: m, name: name}, nil
}

func (m *memFS) Open(name string) (readSeekCloser, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	return &memFile{Reader: bytes.NewReader(data), name: path.Base(name), size: int64(len(data))}, nil
}

func (m *memFS) Remove(name string) error {
	delete(m.files, name)
	return nil
}

func (m *memFS) Close() error { return nil }

type memWriter struct {
	fs   *memFS
	name string
	buf  bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) {
	if w.fs.failCopy {
		return 0, errors.New("datanode unreachable")
	}
	return w.buf.Write(p)
}

func (w *memWriter) Close() error {
	w.fs.files[w.name] = w.buf.Bytes()
	return nil
}

type memFile struct {
	*bytes.Reader
	name string
	size int64
}

func (f *memFile) Close() error { return nil }

func (f *memFile) Stat() os.FileInfo { return memInfo{name: f.name, size: f.size} }

type memInfo struct {
	name string
	size int64
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) Mode() os.FileMode  { return 0o644 }
func (i memInfo) ModTime() time.Time { return time.Unix(0, 0) }
func (i memInfo) IsDir() bool        { return false }
func (i memInfo) Sys() any           { return nil }

func TestHDFSStore_UploadAndServe(t *testing.T) {
	mfs := newMemFS()
	store, err := newHDFSStore(mfs, "/muzik/media", "http://cdn.local/media")
	require.NoError(t, err)
	assert.Equal(t, []string{"/muzik/media"}, mfs.dirs)

	url, err := store.Upload(context.Background(), File{
		Name:   "cover.jpg",
		Size:   5,
		Reader: strings.NewReader("image"),
	})
	require.NoError(t, err)

	name := path.Base(url)
	assert.Equal(t, "http://cdn.local/media/"+name, url)
	assert.Equal(t, "image", string(mfs.files["/muzik/media/"+name]))

	rec := httptest.NewRecorder()
	store.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+name, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image", rec.Body.String())
}

func TestHDFSStore_ServeMissing(t *testing.T) {
	store, err := newHDFSStore(newMemFS(), "/m", "/media")
	require.NoError(t, err)

	for _, p := range []string{"/nope.mp3", "/", "/../etc/passwd"} {
		rec := httptest.NewRecorder()
		store.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, p)
	}
}

func TestHDFSStore_SizeMismatchRemovesObject(t *testing.T) {
	mfs := newMemFS()
	store, err := newHDFSStore(mfs, "/m", "/media")
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), File{Name: "a.mp3", Size: 99, Reader: strings.NewReader("short")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "size mismatch")
	assert.Empty(t, mfs.files)
}

func TestHDFSStore_WriteFailureRemovesObject(t *testing.T) {
	mfs := newMemFS()
	mfs.failCopy = true
	store, err := newHDFSStore(mfs, "/m", "/media")
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), File{Name: "a.mp3", Reader: strings.NewReader("data")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "datanode unreachable")
	assert.Empty(t, mfs.files)
}
