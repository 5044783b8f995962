package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"

	"github.com/colinmarc/hdfs/v2"
)

var _ Store = (*HDFSStore)(nil)

// objectFS is the slice of the HDFS client the store uses.
type objectFS interface {
	MkdirAll(dir string, perm os.FileMode) error
	Create(name string) (io.WriteCloser, error)
	Open(name string) (readSeekCloser, error)
	Remove(name string) error
	Close() error
}

type readSeekCloser interface {
	io.ReadSeekCloser
	Stat() os.FileInfo
}

// HDFSStore keeps files under a directory of an HDFS namespace.
type HDFSStore struct {
	fs      objectFS
	dir     string
	baseURL string
}

// NewHDFSStore connects to the namenode and ensures dir exists.
func NewHDFSStore(namenode, dir, baseURL string) (*HDFSStore, error) {
	client, err := hdfs.New(namenode)
	if err != nil {
		return nil, fmt.Errorf("media: connecting to HDFS namenode %s: %w", namenode, err)
	}
	s, err := newHDFSStore(hdfsClient{client}, dir, baseURL)
	if err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

func newHDFSStore(fs objectFS, dir, baseURL string) (*HDFSStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil && !os.IsExist(err) {
		return nil, fmt.Errorf("media: creating HDFS dir %s: %w", dir, err)
	}
	return &HDFSStore{fs: fs, dir: dir, baseURL: baseURL}, nil
}

func (s *HDFSStore) Upload(ctx context.Context, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := objectName(f.Name)
	p := path.Join(s.dir, name)

	w, err := s.fs.Create(p)
	if err != nil {
		return "", fmt.Errorf("media: creating %s in HDFS: %w", name, err)
	}
	written, err := io.Copy(w, f.Reader)
	if err == nil {
		err = w.Close()
	} else {
		w.Close()
	}
	if err == nil && f.Size > 0 && written != f.Size {
		err = fmt.Errorf("size mismatch: expected %d, got %d", f.Size, written)
	}
	if err != nil {
		s.fs.Remove(p)
		return "", fmt.Errorf("media: writing %s to HDFS: %w", name, err)
	}
	return joinURL(s.baseURL, name), nil
}

// Handler serves stored objects by name, with range support.
func (s *HDFSStore) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := objectFromPath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}

		f, err := s.fs.Open(path.Join(s.dir, name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "media unavailable", http.StatusBadGateway)
			return
		}
		defer f.Close()

		http.ServeContent(w, r, name, f.Stat().ModTime(), f)
	})
}

func (s *HDFSStore) Close() error {
	return s.fs.Close()
}

// hdfsClient adapts *hdfs.Client to objectFS.
type hdfsClient struct {
	c *hdfs.Client
}

func (h hdfsClient) MkdirAll(dir string, perm os.FileMode) error { return h.c.MkdirAll(dir, perm) }
func (h hdfsClient) Remove(name string) error                    { return h.c.Remove(name) }
func (h hdfsClient) Close() error                                { return h.c.Close() }

func (h hdfsClient) Create(name string) (io.WriteCloser, error) {
	w, err := h.c.Create(name)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (h hdfsClient) Open(name string) (readSeekCloser, error) {
	f, err := h.c.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}
