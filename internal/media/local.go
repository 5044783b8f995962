package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

var _ Store = (*LocalStore)(nil)

// LocalStore keeps files in a directory on disk.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: creating %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, baseURL: baseURL}, nil
}

func (s *LocalStore) Upload(ctx context.Context, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := objectName(f.Name)
	path := filepath.Join(s.dir, name)

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("media: creating %s: %w", name, err)
	}
	written, err := io.Copy(out, f.Reader)
	if err == nil {
		err = out.Close()
	} else {
		out.Close()
	}
	if err == nil && f.Size > 0 && written != f.Size {
		err = fmt.Errorf("size mismatch: expected %d, got %d", f.Size, written)
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("media: writing %s: %w", name, err)
	}
	return joinURL(s.baseURL, name), nil
}

// Handler serves stored objects by name, with range support. Directories
// are never listed.
func (s *LocalStore) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := objectFromPath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}

		f, err := os.Open(filepath.Join(s.dir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "media unavailable", http.StatusInternalServerError)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || !info.Mode().IsRegular() {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, name, info.ModTime(), f)
	})
}

func (s *LocalStore) Close() error { return nil }
