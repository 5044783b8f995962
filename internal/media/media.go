// Package media stores uploaded audio and image files and serves them back.
//
// An Uploader turns a file into a public URL. Two backends exist: a local
// directory and an HDFS namespace. Both name objects <uuid><ext> and serve
// them under the configured base URL, so the URLs stored on songs and albums
// do not depend on the backend.
package media

import (
	"context"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// File is one uploaded file.
type File struct {
	Name        string // original client file name, used for the extension
	Size        int64
	ContentType string
	Reader      io.ReadSeeker
}

// Uploader stores a file and returns the URL it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, f File) (string, error)
}

// Store is an Uploader that also serves what it stored.
type Store interface {
	Uploader
	Handler() http.Handler
	Close() error
}

// objectName derives a collision-free name that keeps the file extension.
func objectName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	return uuid.NewString() + ext
}

func joinURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name
}

// objectFromPath maps a request path to a stored object name. Only single
// object names are served: no directories, no dot files.
func objectFromPath(urlPath string) (string, bool) {
	name := path.Base(path.Clean("/" + urlPath))
	if name == "/" || name == "." || strings.HasPrefix(name, ".") {
		return "", false
	}
	return name, true
}
