package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BiswasSwagatam/Muzik/internal/apperror"
	"github.com/BiswasSwagatam/Muzik/internal/media"
	"github.com/BiswasSwagatam/Muzik/internal/model"
	"github.com/BiswasSwagatam/Muzik/internal/service"
)

// Catalog is the write side of the catalog.
type Catalog interface {
	CreateSong(ctx context.Context, in service.SongInput) (*model.Song, error)
	DeleteSong(ctx context.Context, id string) error
	CreateAlbum(ctx context.Context, in service.AlbumInput) (*model.Album, error)
	DeleteAlbum(ctx context.Context, id string) error
	Reconcile(ctx context.Context, repair bool) (*model.IntegrityReport, error)
}

// AdminHandler serves the admin-only catalog writes. Routes are mounted
// behind auth.RequireAuth and auth.RequireAdmin.
type AdminHandler struct {
	catalog      Catalog
	rs           Responder
	maxFileBytes int64
}

func NewAdminHandler(catalog Catalog, rs Responder, maxFileBytes int64) *AdminHandler {
	return &AdminHandler{catalog: catalog, rs: rs, maxFileBytes: maxFileBytes}
}

type songCreatedResponse struct {
	Message string      `json:"message"`
	Song    *model.Song `json:"song"`
}

type albumCreatedResponse struct {
	Message string       `json:"message"`
	Album   *model.Album `json:"album"`
}

// HandleCheck answers whether the caller is an admin. Reaching it means the
// admin guard passed.
//
// HTTP: GET /api/admin/check
func (h *AdminHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	h.rs.JSON(w, http.StatusOK, map[string]bool{"admin": true})
}

// HandleCreateSong creates a song from a multipart form.
//
// HTTP: POST /api/admin/songs
// FORM: title, artist, duration, albumId (optional), audioFile, imageFile
func (h *AdminHandler) HandleCreateSong(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer form.RemoveAll() //nolint:errcheck

	audio, err := h.formFile(form, "audioFile")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	image, err := h.formFile(form, "imageFile")
	if err != nil {
		closeFiles(audio)
		h.rs.Error(w, r, err)
		return
	}
	defer closeFiles(audio, image)

	// An unparsable duration becomes 0 and is rejected by the service after
	// the file check.
	duration, _ := strconv.Atoi(strings.TrimSpace(formValue(form, "duration")))

	song, err := h.catalog.CreateSong(r.Context(), service.SongInput{
		Title:    formValue(form, "title"),
		Artist:   formValue(form, "artist"),
		Duration: duration,
		AlbumID:  formValue(form, "albumId"),
		Audio:    audio.file(),
		Image:    image.file(),
	})
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusCreated, songCreatedResponse{Message: "Song created successfully", Song: song})
}

// HTTP: DELETE /api/admin/songs/{id}
func (h *AdminHandler) HandleDeleteSong(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteSong(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, MessageResponse{Message: "Song deleted successfully"})
}

// HandleCreateAlbum creates an empty album from a multipart form.
//
// HTTP: POST /api/admin/albums
// FORM: title, artist, releaseYear, imageFile
func (h *AdminHandler) HandleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer form.RemoveAll() //nolint:errcheck

	image, err := h.formFile(form, "imageFile")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	defer closeFiles(image)

	year, _ := strconv.Atoi(strings.TrimSpace(formValue(form, "releaseYear")))

	album, err := h.catalog.CreateAlbum(r.Context(), service.AlbumInput{
		Title:       formValue(form, "title"),
		Artist:      formValue(form, "artist"),
		ReleaseYear: year,
		Image:       image.file(),
	})
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusCreated, albumCreatedResponse{Message: "Album created successfully", Album: album})
}

// HandleDeleteAlbum deletes the album and every song that references it.
//
// HTTP: DELETE /api/admin/albums/{id}
func (h *AdminHandler) HandleDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteAlbum(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, MessageResponse{Message: "Album deleted successfully"})
}

// HTTP: GET /api/admin/integrity
func (h *AdminHandler) HandleIntegrity(w http.ResponseWriter, r *http.Request) {
	h.reconcile(w, r, false)
}

// HandleRepair fixes what it can. Failed repairs are logged; the report
// still goes out with 200 and shows what was repaired.
//
// HTTP: POST /api/admin/integrity/repair
func (h *AdminHandler) HandleRepair(w http.ResponseWriter, r *http.Request) {
	h.reconcile(w, r, true)
}

func (h *AdminHandler) reconcile(w http.ResponseWriter, r *http.Request, repair bool) {
	report, err := h.catalog.Reconcile(r.Context(), repair)
	if report == nil {
		h.rs.Error(w, r, err)
		return
	}
	if err != nil {
		h.rs.Logger.Error("integrity repair incomplete", slog.String("error", err.Error()))
	}
	h.rs.JSON(w, http.StatusOK, report)
}

// formOverhead leaves room for part headers, boundaries and text fields on
// top of the file payloads.
const formOverhead = 1 << 20

// parseForm caps the body at two files' worth plus form overhead and parses
// it. It writes the error response itself and reports whether the caller may
// continue. Per-file limits are enforced by formFile.
func (h *AdminHandler) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxFileBytes+formOverhead)
	if err := r.ParseMultipartForm(h.maxFileBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.rs.JSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error:   "payload_too_large",
				Message: fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit),
			})
			return nil, false
		}
		h.rs.Error(w, r, apperror.ValidationFailed("body", "expected a multipart form"))
		return nil, false
	}
	return r.MultipartForm, true
}

// upload is an opened form file. The zero value means "not sent".
type upload struct {
	f      multipart.File
	header *multipart.FileHeader
}

// formFile opens the named file field. A missing field is not an error here;
// the service decides which files are required.
func (h *AdminHandler) formFile(form *multipart.Form, field string) (upload, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return upload{}, nil
	}
	fh := headers[0]
	if fh.Size > h.maxFileBytes {
		return upload{}, apperror.ValidationFailed(field,
			fmt.Sprintf("%s exceeds %d bytes", field, h.maxFileBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return upload{}, fmt.Errorf("opening %s: %w", field, err)
	}
	return upload{f: f, header: fh}, nil
}

func (u upload) file() *media.File {
	if u.f == nil {
		return nil
	}
	return &media.File{
		Name:        u.header.Filename,
		Size:        u.header.Size,
		ContentType: u.header.Header.Get("Content-Type"),
		Reader:      u.f,
	}
}

func closeFiles(uploads ...upload) {
	for _, u := range uploads {
		if u.f != nil {
			u.f.Close()
		}
	}
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
