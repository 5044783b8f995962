package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BiswasSwagatam/Muzik/internal/model"
)

type AlbumReader interface {
	ListAlbums(ctx context.Context) ([]model.Album, error)
	GetAlbum(ctx context.Context, id string) (*model.AlbumDetail, error)
}

type AlbumHandler struct {
	albums AlbumReader
	rs     Responder
}

func NewAlbumHandler(albums AlbumReader, rs Responder) *AlbumHandler {
	return &AlbumHandler{albums: albums, rs: rs}
}

// HTTP: GET /api/albums
func (h *AlbumHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	albums, err := h.albums.ListAlbums(r.Context())
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, albums)
}

// HandleGet returns the album with its songs resolved, in tracklist order.
//
// HTTP: GET /api/albums/{id}
func (h *AlbumHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	album, err := h.albums.GetAlbum(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, album)
}
