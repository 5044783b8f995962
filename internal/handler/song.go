package handler

import (
	"context"
	"net/http"

	"github.com/BiswasSwagatam/Muzik/internal/model"
)

// SongLister is the read side of the catalog used by the song rows.
type SongLister interface {
	ListSongs(ctx context.Context) ([]model.Song, error)
	FeaturedSongs(ctx context.Context) ([]model.Song, error)
	MadeForYouSongs(ctx context.Context) ([]model.Song, error)
	TrendingSongs(ctx context.Context) ([]model.Song, error)
}

type SongHandler struct {
	songs SongLister
	rs    Responder
}

func NewSongHandler(songs SongLister, rs Responder) *SongHandler {
	return &SongHandler{songs: songs, rs: rs}
}

// HandleList returns every song, newest first. Admin only.
//
// HTTP: GET /api/songs
func (h *SongHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.songs.ListSongs)
}

// HTTP: GET /api/songs/featured
func (h *SongHandler) HandleFeatured(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.songs.FeaturedSongs)
}

// HTTP: GET /api/songs/made-for-you
func (h *SongHandler) HandleMadeForYou(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.songs.MadeForYouSongs)
}

// HTTP: GET /api/songs/trending
func (h *SongHandler) HandleTrending(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.songs.TrendingSongs)
}

func (h *SongHandler) serve(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]model.Song, error)) {
	songs, err := fetch(r.Context())
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, songs)
}
