package client

import (
	"context"

	"github.com/BiswasSwagatam/Muzik/internal/model"
)

// MusicAPI is what MusicStore fetches from. *Client implements it.
type MusicAPI interface {
	Albums(ctx context.Context) ([]model.Album, error)
	Album(ctx context.Context, id string) (*model.AlbumDetail, error)
	FeaturedSongs(ctx context.Context) ([]model.Song, error)
	MadeForYouSongs(ctx context.Context) ([]model.Song, error)
	TrendingSongs(ctx context.Context) ([]model.Song, error)
}

type MusicState struct {
	Status
	Albums       []model.Album
	CurrentAlbum *model.AlbumDetail
	Featured     []model.Song
	MadeForYou   []model.Song
	Trending     []model.Song
}

// MusicStore caches the catalog views of the home and album pages.
// Create one per session; it is safe for concurrent use.
type MusicStore struct {
	api MusicAPI
	st  store[MusicState]
}

func NewMusicStore(api MusicAPI) *MusicStore {
	return &MusicStore{api: api}
}

func (m *MusicStore) Snapshot() MusicState {
	return m.st.snapshot()
}

// Subscribe calls fn with the new state after every change.
func (m *MusicStore) Subscribe(fn func(MusicState)) (cancel func()) {
	return m.st.subscribe(fn)
}

func musicStatus(s *MusicState) *Status { return &s.Status }

func (m *MusicStore) FetchAlbums(ctx context.Context) error {
	return fetch(ctx, &m.st, musicStatus, m.api.Albums, func(s *MusicState, v []model.Album) {
		s.Albums = v
	})
}

func (m *MusicStore) FetchAlbumByID(ctx context.Context, id string) error {
	get := func(ctx context.Context) (*model.AlbumDetail, error) { return m.api.Album(ctx, id) }
	return fetch(ctx, &m.st, musicStatus, get, func(s *MusicState, v *model.AlbumDetail) {
		s.CurrentAlbum = v
	})
}

func (m *MusicStore) FetchFeaturedSongs(ctx context.Context) error {
	return fetch(ctx, &m.st, musicStatus, m.api.FeaturedSongs, func(s *MusicState, v []model.Song) {
		s.Featured = v
	})
}

func (m *MusicStore) FetchMadeForYouSongs(ctx context.Context) error {
	return fetch(ctx, &m.st, musicStatus, m.api.MadeForYouSongs, func(s *MusicState, v []model.Song) {
		s.MadeForYou = v
	})
}

func (m *MusicStore) FetchTrendingSongs(ctx context.Context) error {
	return fetch(ctx, &m.st, musicStatus, m.api.TrendingSongs, func(s *MusicState, v []model.Song) {
		s.Trending = v
	})
}

// Invalidate drops all cached data, for example after an admin write.
func (m *MusicStore) Invalidate() {
	m.st.update(func(s *MusicState) {
		*s = MusicState{}
	})
}
